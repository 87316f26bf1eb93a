package gate

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/GateproofHQ/gateproof"
	"github.com/GateproofHQ/gateproof/lib/challenge"
	"github.com/GateproofHQ/gateproof/lib/issuer"
	"github.com/GateproofHQ/gateproof/lib/pow"
	"github.com/GateproofHQ/gateproof/lib/store/memory"
)

func testServer(t *testing.T) (*Server, ed25519.PublicKey) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	iss, err := issuer.New(issuer.Options{
		PrivateKey: priv,
		WebsiteID:  "example.com",
		Difficulty: 1,
		TTL:        time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}

	s, err := New(Options{
		Issuer:     iss,
		PrivateKey: priv,
		Store:      memory.New(t.Context()),
	})
	if err != nil {
		t.Fatal(err)
	}

	return s, pub
}

func fetchChallenge(t *testing.T, s *Server) challenge.Challenge {
	t.Helper()

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/challenge", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET /challenge returned status %d", w.Code)
	}

	encoded := w.Header().Get(gateproof.ChallengeHeader)
	if encoded == "" {
		t.Fatal("GET /challenge did not set the challenge header")
	}

	fromHeader, err := challenge.DecodeChallengeHeader(encoded)
	if err != nil {
		t.Fatal(err)
	}

	var fromBody challenge.Challenge
	if err := json.NewDecoder(w.Body).Decode(&fromBody); err != nil {
		t.Fatal(err)
	}

	if fromHeader != fromBody {
		t.Error("header and body disagree about the issued challenge")
	}

	if !issuer.VerifySignature(fromHeader) {
		t.Error("issued challenge signature does not verify")
	}

	return fromHeader
}

func redeem(t *testing.T, s *Server, resp challenge.Response) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/redeem", nil)
	req.Header.Set(gateproof.ResponseHeader, resp.EncodeHeader())

	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestIssueSolveRedeem(t *testing.T) {
	s, pub := testServer(t)
	c := fetchChallenge(t, s)

	resp, err := pow.Solve(t.Context(), c, pow.Config{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}

	w := redeem(t, s, resp)
	if w.Code != http.StatusOK {
		t.Fatalf("redeem returned status %d: %s", w.Code, w.Body.String())
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	token, err := jwt.Parse(body["token"], func(token *jwt.Token) (interface{}, error) {
		return pub, nil
	}, jwt.WithExpirationRequired(), jwt.WithStrictDecoding())
	if err != nil || !token.Valid {
		t.Fatalf("pass token does not verify: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("pass token has no map claims")
	}
	if claims["sub"] != "example.com" {
		t.Errorf("wrong subject in pass token: %v", claims["sub"])
	}
}

func TestRedeemRejectsReplay(t *testing.T) {
	s, _ := testServer(t)
	c := fetchChallenge(t, s)

	resp, err := pow.Solve(t.Context(), c, pow.Config{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}

	if w := redeem(t, s, resp); w.Code != http.StatusOK {
		t.Fatalf("first redeem returned status %d", w.Code)
	}

	if w := redeem(t, s, resp); w.Code != http.StatusForbidden {
		t.Errorf("second redeem of the same solution returned status %d, wanted %d", w.Code, http.StatusForbidden)
	}
}

func TestRedeemRejectsUnknownChallenge(t *testing.T) {
	s, _ := testServer(t)

	var resp challenge.Response
	resp.Solution = 42
	for i := range resp.ChallengeSignature {
		resp.ChallengeSignature[i] = byte(i)
	}

	if w := redeem(t, s, resp); w.Code != http.StatusForbidden {
		t.Errorf("redeem of an unknown challenge returned status %d, wanted %d", w.Code, http.StatusForbidden)
	}
}

func TestRedeemRejectsWrongSolution(t *testing.T) {
	hardTest := func(_ challenge.Param, candidate int64) bool {
		return candidate == 1337
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	iss, err := issuer.New(issuer.Options{PrivateKey: priv, TTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}

	s, err := New(Options{
		Issuer:     iss,
		PrivateKey: priv,
		Store:      memory.New(t.Context()),
		Test:       hardTest,
	})
	if err != nil {
		t.Fatal(err)
	}

	c := fetchChallenge(t, s)

	if w := redeem(t, s, challenge.NewResponse(c, 42)); w.Code != http.StatusForbidden {
		t.Errorf("redeem of a wrong solution returned status %d, wanted %d", w.Code, http.StatusForbidden)
	}

	if w := redeem(t, s, challenge.NewResponse(c, 1337)); w.Code != http.StatusOK {
		t.Errorf("redeem of the right solution returned status %d, wanted %d", w.Code, http.StatusOK)
	}
}

func TestRedeemRejectsMalformed(t *testing.T) {
	s, _ := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/redeem", strings.NewReader("{"))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed redeem returned status %d, wanted %d", w.Code, http.StatusBadRequest)
	}
}
