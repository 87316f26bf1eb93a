// Package gate is the server side of the gateproof protocol: it issues
// signed challenges, redeems solved responses exactly once, and mints a
// pass token for clients that did the work.
package gate

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/GateproofHQ/gateproof"
	"github.com/GateproofHQ/gateproof/internal"
	"github.com/GateproofHQ/gateproof/lib/challenge"
	"github.com/GateproofHQ/gateproof/lib/issuer"
	"github.com/GateproofHQ/gateproof/lib/pow"
	"github.com/GateproofHQ/gateproof/lib/store"
)

// Options configures a Server.
type Options struct {
	// Issuer mints the challenges this server hands out.
	Issuer *issuer.Issuer

	// PrivateKey signs pass tokens. Usually the same key the issuer uses.
	PrivateKey ed25519.PrivateKey

	// Store remembers issued challenges and redeemed solutions.
	Store store.Interface

	// ChallengeTTL is how long issued challenge records are kept.
	// Defaults to gateproof.ChallengeDefaultTTL.
	ChallengeTTL time.Duration

	// PassTTL is the pass token lifetime. Redemption markers live at
	// least this long so a solution cannot be replayed while its pass is
	// still valid. Defaults to gateproof.PassDefaultTTL.
	PassTTL time.Duration

	// Test overrides the difficulty predicate. Nil means the default
	// SHA-256 threshold test.
	Test pow.Test
}

type redemptionMarker struct {
	Solution   int64 `json:"solution"`
	RedeemedAt int64 `json:"redeemed_at"`
}

// Server issues and redeems challenges over HTTP.
type Server struct {
	mux        *http.ServeMux
	opts       Options
	challenges *store.JSON[challenge.Challenge]
	redeemed   *store.JSON[redemptionMarker]
}

func New(opts Options) (*Server, error) {
	if opts.Issuer == nil {
		return nil, errors.New("gate: Options.Issuer is required")
	}
	if opts.Store == nil {
		return nil, errors.New("gate: Options.Store is required")
	}
	if len(opts.PrivateKey) != ed25519.PrivateKeySize {
		return nil, errors.New("gate: Options.PrivateKey must be an ed25519 private key")
	}
	if opts.ChallengeTTL == 0 {
		opts.ChallengeTTL = gateproof.ChallengeDefaultTTL
	}
	if opts.PassTTL == 0 {
		opts.PassTTL = gateproof.PassDefaultTTL
	}

	s := &Server{
		mux:  http.NewServeMux(),
		opts: opts,
		challenges: &store.JSON[challenge.Challenge]{
			Underlying: opts.Store,
			Prefix:     "challenge:",
		},
		redeemed: &store.JSON[redemptionMarker]{
			Underlying: opts.Store,
			Prefix:     "redeemed:",
		},
	}

	s.mux.HandleFunc("GET /challenge", s.issueChallenge)
	s.mux.HandleFunc("POST /redeem", s.redeemResponse)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// challengeKey is the store key for a challenge, derived from its
// signature: the signature is what a response carries, so redemption can
// look the challenge back up.
func challengeKey(sig challenge.Signature) string {
	return internal.FastHash(sig.Hex())
}

func (s *Server) issueChallenge(w http.ResponseWriter, r *http.Request) {
	lg := slog.With("path", r.URL.Path, "user_agent", r.UserAgent())

	c, err := s.opts.Issuer.Issue()
	if err != nil {
		lg.Error("can't issue challenge", "err", err)
		http.Error(w, "can't issue challenge", http.StatusInternalServerError)
		return
	}

	if err := s.challenges.Set(r.Context(), challengeKey(c.ChallengeSignature), c, s.opts.ChallengeTTL); err != nil {
		lg.Error("can't persist challenge", "err", err)
		http.Error(w, "can't issue challenge", http.StatusInternalServerError)
		return
	}

	challengesIssued.Inc()
	lg.Debug("challenge issued", "websiteId", c.WebsiteID, "expires", c.ExpirationTime)

	w.Header().Set(gateproof.ChallengeHeader, c.EncodeHeader())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

// readResponse pulls a Response out of the request, preferring the compact
// header form and falling back to a JSON body.
func readResponse(r *http.Request) (challenge.Response, error) {
	if encoded := r.Header.Get(gateproof.ResponseHeader); encoded != "" {
		return challenge.DecodeResponseHeader(encoded)
	}

	var resp challenge.Response
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		return challenge.Response{}, fmt.Errorf("%w: body: %v", challenge.ErrMalformedField, err)
	}
	return resp, nil
}

func (s *Server) redeemResponse(w http.ResponseWriter, r *http.Request) {
	lg := slog.With("path", r.URL.Path, "user_agent", r.UserAgent())

	resp, err := readResponse(r)
	if err != nil {
		redemptions.WithLabelValues("malformed").Inc()
		lg.Debug("malformed response", "err", err)
		http.Error(w, "malformed response", http.StatusBadRequest)
		return
	}

	key := challengeKey(resp.ChallengeSignature)

	c, err := s.challenges.Get(r.Context(), key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		redemptions.WithLabelValues("unknown").Inc()
		lg.Debug("challenge unknown or expired")
		http.Error(w, "challenge unknown or expired", http.StatusForbidden)
		return
	case err != nil:
		lg.Error("can't load challenge", "err", err)
		http.Error(w, "can't redeem response", http.StatusInternalServerError)
		return
	}

	if _, err := s.redeemed.Get(r.Context(), key); err == nil {
		redemptions.WithLabelValues("replayed").Inc()
		lg.Debug("solution already redeemed", "solution", resp.Solution)
		http.Error(w, "solution already redeemed", http.StatusForbidden)
		return
	}

	if !pow.Verify(resp, c, s.opts.Test) {
		redemptions.WithLabelValues("invalid").Inc()
		lg.Debug("response failed verification", "solution", resp.Solution)
		http.Error(w, "invalid solution", http.StatusForbidden)
		return
	}

	marker := redemptionMarker{
		Solution:   resp.Solution,
		RedeemedAt: time.Now().Unix(),
	}
	if err := s.redeemed.Set(r.Context(), key, marker, s.opts.PassTTL); err != nil {
		lg.Error("can't persist redemption", "err", err)
		http.Error(w, "can't redeem response", http.StatusInternalServerError)
		return
	}

	// The challenge record has served its purpose; dropping it keeps the
	// store small. Failure here is harmless, the record expires anyway.
	if err := s.challenges.Delete(r.Context(), key); err != nil {
		lg.Debug("can't drop redeemed challenge", "err", err)
	}

	token, err := s.signPass(c, resp)
	if err != nil {
		lg.Error("failed to sign pass token", "err", err)
		http.Error(w, "can't redeem response", http.StatusInternalServerError)
		return
	}

	redemptions.WithLabelValues("redeemed").Inc()
	lg.Debug("response redeemed", "solution", resp.Solution)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func (s *Server) signPass(c challenge.Challenge, resp challenge.Response) (string, error) {
	now := time.Now()

	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{
		"sub":      c.WebsiteID,
		"nonce":    c.RandomNonce,
		"solution": resp.Solution,
		"iat":      now.Unix(),
		"nbf":      now.Add(-1 * time.Minute).Unix(),
		"exp":      now.Add(s.opts.PassTTL).Unix(),
	}).SignedString(s.opts.PrivateKey)
}
