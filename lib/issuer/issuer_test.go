package issuer

import (
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/GateproofHQ/gateproof/lib/challenge"
)

func TestIssueAndVerifySignature(t *testing.T) {
	iss, err := New(Options{WebsiteID: "example.com", Difficulty: 4, TTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}

	c, err := iss.Issue()
	if err != nil {
		t.Fatal(err)
	}

	if c.WebsiteID != "example.com" {
		t.Errorf("wrong website id: %q", c.WebsiteID)
	}
	if c.RandomNonce == "" {
		t.Error("challenge has no random nonce")
	}
	if c.PublicKey != iss.PublicKey() {
		t.Error("challenge does not embed the issuer's public key")
	}
	if c.Expired() {
		t.Error("freshly issued challenge is already expired")
	}

	if !VerifySignature(c) {
		t.Error("freshly issued challenge does not verify")
	}

	c.WebsiteID = "evil.example.com"
	if VerifySignature(c) {
		t.Error("challenge with a tampered field still verifies")
	}
}

func TestIssueUniqueNonces(t *testing.T) {
	iss, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}

	a, err := iss.Issue()
	if err != nil {
		t.Fatal(err)
	}
	b, err := iss.Issue()
	if err != nil {
		t.Fatal(err)
	}

	if a.RandomNonce == b.RandomNonce {
		t.Error("two issuances share a random nonce")
	}
}

func TestKeyFromHex(t *testing.T) {
	for _, tt := range []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "ok", in: "9bf89db2deeb1a4b4c60bc9eb9d0d019f189a7c4d2e1edf04d4aeca7c7e75aaf", wantErr: false},
		{name: "short", in: "abcd", wantErr: true},
		{name: "not-hex", in: "not hex at all, sorry about that, bye!", wantErr: true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			key, err := KeyFromHex(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("KeyFromHex error = %v, wantErr %v", err, tt.wantErr)
			}

			if err == nil && len(key) != ed25519.PrivateKeySize {
				t.Errorf("wrong key length: %d", len(key))
			}
		})
	}
}

func TestParamForDifficulty(t *testing.T) {
	if _, err := ParamForDifficulty(0); !errors.Is(err, ErrBadDifficulty) {
		t.Errorf("wanted ErrBadDifficulty, got: %v", err)
	}

	one, err := ParamForDifficulty(1)
	if err != nil {
		t.Fatal(err)
	}
	for i := range one {
		if one[i] != 0xff {
			t.Fatalf("difficulty 1 threshold should be all ones, byte %d is %#x", i, one[i])
		}
	}

	easy, err := ParamForDifficulty(2)
	if err != nil {
		t.Fatal(err)
	}
	hard, err := ParamForDifficulty(1 << 20)
	if err != nil {
		t.Fatal(err)
	}

	cmp := func(a, b challenge.Param) int {
		for i := range a {
			if a[i] != b[i] {
				if a[i] < b[i] {
					return -1
				}
				return 1
			}
		}
		return 0
	}

	if cmp(hard, easy) != -1 {
		t.Error("a harder difficulty must produce a smaller threshold")
	}
}
