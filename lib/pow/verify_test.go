package pow

import (
	"testing"
	"time"

	"github.com/GateproofHQ/gateproof/lib/challenge"
)

func alwaysTest(challenge.Param, int64) bool { return true }

func TestVerifySoundness(t *testing.T) {
	c := solvableChallenge()
	good := challenge.NewResponse(c, 42)

	badSig := good
	badSig.ChallengeSignature[0] ^= 0x01

	for _, tt := range []struct {
		name string
		resp challenge.Response
		test Test
		want bool
	}{
		{name: "sound", resp: good, test: alwaysTest, want: true},
		{name: "signature-mismatch", resp: badSig, test: alwaysTest, want: false},
		{name: "predicate-fails", resp: good, test: neverTest, want: false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := Verify(tt.resp, c, tt.test); got != tt.want {
				t.Errorf("Verify = %v, wanted %v", got, tt.want)
			}
		})
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	c := solvableChallenge()
	resp := challenge.NewResponse(c, 42)

	if !VerifyAt(resp, c, alwaysTest, time.Unix(c.ExpirationTime-1, 0)) {
		t.Error("response should verify one second before expiry")
	}

	// Expiry wins even when the predicate would accept the solution.
	if VerifyAt(resp, c, alwaysTest, time.Unix(c.ExpirationTime, 0)) {
		t.Error("response verified at the expiration time")
	}
}

func TestVerifyMatchesDefaultPredicate(t *testing.T) {
	c := solvableChallenge()
	for i := range c.ChallengeParam {
		c.ChallengeParam[i] = 0xff
	}

	resp, err := Solve(t.Context(), c, Config{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}

	if !Verify(resp, c, nil) {
		t.Error("solver output does not verify under the default predicate")
	}
}
