package pow

import (
	"crypto/subtle"
	"time"

	"github.com/GateproofHQ/gateproof/lib/challenge"
)

// Verify reports whether resp is a sound answer to c under the given
// difficulty predicate. A nil test means Sha256Threshold.
//
// Verification re-derives validity without searching: the response's
// signature must match the challenge's (compared in constant time), the
// challenge must not be expired, and the predicate must hold for the
// claimed solution. The cost is one predicate evaluation regardless of how
// expensive the solution was to find. Malformed responses simply verify
// false; Verify never panics.
func Verify(resp challenge.Response, c challenge.Challenge, test Test) bool {
	return VerifyAt(resp, c, test, time.Now())
}

// VerifyAt is Verify with an explicit clock, for callers that need to
// re-check historical responses or test expiry behavior.
func VerifyAt(resp challenge.Response, c challenge.Challenge, test Test, now time.Time) bool {
	if test == nil {
		test = Sha256Threshold
	}

	if subtle.ConstantTimeCompare(resp.ChallengeSignature[:], c.ChallengeSignature[:]) != 1 {
		return false
	}

	if c.ExpiredAt(now) {
		return false
	}

	return test(c.ChallengeParam, resp.Solution)
}
