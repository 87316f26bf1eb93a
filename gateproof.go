// Package gateproof contains the shared constants for the gateproof
// proof-of-work challenge protocol.
package gateproof

import "time"

var (
	// Version is the version of gateproof in use. This is set at
	// build time with -ldflags.
	Version = "devel"
)

const (
	// ChallengeHeader carries a Base64URL encoded challenge record.
	ChallengeHeader = "X-Gateproof-Challenge"

	// ResponseHeader carries a Base64URL encoded response record.
	ResponseHeader = "X-Gateproof-Response"

	// DefaultDifficulty is the expected number of hash attempts an average
	// client needs to find a solution.
	DefaultDifficulty = 100000

	// ChallengeDefaultTTL is how long an issued challenge stays solvable.
	ChallengeDefaultTTL = 30 * time.Minute

	// PassDefaultTTL is how long a pass token minted after a successful
	// redemption stays valid.
	PassDefaultTTL = 7 * 24 * time.Hour

	// DefaultMaxNonce bounds the solution search so that a malformed or
	// hostile challenge cannot hang a solver forever. Searches that reach
	// this candidate without success fail with pow.ErrSearchExhausted.
	DefaultMaxNonce = int64(1) << 34

	// DefaultCheckInterval is how many candidates a search worker tests
	// between cancellation and expiry checks.
	DefaultCheckInterval = int64(1024)
)
