// Package challenge defines the proof-of-work challenge and response
// records and their canonical wire encodings.
//
// A Challenge is issued by a server, transmitted as an opaque signed blob,
// and consumed read-only by solvers and verifiers. A Response pairs a found
// solution nonce with the signature of the challenge it answers. Both
// records travel either as a compact Base64URL header value (see header.go)
// or as self-describing JSON for debugging and cross-boundary transport.
package challenge

import "time"

// Challenge is the metadata about a single proof-of-work task issuance.
// It is never mutated after creation.
type Challenge struct {
	// RandomNonce is an opaque per-issuance random string. Uniqueness is
	// the issuer's responsibility; it prevents replay and precomputation
	// across challenges.
	RandomNonce string `json:"random_nonce"`

	// CreatedTime and ExpirationTime are Unix timestamps in seconds.
	// CreatedTime is always strictly before ExpirationTime.
	CreatedTime    int64 `json:"created_time"`
	ExpirationTime int64 `json:"expiration_time"`

	// WebsiteID binds the challenge to an issuing context. It is not
	// interpreted beyond equality.
	WebsiteID string `json:"website_id"`

	// ChallengeParam is the difficulty anchor the predicate tests
	// candidates against.
	ChallengeParam Param `json:"challenge_param"`

	// PublicKey is the issuer's verification key.
	PublicKey PublicKey `json:"public_key"`

	// ChallengeSignature is the issuer's signature over the other fields,
	// making the record tamper-evident.
	ChallengeSignature Signature `json:"challenge_signature"`
}

// Valid checks the structural invariants of the challenge.
func (c Challenge) Valid() error {
	if c.CreatedTime >= c.ExpirationTime {
		return ErrInvalidWindow
	}
	return nil
}

// ExpiredAt reports whether the challenge is expired at t. A challenge is
// expired once t is at or past its expiration time.
func (c Challenge) ExpiredAt(t time.Time) bool {
	return t.Unix() >= c.ExpirationTime
}

// Expired reports whether the challenge is expired now.
func (c Challenge) Expired() bool {
	return c.ExpiredAt(time.Now())
}

// Response is a claimed solution bound to a specific challenge by that
// challenge's signature. It is constructed exactly once, by whichever
// search worker wins the race, and is immutable thereafter.
type Response struct {
	// ChallengeSignature is a copy of the originating challenge's
	// signature. A response is meaningless without it.
	ChallengeSignature Signature `json:"challenge_signature"`

	// Solution is the nonce claimed to satisfy the difficulty predicate
	// when combined with the challenge's parameters.
	Solution int64 `json:"solution"`
}

// NewResponse builds a response answering the given challenge with the
// found solution nonce.
func NewResponse(c Challenge, solution int64) Response {
	return Response{
		ChallengeSignature: c.ChallengeSignature,
		Solution:           solution,
	}
}
