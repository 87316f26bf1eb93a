// Package pow finds and verifies proof-of-work solutions for signed
// challenges.
//
// The difficulty predicate is pluggable: any pure, deterministic function
// over (challenge_param, candidate) can stand in for the default SHA-256
// threshold test. Solving partitions the candidate space across workers
// with a stride scheme; verification is a cheap pure function that never
// searches.
package pow

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/GateproofHQ/gateproof/lib/challenge"
)

var (
	// ErrSearchExhausted is returned when the bounded candidate space is
	// used up without any worker finding a solution. The caller should
	// request a fresh challenge rather than retry.
	ErrSearchExhausted = errors.New("pow: candidate space exhausted without a solution")

	// ErrWorkerPanic is returned when a difficulty predicate panics
	// mid-search. The panicking worker cancels its siblings so a broken
	// predicate cannot leave the search running forever.
	ErrWorkerPanic = errors.New("pow: worker panicked")
)

// Test is a difficulty predicate. It reports whether candidate satisfies
// the challenge parameter. Implementations must be pure, deterministic and
// free of shared state so that solver workers can call them concurrently.
type Test func(param challenge.Param, candidate int64) bool

// Sha256Threshold is the default difficulty predicate. The candidate is
// appended to the challenge parameter as 8 big-endian bytes, hashed with
// SHA-256, and the digest is accepted when it is lexicographically below
// the parameter interpreted as a 256-bit big-endian threshold. A smaller
// parameter therefore means a harder challenge.
func Sha256Threshold(param challenge.Param, candidate int64) bool {
	var buf [challenge.ParamSize + 8]byte
	copy(buf[:], param[:])
	binary.BigEndian.PutUint64(buf[challenge.ParamSize:], uint64(candidate))

	sum := sha256.Sum256(buf[:])
	return bytes.Compare(sum[:], param[:]) < 0
}
