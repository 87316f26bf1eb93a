// Package issuer constructs and signs proof-of-work challenges.
package issuer

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/GateproofHQ/gateproof"
	"github.com/GateproofHQ/gateproof/lib/challenge"
)

var ErrBadDifficulty = errors.New("issuer: difficulty must be at least 1")

// KeyFromHex loads an ed25519 private key from a hex encoded seed, the
// same format the server accepts on its command line.
func KeyFromHex(value string) (ed25519.PrivateKey, error) {
	keyBytes, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("supplied key is not hex-encoded: %w", err)
	}

	if len(keyBytes) != ed25519.SeedSize {
		return nil, fmt.Errorf("supplied key is not %d bytes long, got %d bytes", ed25519.SeedSize, len(keyBytes))
	}

	return ed25519.NewKeyFromSeed(keyBytes), nil
}

// ParamForDifficulty derives the challenge parameter for a difficulty,
// expressed as the expected number of hash attempts. The parameter is the
// 256-bit threshold floor((2^256 - 1) / difficulty), big-endian, so a
// uniformly distributed digest lands below it roughly once every
// difficulty attempts.
func ParamForDifficulty(difficulty int64) (challenge.Param, error) {
	var param challenge.Param

	if difficulty < 1 {
		return param, fmt.Errorf("%w: got %d", ErrBadDifficulty, difficulty)
	}

	max := new(big.Int).Lsh(big.NewInt(1), 256)
	max.Sub(max, big.NewInt(1))
	max.Div(max, big.NewInt(difficulty))

	max.FillBytes(param[:])
	return param, nil
}

// Options configures an Issuer. The zero value gets sane defaults from the
// root package; a nil PrivateKey means a fresh random key.
type Options struct {
	PrivateKey ed25519.PrivateKey
	WebsiteID  string
	Difficulty int64
	TTL        time.Duration
}

// Issuer mints signed, time-bounded challenges for one website.
type Issuer struct {
	priv  ed25519.PrivateKey
	pub   challenge.PublicKey
	param challenge.Param
	opts  Options
}

func New(opts Options) (*Issuer, error) {
	if opts.PrivateKey == nil {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("issuer: can't generate key: %w", err)
		}
		opts.PrivateKey = priv
	}
	if opts.Difficulty == 0 {
		opts.Difficulty = gateproof.DefaultDifficulty
	}
	if opts.TTL == 0 {
		opts.TTL = gateproof.ChallengeDefaultTTL
	}

	param, err := ParamForDifficulty(opts.Difficulty)
	if err != nil {
		return nil, err
	}

	pub, err := challenge.PublicKeyFromBytes(opts.PrivateKey.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("issuer: bad public key: %w", err)
	}

	return &Issuer{
		priv:  opts.PrivateKey,
		pub:   pub,
		param: param,
		opts:  opts,
	}, nil
}

// PublicKey returns the verification key new challenges embed.
func (i *Issuer) PublicKey() challenge.PublicKey { return i.pub }

// Issue mints a new signed challenge. The random nonce is a fresh UUID so
// solutions cannot be precomputed across issuances.
func (i *Issuer) Issue() (challenge.Challenge, error) {
	now := time.Now()

	c := challenge.Challenge{
		RandomNonce:    uuid.NewString(),
		CreatedTime:    now.Unix(),
		ExpirationTime: now.Add(i.opts.TTL).Unix(),
		WebsiteID:      i.opts.WebsiteID,
		ChallengeParam: i.param,
		PublicKey:      i.pub,
	}

	sig, err := challenge.SignatureFromBytes(ed25519.Sign(i.priv, c.SigningBytes()))
	if err != nil {
		return challenge.Challenge{}, fmt.Errorf("issuer: bad signature: %w", err)
	}
	c.ChallengeSignature = sig

	if err := c.Valid(); err != nil {
		return challenge.Challenge{}, err
	}

	return c, nil
}

// VerifySignature reports whether the challenge's signature is a valid
// ed25519 signature over its fields under its embedded public key. Solvers
// call this before burning work on a challenge that could have been
// tampered with in transit.
func VerifySignature(c challenge.Challenge) bool {
	return ed25519.Verify(ed25519.PublicKey(c.PublicKey[:]), c.SigningBytes(), c.ChallengeSignature[:])
}
