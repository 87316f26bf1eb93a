package challenge

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Sizes of the fixed-width byte fields on the wire.
const (
	ParamSize     = 32
	PublicKeySize = 32
	SignatureSize = 64
)

// Param is the 32 byte difficulty anchor a difficulty predicate tests
// candidate nonces against.
type Param [ParamSize]byte

// PublicKey is the issuer's 32 byte verification key.
type PublicKey [PublicKeySize]byte

// Signature is the issuer's 64 byte signature binding a challenge's
// fields together.
type Signature [SignatureSize]byte

func fixedFromBytes(dst []byte, src []byte, field string) error {
	if len(src) != len(dst) {
		return fmt.Errorf("%w: %s must be %d bytes, got %d", ErrMalformedField, field, len(dst), len(src))
	}
	copy(dst, src)
	return nil
}

func fixedFromHex(dst []byte, src string, field string) error {
	raw, err := hex.DecodeString(src)
	if err != nil {
		return fmt.Errorf("%w: %s is not hex: %v", ErrMalformedField, field, err)
	}
	return fixedFromBytes(dst, raw, field)
}

// ParamFromBytes validates the length of raw and returns it as a Param.
func ParamFromBytes(raw []byte) (Param, error) {
	var p Param
	err := fixedFromBytes(p[:], raw, "challenge_param")
	return p, err
}

// ParamFromHex decodes a hex string into a Param.
func ParamFromHex(s string) (Param, error) {
	var p Param
	err := fixedFromHex(p[:], s, "challenge_param")
	return p, err
}

func (p Param) Hex() string { return hex.EncodeToString(p[:]) }

// PublicKeyFromBytes validates the length of raw and returns it as a PublicKey.
func PublicKeyFromBytes(raw []byte) (PublicKey, error) {
	var pk PublicKey
	err := fixedFromBytes(pk[:], raw, "public_key")
	return pk, err
}

// PublicKeyFromHex decodes a hex string into a PublicKey.
func PublicKeyFromHex(s string) (PublicKey, error) {
	var pk PublicKey
	err := fixedFromHex(pk[:], s, "public_key")
	return pk, err
}

func (pk PublicKey) Hex() string { return hex.EncodeToString(pk[:]) }

// SignatureFromBytes validates the length of raw and returns it as a Signature.
func SignatureFromBytes(raw []byte) (Signature, error) {
	var sig Signature
	err := fixedFromBytes(sig[:], raw, "challenge_signature")
	return sig, err
}

// SignatureFromHex decodes a hex string into a Signature.
func SignatureFromHex(s string) (Signature, error) {
	var sig Signature
	err := fixedFromHex(sig[:], s, "challenge_signature")
	return sig, err
}

func (sig Signature) Hex() string { return hex.EncodeToString(sig[:]) }

func (p Param) MarshalJSON() ([]byte, error)      { return json.Marshal(p.Hex()) }
func (pk PublicKey) MarshalJSON() ([]byte, error) { return json.Marshal(pk.Hex()) }
func (sig Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(sig.Hex())
}

func (p *Param) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: challenge_param: %v", ErrMalformedField, err)
	}
	return fixedFromHex(p[:], s, "challenge_param")
}

func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: public_key: %v", ErrMalformedField, err)
	}
	return fixedFromHex(pk[:], s, "public_key")
}

func (sig *Signature) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: challenge_signature: %v", ErrMalformedField, err)
	}
	return fixedFromHex(sig[:], s, "challenge_signature")
}
