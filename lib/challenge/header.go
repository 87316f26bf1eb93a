package challenge

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Wire layout, shared by both records:
//
//   - all fixed-width integers are big-endian
//   - fixed-size byte arrays are copied verbatim
//   - variable-length strings are UTF-8 with a uint16 big-endian length
//     prefix
//
// A Challenge is the concatenation of random_nonce, created_time,
// expiration_time, website_id, challenge_param, public_key and
// challenge_signature, in that order. A Response is challenge_signature
// followed by solution. The header form is the Base64URL encoding of that
// concatenation, without padding.

var headerEncoding = base64.RawURLEncoding

// EncodeHeader encodes the challenge as a Base64URL header value.
func (c Challenge) EncodeHeader() string {
	var buf bytes.Buffer
	writeString(&buf, c.RandomNonce)
	writeInt64(&buf, c.CreatedTime)
	writeInt64(&buf, c.ExpirationTime)
	writeString(&buf, c.WebsiteID)
	buf.Write(c.ChallengeParam[:])
	buf.Write(c.PublicKey[:])
	buf.Write(c.ChallengeSignature[:])
	return headerEncoding.EncodeToString(buf.Bytes())
}

// SigningBytes returns the canonical byte encoding of every field except
// the signature. This is the exact message the issuer signs.
func (c Challenge) SigningBytes() []byte {
	var buf bytes.Buffer
	writeString(&buf, c.RandomNonce)
	writeInt64(&buf, c.CreatedTime)
	writeInt64(&buf, c.ExpirationTime)
	writeString(&buf, c.WebsiteID)
	buf.Write(c.ChallengeParam[:])
	buf.Write(c.PublicKey[:])
	return buf.Bytes()
}

// DecodeChallengeHeader decodes a Base64URL header value into a Challenge,
// validating every field length strictly.
func DecodeChallengeHeader(encoded string) (Challenge, error) {
	var c Challenge

	raw, err := headerEncoding.DecodeString(encoded)
	if err != nil {
		return c, fmt.Errorf("%w: header is not base64url: %v", ErrMalformedField, err)
	}

	r := reader{data: raw}
	if c.RandomNonce, err = r.string("random_nonce"); err != nil {
		return Challenge{}, err
	}
	if c.CreatedTime, err = r.int64("created_time"); err != nil {
		return Challenge{}, err
	}
	if c.ExpirationTime, err = r.int64("expiration_time"); err != nil {
		return Challenge{}, err
	}
	if c.WebsiteID, err = r.string("website_id"); err != nil {
		return Challenge{}, err
	}
	if err := r.fixed(c.ChallengeParam[:], "challenge_param"); err != nil {
		return Challenge{}, err
	}
	if err := r.fixed(c.PublicKey[:], "public_key"); err != nil {
		return Challenge{}, err
	}
	if err := r.fixed(c.ChallengeSignature[:], "challenge_signature"); err != nil {
		return Challenge{}, err
	}
	if err := r.done(); err != nil {
		return Challenge{}, err
	}

	if err := c.Valid(); err != nil {
		return Challenge{}, err
	}

	return c, nil
}

// EncodeHeader encodes the response as a Base64URL header value.
func (resp Response) EncodeHeader() string {
	var buf bytes.Buffer
	buf.Write(resp.ChallengeSignature[:])
	writeInt64(&buf, resp.Solution)
	return headerEncoding.EncodeToString(buf.Bytes())
}

// DecodeResponseHeader decodes a Base64URL header value into a Response.
func DecodeResponseHeader(encoded string) (Response, error) {
	var resp Response

	raw, err := headerEncoding.DecodeString(encoded)
	if err != nil {
		return resp, fmt.Errorf("%w: header is not base64url: %v", ErrMalformedField, err)
	}

	r := reader{data: raw}
	if err := r.fixed(resp.ChallengeSignature[:], "challenge_signature"); err != nil {
		return Response{}, err
	}
	if resp.Solution, err = r.int64("solution"); err != nil {
		return Response{}, err
	}
	if err := r.done(); err != nil {
		return Response{}, err
	}

	return resp, nil
}

func writeString(buf *bytes.Buffer, s string) {
	// Encoding a string longer than a uint16 length prefix can hold is a
	// programming error on the issuing side, not recoverable input.
	if len(s) > math.MaxUint16 {
		panic(fmt.Sprintf("challenge: string field of %d bytes exceeds the wire format's %d byte limit", len(s), math.MaxUint16))
	}

	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var intBuf [8]byte
	binary.BigEndian.PutUint64(intBuf[:], uint64(v))
	buf.Write(intBuf[:])
}

// reader decodes the wire layout with strict length validation. Every
// short read is an ErrMalformedField naming the offending field.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) take(n int, field string) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: %s needs %d bytes, %d left", ErrMalformedField, field, n, len(r.data)-r.pos)
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) string(field string) (string, error) {
	lenBuf, err := r.take(2, field)
	if err != nil {
		return "", err
	}
	raw, err := r.take(int(binary.BigEndian.Uint16(lenBuf)), field)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (r *reader) int64(field string) (int64, error) {
	raw, err := r.take(8, field)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(raw)), nil
}

func (r *reader) fixed(dst []byte, field string) error {
	raw, err := r.take(len(dst), field)
	if err != nil {
		return err
	}
	copy(dst, raw)
	return nil
}

func (r *reader) done() error {
	if r.pos != len(r.data) {
		return fmt.Errorf("%w: %d trailing bytes after record", ErrMalformedField, len(r.data)-r.pos)
	}
	return nil
}
