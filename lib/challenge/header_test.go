package challenge

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestChallengeHeaderRoundTrip(t *testing.T) {
	for _, tt := range []struct {
		name   string
		mutate func(c *Challenge)
	}{
		{name: "basic", mutate: func(c *Challenge) {}},
		{name: "empty-nonce", mutate: func(c *Challenge) { c.RandomNonce = "" }},
		{name: "empty-website", mutate: func(c *Challenge) { c.WebsiteID = "" }},
		{name: "utf8-website", mutate: func(c *Challenge) { c.WebsiteID = "exämple.みんな" }},
		{name: "negative-times", mutate: func(c *Challenge) {
			c.CreatedTime = -1000
			c.ExpirationTime = -1
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			want := testChallenge()
			tt.mutate(&want)

			encoded := want.EncodeHeader()
			if strings.ContainsAny(encoded, "+/=") {
				t.Errorf("header %q is not unpadded base64url", encoded)
			}

			got, err := DecodeChallengeHeader(encoded)
			if err != nil {
				t.Fatal(err)
			}

			if got != want {
				t.Logf("want: %#v", want)
				t.Logf("got:  %#v", got)
				t.Error("challenge did not survive a header round trip")
			}
		})
	}
}

func TestResponseHeaderRoundTrip(t *testing.T) {
	for _, solution := range []int64{0, 1, 42069, -1, 1<<62 + 7} {
		want := NewResponse(testChallenge(), solution)

		got, err := DecodeResponseHeader(want.EncodeHeader())
		if err != nil {
			t.Fatal(err)
		}

		if got != want {
			t.Errorf("response with solution %d did not survive a header round trip", solution)
		}
	}
}

func TestDecodeChallengeHeaderRejects(t *testing.T) {
	valid := testChallenge()
	validRaw, err := base64.RawURLEncoding.DecodeString(valid.EncodeHeader())
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		name    string
		encoded string
		err     error
	}{
		{
			name:    "not-base64",
			encoded: "not base64!!",
			err:     ErrMalformedField,
		},
		{
			name:    "empty",
			encoded: "",
			err:     ErrMalformedField,
		},
		{
			name:    "truncated",
			encoded: base64.RawURLEncoding.EncodeToString(validRaw[:len(validRaw)-10]),
			err:     ErrMalformedField,
		},
		{
			name:    "trailing-data",
			encoded: base64.RawURLEncoding.EncodeToString(append(append([]byte{}, validRaw...), 0x00)),
			err:     ErrMalformedField,
		},
		{
			name: "inverted-window",
			encoded: func() string {
				c := valid
				c.CreatedTime, c.ExpirationTime = c.ExpirationTime, c.CreatedTime
				return c.EncodeHeader()
			}(),
			err: ErrInvalidWindow,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeChallengeHeader(tt.encoded); !errors.Is(err, tt.err) {
				t.Errorf("got wrong error from DecodeChallengeHeader, got %v but wanted %v", err, tt.err)
			}
		})
	}
}

func TestDecodeResponseHeaderRejects(t *testing.T) {
	short := base64.RawURLEncoding.EncodeToString(make([]byte, SignatureSize))

	if _, err := DecodeResponseHeader(short); !errors.Is(err, ErrMalformedField) {
		t.Errorf("wanted ErrMalformedField for a response missing its solution, got: %v", err)
	}
}

func TestSigningBytesExcludesSignature(t *testing.T) {
	a := testChallenge()
	b := a
	for i := range b.ChallengeSignature {
		b.ChallengeSignature[i] ^= 0xff
	}

	if string(a.SigningBytes()) != string(b.SigningBytes()) {
		t.Error("SigningBytes changed when only the signature changed")
	}
}
