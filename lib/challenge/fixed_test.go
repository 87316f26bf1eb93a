package challenge

import (
	"errors"
	"strings"
	"testing"
)

func TestSignatureFromHex(t *testing.T) {
	for _, tt := range []struct {
		name string
		in   string
		err  error
	}{
		{name: "ok", in: strings.Repeat("ab", SignatureSize), err: nil},
		{name: "short", in: strings.Repeat("ab", SignatureSize-1), err: ErrMalformedField},
		{name: "long", in: strings.Repeat("ab", SignatureSize+1), err: ErrMalformedField},
		{name: "not-hex", in: strings.Repeat("zz", SignatureSize), err: ErrMalformedField},
	} {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := SignatureFromHex(tt.in)
			if !errors.Is(err, tt.err) {
				t.Fatalf("got wrong error from SignatureFromHex, got %v but wanted %v", err, tt.err)
			}

			if err == nil && sig.Hex() != tt.in {
				t.Errorf("signature did not survive a hex round trip: %s", sig.Hex())
			}
		})
	}
}

func TestParamFromBytes(t *testing.T) {
	if _, err := ParamFromBytes(make([]byte, ParamSize+1)); !errors.Is(err, ErrMalformedField) {
		t.Errorf("wanted ErrMalformedField for an oversized param, got: %v", err)
	}

	raw := make([]byte, ParamSize)
	raw[0] = 0xfe

	p, err := ParamFromBytes(raw)
	if err != nil {
		t.Fatal(err)
	}
	if p[0] != 0xfe {
		t.Error("param bytes were not copied")
	}
}

func TestPublicKeyFromHex(t *testing.T) {
	if _, err := PublicKeyFromHex("abad1dea"); !errors.Is(err, ErrMalformedField) {
		t.Errorf("wanted ErrMalformedField for a short public key, got: %v", err)
	}
}
