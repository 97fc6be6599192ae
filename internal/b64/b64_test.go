package b64

import (
	"encoding/base64"
	"math/rand"
	"testing"

	"github.com/RowanDark/xorcist/internal/hexcodec"
)

func TestEncodeVectors(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"f", "Zg=="},
		{"fo", "Zm8="},
		{"foo", "Zm9v"},
		{"foob", "Zm9vYg=="},
		{"fooba", "Zm9vYmE="},
		{"foobar", "Zm9vYmFy"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Encode([]byte(tt.in)); got != tt.want {
				t.Fatalf("Encode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeHexFixture(t *testing.T) {
	raw, err := hexcodec.DecodeString("49276d206b696c6c696e6720796f757220627261696e206c696b65206120706f69736f6e6f7573206d757368726f6f6d")
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	want := "SSdtIGtpbGxpbmcgeW91ciBicmFpbiBsaWtlIGEgcG9pc29ub3VzIG11c2hyb29t"
	if got := Encode(raw); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestEncodeUsesURLAlphabet(t *testing.T) {
	if got := Encode([]byte{0xfb, 0xff}); got != "-_8=" {
		t.Fatalf("expected URL-safe symbols, got %q", got)
	}
}

func TestEncodeMatchesURLEncoding(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 50; n++ {
		buf := make([]byte, n)
		rng.Read(buf)
		want := base64.URLEncoding.EncodeToString(buf)
		got := Encode(buf)
		if got != want {
			t.Fatalf("len %d: expected %q, got %q", n, want, got)
		}
		if len(got) != EncodedLen(n) {
			t.Fatalf("len %d: EncodedLen=%d, actual %d", n, EncodedLen(n), len(got))
		}
	}
}
