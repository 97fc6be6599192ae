package xorop

import (
	"bytes"
	"errors"
	"testing"

	"github.com/RowanDark/xorcist/internal/hexcodec"
	"github.com/google/go-cmp/cmp"
)

func TestByteMatchesBuiltin(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			if got, want := Byte(byte(a), byte(b)), byte(a)^byte(b); got != want {
				t.Fatalf("Byte(%#x, %#x) = %#x, want %#x", a, b, got, want)
			}
		}
	}
}

func TestByteKnownValue(t *testing.T) {
	if got := Byte(0b11001110, 0b10101101); got != 0b01100011 {
		t.Fatalf("expected 0b01100011, got %#08b", got)
	}
}

func TestByteInvolution(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			if got := Byte(byte(a), Byte(byte(a), byte(b))); got != byte(b) {
				t.Fatalf("xor(%d, xor(%d, %d)) = %d", a, a, b, got)
			}
		}
	}
}

func TestCompute(t *testing.T) {
	got, err := Compute("1c0111001f010100061a024b53535009181c", "686974207468652062756c6c277320657965")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if diff := cmp.Diff("746865206b696420646f6e277420706c6179", got); diff != "" {
		t.Fatalf("Compute mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeLengthMismatch(t *testing.T) {
	a := "1c0111001f010100061a024b53535009181"
	b := "686974207468652062756c6c277320657965"
	got, err := Compute(a, b)
	if got != "" {
		t.Fatalf("expected no partial result, got %q", got)
	}
	var lenErr *LengthMismatchError
	if !errors.As(err, &lenErr) {
		t.Fatalf("expected *LengthMismatchError, got %v", err)
	}
	if lenErr.Left != len(a) || lenErr.Right != len(b) {
		t.Fatalf("expected lengths %d/%d, got %d/%d", len(a), len(b), lenErr.Left, lenErr.Right)
	}
	want := "length of left operand 35 was not equal to length of right operand 36"
	if diff := cmp.Diff(want, err.Error()); diff != "" {
		t.Fatalf("message mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeInvalidHex(t *testing.T) {
	_, err := Compute("zz", "00")
	if !errors.Is(err, hexcodec.ErrInvalidHexCharacter) {
		t.Fatalf("expected hex error, got %v", err)
	}
}

func TestBytesLengthMismatch(t *testing.T) {
	if _, err := Bytes([]byte{1}, []byte{1, 2}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestRepeating(t *testing.T) {
	in := []byte("Burning 'em, if you ain't quick and nimble\nI go crazy when I hear a cymbal")
	want := "0b3637272a2b2e63622c2e69692a23693a2a3c6324202d623d63343c2a26226324272765272a" +
		"282b2f20430a652e2c652a3124333a653e2b2027630c692b20283165286326302e27282f"
	got := hexcodec.EncodeToString(Repeating(in, []byte("ICE")))
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if back := Repeating(Repeating(in, []byte("ICE")), []byte("ICE")); !bytes.Equal(back, in) {
		t.Fatalf("repeating xor is not self-inverse")
	}
}

func TestRepeatingEmptyKey(t *testing.T) {
	in := []byte("abc")
	out := Repeating(in, nil)
	if !bytes.Equal(in, out) {
		t.Fatalf("expected copy, got %q", out)
	}
	out[0] = 'z'
	if in[0] != 'a' {
		t.Fatalf("output aliases input")
	}
}
