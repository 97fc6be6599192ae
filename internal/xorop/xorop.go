// Package xorop provides byte-wise exclusive-or transforms.
package xorop

import (
	"errors"
	"fmt"

	"github.com/RowanDark/xorcist/internal/hexcodec"
)

// ErrLengthMismatch matches any *LengthMismatchError.
var ErrLengthMismatch = errors.New("length mismatch")

// LengthMismatchError reports operands of different length.
type LengthMismatchError struct {
	Left  int
	Right int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("length of left operand %d was not equal to length of right operand %d", e.Left, e.Right)
}

func (e *LengthMismatchError) Is(target error) bool {
	return target == ErrLengthMismatch
}

// Byte returns the exclusive-or of a and b.
func Byte(a, b byte) byte {
	return (a | b) & (^a | ^b)
}

// Bytes XORs a and b position by position into a new buffer.
func Bytes(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, &LengthMismatchError{Left: len(a), Right: len(b)}
	}
	out := make([]byte, len(a))
	for i := range a {
		out[i] = Byte(a[i], b[i])
	}
	return out, nil
}

// Compute XORs two equal-length hex texts and returns the result as hex.
func Compute(hexA, hexB string) (string, error) {
	if len(hexA) != len(hexB) {
		return "", &LengthMismatchError{Left: len(hexA), Right: len(hexB)}
	}
	a, err := hexcodec.DecodeString(hexA)
	if err != nil {
		return "", fmt.Errorf("decode left operand: %w", err)
	}
	b, err := hexcodec.DecodeString(hexB)
	if err != nil {
		return "", fmt.Errorf("decode right operand: %w", err)
	}
	out, err := Bytes(a, b)
	if err != nil {
		return "", err
	}
	return hexcodec.EncodeToString(out), nil
}

// SingleByte writes src XOR key into dst. dst must be at least len(src) long.
func SingleByte(dst, src []byte, key byte) {
	for i, b := range src {
		dst[i] = Byte(b, key)
	}
}

// Repeating XORs src against key cycled over its length. An empty key
// returns a copy of src.
func Repeating(src, key []byte) []byte {
	out := make([]byte, len(src))
	if len(key) == 0 {
		copy(out, src)
		return out
	}
	for i, b := range src {
		out[i] = Byte(b, key[i%len(key)])
	}
	return out
}
