// Package hexcodec converts between raw bytes and lowercase base16 text.
//
// The decoder only accepts the lowercase digits produced by the encoder. An
// odd-length input is not rejected: the trailing lone digit is emitted as a
// whole byte with a zero low nibble.
package hexcodec

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHexCharacter matches any *InvalidHexCharacterError.
	ErrInvalidHexCharacter = errors.New("invalid hex character")
	// ErrInvalidNibble matches any *InvalidNibbleError.
	ErrInvalidNibble = errors.New("invalid nibble value")
)

// InvalidHexCharacterError reports a byte outside 0-9a-f.
type InvalidHexCharacterError struct {
	Char   byte
	Offset int
}

func (e *InvalidHexCharacterError) Error() string {
	return fmt.Sprintf("%q at offset %d was not a hex character", e.Char, e.Offset)
}

func (e *InvalidHexCharacterError) Is(target error) bool {
	return target == ErrInvalidHexCharacter
}

// InvalidNibbleError reports a value that does not fit in four bits.
type InvalidNibbleError struct {
	Value byte
}

func (e *InvalidNibbleError) Error() string {
	return fmt.Sprintf("%d does not translate to hex", e.Value)
}

func (e *InvalidNibbleError) Is(target error) bool {
	return target == ErrInvalidNibble
}

// DecodeDigit returns the nibble for a single lowercase hex digit.
func DecodeDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	}
	return 0, &InvalidHexCharacterError{Char: c}
}

// EncodeNibble returns the lowercase hex digit for n.
func EncodeNibble(n byte) (byte, error) {
	switch {
	case n <= 9:
		return '0' + n, nil
	case n <= 15:
		return 'a' + n - 10, nil
	}
	return 0, &InvalidNibbleError{Value: n}
}

// DecodedLen returns the number of bytes Decode produces for n input digits.
func DecodedLen(n int) int {
	return (n + 1) / 2
}

// EncodedLen returns the number of digits Encode produces for n bytes.
func EncodedLen(n int) int {
	return n * 2
}

// Decode converts hex digits in src to bytes.
func Decode(src []byte) ([]byte, error) {
	dst := make([]byte, 0, DecodedLen(len(src)))
	for i := 0; i < len(src); i += 2 {
		hi, err := DecodeDigit(src[i])
		if err != nil {
			return nil, withOffset(err, i)
		}
		if i+1 == len(src) {
			dst = append(dst, hi<<4)
			break
		}
		lo, err := DecodeDigit(src[i+1])
		if err != nil {
			return nil, withOffset(err, i+1)
		}
		dst = append(dst, hi<<4|lo)
	}
	return dst, nil
}

// DecodeString is Decode for string input.
func DecodeString(s string) ([]byte, error) {
	return Decode([]byte(s))
}

// Encode converts src to lowercase hex digits, high nibble first.
func Encode(src []byte) []byte {
	dst := make([]byte, 0, EncodedLen(len(src)))
	for _, b := range src {
		// Both halves are masked to four bits so EncodeNibble cannot fail.
		hi, _ := EncodeNibble(b >> 4 & 0x0f)
		lo, _ := EncodeNibble(b & 0x0f)
		dst = append(dst, hi, lo)
	}
	return dst
}

// EncodeToString is Encode returning a string.
func EncodeToString(src []byte) string {
	return string(Encode(src))
}

func withOffset(err error, offset int) error {
	var hexErr *InvalidHexCharacterError
	if errors.As(err, &hexErr) {
		hexErr.Offset = offset
	}
	return err
}
