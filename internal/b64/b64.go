// Package b64 implements an encode-only base64 variant: the URL-safe alphabet
// from RFC 4648 section 5 combined with standard '=' padding.
package b64

// Alphabet maps 6-bit values to output symbols.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

const pad = '='

// EncodedLen returns the length of the padded encoding of n bytes.
func EncodedLen(n int) int {
	return (n + 2) / 3 * 4
}

// Encode returns the padded encoding of src.
//
//	+--first octet--+-second octet--+--third octet--+
//	|7 6 5 4 3 2 1 0|7 6 5 4 3 2 1 0|7 6 5 4 3 2 1 0|
//	+-----------+---+-------+-------+---+-----------+
//	|5 4 3 2 1 0|5 4 3 2 1 0|5 4 3 2 1 0|5 4 3 2 1 0|
//	+--1.index--+--2.index--+--3.index--+--4.index--+
func Encode(src []byte) string {
	if len(src) == 0 {
		return ""
	}
	dst := make([]byte, 0, EncodedLen(len(src)))

	full := len(src) / 3 * 3
	for i := 0; i < full; i += 3 {
		dst = append(dst,
			first(src[i]),
			second(src[i], src[i+1]),
			third(src[i+1], src[i+2]),
			fourth(src[i+2]),
		)
	}

	switch len(src) - full {
	case 1:
		dst = append(dst, first(src[full]), second(src[full], 0), pad, pad)
	case 2:
		dst = append(dst, first(src[full]), second(src[full], src[full+1]), third(src[full+1], 0), pad)
	}
	return string(dst)
}

func first(a byte) byte {
	return Alphabet[a>>2]
}

func second(a, b byte) byte {
	return Alphabet[(a<<4|b>>4)&0x3f]
}

func third(b, c byte) byte {
	return Alphabet[(b<<2|c>>6)&0x3f]
}

func fourth(c byte) byte {
	return Alphabet[c&0x3f]
}
