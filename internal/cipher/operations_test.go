package cipher

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/RowanDark/xorcist/internal/hexcodec"
	"github.com/RowanDark/xorcist/internal/keyfinder"
	"github.com/RowanDark/xorcist/internal/xorop"
)

func mustOp(t *testing.T, name string) Operation {
	t.Helper()
	op, ok := GetOperation(name)
	if !ok {
		t.Fatalf("%s operation not found", name)
	}
	return op
}

func TestHexOperations(t *testing.T) {
	ctx := context.Background()
	encoder := mustOp(t, "hex_encode")
	decoder := mustOp(t, "hex_decode")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple text", input: "hello", expected: "68656c6c6f"},
		{name: "empty", input: "", expected: ""},
		{name: "binary", input: "\x00\xff\x10", expected: "00ff10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := encoder.Execute(ctx, []byte(tt.input), nil)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			if string(encoded) != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, string(encoded))
			}

			decoded, err := decoder.Execute(ctx, encoded, nil)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if string(decoded) != tt.input {
				t.Errorf("round trip: expected %q, got %q", tt.input, string(decoded))
			}
		})
	}
}

func TestHexDecodeCleansInput(t *testing.T) {
	decoder := mustOp(t, "hex_decode")

	for _, input := range []string{"0x68656c6c6f", "68 65 6c 6c 6f", "  68656c6c6f\n"} {
		decoded, err := decoder.Execute(context.Background(), []byte(input), nil)
		if err != nil {
			t.Fatalf("decode %q failed: %v", input, err)
		}
		if string(decoded) != "hello" {
			t.Errorf("decode %q: got %q", input, string(decoded))
		}
	}
}

func TestHexDecodeRejectsUppercase(t *testing.T) {
	decoder := mustOp(t, "hex_decode")

	_, err := decoder.Execute(context.Background(), []byte("4A"), nil)
	if !errors.Is(err, hexcodec.ErrInvalidHexCharacter) {
		t.Fatalf("expected ErrInvalidHexCharacter, got %v", err)
	}
}

func TestBase64EncodeOperation(t *testing.T) {
	op := mustOp(t, "base64_encode")

	out, err := op.Execute(context.Background(), []byte{0xfb, 0xff}, nil)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if string(out) != "-_8=" {
		t.Errorf("expected URL-safe output %q, got %q", "-_8=", string(out))
	}

	if _, ok := op.Reverse(); ok {
		t.Error("base64_encode should not have a reverse")
	}
}

func TestFixedXOROperation(t *testing.T) {
	op := mustOp(t, "xor_fixed")
	params := map[string]interface{}{"key": "686974207468652062756c6c277320657965"}

	out, err := op.Execute(context.Background(), []byte("1c0111001f010100061a024b53535009181c"), params)
	if err != nil {
		t.Fatalf("xor_fixed failed: %v", err)
	}
	if string(out) != "746865206b696420646f6e277420706c6179" {
		t.Errorf("unexpected output %q", string(out))
	}

	_, err = op.Execute(context.Background(), []byte("00"), map[string]interface{}{"key": "0000"})
	if !errors.Is(err, xorop.ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}

	if _, err := op.Execute(context.Background(), []byte("00"), nil); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestSingleByteXOROperationKeyForms(t *testing.T) {
	op := mustOp(t, "xor_single")
	input := []byte("xorcist")

	for _, key := range []interface{}{88, int64(88), float64(88), "88", "0x58"} {
		out, err := op.Execute(context.Background(), input, map[string]interface{}{"key": key})
		if err != nil {
			t.Fatalf("key %v (%T): %v", key, key, err)
		}
		for i := range out {
			if out[i] != input[i]^0x58 {
				t.Fatalf("key %v (%T): byte %d not xored with 0x58", key, key, i)
			}
		}
	}

	for _, key := range []interface{}{256, -1, 1.5, "zz", true} {
		if _, err := op.Execute(context.Background(), input, map[string]interface{}{"key": key}); err == nil {
			t.Errorf("key %v (%T): expected error", key, key)
		}
	}
}

func TestRepeatingXOROperation(t *testing.T) {
	op := mustOp(t, "xor_repeating")
	input := "Burning 'em, if you ain't quick and nimble\nI go crazy when I hear a cymbal"

	out, err := op.Execute(context.Background(), []byte(input), map[string]interface{}{"key": "ICE"})
	if err != nil {
		t.Fatalf("xor_repeating failed: %v", err)
	}
	want := "0b3637272a2b2e63622c2e69692a23693a2a3c6324202d623d63343c2a26226324272765272" +
		"a282b2f20430a652e2c652a3124333a653e2b2027630c692b20283165286326302e27282f"
	if got := string(hexcodec.Encode(out)); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	if _, err := op.Execute(context.Background(), []byte(input), map[string]interface{}{"key": ""}); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestCrackSingleByteOperation(t *testing.T) {
	op := mustOp(t, "crack_single_byte")
	ct := "1b37373331363f78151b7f2b783431333d78397828372d363c78373e783a393b3736"

	for _, workers := range []interface{}{nil, 1, 4} {
		params := map[string]interface{}{}
		if workers != nil {
			params["workers"] = workers
		}
		out, err := op.Execute(context.Background(), []byte(ct), params)
		if err != nil {
			t.Fatalf("workers=%v: %v", workers, err)
		}
		if string(out) != "Cooking MC's like a pound of bacon" {
			t.Errorf("workers=%v: got %q", workers, string(out))
		}
	}

	_, err := op.Execute(context.Background(), []byte(""), nil)
	if !errors.Is(err, keyfinder.ErrNoCandidate) {
		t.Fatalf("expected ErrNoCandidate for empty input, got %v", err)
	}

	// JSON numbers arrive as float64; fractions must not be truncated.
	for _, workers := range []interface{}{2.7, -0.5, "two", true} {
		_, err := op.Execute(context.Background(), []byte(ct), map[string]interface{}{"workers": workers})
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("workers=%v: expected ErrInvalidParameter, got %v", workers, err)
		}
	}
	if _, err := op.Execute(context.Background(), []byte(ct), map[string]interface{}{"workers": 4.0}); err != nil {
		t.Errorf("workers=4.0: %v", err)
	}
}

func TestLZ4Operations(t *testing.T) {
	compress := mustOp(t, "lz4_compress")
	decompress := mustOp(t, "lz4_decompress")
	input := []byte(strings.Repeat("the quick brown fox ", 64))

	compressed, err := compress.Execute(context.Background(), input, nil)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}
	if len(compressed) >= len(input) {
		t.Errorf("compressed size %d not smaller than input %d", len(compressed), len(input))
	}

	// run twice to exercise pooled readers and writers
	for i := 0; i < 2; i++ {
		out, err := decompress.Execute(context.Background(), compressed, nil)
		if err != nil {
			t.Fatalf("decompress failed: %v", err)
		}
		if !bytes.Equal(out, input) {
			t.Fatal("decompressed data does not match input")
		}
	}

	if _, err := decompress.Execute(context.Background(), []byte("not lz4"), nil); err == nil {
		t.Fatal("expected error for invalid frame")
	}
}

func TestLZ4DecompressOutputCap(t *testing.T) {
	compress := mustOp(t, "lz4_compress")
	decompress := mustOp(t, "lz4_decompress")

	// 1 MiB of zeros compresses to a few KiB.
	zeros := make([]byte, 1<<20)
	frame, err := compress.Execute(context.Background(), zeros, nil)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}

	_, err = decompress.Execute(context.Background(), frame, map[string]interface{}{"max_output": 1024})
	if !errors.Is(err, ErrInvalidParameter) || !strings.Contains(err.Error(), "exceeds 1024 bytes") {
		t.Fatalf("expected output cap error, got %v", err)
	}

	// a cap equal to the real size still succeeds; JSON callers send float64
	out, err := decompress.Execute(context.Background(), frame, map[string]interface{}{"max_output": float64(len(zeros))})
	if err != nil {
		t.Fatalf("decompress at exact cap: %v", err)
	}
	if !bytes.Equal(out, zeros) {
		t.Fatal("decompressed data does not match input")
	}

	for _, bad := range []interface{}{0, -1, "lots"} {
		_, err := decompress.Execute(context.Background(), frame, map[string]interface{}{"max_output": bad})
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("max_output=%v: expected ErrInvalidParameter, got %v", bad, err)
		}
	}
}

func TestLZ4DecompressDefaultCap(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates more than MaxLZ4Output")
	}
	compress := mustOp(t, "lz4_compress")
	decompress := mustOp(t, "lz4_decompress")

	frame, err := compress.Execute(context.Background(), make([]byte, MaxLZ4Output+1), nil)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}
	if _, err := decompress.Execute(context.Background(), frame, nil); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected default cap to apply, got %v", err)
	}
}

func TestDigestOperations(t *testing.T) {
	tests := []struct {
		op       string
		expected string
	}{
		{op: "sha256_digest", expected: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
		{op: "blake2b_digest", expected: "324dcf027dd4a30a932c441f365a25e86b173defa4b8e58948253471b81b72cf"},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			op := mustOp(t, tt.op)
			out, err := op.Execute(context.Background(), []byte("hello"), nil)
			if err != nil {
				t.Fatalf("%s failed: %v", tt.op, err)
			}
			if string(out) != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, string(out))
			}
			if _, ok := op.Reverse(); ok {
				t.Errorf("%s should not be reversible", tt.op)
			}
		})
	}
}

func TestOperationReversibility(t *testing.T) {
	pairs := map[string]string{
		"hex_encode":     "hex_decode",
		"hex_decode":     "hex_encode",
		"lz4_compress":   "lz4_decompress",
		"lz4_decompress": "lz4_compress",
		"xor_fixed":      "xor_fixed",
		"xor_single":     "xor_single",
		"xor_repeating":  "xor_repeating",
	}

	for name, want := range pairs {
		reverse, ok := mustOp(t, name).Reverse()
		if !ok {
			t.Errorf("%s should be reversible", name)
			continue
		}
		if reverse.Name() != want {
			t.Errorf("%s: expected reverse %s, got %s", name, want, reverse.Name())
		}
	}

	if _, ok := mustOp(t, "crack_single_byte").Reverse(); ok {
		t.Error("crack_single_byte should not be reversible")
	}
}
