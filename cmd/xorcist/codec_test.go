package main

import (
	"strings"
	"testing"
)

func TestRunHex(t *testing.T) {
	out, code := captureStdout(t, func() int { return runHex([]string{"encode", "hello"}) })
	if code != 0 || strings.TrimSpace(out) != "68656c6c6f" {
		t.Fatalf("encode: got %q (exit %d)", out, code)
	}

	out, code = captureStdout(t, func() int { return runHex([]string{"decode", "68656c6c6f"}) })
	if code != 0 || strings.TrimSpace(out) != "hello" {
		t.Fatalf("decode: got %q (exit %d)", out, code)
	}
}

func TestRunHexDecodeRejectsUppercase(t *testing.T) {
	restore := silenceOutput(t)
	defer restore()

	if code := runHex([]string{"decode", "4A"}); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestRunBase64(t *testing.T) {
	const hexInput = "49276d206b696c6c696e6720796f757220627261696e206c696b65206120706f69736f6e6f7573206d757368726f6f6d"
	out, code := captureStdout(t, func() int { return runBase64([]string{hexInput}) })
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if strings.TrimSpace(out) != "SSdtIGtpbGxpbmcgeW91ciBicmFpbiBsaWtlIGEgcG9pc29ub3VzIG11c2hyb29t" {
		t.Fatalf("unexpected base64 %q", out)
	}

	out, code = captureStdout(t, func() int { return runBase64([]string{"-text", "\xfb\xff"}) })
	if code != 0 || strings.TrimSpace(out) != "-_8=" {
		t.Fatalf("text mode: got %q (exit %d)", out, code)
	}
}

func TestRunXORFixed(t *testing.T) {
	out, code := captureStdout(t, func() int {
		return runXOR([]string{"fixed", "1c0111001f010100061a024b53535009181c", "686974207468652062756c6c277320657965"})
	})
	if code != 0 || strings.TrimSpace(out) != "746865206b696420646f6e277420706c6179" {
		t.Fatalf("got %q (exit %d)", out, code)
	}

	restore := silenceOutput(t)
	defer restore()
	if code := runXOR([]string{"fixed", "00", "0000"}); code != 1 {
		t.Fatalf("expected exit code 1 on length mismatch, got %d", code)
	}
	if code := runXOR([]string{"fixed", "00"}); code != 2 {
		t.Fatalf("expected exit code 2 with one argument, got %d", code)
	}
}

func TestRunXORSingle(t *testing.T) {
	plainHex := "436f6f6b696e67204d432773206c696b65206120706f756e64206f66206261636f6e"
	out, code := captureStdout(t, func() int { return runXOR([]string{"single", "-key", "0x58", plainHex}) })
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if strings.TrimSpace(out) != challengeCiphertext {
		t.Fatalf("unexpected ciphertext %q", out)
	}

	restore := silenceOutput(t)
	defer restore()
	if code := runXOR([]string{"single", plainHex}); code != 2 {
		t.Fatalf("expected exit code 2 without key, got %d", code)
	}
	if code := runXOR([]string{"single", "-key", "256", plainHex}); code != 2 {
		t.Fatalf("expected exit code 2 for out of range key, got %d", code)
	}
}

func TestRunXORRepeat(t *testing.T) {
	withStdin(t, "Burning 'em, if you ain't quick and nimble\nI go crazy when I hear a cymbal\n")
	out, code := captureStdout(t, func() int { return runXOR([]string{"repeat", "-key", "ICE"}) })
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	want := "0b3637272a2b2e63622c2e69692a23693a2a3c6324202d623d63343c2a26226324272765272a282b2f20430a652e2c652a3124333a653e2b2027630c692b20283165286326302e27282f"
	if strings.TrimSpace(out) != want {
		t.Fatalf("unexpected ciphertext %q", out)
	}
}

func TestParseKeyByte(t *testing.T) {
	tests := []struct {
		in   string
		want byte
		ok   bool
	}{
		{"88", 0x58, true},
		{"0x58", 0x58, true},
		{"0xff", 0xff, true},
		{"256", 0, false},
		{"-1", 0, false},
		{"x", 0, false},
	}
	for _, tt := range tests {
		got, err := parseKeyByte(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("parseKeyByte(%q) = 0x%02x, %v", tt.in, got, err)
		}
	}
}
