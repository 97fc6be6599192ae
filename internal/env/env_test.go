package env

import (
	"fmt"
	"testing"
)

func TestLookup(t *testing.T) {
	want := "/tmp/root"
	t.Setenv("XORCIST_HOME", "  "+want+"\n")

	got, ok := Lookup("XORCIST_HOME")
	if !ok {
		t.Fatalf("expected lookup to succeed")
	}
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLookupBlankIsUnset(t *testing.T) {
	t.Setenv("XORCIST_BLANK", "   ")

	if _, ok := Lookup("XORCIST_BLANK"); ok {
		t.Fatalf("expected blank value to be treated as unset")
	}
}

func TestLookupLegacyWarnsOnce(t *testing.T) {
	ResetWarningsForTesting()
	var warnings []string
	restore := SetWarnLoggerForTesting(func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})
	defer restore()

	t.Setenv("XORCIST_CRACK_WORKERS", "4")

	for i := 0; i < 3; i++ {
		got, ok := Lookup("XORCIST_WORKERS", "XORCIST_CRACK_WORKERS")
		if !ok || got != "4" {
			t.Fatalf("Lookup = %q, %v", got, ok)
		}
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one deprecation warning, got %v", warnings)
	}
	if warnings[0] != "XORCIST_CRACK_WORKERS is deprecated; use XORCIST_WORKERS" {
		t.Fatalf("unexpected warning %q", warnings[0])
	}
}

func TestLookupPrefersCurrentKey(t *testing.T) {
	t.Setenv("XORCIST_WORKERS", "8")
	t.Setenv("XORCIST_CRACK_WORKERS", "4")

	got, _ := Lookup("XORCIST_WORKERS", "XORCIST_CRACK_WORKERS")
	if got != "8" {
		t.Fatalf("expected current key to win, got %q", got)
	}
}

func TestName(t *testing.T) {
	if got := Name("server_addr"); got != "XORCIST_SERVER_ADDR" {
		t.Fatalf("Name = %q", got)
	}
}
