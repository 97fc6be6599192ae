package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// stdin is swapped out in tests.
var stdin io.Reader = os.Stdin

// readInput joins the positional arguments, or reads stdin when there are
// none. A single trailing newline is dropped from stdin.
func readInput(args []string) ([]byte, error) {
	if len(args) > 0 {
		return []byte(strings.Join(args, " ")), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	s := string(data)
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return []byte(s), nil
}

// readHexInput is readInput with surrounding whitespace removed, for
// arguments that are hex text.
func readHexInput(args []string) (string, error) {
	data, err := readInput(args)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
