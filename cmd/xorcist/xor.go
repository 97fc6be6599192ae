package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/RowanDark/xorcist/internal/hexcodec"
	"github.com/RowanDark/xorcist/internal/xorop"
)

func runXOR(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "xor subcommand required")
		return 2
	}
	switch args[0] {
	case "fixed":
		return runXORFixed(args[1:])
	case "single":
		return runXORSingle(args[1:])
	case "repeat":
		return runXORRepeat(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown xor subcommand: %s\n", args[0])
		return 2
	}
}

func runXORFixed(args []string) int {
	fs := flag.NewFlagSet("xor fixed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "xor fixed requires two hex arguments")
		return 2
	}
	out, err := xorop.Compute(fs.Arg(0), fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "xor: %v\n", err)
		return 1
	}
	fmt.Println(out)
	return 0
}

func runXORSingle(args []string) int {
	fs := flag.NewFlagSet("xor single", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	keyFlag := fs.String("key", "", "key byte, decimal or 0x-prefixed hex")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *keyFlag == "" {
		fmt.Fprintln(os.Stderr, "--key must be provided")
		return 2
	}
	key, err := parseKeyByte(*keyFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid key %q: %v\n", *keyFlag, err)
		return 2
	}

	hexText, err := readHexInput(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	src, err := hexcodec.DecodeString(hexText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode hex: %v\n", err)
		return 1
	}
	dst := make([]byte, len(src))
	xorop.SingleByte(dst, src, key)
	fmt.Println(hexcodec.EncodeToString(dst))
	return 0
}

func runXORRepeat(args []string) int {
	fs := flag.NewFlagSet("xor repeat", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	key := fs.String("key", "", "repeating key text")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *key == "" {
		fmt.Fprintln(os.Stderr, "--key must be provided")
		return 2
	}
	data, err := readInput(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(hexcodec.EncodeToString(xorop.Repeating(data, []byte(*key))))
	return 0
}

func parseKeyByte(s string) (byte, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(n), nil
}
