package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/RowanDark/xorcist/internal/hexcodec"
)

func runHex(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "hex subcommand required")
		return 2
	}
	switch args[0] {
	case "encode":
		return runHexEncode(args[1:])
	case "decode":
		return runHexDecode(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown hex subcommand: %s\n", args[0])
		return 2
	}
}

func runHexEncode(args []string) int {
	fs := flag.NewFlagSet("hex encode", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	data, err := readInput(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(hexcodec.EncodeToString(data))
	return 0
}

func runHexDecode(args []string) int {
	fs := flag.NewFlagSet("hex decode", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	text, err := readHexInput(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	data, err := hexcodec.DecodeString(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode hex: %v\n", err)
		return 1
	}
	os.Stdout.Write(data)
	fmt.Println()
	return 0
}
