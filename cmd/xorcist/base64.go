package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/RowanDark/xorcist/internal/b64"
	"github.com/RowanDark/xorcist/internal/hexcodec"
)

func runBase64(args []string) int {
	fs := flag.NewFlagSet("base64", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	text := fs.Bool("text", false, "treat input as literal text instead of hex")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var data []byte
	if *text {
		raw, err := readInput(fs.Args())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		data = raw
	} else {
		hexText, err := readHexInput(fs.Args())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		data, err = hexcodec.DecodeString(hexText)
		if err != nil {
			fmt.Fprintf(os.Stderr, "decode hex: %v\n", err)
			return 1
		}
	}

	fmt.Println(b64.Encode(data))
	return 0
}
