package main

import (
	"bytes"
	"crypto/rand"
	"flag"
	"fmt"
	"os"

	"github.com/RowanDark/xorcist/internal/dh"
	"github.com/RowanDark/xorcist/internal/hexcodec"
)

func runDH(args []string) int {
	fs := flag.NewFlagSet("dh", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	small := fs.Bool("small", false, "use the toy p=37 g=5 group instead of the 1536-bit prime")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "dh takes no positional arguments")
		return 2
	}

	params := dh.NISTParams()
	if *small {
		params = dh.SmallParams()
	}

	alice, err := dh.GenerateKey(rand.Reader, params)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	bob, err := dh.GenerateKey(rand.Reader, params)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	s1, err := alice.SharedSecret(bob.Public())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	s2, err := bob.SharedSecret(alice.Public())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !bytes.Equal(s1, s2) {
		fmt.Fprintln(os.Stderr, "shared secrets disagree")
		return 1
	}

	fmt.Printf("A: %s\n", hexcodec.EncodeToString(alice.Y.Bytes()))
	fmt.Printf("B: %s\n", hexcodec.EncodeToString(bob.Y.Bytes()))
	fmt.Printf("secret: %s\n", hexcodec.EncodeToString(s1))
	return 0
}
