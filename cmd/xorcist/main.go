package main

import (
	"flag"
	"fmt"
	"os"
)

const productName = "xorcist"
const cliBanner = productName + " - hex, base64 and XOR toolkit"

func init() {
	defaultUsage := flag.Usage
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintln(out, cliBanner)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Usage: xorcist <command> [arguments]")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Commands:")
		fmt.Fprintln(out, "  hex encode|decode     convert between bytes and lowercase hex")
		fmt.Fprintln(out, "  base64                encode hex input as URL-safe base64")
		fmt.Fprintln(out, "  xor fixed|single|repeat")
		fmt.Fprintln(out, "  crack                 recover a single-byte XOR key")
		fmt.Fprintln(out, "  ops list|run          inspect or chain registered operations")
		fmt.Fprintln(out, "  recipe list|run|save  manage named pipelines")
		fmt.Fprintln(out, "  dh                    run a Diffie-Hellman exchange")
		fmt.Fprintln(out, "  serve                 expose the operations over gRPC")
		fmt.Fprintln(out, "  config print          show the resolved configuration")
		fmt.Fprintln(out, "  self-update           update or roll back this binary")
		fmt.Fprintln(out, "  version")
		fmt.Fprintln(out)
		if defaultUsage != nil {
			defaultUsage()
		}
	}
}

func main() {
	flag.Parse()
	if maybePrintVersion() {
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(dispatch(args))
}

func dispatch(args []string) int {
	switch args[0] {
	case "hex":
		return runHex(args[1:])
	case "base64":
		return runBase64(args[1:])
	case "xor":
		return runXOR(args[1:])
	case "crack":
		return runCrack(args[1:])
	case "ops":
		return runOps(args[1:])
	case "recipe":
		return runRecipe(args[1:])
	case "dh":
		return runDH(args[1:])
	case "serve":
		return runServe(args[1:])
	case "config":
		return runConfig(args[1:])
	case "self-update":
		return runSelfUpdate(args[1:])
	case "version":
		return runVersion(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		flag.Usage()
		return 2
	}
}
