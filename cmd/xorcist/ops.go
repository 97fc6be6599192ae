package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/RowanDark/xorcist/internal/cipher"
	"github.com/RowanDark/xorcist/internal/hexcodec"
)

// opList collects repeated -op flags of the form name[:key=value,...].
type opList []cipher.OperationConfig

func (o *opList) String() string {
	names := make([]string, len(*o))
	for i, op := range *o {
		names[i] = op.Name
	}
	return strings.Join(names, ",")
}

func (o *opList) Set(value string) error {
	op, err := parseOpRef(value)
	if err != nil {
		return err
	}
	*o = append(*o, op)
	return nil
}

// parseOpRef parses "xor_single:key=0x2a" style operation references.
// Parameter values stay strings; operations convert them as needed.
func parseOpRef(ref string) (cipher.OperationConfig, error) {
	name, rest, hasParams := strings.Cut(strings.TrimSpace(ref), ":")
	if name == "" {
		return cipher.OperationConfig{}, errors.New("operation name required")
	}
	op := cipher.OperationConfig{Name: name}
	if !hasParams {
		return op, nil
	}
	op.Parameters = make(map[string]interface{})
	for _, pair := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return cipher.OperationConfig{}, fmt.Errorf("malformed parameter %q in %s", pair, name)
		}
		op.Parameters[key] = value
	}
	return op, nil
}

func runOps(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "ops subcommand required")
		return 2
	}
	switch args[0] {
	case "list":
		return runOpsList(args[1:])
	case "run":
		return runOpsRun(args[1:])
	case "detect":
		return runOpsDetect(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown ops subcommand: %s\n", args[0])
		return 2
	}
}

func runOpsList(args []string) int {
	fs := flag.NewFlagSet("ops list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	opType := fs.String("type", "", "only list operations of this type")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var ops []cipher.Operation
	if *opType != "" {
		ops = cipher.ListOperationsByType(cipher.OperationType(*opType))
	} else {
		ops = cipher.ListOperations()
	}
	printOperations(os.Stdout, ops)
	return 0
}

func printOperations(out io.Writer, ops []cipher.Operation) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tREVERSE\tDESCRIPTION")
	for _, op := range ops {
		reverse := "-"
		if r, ok := op.Reverse(); ok {
			reverse = r.Name()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.Name(), op.Type(), reverse, op.Description())
	}
	tw.Flush()
}

func runOpsRun(args []string) int {
	fs := flag.NewFlagSet("ops run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var ops opList
	fs.Var(&ops, "op", "operation to apply, name[:key=value,...]; repeat to chain")
	reverse := fs.Bool("reverse", false, "run the inverse pipeline")
	hexIn := fs.Bool("hex-in", false, "decode input from hex first")
	hexOut := fs.Bool("hex-out", false, "print output as hex")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if len(ops) == 0 {
		fmt.Fprintln(os.Stderr, "at least one --op is required")
		return 2
	}

	pipeline := &cipher.Pipeline{Operations: ops, Reversible: true}
	return runPipeline(pipeline, *reverse, *hexIn, *hexOut, fs.Args())
}

func runPipeline(pipeline *cipher.Pipeline, reverse, hexIn, hexOut bool, args []string) int {
	if reverse {
		inverse, err := pipeline.Reverse()
		if err != nil {
			fmt.Fprintf(os.Stderr, "reverse pipeline: %v\n", err)
			return 1
		}
		pipeline = inverse
	}

	input, err := readInput(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if hexIn {
		input, err = hexcodec.DecodeString(strings.TrimSpace(string(input)))
		if err != nil {
			fmt.Fprintf(os.Stderr, "decode hex input: %v\n", err)
			return 1
		}
	}

	output, err := pipeline.Execute(context.Background(), input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if hexOut {
		fmt.Println(hexcodec.EncodeToString(output))
		return 0
	}
	os.Stdout.Write(output)
	fmt.Println()
	return 0
}

// runOpsDetect guesses how the input was encoded and shows what each
// matching operation turns it into, most likely first.
func runOpsDetect(args []string) int {
	fs := flag.NewFlagSet("ops detect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	hexIn := fs.Bool("hex-in", false, "decode input from hex first")
	hexOut := fs.Bool("hex-out", false, "print decoded output as hex")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	input, err := readInput(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *hexIn {
		input, err = hexcodec.DecodeString(strings.TrimSpace(string(input)))
		if err != nil {
			fmt.Fprintf(os.Stderr, "decode hex input: %v\n", err)
			return 1
		}
	}

	results, err := cipher.DecodeAll(context.Background(), input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "detect: %v\n", err)
		return 1
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "no known encoding detected")
		return 1
	}
	printDetections(os.Stdout, results, *hexOut)
	return 0
}

func printDetections(out io.Writer, results []cipher.DecodeResult, hexOut bool) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENCODING\tCONFIDENCE\tOPERATION\tOUTPUT")
	for _, r := range results {
		output := "error: " + r.Error
		if r.Success {
			if hexOut {
				output = hexcodec.EncodeToString(r.Decoded)
			} else {
				output = strconv.Quote(string(r.Decoded))
			}
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\n", r.Detection.Encoding, r.Detection.Confidence, r.Detection.Operation, output)
		fmt.Fprintf(tw, "\t\t\t%s\n", r.Detection.Reasoning)
	}
	tw.Flush()
}
