package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/RowanDark/xorcist/internal/config"
	"github.com/RowanDark/xorcist/internal/keyfinder"
	"github.com/RowanDark/xorcist/internal/logging"
)

func runCrack(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("crack", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	workers := fs.Int("workers", cfg.Workers, "goroutines to split the key space across")
	detectPath := fs.String("detect", "", "file of hex lines to search for the single XOR-encrypted one")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *workers < 0 {
		fmt.Fprintln(os.Stderr, "--workers must be >= 0")
		return 2
	}

	audit, err := openAudit(cfg, "crack")
	if err != nil {
		fmt.Fprintf(os.Stderr, "open audit log: %v\n", err)
		return 1
	}
	defer audit.Close()

	finder := &keyfinder.Finder{Workers: *workers}
	ctx := context.Background()

	if *detectPath != "" {
		if fs.NArg() > 0 {
			fmt.Fprintln(os.Stderr, "crack --detect takes no positional arguments")
			return 2
		}
		lines, err := readLines(*detectPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", *detectPath, err)
			return 1
		}
		det, err := finder.Detect(ctx, lines)
		if err != nil {
			fmt.Fprintf(os.Stderr, "detect: %v\n", err)
			return 1
		}
		emitRecovered(audit, det.Candidate, det.Line)
		fmt.Printf("line: %d\n", det.Line)
		printCandidate(os.Stdout, det.Candidate)
		return 0
	}

	hexText, err := readHexInput(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cand, err := finder.Find(ctx, hexText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "crack: %v\n", err)
		return 1
	}
	emitRecovered(audit, cand, 0)
	printCandidate(os.Stdout, cand)
	return 0
}

func printCandidate(out io.Writer, c keyfinder.Candidate) {
	fmt.Fprintf(out, "key: 0x%02x\n", c.Key)
	fmt.Fprintf(out, "score: %d\n", c.Score)
	fmt.Fprintf(out, "plaintext: %s\n", c.Plaintext)
}

func emitRecovered(audit *logging.AuditLogger, c keyfinder.Candidate, line int) {
	meta := map[string]any{"key": int(c.Key), "score": c.Score}
	if line > 0 {
		meta["line"] = line
	}
	audit.Emit(logging.AuditEvent{
		EventType: logging.EventKeyRecovered,
		Decision:  logging.DecisionInfo,
		Metadata:  meta,
	})
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
