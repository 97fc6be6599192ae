package main

import (
	"fmt"
	"io"
	"os"

	"github.com/RowanDark/xorcist/internal/config"
)

func runConfig(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "config subcommand required")
		return 2
	}

	switch args[0] {
	case "print":
		return runConfigPrint()
	default:
		fmt.Fprintf(os.Stderr, "unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func runConfigPrint() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	printResolvedConfig(os.Stdout, cfg)
	return 0
}

func printResolvedConfig(out io.Writer, cfg config.Config) {
	fmt.Fprintf(out, "workers: %d\n", cfg.Workers)
	fmt.Fprintf(out, "recipes_dir: %s\n", cfg.RecipesDir)
	fmt.Fprintf(out, "audit_log: %s\n", cfg.AuditLog)
	fmt.Fprintln(out, "server:")
	fmt.Fprintf(out, "  addr: %s\n", cfg.Server.Addr)
	fmt.Fprintf(out, "  max_conns: %d\n", cfg.Server.MaxConns)
	fmt.Fprintln(out, "update:")
	fmt.Fprintf(out, "  base_url: %s\n", cfg.Update.BaseURL)
	fmt.Fprintf(out, "  channel: %s\n", cfg.Update.Channel)
}
