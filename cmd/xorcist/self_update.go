package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/RowanDark/xorcist/internal/config"
	"github.com/RowanDark/xorcist/internal/env"
	"github.com/RowanDark/xorcist/internal/updater"
)

func runSelfUpdate(args []string) int {
	if len(args) > 0 {
		switch args[0] {
		case "channel":
			return runSelfUpdateChannel(args[1:])
		}
	}

	fs := flag.NewFlagSet("self-update", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	channelFlag := fs.String("channel", "", "update channel to use for this invocation (stable or beta)")
	rollback := fs.Bool("rollback", false, "restore the previous xorcist binary")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "self-update takes no positional arguments")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	if *channelFlag != "" {
		if _, err := updater.NormalizeChannel(*channelFlag); err != nil {
			fmt.Fprintf(os.Stderr, "invalid channel %q: %v\n", *channelFlag, err)
			return 2
		}
	}

	audit, err := openAudit(cfg, "updater")
	if err != nil {
		fmt.Fprintf(os.Stderr, "open audit log: %v\n", err)
		return 1
	}
	defer audit.Close()

	client := &updater.Client{
		Settings: cfg.Update,
		Version:  version,
		Out:      os.Stdout,
		Audit:    audit,
	}

	if *rollback {
		if err := client.Rollback(); err != nil {
			fmt.Fprintf(os.Stderr, "rollback failed: %v\n", err)
			return 1
		}
		return 0
	}

	if err := client.Update(context.Background(), *channelFlag); err != nil {
		fmt.Fprintf(os.Stderr, "update failed: %v\n", err)
		return 1
	}
	return 0
}

// runSelfUpdateChannel prints the configured channel, or records a new one
// in ~/.xorcist/config.toml.
func runSelfUpdateChannel(args []string) int {
	fs := flag.NewFlagSet("self-update channel", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	switch fs.NArg() {
	case 0:
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			return 1
		}
		channel, err := updater.NormalizeChannel(cfg.Update.Channel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "configured channel: %v\n", err)
			return 1
		}
		fmt.Fprintln(os.Stdout, channel)
		return 0
	case 1:
		channel, err := updater.NormalizeChannel(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid channel %q: %v\n", fs.Arg(0), err)
			return 2
		}
		if err := config.SetHomeValue("update.channel", channel); err != nil {
			fmt.Fprintf(os.Stderr, "record channel: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "default channel set to %s\n", channel)
		if _, ok := env.Lookup(env.Name("update_channel")); ok {
			fmt.Fprintf(os.Stderr, "warning: %s is set and still takes precedence\n", env.Name("update_channel"))
		}
		return 0
	default:
		fmt.Fprintln(os.Stderr, "self-update channel accepts at most one argument")
		return 2
	}
}
