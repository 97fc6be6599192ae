package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/RowanDark/xorcist/internal/cipher"
	"github.com/RowanDark/xorcist/internal/config"
	"github.com/RowanDark/xorcist/internal/logging"
	"github.com/RowanDark/xorcist/internal/rpc"
)

func runServe(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addr := fs.String("addr", cfg.Server.Addr, "address for the gRPC server to listen on")
	maxConns := fs.Int("max-conns", cfg.Server.MaxConns, "maximum concurrent connections (0 for no limit)")
	workers := fs.Int("workers", cfg.Workers, "goroutines per key search")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "serve takes no positional arguments")
		return 2
	}
	cfg.Server.Addr = *addr
	cfg.Server.MaxConns = *maxConns
	cfg.Workers = *workers
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg config.Config) error {
	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr, err)
	}
	defer func() {
		if err := lis.Close(); err != nil && !isClosedErr(err) {
			log.Printf("failed to close listener: %v", err)
		}
	}()

	return serve(ctx, lis, cfg)
}

func serve(ctx context.Context, lis net.Listener, cfg config.Config) error {
	var opts []logging.Option
	if cfg.AuditLog != "" {
		opts = append(opts, logging.WithFile(cfg.AuditLog))
	}
	audit, err := logging.NewAuditLogger("xorcist-serve", opts...)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer audit.Close()

	dir, err := cfg.ResolveRecipesDir()
	if err != nil {
		return fmt.Errorf("resolve recipes dir: %w", err)
	}
	recipes := cipher.NewRecipeManager(dir)
	if err := recipes.LoadRecipes(); err != nil {
		log.Printf("some recipes were skipped: %v", err)
	}

	log.Printf("xorcist listening on %s", lis.Addr())
	return rpc.Serve(ctx, lis, rpc.Options{
		Recipes:  recipes,
		Workers:  cfg.Workers,
		Audit:    audit,
		MaxConns: cfg.Server.MaxConns,
	})
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
