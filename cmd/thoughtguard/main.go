// Thoughtguard is the outgoing message filter daemon.
//
// It serves the guard over an HTTP API and, when enabled, as a NATS
// request/reply service. Every decision that removes content is audited to
// the log and, with NATS, to the audit subject.
//
// Configuration comes from an optional YAML file and THOUGHTGUARD_*
// environment variables.
//
// Usage:
//
//	# Start with defaults
//	thoughtguard
//
//	# Start with a config file
//	thoughtguard -config /etc/thoughtguard/config.yaml
//
//	# Configure via environment
//	THOUGHTGUARD_GUARD_STRATEGY=redaction THOUGHTGUARD_NATS_ENABLED=true thoughtguard
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fyrsmithlabs/thoughtguard/internal/app"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", os.Getenv("THOUGHTGUARD_CONFIG"), "path to YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion(os.Stdout)
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  thoughtguard [-config file]   Start the daemon\n")
			fmt.Fprintf(os.Stderr, "  thoughtguard version          Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("thoughtguard: %v", err)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "thoughtguard by Fyrsmith Labs\n")
	fmt.Fprintf(w, "Version:    %s\n", version)
	fmt.Fprintf(w, "Commit:     %s\n", gitCommit)
	fmt.Fprintf(w, "Build Date: %s\n", buildDate)
}

// run loads configuration, initializes the daemon and blocks until ctx is
// cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := app.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
