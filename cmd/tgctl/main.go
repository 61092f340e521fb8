// Package main implements tgctl, a command-line tool for testing thoughtguard
// rules locally and querying a running daemon.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/thoughtguard/internal/classifier"
	"github.com/fyrsmithlabs/thoughtguard/internal/rules"
)

var version = "dev"

// cliOptions holds persistent flag values.
type cliOptions struct {
	rulesFile string
	serverURL string
	jsonOut   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "tgctl",
		Short: "CLI for thoughtguard rules and server operations",
		Long: `tgctl runs the thoughtguard classifier locally against text from a file or
stdin, validates rule files, and talks to a running thoughtguard server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.rulesFile, "rules", "", "TOML rule file (default: built-in rules)")
	root.PersistentFlags().StringVar(&opts.serverURL, "server", "http://localhost:9090", "thoughtguard server URL")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print JSON output")

	root.AddCommand(
		newScoreCmd(opts),
		newFilterCmd(opts),
		newCheckCmd(opts),
		newLinesCmd(opts),
		newRulesCmd(opts),
		newClassifyCmd(opts),
		newHealthCmd(opts),
	)
	return root
}

// readInput reads the message from the named file, or stdin for "-" or no
// argument. Trailing newlines are not part of the message.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	var content []byte
	var err error

	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}

	text := strings.TrimRight(string(content), "\r\n")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no input text")
	}
	return text, nil
}

// loadEngine compiles the rule file, or the built-in tables when none is set.
func loadEngine(opts *cliOptions) (*classifier.Engine, error) {
	if opts.rulesFile == "" {
		return classifier.New(rules.DefaultRegistries()), nil
	}
	_, regs, err := rules.LoadFile(opts.rulesFile)
	if err != nil {
		return nil, err
	}
	return classifier.New(regs), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
