package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/thoughtguard/internal/rules"
)

func newRulesCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate rule tables",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the loaded rule tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine(opts)
			if err != nil {
				return err
			}
			regs := engine.Registries()

			if opts.jsonOut {
				return printJSON(cmd, tableSummaries(regs))
			}
			for _, reg := range regs.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %d rule(s)\n", reg.Name(), reg.Len())
				reg.Each(func(sig rules.Signal) bool {
					if reg.Name() == rules.SignalsName {
						fmt.Fprintf(cmd.OutOrStdout(), "  %+4d  %s\n", sig.Weight, sig.Label)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "        %s\n", sig.Label)
					}
					return true
				})
			}
			return nil
		},
	}

	validate := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a TOML rule file compiles",
		Long: `Parse and compile a TOML rule file. Omitted sections fall back to the
built-in tables; duplicate labels are reported as warnings.

Examples:
  tgctl rules validate rules.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, regs, err := rules.LoadFile(args[0])
			if err != nil {
				return err
			}
			for table, labels := range regs.Duplicates() {
				cmd.PrintErrf("warning: duplicate labels in %s: %v\n", table, labels)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s)\n", args[0], regs)
			return nil
		},
	}

	cmd.AddCommand(list, validate)
	return cmd
}

type tableSummary struct {
	Name   string   `json:"name"`
	Count  int      `json:"count"`
	Labels []string `json:"labels"`
}

func tableSummaries(regs *rules.Registries) []tableSummary {
	all := regs.All()
	out := make([]tableSummary, 0, len(all))
	for _, reg := range all {
		s := tableSummary{Name: reg.Name(), Count: reg.Len(), Labels: make([]string, 0, reg.Len())}
		reg.Each(func(sig rules.Signal) bool {
			label := sig.Label
			if reg.Name() == rules.SignalsName {
				label = fmt.Sprintf("%s(%+d)", sig.Label, sig.Weight)
			}
			s.Labels = append(s.Labels, label)
			return true
		})
		out = append(out, s)
	}
	return out
}
