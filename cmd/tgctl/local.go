package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/thoughtguard/internal/policy"
)

func newScoreCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "score [file|-]",
		Short: "Score text against the weighted signals",
		Long: `Score text against the weighted signal table and list the signals that matched.

Examples:
  # Score a message
  echo "Voy a revisar el pedido." | tgctl score

  # Score with a custom rule file
  tgctl score --rules rules.toml message.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			engine, err := loadEngine(opts)
			if err != nil {
				return err
			}

			score := engine.Score(text)
			if opts.jsonOut {
				return printJSON(cmd, score)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Score: %d\n", score.Score)
			for _, m := range score.Matches {
				fmt.Fprintf(cmd.OutOrStdout(), "  %+4d  %s\n", m.Weight, m.Label)
			}
			return nil
		},
	}
}

func newFilterCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "filter [file|-]",
		Short: "Remove thought lines from text",
		Long: `Remove thought lines from text and print what remains.

Removed lines are reported on stderr. Nothing is printed when the whole
message is a thought.

Examples:
  tgctl filter draft.txt
  cat draft.txt | tgctl filter -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			engine, err := loadEngine(opts)
			if err != nil {
				return err
			}

			r := engine.FilterThoughts(text)
			if opts.jsonOut {
				return printJSON(cmd, r)
			}

			if r.FilteredText != "" {
				fmt.Fprintln(cmd.OutOrStdout(), r.FilteredText)
			}
			if r.Removed() {
				cmd.PrintErrf("[tgctl] removed %d line(s)", len(r.RemovedLines))
				if r.WholeMessage {
					cmd.PrintErr(", whole message")
				}
				if len(r.Labels) > 0 {
					cmd.PrintErrf(" [%s]", strings.Join(r.Labels, ", "))
				}
				cmd.PrintErrln()
			}
			return nil
		},
	}
}

func newCheckCmd(opts *cliOptions) *cobra.Command {
	defaults := policy.DefaultConfig()
	cfg := &policy.Config{}

	cmd := &cobra.Command{
		Use:   "check [file|-]",
		Short: "Print the send decision for text",
		Long: `Apply a decision strategy to text and print the resulting action:
pass, replace (with the replacement content) or cancel.

Examples:
  tgctl check message.txt
  tgctl check --strategy redaction message.txt
  tgctl check --threshold 30 --json -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			engine, err := loadEngine(opts)
			if err != nil {
				return err
			}
			strategy, err := policy.New(*cfg, engine)
			if err != nil {
				return err
			}

			out := strategy.Decide(text)
			if opts.jsonOut {
				return printJSON(cmd, out.Decision)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Decision: %s\n", out.Decision.Action)
			if out.Score != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Score:    %d (threshold %d)\n", out.Score.Score, cfg.BlockThreshold)
			}
			if labels := out.Labels(); len(labels) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Labels:   %s\n", strings.Join(labels, ", "))
			}
			if out.Decision.IsReplace() {
				fmt.Fprintln(cmd.OutOrStdout(), "Content:")
				fmt.Fprintln(cmd.OutOrStdout(), out.Decision.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Strategy, "strategy", defaults.Strategy,
		fmt.Sprintf("decision strategy (%s or %s)", policy.StrategyThreshold, policy.StrategyRedaction))
	cmd.Flags().IntVar(&cfg.BlockThreshold, "threshold", defaults.BlockThreshold, "cancel score for the threshold strategy")
	return cmd
}

func newLinesCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lines [file|-]",
		Short: "Explain how each line is classified",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			engine, err := loadEngine(opts)
			if err != nil {
				return err
			}

			verdicts := engine.ExplainLines(text)
			if opts.jsonOut {
				return printJSON(cmd, verdicts)
			}

			for _, v := range verdicts {
				mark := "keep"
				if v.IsThought {
					mark = "drop"
				}
				reason := string(v.Reason)
				if v.Label != "" {
					reason += ":" + v.Label
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-24s %s\n", mark, reason, v.Line)
			}
			return nil
		},
	}
}
