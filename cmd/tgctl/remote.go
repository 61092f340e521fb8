package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/thoughtguard/internal/guard"
	apihttp "github.com/fyrsmithlabs/thoughtguard/internal/http"
)

func newClassifyCmd(opts *cliOptions) *cobra.Command {
	var req apihttp.ClassifyRequest

	cmd := &cobra.Command{
		Use:   "classify [file|-]",
		Short: "Classify text on a running thoughtguard server",
		Long: `Send text to a thoughtguard server and print its verdict. The server applies
its configured strategy and audits the decision.

Examples:
  # Classify a file
  tgctl classify draft.txt

  # Classify from stdin with routing metadata
  echo "Voy a revisar el pedido." | tgctl classify --channel whatsapp -

  # Use a different server
  tgctl classify --server http://localhost:8080 draft.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			req.Text = text

			body, err := json.Marshal(req)
			if err != nil {
				return fmt.Errorf("failed to marshal request: %w", err)
			}

			url := strings.TrimRight(opts.serverURL, "/") + "/api/v1/classify"
			client := &http.Client{Timeout: 30 * time.Second}
			resp, err := client.Post(url, "application/json", bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("failed to send request to %s: %w", url, err)
			}
			defer resp.Body.Close()

			if err := checkStatus(resp); err != nil {
				return err
			}

			var v guard.Verdict
			if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			if opts.jsonOut {
				return printJSON(cmd, v)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Decision: %s\n", v.Decision.Action)
			fmt.Fprintf(out, "Strategy: %s\n", v.Strategy)
			if v.Score != nil {
				fmt.Fprintf(out, "Score:    %d\n", *v.Score)
			}
			if len(v.Labels) > 0 {
				fmt.Fprintf(out, "Labels:   %s\n", strings.Join(v.Labels, ", "))
			}
			if v.Declined {
				fmt.Fprintln(out, "Declined: blank message")
			}
			if v.Decision.IsReplace() {
				fmt.Fprintln(out, "Content:")
				fmt.Fprintln(out, v.Decision.Text)
			}
			fmt.Fprintf(out, "ID:       %s\n", v.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Channel, "channel", "", "message channel")
	cmd.Flags().StringVar(&req.Destination, "destination", "", "message destination")
	return cmd
}

func newHealthCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check thoughtguard server health",
		Long: `Check the health status of a thoughtguard server.

Examples:
  tgctl health
  tgctl health --server http://localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimRight(opts.serverURL, "/") + "/health"
			client := &http.Client{Timeout: 5 * time.Second}

			resp, err := client.Get(url)
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", url, err)
			}
			defer resp.Body.Close()

			if err := checkStatus(resp); err != nil {
				return err
			}

			var health apihttp.HealthResponse
			if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			if opts.jsonOut {
				return printJSON(cmd, health)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server Status: %s\n", health.Status)
			fmt.Fprintf(out, "Server URL:    %s\n", opts.serverURL)
			fmt.Fprintf(out, "Strategy:      %s\n", health.Strategy)
			if t := health.Telemetry; t != nil {
				state := "healthy"
				if t.Degraded {
					state = "degraded: " + strings.Join(t.Reasons, "; ")
				} else if !t.Healthy {
					state = "unhealthy"
				}
				fmt.Fprintf(out, "Telemetry:     %s\n", state)
			}
			return nil
		},
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, err)
	}
	var apiErr apihttp.ErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
