package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"salient/internal/api"
	"salient/internal/client"
	"salient/internal/config"
	"salient/internal/salience"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Upload an audio file to the daemon for analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			id, err := c.Upload(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("upload: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Submitted %s as %s\n", path, id)
			if !wait {
				return nil
			}

			colorize := shouldColorize(out)
			final, err := c.Wait(cmd.Context(), id, interval, func(status api.StatusResponse) {
				fmt.Fprintln(out, renderJobStatus(status, colorize))
			})
			if err != nil {
				return err
			}
			if final.Status == "error" {
				return fmt.Errorf("analysis failed: %s", final.Message)
			}
			return printResult(cmd, c, id, false)
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the analysis to finish and print the result")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Polling interval while waiting")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Show progress for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := c.Status(cmd.Context(), strings.TrimSpace(args[0]))
			if errors.Is(err, client.ErrUnknownJob) {
				return fmt.Errorf("job %s not found", args[0])
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderJobStatus(status, shouldColorize(cmd.OutOrStdout())))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")
	return cmd
}

func newResultCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "result <id>",
		Short: "Show the salient segments of a finished job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			return printResult(cmd, c, strings.TrimSpace(args[0]), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw result JSON")
	return cmd
}

func printResult(cmd *cobra.Command, c *client.Client, id string, asJSON bool) error {
	raw, err := c.Result(cmd.Context(), id)
	if errors.Is(err, client.ErrNotReady) {
		return fmt.Errorf("result for %s is not ready", id)
	}
	if err != nil {
		return err
	}
	var result salience.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	if asJSON {
		return writeJSON(cmd, &result)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resultSummary(&result))
	if len(result.Segments) > 0 {
		fmt.Fprintln(out, renderSegments(&result))
	}
	return nil
}

func renderJobStatus(status api.StatusResponse, colorize bool) string {
	message := formatPercent(status.Progress)
	if status.Message != "" {
		message += " " + status.Message
	}
	return renderStatusLine(jobStatusLabel(status.Status), jobStatusKind(status.Status), message, colorize)
}
