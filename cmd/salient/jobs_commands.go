package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage daemon jobs",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsRemoveCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			jobs, err := c.Jobs(cmd.Context(), normalizeStatuses(statuses)...)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, jobs)
			}
			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No jobs")
				return nil
			}
			fmt.Fprintln(out, renderJobs(jobs))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (queued, processing, done, error)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print jobs as JSON")
	return cmd
}

func newJobsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove jobs and their uploaded files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			missing := 0
			for _, id := range args {
				id = strings.TrimSpace(id)
				removed, err := c.Remove(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("remove %s: %w", id, err)
				}
				if !removed {
					missing++
					fmt.Fprintf(out, "Job %s not found\n", id)
					continue
				}
				fmt.Fprintf(out, "Removed job %s\n", id)
			}
			if missing == len(args) {
				return fmt.Errorf("no matching jobs")
			}
			return nil
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var completed bool
	var failed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs",
		Long:  "Remove finished jobs. Without flags both done and failed jobs are removed; jobs still queued or processing are left alone.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.apiClient()
			if err != nil {
				return err
			}
			var statuses []string
			if completed {
				statuses = append(statuses, "done")
			}
			if failed {
				statuses = append(statuses, "error")
			}
			if len(statuses) == 0 {
				statuses = []string{"done", "error"}
			}

			removed, err := c.Clear(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d job(s)\n", len(removed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "Only remove completed jobs")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only remove failed jobs")
	return cmd
}

func normalizeStatuses(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
