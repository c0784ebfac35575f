package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"salient/internal/config"
	"salient/internal/deps"
	"salient/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var skipDaemon bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run preflight and dependency checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			printLines(out, renderSectionHeader("Preflight", colorize))
			for _, line := range preflightLines(results, colorize) {
				fmt.Fprintln(out, line)
			}

			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			fmt.Fprintln(out)
			printLines(out, renderSectionHeader("Dependencies", colorize))
			for _, line := range dependencyLines(statuses, colorize) {
				fmt.Fprintln(out, line)
			}

			if !skipDaemon {
				fmt.Fprintln(out)
				printLines(out, renderSectionHeader("Daemon", colorize))
				for _, line := range daemonLines(cmd.Context(), ctx, cfg, colorize) {
					fmt.Fprintln(out, line)
				}
			}

			failed := len(preflight.Failed(results)) + len(deps.Missing(statuses))
			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipDaemon, "skip-daemon", false, "Do not probe the running daemon")
	return cmd
}

func preflightLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses))
	for _, dep := range statuses {
		kind := statusOK
		detail := dep.Path
		if dep.Detail != "" {
			detail = strings.TrimSpace(dep.Path + " " + dep.Detail)
		}
		if !dep.Available {
			kind = statusError
			if dep.Optional {
				kind = statusWarn
				detail = strings.TrimSpace(dep.Detail + " (optional; only plain PCM WAV can be analyzed)")
			}
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	return lines
}

// daemonLines reports whether a daemon answers on the configured address.
// An unreachable daemon is informational: check still succeeds.
func daemonLines(parent context.Context, ctx *commandContext, cfg *config.Config, colorize bool) []string {
	c, err := ctx.apiClient()
	if err != nil {
		return []string{renderStatusLine("Daemon", statusWarn, err.Error(), colorize)}
	}
	probeCtx, cancel := context.WithTimeout(parent, 3*time.Second)
	defer cancel()
	health, err := c.Health(probeCtx)
	if err != nil {
		return []string{renderStatusLine("Daemon", statusWarn, "not reachable at "+cfg.API.Bind, colorize)}
	}

	kind := statusOK
	if health.Status != "ok" {
		kind = statusWarn
	}
	lines := []string{
		renderStatusLine("Daemon", kind, fmt.Sprintf("%s (pid %d)", health.Status, health.PID), colorize),
		renderStatusLine("Workers", statusInfo, fmt.Sprintf("%d, running: %s", health.Workflow.Workers, yesNo(health.Workflow.Running)), colorize),
	}
	dbKind := statusOK
	if !health.Database.IntegrityOK || health.Database.Error != "" {
		dbKind = statusError
	}
	lines = append(lines, renderStatusLine("Database", dbKind, fmt.Sprintf("%d jobs, schema v%d", health.Database.TotalJobs, health.Database.SchemaVersion), colorize))
	for _, stageHealth := range health.Workflow.StageHealth {
		stageKind := statusOK
		if !stageHealth.Ready {
			stageKind = statusError
		}
		lines = append(lines, renderStatusLine(jobStatusLabel(stageHealth.Name), stageKind, stageHealth.Detail, colorize))
	}
	return lines
}

func printLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
