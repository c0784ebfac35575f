package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"salient/internal/audioanalysis"
	"salient/internal/config"
	"salient/internal/daemon"
	"salient/internal/jobs"
	"salient/internal/logging"
	"salient/internal/metrics"
	"salient/internal/workflow"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the analysis daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx, cmd.OutOrStdout())
		},
	}
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext, out io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("command context is required")
	}
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	defer store.Close()

	var collector *metrics.Metrics
	if cfg.Metrics.Enabled {
		collector = metrics.New()
	}

	workflowManager := workflow.NewManager(cfg, store, logger, workflow.WithMetrics(collector))
	registerStages(workflowManager, cfg, store, logger, collector)

	d, err := daemon.New(cfg, store, logger, workflowManager, collector)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	fmt.Fprintf(out, "salient daemon listening on %s\n", d.Addr())

	<-signalCtx.Done()
	logger.Info("salient daemon shutting down")
	return nil
}

func registerStages(mgr *workflow.Manager, cfg *config.Config, store *jobs.Store, logger *slog.Logger, collector *metrics.Metrics) {
	if mgr == nil || cfg == nil {
		return
	}
	mgr.ConfigureStages(workflow.StageSet{
		Analyzer: audioanalysis.NewAnalyzer(cfg, store, logger, collector),
	})
}
