package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"salient/internal/audio"
	"salient/internal/config"
	"salient/internal/jobs"
	"salient/internal/salience"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze an audio file locally without the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			decoder := audio.NewDecoder(cfg.Analysis.FFmpegBinary, cfg.Analysis.SampleRate)
			waveform, err := decoder.Decode(cmd.Context(), path)
			if err != nil {
				return err
			}
			result, err := salience.Analyze(waveform, filepath.Base(path), jobs.NewID(), nil)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", filepath.Base(path), err)
			}

			if asJSON {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resultSummary(result))
			if len(result.Segments) > 0 {
				fmt.Fprintln(out, renderSegments(result))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis result as JSON")
	return cmd
}
