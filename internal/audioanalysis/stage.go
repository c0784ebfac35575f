package audioanalysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"salient/internal/audio"
	"salient/internal/config"
	"salient/internal/jobs"
	"salient/internal/logging"
	"salient/internal/metrics"
	"salient/internal/salience"
	"salient/internal/services"
	"salient/internal/stage"
)

const stageName = "analysis"

// Analyzer integrates salience analysis with the workflow manager.
type Analyzer struct {
	store   *jobs.Store
	cfg     *config.Config
	decoder *audio.Decoder
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewAnalyzer constructs the analysis stage. m may be nil.
func NewAnalyzer(cfg *config.Config, store *jobs.Store, logger *slog.Logger, m *metrics.Metrics) *Analyzer {
	a := &Analyzer{
		cfg:     cfg,
		store:   store,
		metrics: m,
		logger:  logging.NewComponentLogger(logger, "audio-analysis"),
	}
	if cfg != nil {
		a.decoder = audio.NewDecoder(cfg.Analysis.FFmpegBinary, cfg.Analysis.SampleRate)
	}
	return a
}

// Prepare checks that the stage is wired and the upload is still on disk.
func (a *Analyzer) Prepare(ctx context.Context, job *jobs.Job) error {
	if a == nil || a.cfg == nil || a.decoder == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare", "Analysis stage is not configured", nil)
	}
	if a.store == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare", "Job store unavailable", nil)
	}
	if job == nil {
		return services.Wrap(services.ErrValidation, stageName, "prepare", "Job is nil", nil)
	}
	source := strings.TrimSpace(job.SourcePath)
	if source == "" {
		return services.Wrap(services.ErrValidation, stageName, "prepare", "Job has no uploaded file", nil)
	}
	if _, err := os.Stat(source); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, stageName, "prepare",
				fmt.Sprintf("Uploaded file %s is missing", job.Filename), err)
		}
		return services.Wrap(services.ErrTransient, stageName, "prepare", "Cannot access uploaded file", err)
	}
	return nil
}

// Execute decodes the upload, computes segments, and stores the result.
func (a *Analyzer) Execute(ctx context.Context, job *jobs.Job) error {
	stageStart := time.Now()
	if err := a.Prepare(ctx, job); err != nil {
		return err
	}
	logger := logging.WithContext(ctx, a.logger)
	logger.Debug("decoding upload", logging.String("source_file", job.SourcePath))

	done := a.metrics.ObserveDecode()
	waveform, err := a.decoder.Decode(ctx, job.SourcePath)
	done()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Debug("upload decoded",
		logging.Int("samples", len(waveform.Samples)),
		logging.Int("sample_rate", waveform.SampleRate),
		logging.Float64("duration_sec", waveform.Duration()),
	)

	sampler := logging.NewProgressSampler(0.25)
	progressErrs := 0
	onProgress := func(p salience.Progress) {
		if err := a.store.UpdateProgress(ctx, job.ID, p.Progress, p.Message); err != nil {
			progressErrs++
			if progressErrs == 1 {
				logger.Warn("progress update failed; clients may see stale progress",
					logging.Error(err),
					logging.String(logging.FieldEventType, "progress_persist_failed"),
					logging.String(logging.FieldErrorHint, "check job database access"),
				)
			}
		}
		if sampler.ShouldLog(p.Progress, string(p.Status)) {
			logger.Info("analysis progress",
				logging.Float64("progress", p.Progress),
				logging.String("message", p.Message),
			)
		}
	}

	result, err := salience.Analyze(waveform, job.Filename, job.ID, onProgress)
	if err != nil {
		return err
	}
	if err := validateResult(result); err != nil {
		return err
	}
	if err := a.store.Complete(ctx, job.ID, result); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "persist result",
			"Failed to store analysis result", err)
	}
	a.metrics.RecordAnalysis(len(result.Segments), result.DurationSec)

	logger.Info("analysis stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
		logging.Int("segment_count", len(result.Segments)),
		logging.Float64("duration_sec", result.DurationSec),
	)
	return nil
}

// HealthCheck reports readiness for the analysis stage.
func (a *Analyzer) HealthCheck(ctx context.Context) stage.Health {
	if a == nil || a.cfg == nil {
		return stage.Unhealthy(stageName, "stage not configured")
	}
	if a.store == nil {
		return stage.Unhealthy(stageName, "job store unavailable")
	}
	if _, err := exec.LookPath(a.cfg.Analysis.FFmpegBinary); err != nil {
		return stage.Health{
			Name:   stageName,
			Ready:  true,
			Detail: fmt.Sprintf("%s not found; only PCM WAV uploads can be decoded", a.cfg.Analysis.FFmpegBinary),
		}
	}
	return stage.Healthy(stageName)
}
