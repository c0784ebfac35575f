package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"salient/internal/jobs"
	"salient/internal/logging"
	"salient/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, job *jobs.Job, stageErr error, elapsed time.Duration) {
	logger := logging.WithContext(ctx, m.logger)

	kind := services.ClassifyFailure(stageErr)
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = analysisStage + " failed"
	}

	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.String(logging.FieldErrorKind, string(kind)),
		logging.String(logging.FieldErrorHint, failureHint(kind)),
		logging.String("error_message", message),
		logging.Duration("stage_duration", elapsed),
		logging.Error(stageErr),
	)

	if err := m.store.Fail(ctx, job.ID, message, string(kind)); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not record stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.metrics.RecordJobFailed(elapsed, string(kind))
	m.recordOutcome(false)
	m.setLastError(stageErr)
	m.setLastJob(ctx, job.ID)
	m.notifyJobFailed(ctx, job, message)
}

func failureHint(kind services.Kind) string {
	switch kind {
	case services.KindValidation:
		return "check the uploaded file is a readable audio file"
	case services.KindConfiguration:
		return "check salient configuration"
	case services.KindExternalTool:
		return "check ffmpeg is installed and on PATH"
	case services.KindTimeout:
		return "retry the job; check ffmpeg is not hanging"
	default:
		return "check logs for details"
	}
}
