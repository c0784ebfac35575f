package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"salient/internal/jobs"
	"salient/internal/logging"
	"salient/internal/services"
	"salient/internal/stage"
)

const analysisStage = "analysis"

func (m *Manager) processJob(ctx context.Context, worker int, job *jobs.Job) {
	jobCtx := services.WithJobID(ctx, job.ID)
	jobCtx = services.WithStage(jobCtx, analysisStage)
	jobCtx = services.WithWorker(jobCtx, worker)
	jobCtx = services.WithRequestID(jobCtx, uuid.NewString())
	logger := logging.WithContext(jobCtx, m.logger)

	m.metrics.WorkerBusy(1)
	defer m.metrics.WorkerBusy(-1)
	m.onJobStarted(jobCtx)

	m.mu.RLock()
	handler := m.analyzer
	m.mu.RUnlock()

	start := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("filename", job.Filename),
		logging.String("source_file", job.SourcePath),
	)

	err := stage.Guard(analysisStage, func() error {
		return m.executeWithHeartbeat(jobCtx, handler, job)
	})
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			// left in processing; the next Start requeues it
			logger.Debug("stage interrupted by shutdown")
			return
		}
		m.handleStageFailure(jobCtx, job, err, elapsed)
		m.checkQueueCompletion(jobCtx)
		return
	}

	m.metrics.RecordJobDone(elapsed)
	m.recordOutcome(true)
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", elapsed),
	)
	m.setLastJob(jobCtx, job.ID)
	m.notifyJobCompleted(jobCtx, job)
	m.checkQueueCompletion(jobCtx)
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, job *jobs.Job) error {
	if handler == nil {
		return services.Wrap(services.ErrConfiguration, analysisStage, "execute", "Stage handler unavailable", nil)
	}
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)

	execErr := handler.Execute(ctx, job)
	hbCancel()
	hbWG.Wait()
	return execErr
}
