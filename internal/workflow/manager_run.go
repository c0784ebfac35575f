package workflow

import (
	"context"
	"errors"
	"time"

	"salient/internal/jobs"
	"salient/internal/logging"
)

// Start resets jobs orphaned by a previous run, runs preflight checks, and
// launches the worker pool plus the maintenance loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if m.analyzer == nil {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}
	m.mu.Unlock()

	if err := m.runPreflightChecks(ctx); err != nil {
		return err
	}
	reset, err := m.store.ResetStuckProcessing(ctx)
	if err != nil {
		return err
	}
	if reset > 0 {
		m.logger.Info("requeued jobs left processing by previous run", logging.Int64("count", reset))
	}

	m.mu.Lock()
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(m.workers + 1)
	m.mu.Unlock()

	for i := 1; i <= m.workers; i++ {
		go m.runWorker(runCtx, i)
	}
	go m.runMaintenance(runCtx)

	m.logger.Info("workflow started",
		logging.Int("workers", m.workers),
		logging.Duration("poll_interval", m.pollInterval),
	)
	return nil
}

// Stop terminates background processing and waits for in-flight jobs to
// observe cancellation.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) runWorker(ctx context.Context, worker int) {
	defer m.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := m.store.NextQueued(ctx)
		if err != nil {
			m.handleNextJobError(ctx, err)
			continue
		}
		if job == nil {
			m.waitForJobOrShutdown(ctx)
			continue
		}
		claimed, err := m.store.Claim(ctx, job.ID)
		if err != nil {
			m.handleNextJobError(ctx, err)
			continue
		}
		if !claimed {
			// another worker won the race
			continue
		}
		job.Status = jobs.StatusProcessing
		job.Message = jobs.MessageProcessing
		m.processJob(ctx, worker, job)
	}
}

func (m *Manager) handleNextJobError(ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	m.setLastError(err)
	m.logger.Error("failed to fetch next job",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check job database access"),
	)
	retry := m.cfg.ErrorRetryInterval()
	if retry <= 0 {
		retry = m.pollInterval
	}
	select {
	case <-ctx.Done():
	case <-time.After(retry):
	}
}

func (m *Manager) waitForJobOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-m.wake:
	case <-time.After(m.pollInterval):
	}
}
