package workflow

import (
	"context"

	"salient/internal/jobs"
	"salient/internal/logging"
	"salient/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	Workers     int
	LastError   string
	LastJob     *jobs.Job
	JobStats    map[jobs.Status]int
	StageHealth map[string]stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastJob := m.lastJob
	handler := m.analyzer
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read job stats", logging.Error(err))
	}

	summary := StatusSummary{
		Running:     running,
		Workers:     m.workers,
		JobStats:    stats,
		StageHealth: map[string]stage.Health{},
	}
	if handler != nil {
		summary.StageHealth[analysisStage] = handler.HealthCheck(ctx)
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastJob != nil {
		copied := *lastJob
		summary.LastJob = &copied
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

// setLastJob reloads the job so the snapshot reflects its final state.
func (m *Manager) setLastJob(ctx context.Context, id string) {
	job, err := m.store.GetByID(ctx, id)
	if err != nil || job == nil {
		return
	}
	m.mu.Lock()
	m.lastJob = job
	m.mu.Unlock()
}
