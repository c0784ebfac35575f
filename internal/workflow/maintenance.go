package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"salient/internal/jobs"
	"salient/internal/logging"
)

func (m *Manager) runMaintenance(ctx context.Context) {
	defer m.wg.Done()

	interval := m.cfg.PurgeInterval()
	if hb := m.cfg.HeartbeatInterval(); hb > 0 && (interval <= 0 || hb < interval) {
		interval = hb
	}
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastPurge := time.Time{}
	for {
		m.refreshJobGauges(ctx)
		if _, err := m.heartbeat.ReclaimStale(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Warn("reclaim stale jobs failed; stuck jobs may remain",
				logging.Error(err),
				logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
				logging.String(logging.FieldErrorHint, "check job database access"),
			)
		}
		if time.Since(lastPurge) >= m.cfg.PurgeInterval() {
			if _, err := m.PurgeExpired(ctx); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Warn("purge expired jobs failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "purge_failed"),
					logging.String(logging.FieldErrorHint, "check job database access"),
				)
			}
			lastPurge = time.Now()
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// PurgeExpired removes finished jobs older than the retention window and
// deletes their uploaded files. It returns the number of jobs removed.
func (m *Manager) PurgeExpired(ctx context.Context) (int, error) {
	retention := m.cfg.Retention()
	if retention <= 0 {
		return 0, nil
	}
	return m.purgeBefore(ctx, time.Now().Add(-retention))
}

func (m *Manager) purgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	purged, err := m.store.PurgeExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for _, job := range purged {
		removeUpload(m.logger, job)
	}
	if len(purged) > 0 {
		m.logger.Info("purged expired jobs",
			logging.Int("count", len(purged)),
			logging.String("cutoff", cutoff.UTC().Format(time.RFC3339)),
		)
	}
	return len(purged), nil
}

var (
	// ErrJobProcessing is returned when removal targets a job a worker holds.
	ErrJobProcessing = errors.New("job is processing")
	// ErrNotClearable is returned by ClearJobs for statuses other than done and error.
	ErrNotClearable = errors.New("only done and error jobs can be cleared")
)

// RemoveJob deletes a job with its result and uploaded file. It reports
// whether the job existed and refuses jobs that are still processing.
func (m *Manager) RemoveJob(ctx context.Context, id string) (bool, error) {
	job, err := m.store.GetByID(ctx, id)
	if err != nil || job == nil {
		return false, err
	}
	if job.Status == jobs.StatusProcessing {
		return true, ErrJobProcessing
	}
	removed, err := m.store.Remove(ctx, id)
	if err != nil {
		return false, err
	}
	if !removed {
		// Claimed between the lookup and the delete.
		return true, ErrJobProcessing
	}
	removeUpload(m.logger, job)
	return true, nil
}

// ClearJobs removes finished jobs in the given statuses, or every job that
// is not processing when none are given, and deletes their uploads.
func (m *Manager) ClearJobs(ctx context.Context, statuses ...jobs.Status) ([]*jobs.Job, error) {
	for _, status := range statuses {
		if status != jobs.StatusDone && status != jobs.StatusError {
			return nil, fmt.Errorf("%w: %s", ErrNotClearable, status)
		}
	}
	var removed []*jobs.Job
	if len(statuses) == 0 {
		cleared, err := m.store.Clear(ctx)
		if err != nil {
			return nil, err
		}
		removed = cleared
	}
	seen := make(map[jobs.Status]bool, len(statuses))
	for _, status := range statuses {
		if seen[status] {
			continue
		}
		seen[status] = true
		var (
			cleared []*jobs.Job
			err     error
		)
		if status == jobs.StatusDone {
			cleared, err = m.store.ClearCompleted(ctx)
		} else {
			cleared, err = m.store.ClearFailed(ctx)
		}
		if err != nil {
			for _, job := range removed {
				removeUpload(m.logger, job)
			}
			return removed, err
		}
		removed = append(removed, cleared...)
	}
	for _, job := range removed {
		removeUpload(m.logger, job)
	}
	if len(removed) > 0 {
		m.logger.Info("cleared jobs", logging.Int("count", len(removed)))
	}
	return removed, nil
}

func removeUpload(logger *slog.Logger, job *jobs.Job) {
	path := strings.TrimSpace(job.SourcePath)
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to remove uploaded file",
			logging.String(logging.FieldJobID, job.ID),
			logging.String("source_file", path),
			logging.Error(err),
		)
	}
}

func (m *Manager) refreshJobGauges(ctx context.Context) {
	if m.metrics == nil {
		return
	}
	stats, err := m.store.Stats(ctx)
	if err != nil {
		return
	}
	counts := make(map[string]int, len(stats))
	names := make([]string, 0, len(jobs.AllStatuses()))
	for _, status := range jobs.AllStatuses() {
		counts[string(status)] = stats[status]
		names = append(names, string(status))
	}
	m.metrics.SetJobCounts(counts, names)
}
