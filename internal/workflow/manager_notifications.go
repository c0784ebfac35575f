package workflow

import (
	"context"
	"errors"
	"time"

	"salient/internal/jobs"
	"salient/internal/logging"
	"salient/internal/notifications"
)

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		logger := logging.WithContext(ctx, m.logger)
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, notification skipped", logging.String("event", string(event)))
			return
		}
		logger.Warn("notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func (m *Manager) notifyJobCompleted(ctx context.Context, job *jobs.Job) {
	payload := notifications.Payload{"filename": job.Filename}
	result, err := m.store.Result(ctx, job.ID)
	if err == nil && result != nil {
		payload["segments"] = len(result.Segments)
		payload["durationSec"] = result.DurationSec
	}
	m.publish(ctx, notifications.EventJobCompleted, payload)
}

func (m *Manager) notifyJobFailed(ctx context.Context, job *jobs.Job, message string) {
	m.publish(ctx, notifications.EventJobFailed, notifications.Payload{
		"filename": job.Filename,
		"error":    message,
	})
}

func (m *Manager) onJobStarted(ctx context.Context) {
	m.mu.Lock()
	if m.queueActive {
		m.mu.Unlock()
		return
	}
	m.queueActive = true
	m.queueStart = time.Now()
	m.batchDone = 0
	m.batchFailed = 0
	m.mu.Unlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.logger.Warn("job stats unavailable for start notification; notification skipped",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_stats_failed"),
				logging.String(logging.FieldImpact, "start notification will not be sent"),
			)
		}
		return
	}
	m.publish(ctx, notifications.EventQueueStarted, notifications.Payload{
		"count": stats[jobs.StatusQueued] + stats[jobs.StatusProcessing],
	})
}

func (m *Manager) recordOutcome(ok bool) {
	m.mu.Lock()
	if ok {
		m.batchDone++
	} else {
		m.batchFailed++
	}
	m.mu.Unlock()
}

func (m *Manager) checkQueueCompletion(ctx context.Context) {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.logger.Warn("job stats unavailable for completion notification; notification skipped",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_stats_failed"),
				logging.String(logging.FieldImpact, "completion notification will not be sent"),
			)
		}
		return
	}
	if stats[jobs.StatusQueued]+stats[jobs.StatusProcessing] > 0 {
		return
	}

	m.mu.Lock()
	if !m.queueActive {
		m.mu.Unlock()
		return
	}
	start := m.queueStart
	done, failed := m.batchDone, m.batchFailed
	m.queueActive = false
	m.queueStart = time.Time{}
	m.mu.Unlock()

	m.publish(ctx, notifications.EventQueueCompleted, notifications.Payload{
		"processed": done,
		"failed":    failed,
		"duration":  time.Since(start),
	})
}
