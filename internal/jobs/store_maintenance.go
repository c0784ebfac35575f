package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"
)

// ResetStuckProcessing requeues every processing job. The daemon calls it
// once at startup, before any worker runs.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, progress = 0, message = ?, last_heartbeat = NULL, updated_at = ?
         WHERE status = ?`,
		StatusQueued, MessageQueued, nowString(), StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset processing jobs: %w", err)
	}
	return res.RowsAffected()
}

// UpdateHeartbeat refreshes the heartbeat timestamp of a processing job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string) error {
	now := nowString()
	_, err := s.execWithRetry(ctx,
		"UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ? AND status = ?",
		now, now, id, StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleProcessing requeues processing jobs whose heartbeat is older than cutoff.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, progress = 0, message = ?, last_heartbeat = NULL, updated_at = ?
         WHERE status = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)`,
		StatusQueued, MessageReclaimed, nowString(), StatusProcessing, formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return res.RowsAffected()
}

// PurgeExpired deletes terminal jobs that finished before cutoff and returns
// them so callers can remove the uploaded files.
func (s *Store) PurgeExpired(ctx context.Context, cutoff time.Time) ([]*Job, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE status IN (?, ?) AND updated_at < ? ORDER BY created_at, rowid",
		StatusDone, StatusError, formatTime(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("select expired jobs: %w", err)
	}
	var expired []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan expired job: %w", err)
		}
		expired = append(expired, job)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}

	ids := make([]any, len(expired))
	for i, job := range expired {
		ids[i] = job.ID
	}
	placeholders := makePlaceholders(len(ids))
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM results WHERE job_id IN ("+placeholders+")", ids...); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM jobs WHERE id IN ("+placeholders+")", ids...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("purge expired jobs: %w", err)
	}
	return expired, nil
}

// Stats returns job counts grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM jobs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// CheckHealth inspects the database file, schema, and integrity.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	ctx = ensureContext(ctx)
	health := DatabaseHealth{DBPath: s.path}

	if _, err := os.Stat(s.path); err == nil {
		health.DatabaseExists = true
	} else if !os.IsNotExist(err) {
		health.Error = err.Error()
		return health, nil
	}

	if err := s.db.PingContext(ctx); err != nil {
		health.Error = err.Error()
		return health, nil
	}
	health.DatabaseReadable = true

	rows, err := s.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		health.Error = err.Error()
		return health, nil
	}
	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err == nil {
			present[name] = true
		}
	}
	rows.Close()
	for _, table := range expectedTables {
		if present[table] {
			health.TablesPresent = append(health.TablesPresent, table)
		} else {
			health.MissingTables = append(health.MissingTables, table)
		}
	}

	if present["schema_version"] {
		_ = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion)
	}
	if present["jobs"] {
		_ = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&health.TotalJobs)
	}

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err == nil {
		health.IntegrityCheck = strings.EqualFold(strings.TrimSpace(integrity), "ok")
	}
	return health, nil
}
