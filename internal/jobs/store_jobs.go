package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NewJob inserts a queued job for an uploaded file.
func (s *Store) NewJob(ctx context.Context, id, filename, sourcePath string) (*Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("job id is required")
	}
	if strings.TrimSpace(filename) == "" {
		return nil, errors.New("filename is required")
	}
	now := time.Now().UTC()
	stamp := formatTime(now)
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (id, filename, source_path, status, progress, message, created_at, updated_at)
         VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
		id, filename, nullableString(sourcePath), StatusQueued, MessageQueued, stamp, stamp,
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job. It returns nil, nil when the id is unknown.
func (s *Store) GetByID(ctx context.Context, id string) (*Job, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs ordered by creation time, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + jobColumns + " FROM jobs"
	var args []any
	if len(statuses) > 0 {
		query += " WHERE status IN (" + makePlaceholders(len(statuses)) + ")"
		args = statusArgs(statuses)
	}
	query += " ORDER BY created_at, rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// NextQueued returns the oldest queued job or nil when the queue is empty.
func (s *Store) NextQueued(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE status = ? ORDER BY created_at, rowid LIMIT 1",
		StatusQueued,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next queued job: %w", err)
	}
	return job, nil
}

// Claim moves a queued job to processing. It reports false when another
// worker claimed the job first.
func (s *Store) Claim(ctx context.Context, id string) (bool, error) {
	now := nowString()
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, progress = 0, message = ?, started_at = ?, last_heartbeat = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusProcessing, MessageProcessing, now, now, now, id, StatusQueued,
	)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return affected == 1, nil
}

// UpdateProgress records the latest progress snapshot of a processing job.
// Updates for jobs that already left the processing state are ignored so a
// late report can never overwrite a terminal status.
func (s *Store) UpdateProgress(ctx context.Context, id string, progress float64, message string) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	_, err := s.execWithRetry(ctx,
		`UPDATE jobs SET progress = ?, message = ?, updated_at = ? WHERE id = ? AND status = ?`,
		progress, message, nowString(), id, StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// Fail marks a job as errored with the supplied message and failure kind.
func (s *Store) Fail(ctx context.Context, id, message, kind string) error {
	if strings.TrimSpace(message) == "" {
		message = "analysis failed"
	}
	now := nowString()
	_, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, progress = 0, message = ?, error_message = ?, error_kind = ?,
         finished_at = ?, updated_at = ? WHERE id = ? AND status != ?`,
		StatusError, message, message, nullableString(kind), now, now, id, StatusDone,
	)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

// Remove deletes a single job and its result unless a worker is processing
// it. It reports whether a row was deleted.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	ctx = ensureContext(ctx)
	var removed bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM results WHERE job_id IN (SELECT id FROM jobs WHERE id = ? AND status != ?)", id, StatusProcessing,
		); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM jobs WHERE id = ? AND status != ?", id, StatusProcessing)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		removed = affected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("remove job: %w", err)
	}
	return removed, nil
}

// Clear removes every job that is not processing, with its result. It
// returns the removed jobs so callers can delete their uploads.
func (s *Store) Clear(ctx context.Context) ([]*Job, error) {
	return s.removeWhere(ctx, "status != ?", []any{StatusProcessing})
}

// ClearCompleted removes jobs that finished successfully.
func (s *Store) ClearCompleted(ctx context.Context) ([]*Job, error) {
	return s.removeWhere(ctx, "status = ?", []any{StatusDone})
}

// ClearFailed removes jobs that ended in error.
func (s *Store) ClearFailed(ctx context.Context) ([]*Job, error) {
	return s.removeWhere(ctx, "status = ?", []any{StatusError})
}

// removeWhere deletes results first so the write lock is held before the
// jobs matching where are selected and deleted.
func (s *Store) removeWhere(ctx context.Context, where string, args []any) ([]*Job, error) {
	ctx = ensureContext(ctx)
	var removed []*Job
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		removed = removed[:0]
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM results WHERE job_id IN (SELECT id FROM jobs WHERE "+where+")", args...,
		); err != nil {
			return err
		}
		rows, err := tx.QueryContext(ctx, "DELETE FROM jobs WHERE "+where+" RETURNING "+jobColumns, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			job, err := scanJob(rows)
			if err != nil {
				return err
			}
			removed = append(removed, job)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("clear jobs: %w", err)
	}
	return removed, nil
}
