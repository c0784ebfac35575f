package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"salient/internal/salience"
)

// Complete stores the analysis result and marks the job done. Both writes
// commit together, so a done job always has a readable result.
func (s *Store) Complete(ctx context.Context, id string, result *salience.AnalysisResult) error {
	if result == nil {
		return errors.New("complete job: nil result")
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	ctx = ensureContext(ctx)
	now := nowString()
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE jobs SET status = ?, progress = 1, message = ?, segment_count = ?, error_message = NULL,
             error_kind = NULL, finished_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
			StatusDone, MessageComplete, len(result.Segments), now, now, id, StatusProcessing,
		)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("job %s is not processing", id)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO results (job_id, result_json, created_at) VALUES (?, ?, ?)",
			id, string(payload), now,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// Result returns the stored analysis for a job, or nil, nil when none exists.
func (s *Store) Result(ctx context.Context, id string) (*salience.AnalysisResult, error) {
	raw, err := s.ResultJSON(ctx, id)
	if err != nil || raw == nil {
		return nil, err
	}
	var result salience.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}

// ResultJSON returns the stored result document verbatim.
func (s *Store) ResultJSON(ctx context.Context, id string) ([]byte, error) {
	ctx = ensureContext(ctx)
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT result_json FROM results WHERE job_id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	return []byte(payload), nil
}
