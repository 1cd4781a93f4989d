package database

import (
	"context"
	"fmt"
	"time"
)

// SyncRun is one recorded index synchronization.
type SyncRun struct {
	ID         int64     `json:"id"`
	Trigger    string    `json:"trigger"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Indexed    int       `json:"indexed"`
	Failed     int       `json:"failed"`
	Pruned     int       `json:"pruned"`
	Error      string    `json:"error,omitempty"`
}

// Succeeded reports whether the run finished without a fatal error.
func (r SyncRun) Succeeded() bool {
	return r.Error == ""
}

// RecordRun stores a finished run and returns its id.
func (db *DB) RecordRun(ctx context.Context, run SyncRun) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO sync_runs (triggered_by, source, started_at, finished_at, indexed, failed, pruned, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Trigger, run.Source, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Indexed, run.Failed, run.Pruned, run.Error)
	if err != nil {
		return 0, fmt.Errorf("failed to record sync run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, triggered_by, source, started_at, finished_at, indexed, failed, pruned, error
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	runs := make([]SyncRun, 0, limit)
	for rows.Next() {
		var r SyncRun
		if err := rows.Scan(&r.ID, &r.Trigger, &r.Source, &r.StartedAt, &r.FinishedAt,
			&r.Indexed, &r.Failed, &r.Pruned, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LastSuccessfulRun returns the newest run without an error, or nil.
func (db *DB) LastSuccessfulRun(ctx context.Context) (*SyncRun, error) {
	runs, err := db.conn.QueryContext(ctx, `
		SELECT id, triggered_by, source, started_at, finished_at, indexed, failed, pruned, error
		FROM sync_runs
		WHERE error = ''
		ORDER BY started_at DESC, id DESC
		LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer runs.Close()

	if !runs.Next() {
		return nil, runs.Err()
	}
	var r SyncRun
	if err := runs.Scan(&r.ID, &r.Trigger, &r.Source, &r.StartedAt, &r.FinishedAt,
		&r.Indexed, &r.Failed, &r.Pruned, &r.Error); err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}
	return &r, nil
}
