package postgres

import (
	"context"
	"fmt"

	"github.com/vithaluntold/rai-compliance-client/internal/infra/storage"
)

// RunRepo implements storage.RunRepository using PostgreSQL.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a new PostgreSQL run repository.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Insert saves an archived run.
func (r *RunRepo) Insert(ctx context.Context, run *storage.RunRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs
			(id, session_id, document_id, status, started_at, ended_at, snapshot, critical_errors, warnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.SessionID, run.DocumentID, run.Status,
		run.StartedAt, run.EndedAt, run.Snapshot, run.Criticals, run.Warnings,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetByDocument returns all archived runs for a document, oldest first.
func (r *RunRepo) GetByDocument(ctx context.Context, documentID string) ([]storage.RunRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, document_id, status, started_at, ended_at, snapshot, critical_errors, warnings
		FROM pipeline_runs
		WHERE document_id = $1
		ORDER BY started_at ASC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// ListRecent returns up to limit most recent runs.
func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]storage.RunRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, document_id, status, started_at, ended_at, snapshot, critical_errors, warnings
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRuns(rows rowScanner) ([]storage.RunRecord, error) {
	var out []storage.RunRecord
	for rows.Next() {
		var run storage.RunRecord
		if err := rows.Scan(
			&run.ID, &run.SessionID, &run.DocumentID, &run.Status,
			&run.StartedAt, &run.EndedAt, &run.Snapshot, &run.Criticals, &run.Warnings,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
