// Package storage archives finished pipeline runs for fleet diagnostics.
package storage

import (
	"context"
	"time"
)

// RunRecord is one archived document-processing attempt.
type RunRecord struct {
	ID         string
	SessionID  string
	DocumentID string
	Status     string
	StartedAt  time.Time
	EndedAt    time.Time
	Snapshot   []byte // full pipeline log snapshot, JSON
	Criticals  int
	Warnings   int
}

// RunRepository persists archived runs.
type RunRepository interface {
	Insert(ctx context.Context, run *RunRecord) error
	GetByDocument(ctx context.Context, documentID string) ([]RunRecord, error)
	ListRecent(ctx context.Context, limit int) ([]RunRecord, error)
}
