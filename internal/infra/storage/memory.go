package storage

import (
	"context"
	"sync"
)

// MemoryRunRepo implements RunRepository in process memory.
type MemoryRunRepo struct {
	mu   sync.RWMutex
	runs []RunRecord
}

// NewMemoryRunRepo creates an in-memory run archive.
func NewMemoryRunRepo() *MemoryRunRepo {
	return &MemoryRunRepo{}
}

// Insert appends a run record.
func (r *MemoryRunRepo) Insert(_ context.Context, run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, *run)
	return nil
}

// GetByDocument returns all archived runs for a document.
func (r *MemoryRunRepo) GetByDocument(_ context.Context, documentID string) ([]RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []RunRecord
	for _, run := range r.runs {
		if run.DocumentID == documentID {
			out = append(out, run)
		}
	}
	return out, nil
}

// ListRecent returns up to limit most recently inserted runs.
func (r *MemoryRunRepo) ListRecent(_ context.Context, limit int) ([]RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start := len(r.runs) - limit
	if limit <= 0 || start < 0 {
		start = 0
	}
	out := make([]RunRecord, len(r.runs)-start)
	copy(out, r.runs[start:])
	return out, nil
}
