package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
)

// Ensure IndexRunStore implements the interface.
var _ driven.IndexRunStore = (*IndexRunStore)(nil)

// maxRuns bounds how many runs the in-memory store keeps.
const maxRuns = 100

// IndexRunStore is an in-memory implementation of driven.IndexRunStore.
type IndexRunStore struct {
	mu   sync.RWMutex
	runs []domain.IndexRun
}

// NewIndexRunStore creates a new in-memory index run store.
func NewIndexRunStore() *IndexRunStore {
	return &IndexRunStore{}
}

// Record stores a run, dropping the oldest beyond maxRuns.
func (s *IndexRunStore) Record(_ context.Context, run domain.IndexRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	if len(s.runs) > maxRuns {
		s.runs = append([]domain.IndexRun(nil), s.runs[len(s.runs)-maxRuns:]...)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *IndexRunStore) Recent(_ context.Context, limit int) ([]domain.IndexRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IndexRun, 0, max(min(limit, len(s.runs)), 0))
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.runs[i])
	}
	return out, nil
}
