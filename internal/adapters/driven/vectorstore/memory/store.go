// Package memory provides an in-process driven.VectorStore with exact
// cosine search. It backs offline mode and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store holds at most one index. Creating it makes it ready immediately.
type Store struct {
	mu      sync.RWMutex
	index   *driven.IndexDescription
	records map[string]domain.EmbeddingRecord
}

// New creates an empty store with no index.
func New() *Store {
	return &Store{records: make(map[string]domain.EmbeddingRecord)}
}

// Name returns the provider name.
func (s *Store) Name() string {
	return "memory"
}

// DescribeIndex returns the index or domain.ErrNotFound.
func (s *Store) DescribeIndex(_ context.Context, name string) (*driven.IndexDescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil || s.index.Name != name {
		return nil, fmt.Errorf("index %q: %w", name, domain.ErrNotFound)
	}
	desc := *s.index
	return &desc, nil
}

// CreateIndex creates the index. Creating an existing index is a no-op.
func (s *Store) CreateIndex(_ context.Context, spec driven.IndexSpec) error {
	if spec.Dimension <= 0 {
		return &domain.ValidationError{Field: "dimension", Reason: "must be positive"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		if s.index.Name == spec.Name {
			return nil
		}
		return fmt.Errorf("memory store already holds index %q", s.index.Name)
	}
	s.index = &driven.IndexDescription{
		Name:      spec.Name,
		Dimension: spec.Dimension,
		Metric:    spec.Metric,
		Host:      "memory",
		Ready:     true,
	}
	return nil
}

// Upsert writes or replaces records by ID.
func (s *Store) Upsert(_ context.Context, records []domain.EmbeddingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return fmt.Errorf("upsert: %w", domain.ErrNotFound)
	}
	for _, rec := range records {
		if len(rec.Vector) != s.index.Dimension {
			return &domain.ValidationError{
				Field:  "vector",
				Reason: fmt.Sprintf("record %s has %d dimensions, index expects %d", rec.ID, len(rec.Vector), s.index.Dimension),
			}
		}
	}
	for _, rec := range records {
		rec.Vector = append([]float32(nil), rec.Vector...)
		s.records[rec.ID] = rec
	}
	return nil
}

// Query scores every matching record by cosine similarity.
// Ties are broken by ID so results are deterministic.
func (s *Store) Query(_ context.Context, q driven.VectorQuery) ([]domain.SimilarityResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return nil, fmt.Errorf("query: %w", domain.ErrNotFound)
	}
	if q.TopK <= 0 {
		return []domain.SimilarityResult{}, nil
	}

	results := make([]domain.SimilarityResult, 0, len(s.records))
	for _, rec := range s.records {
		if !matches(rec.Metadata, q.Filter) {
			continue
		}
		r := domain.SimilarityResult{
			ID:    rec.ID,
			Score: domain.CosineSimilarity(q.Vector, rec.Vector),
		}
		if q.IncludeMetadata {
			r.Metadata = rec.Metadata
			r.Content = rec.Content
		}
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > q.TopK {
		results = results[:q.TopK]
	}
	return results, nil
}

// Delete removes matching records, or everything when All is set.
func (s *Store) Delete(_ context.Context, req driven.DeleteRequest) error {
	if !req.All && len(req.Filter) == 0 {
		return &domain.ValidationError{Field: "filter", Reason: "delete needs a filter or All"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.All {
		clear(s.records)
		return nil
	}
	for id, rec := range s.records {
		if matches(rec.Metadata, req.Filter) {
			delete(s.records, id)
		}
	}
	return nil
}

// DescribeStats reports the record count. Fullness is always 0.
func (s *Store) DescribeStats(_ context.Context) (*domain.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &domain.IndexStats{VectorCount: int64(len(s.records))}
	if s.index != nil {
		stats.Name = s.index.Name
		stats.Dimension = s.index.Dimension
	}
	return stats, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// matches reports whether every filter field equals the record's metadata.
// Unknown fields never match.
func matches(meta domain.FragmentMetadata, filter map[string]string) bool {
	for field, want := range filter {
		var got string
		switch field {
		case domain.FieldParentID:
			got = meta.ParentID
		case domain.FieldSymbol:
			got = meta.Symbol
		case "network":
			got = meta.Network
		case "parentName":
			got = meta.ParentName
		default:
			return false
		}
		if got != want {
			return false
		}
	}
	return true
}
