package driven

import (
	"context"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// VectorStore is the raw contract of a remote nearest-neighbour store.
// Every call is a network round trip and can fail independently.
// Batching, pacing and readiness polling live in the core, not here.
type VectorStore interface {
	// DescribeIndex returns the named index, or domain.ErrNotFound.
	DescribeIndex(ctx context.Context, name string) (*IndexDescription, error)

	// CreateIndex starts creating an index. It may return before the
	// index is ready.
	CreateIndex(ctx context.Context, spec IndexSpec) error

	// Upsert writes one batch of records.
	Upsert(ctx context.Context, records []domain.EmbeddingRecord) error

	// Query returns up to TopK matches ordered by descending score.
	Query(ctx context.Context, req VectorQuery) ([]domain.SimilarityResult, error)

	// Delete removes records matching the filter, or everything when All is set.
	Delete(ctx context.Context, req DeleteRequest) error

	// DescribeStats reports index statistics.
	DescribeStats(ctx context.Context) (*domain.IndexStats, error)

	// Name returns the provider name for logs and errors.
	Name() string

	// Close releases resources.
	Close() error
}

// Similarity metrics.
const (
	MetricCosine = "cosine"
)

// IndexSpec describes an index to create.
type IndexSpec struct {
	Name      string
	Dimension int
	Metric    string
	Cloud     string
	Region    string
}

// IndexDescription is the state of an existing index.
type IndexDescription struct {
	Name      string
	Dimension int
	Metric    string
	Host      string
	Ready     bool
}

// VectorQuery is a similarity query.
type VectorQuery struct {
	Vector []float32
	TopK   int

	// Filter restricts matches to metadata fields equal to the given values.
	Filter map[string]string

	IncludeMetadata bool
}

// DeleteRequest selects records to delete.
type DeleteRequest struct {
	Filter map[string]string
	All    bool
}
