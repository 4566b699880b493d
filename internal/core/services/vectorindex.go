package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
	"github.com/custodia-labs/assetrag/internal/logger"
)

// Vector index policy defaults.
const (
	DefaultUpsertBatchSize   = 100
	DefaultExactFieldLimit   = 1000
	DefaultReadinessAttempts = 60
	DefaultReadinessInterval = 5 * time.Second
)

var errIndexNotReady = errors.New("index not ready")

// UpsertResult reports how far an upsert got.
type UpsertResult struct {
	Upserted int
	Success  bool
}

// VectorIndexClient is the pipeline's contract over a remote vector store:
// idempotent index creation with bounded readiness polling, paced batched
// upserts, similarity and exact-field queries, and admin pass-throughs.
type VectorIndexClient struct {
	store     driven.VectorStore
	indexName string
	cloud     string
	region    string
	batchSize int
	pacer     *Pacer

	readyAttempts int
	readyInterval time.Duration

	mu        sync.RWMutex
	dimension int
}

// VectorIndexOption configures a VectorIndexClient.
type VectorIndexOption func(*VectorIndexClient)

// WithUpsertBatchSize sets the number of records per upsert call.
func WithUpsertBatchSize(n int) VectorIndexOption {
	return func(c *VectorIndexClient) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithUpsertPacer sets the pacer for upsert batches.
func WithUpsertPacer(p *Pacer) VectorIndexOption {
	return func(c *VectorIndexClient) {
		if p != nil {
			c.pacer = p
		}
	}
}

// WithReadinessPolicy sets how often and how long EnsureIndex polls.
func WithReadinessPolicy(attempts int, interval time.Duration) VectorIndexOption {
	return func(c *VectorIndexClient) {
		if attempts > 0 {
			c.readyAttempts = attempts
		}
		if interval > 0 {
			c.readyInterval = interval
		}
	}
}

// WithServerlessSpec sets the cloud and region used when creating the index.
func WithServerlessSpec(cloud, region string) VectorIndexOption {
	return func(c *VectorIndexClient) {
		c.cloud = cloud
		c.region = region
	}
}

// NewVectorIndexClient creates a client for the named index.
func NewVectorIndexClient(store driven.VectorStore, indexName string, opts ...VectorIndexOption) *VectorIndexClient {
	c := &VectorIndexClient{
		store:         store,
		indexName:     indexName,
		cloud:         "aws",
		region:        "us-east-1",
		batchSize:     DefaultUpsertBatchSize,
		pacer:         NewPacer(DefaultBatchInterval),
		readyAttempts: DefaultReadinessAttempts,
		readyInterval: DefaultReadinessInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IndexName returns the index this client targets.
func (c *VectorIndexClient) IndexName() string {
	return c.indexName
}

// Dimension returns the index dimension once known, 0 before EnsureIndex.
func (c *VectorIndexClient) Dimension() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dimension
}

func (c *VectorIndexClient) setDimension(d int) {
	c.mu.Lock()
	c.dimension = d
	c.mu.Unlock()
}

// EnsureIndex makes sure the index exists with the given dimension and is
// ready. An existing index is never recreated.
func (c *VectorIndexClient) EnsureIndex(ctx context.Context, dimension int) error {
	logger.Section("Ensure Index")
	if dimension <= 0 {
		return &domain.ConfigurationError{Key: "embedding.dimensions", Reason: "dimension must be positive"}
	}

	desc, err := c.store.DescribeIndex(ctx, c.indexName)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Info("Index %q not found, creating (dimension=%d, metric=%s)", c.indexName, dimension, driven.MetricCosine)
		spec := driven.IndexSpec{
			Name:      c.indexName,
			Dimension: dimension,
			Metric:    driven.MetricCosine,
			Cloud:     c.cloud,
			Region:    c.region,
		}
		if err := c.store.CreateIndex(ctx, spec); err != nil {
			return asProviderError(c.store.Name(), "create index", err)
		}
	case err != nil:
		return asProviderError(c.store.Name(), "describe index", err)
	default:
		if desc.Dimension != dimension {
			return &domain.ConfigurationError{
				Key:    "vector_store.index_name",
				Reason: fmt.Sprintf("index %q has dimension %d but the embedding model produces %d", c.indexName, desc.Dimension, dimension),
			}
		}
		if desc.Ready {
			logger.Debug("Index %q exists and is ready", c.indexName)
			c.setDimension(dimension)
			return nil
		}
	}

	if err := c.waitReady(ctx); err != nil {
		return err
	}
	c.setDimension(dimension)
	return nil
}

// waitReady polls DescribeIndex at a constant interval until the index
// reports ready or the attempt ceiling is reached.
func (c *VectorIndexClient) waitReady(ctx context.Context) error {
	start := time.Now()
	attempts := 0

	backoff := retry.WithMaxRetries(uint64(c.readyAttempts-1), retry.NewConstant(c.readyInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		desc, err := c.store.DescribeIndex(ctx, c.indexName)
		if err != nil {
			logger.Debug("Readiness check %d for %q failed: %v", attempts, c.indexName, err)
			return retry.RetryableError(err)
		}
		if !desc.Ready {
			logger.Debug("Readiness check %d: %q not ready", attempts, c.indexName)
			return retry.RetryableError(errIndexNotReady)
		}
		return nil
	})
	if err == nil {
		logger.Info("Index %q ready after %d checks", c.indexName, attempts)
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("wait for index %q: %w", c.indexName, ctxErr)
	}
	return &domain.IndexNotReadyError{
		Index:    c.indexName,
		Attempts: attempts,
		Waited:   time.Since(start),
	}
}

// Upsert writes records in paced batches. A failed batch stops the run;
// the result carries the count written before it.
func (c *VectorIndexClient) Upsert(ctx context.Context, records []domain.EmbeddingRecord) (UpsertResult, error) {
	var result UpsertResult

	if dim := c.Dimension(); dim > 0 {
		for i := range records {
			if len(records[i].Vector) != dim {
				return result, &domain.ValidationError{
					Field:  "vector",
					Reason: fmt.Sprintf("record %s has %d dimensions, index expects %d", records[i].ID, len(records[i].Vector), dim),
				}
			}
		}
	}

	for start := 0; start < len(records); start += c.batchSize {
		end := min(start+c.batchSize, len(records))
		batch := records[start:end]

		err := c.pacer.Do(ctx, func(ctx context.Context) error {
			return c.store.Upsert(ctx, batch)
		})
		if err != nil {
			logger.Warn("Upsert batch %d-%d failed after %d records: %v", start, end, result.Upserted, err)
			if ctx.Err() != nil {
				return result, fmt.Errorf("upsert: %w", err)
			}
			return result, asProviderError(c.store.Name(), "upsert", err)
		}
		result.Upserted += len(batch)
		logger.Debug("Upserted batch %d-%d (%d total)", start, end, result.Upserted)
	}

	result.Success = true
	return result, nil
}

// QuerySimilar returns up to topK matches by descending score.
func (c *VectorIndexClient) QuerySimilar(
	ctx context.Context, vector []float32, topK int, filter map[string]string,
) ([]domain.SimilarityResult, error) {
	if topK <= 0 {
		return []domain.SimilarityResult{}, nil
	}

	results, err := c.store.Query(ctx, driven.VectorQuery{
		Vector:          vector,
		TopK:            topK,
		Filter:          filter,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, asProviderError(c.store.Name(), "query", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	logger.Debug("Similarity query returned %d results (topK=%d)", len(results), topK)
	return results, nil
}

// QueryByExactField fetches every record whose metadata field equals value,
// up to limit (DefaultExactFieldLimit when non-positive). Ranking is
// irrelevant so the query vector is all zeros.
func (c *VectorIndexClient) QueryByExactField(
	ctx context.Context, field, value string, limit int,
) ([]domain.SimilarityResult, error) {
	if limit <= 0 {
		limit = DefaultExactFieldLimit
	}

	dim := c.Dimension()
	if dim == 0 {
		desc, err := c.store.DescribeIndex(ctx, c.indexName)
		if err != nil {
			return nil, asProviderError(c.store.Name(), "describe index", err)
		}
		dim = desc.Dimension
		c.setDimension(dim)
	}

	results, err := c.store.Query(ctx, driven.VectorQuery{
		Vector:          domain.ZeroVector(dim),
		TopK:            limit,
		Filter:          map[string]string{field: value},
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, asProviderError(c.store.Name(), "query", err)
	}
	logger.Debug("Exact query %s=%q returned %d results", field, value, len(results))
	return results, nil
}

// DeleteByField removes every record whose metadata field equals value.
func (c *VectorIndexClient) DeleteByField(ctx context.Context, field, value string) error {
	err := c.store.Delete(ctx, driven.DeleteRequest{Filter: map[string]string{field: value}})
	if err != nil {
		return asProviderError(c.store.Name(), "delete", err)
	}
	return nil
}

// Clear removes every record in the index.
func (c *VectorIndexClient) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, driven.DeleteRequest{All: true}); err != nil {
		return asProviderError(c.store.Name(), "delete all", err)
	}
	return nil
}

// Stats returns index statistics.
func (c *VectorIndexClient) Stats(ctx context.Context) (*domain.IndexStats, error) {
	stats, err := c.store.DescribeStats(ctx)
	if err != nil {
		return nil, asProviderError(c.store.Name(), "describe stats", err)
	}
	if stats.Name == "" {
		stats.Name = c.indexName
	}
	return stats, nil
}

// Ping checks the store is reachable.
func (c *VectorIndexClient) Ping(ctx context.Context) error {
	_, err := c.Stats(ctx)
	return err
}
