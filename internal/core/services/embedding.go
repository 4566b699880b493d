package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
	"github.com/custodia-labs/assetrag/internal/logger"
)

// DefaultEmbeddingBatchSize is the number of texts sent per provider call.
const DefaultEmbeddingBatchSize = 100

// EmbeddingGenerator turns fragments and queries into validated vectors.
// Batches are paced and never retried.
type EmbeddingGenerator struct {
	embedder  driven.EmbeddingService
	batchSize int
	pacer     *Pacer
}

// GeneratorOption configures an EmbeddingGenerator.
type GeneratorOption func(*EmbeddingGenerator)

// WithEmbeddingBatchSize sets the number of texts per provider call.
func WithEmbeddingBatchSize(n int) GeneratorOption {
	return func(g *EmbeddingGenerator) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// WithEmbeddingPacer sets the pacer shared by every batch.
func WithEmbeddingPacer(p *Pacer) GeneratorOption {
	return func(g *EmbeddingGenerator) {
		if p != nil {
			g.pacer = p
		}
	}
}

// NewEmbeddingGenerator creates a generator over the given provider.
func NewEmbeddingGenerator(embedder driven.EmbeddingService, opts ...GeneratorOption) *EmbeddingGenerator {
	g := &EmbeddingGenerator{
		embedder:  embedder,
		batchSize: DefaultEmbeddingBatchSize,
		pacer:     NewPacer(DefaultBatchInterval),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dimensions returns the provider's vector size.
func (g *EmbeddingGenerator) Dimensions() int {
	return g.embedder.Dimensions()
}

// ModelName returns the provider's model name.
func (g *EmbeddingGenerator) ModelName() string {
	return g.embedder.ModelName()
}

// Ping checks the provider is reachable.
func (g *EmbeddingGenerator) Ping(ctx context.Context) error {
	if err := g.embedder.Ping(ctx); err != nil {
		return asProviderError(g.embedder.ModelName(), "ping", err)
	}
	return nil
}

// EmbedOne embeds a single text with one provider call.
func (g *EmbeddingGenerator) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if g.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil, &domain.ValidationError{Field: "text", Reason: "must not be empty"}
	}

	logger.Debug("Embedding 1 text (%d chars) with %s", len(text), g.embedder.ModelName())
	vec, err := g.embedder.Embed(ctx, text)
	if err != nil {
		return nil, asProviderError(g.embedder.ModelName(), "embed", err)
	}
	if !domain.ValidateVector(vec) {
		return nil, &domain.ProviderError{
			Provider: g.embedder.ModelName(),
			Op:       "embed",
			Message:  "provider returned an empty or non-finite vector",
			Err:      domain.ErrInvalidVector,
		}
	}
	return vec, nil
}

// EmbedMany embeds texts in order, one provider call per batch, with at
// most one batch in flight and batches paced by the generator's Pacer.
func (g *EmbeddingGenerator) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if g.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(texts) == 0 {
		return nil, nil
	}

	batches := (len(texts) + g.batchSize - 1) / g.batchSize
	logger.Debug("Embedding %d texts in %d batches of up to %d", len(texts), batches, g.batchSize)

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		end := min(start+g.batchSize, len(texts))
		batch := texts[start:end]

		var got [][]float32
		err := g.pacer.Do(ctx, func(ctx context.Context) error {
			var err error
			got, err = g.embedder.EmbedBatch(ctx, batch)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
			}
			return nil, asProviderError(g.embedder.ModelName(), "embed batch", err)
		}

		if len(got) != len(batch) {
			return nil, &domain.ProviderError{
				Provider: g.embedder.ModelName(),
				Op:       "embed batch",
				Message:  fmt.Sprintf("expected %d embeddings, got %d", len(batch), len(got)),
			}
		}
		for i, vec := range got {
			if !domain.ValidateVector(vec) {
				return nil, &domain.ProviderError{
					Provider: g.embedder.ModelName(),
					Op:       "embed batch",
					Message:  fmt.Sprintf("invalid vector for input %d", start+i),
					Err:      domain.ErrInvalidVector,
				}
			}
		}

		vectors = append(vectors, got...)
		logger.Debug("Embedded batch %d-%d", start, end)
	}

	return vectors, nil
}

// asProviderError wraps err in a *domain.ProviderError unless it already is one.
func asProviderError(provider, op string, err error) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &domain.ProviderError{Provider: provider, Op: op, Err: err}
}
