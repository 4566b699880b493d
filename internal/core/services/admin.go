package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
	"github.com/custodia-labs/assetrag/internal/core/ports/driving"
	"github.com/custodia-labs/assetrag/internal/logger"
)

// Ensure AdminService implements the interface.
var _ driving.AdminService = (*AdminService)(nil)

// recentRunLimit is how many index runs Stats reports.
const recentRunLimit = 5

// Component names reported by Health.
const (
	ComponentEmbedding   = "embedding"
	ComponentLLM         = "llm"
	ComponentVectorIndex = "vector_index"
)

// AdminService reports health and statistics and maintains the index.
type AdminService struct {
	embeddings *EmbeddingGenerator
	index      *VectorIndexClient
	llm        driven.LLMService
	runs       driven.IndexRunStore
	sessions   interface{ ActiveCount() int }
}

// NewAdminService creates a new admin service.
// The llm parameter is optional.
func NewAdminService(embeddings *EmbeddingGenerator, index *VectorIndexClient, llm driven.LLMService) *AdminService {
	return &AdminService{
		embeddings: embeddings,
		index:      index,
		llm:        llm,
	}
}

// SetRunStore sets the store that Stats reads recent runs from.
func (s *AdminService) SetRunStore(runs driven.IndexRunStore) {
	s.runs = runs
}

// SetSessionCounter sets the source of the active session count.
func (s *AdminService) SetSessionCounter(sessions interface{ ActiveCount() int }) {
	s.sessions = sessions
}

// Health pings every external dependency in turn.
func (s *AdminService) Health(ctx context.Context) *domain.Health {
	health := &domain.Health{Healthy: true, CheckedAt: time.Now()}

	check := func(name string, ping func(context.Context) error) {
		c := domain.ComponentHealth{Name: name, OK: true}
		if err := ping(ctx); err != nil {
			c.OK = false
			c.Error = err.Error()
			health.Healthy = false
			logger.Warn("Health check %s failed: %v", name, err)
		}
		health.Components = append(health.Components, c)
	}

	check(ComponentEmbedding, s.embeddings.Ping)
	if s.llm != nil {
		check(ComponentLLM, s.llm.Ping)
	} else {
		check(ComponentLLM, func(context.Context) error { return domain.ErrLLMUnavailable })
	}
	check(ComponentVectorIndex, s.index.Ping)

	return health
}

// Stats reports index statistics and pipeline activity.
func (s *AdminService) Stats(ctx context.Context) (*domain.Stats, error) {
	idx, err := s.index.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("index stats: %w", err)
	}

	stats := &domain.Stats{
		Index:          *idx,
		EmbeddingModel: s.embeddings.ModelName(),
	}
	if s.llm != nil {
		stats.LLMModel = s.llm.ModelName()
	}
	if s.sessions != nil {
		stats.ActiveSessions = s.sessions.ActiveCount()
	}
	if s.runs != nil {
		runs, err := s.runs.Recent(ctx, recentRunLimit)
		if err != nil {
			logger.Warn("Failed to read recent index runs: %v", err)
		} else {
			stats.RecentRuns = runs
		}
	}
	return stats, nil
}

// ClearIndex deletes every vector in the index.
func (s *AdminService) ClearIndex(ctx context.Context) error {
	logger.Info("Clearing index %s", s.index.IndexName())
	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	return nil
}
