package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
	"github.com/custodia-labs/assetrag/internal/core/ports/driving"
	"github.com/custodia-labs/assetrag/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService runs the ingestion pipeline:
// validate, chunk, embed, upsert.
type IndexService struct {
	chunker    driven.Chunker
	embeddings *EmbeddingGenerator
	index      *VectorIndexClient
	runs       driven.IndexRunStore
	now        func() time.Time
}

// NewIndexService creates a new index service.
func NewIndexService(chunker driven.Chunker, embeddings *EmbeddingGenerator, index *VectorIndexClient) *IndexService {
	return &IndexService{
		chunker:    chunker,
		embeddings: embeddings,
		index:      index,
		now:        time.Now,
	}
}

// SetRunStore sets the store that records each indexing run.
func (s *IndexService) SetRunStore(runs driven.IndexRunStore) {
	s.runs = runs
}

// IndexEntities validates every entity before any external call, then
// chunks, embeds and upserts their fragments.
func (s *IndexService) IndexEntities(ctx context.Context, entities []domain.EntityRecord) (*domain.IndexResult, error) {
	logger.Section("Index Entities")

	if err := domain.ValidateEntities(entities); err != nil {
		return nil, err
	}

	run := domain.IndexRun{
		ID:          uuid.New().String(),
		StartedAt:   s.now(),
		EntityCount: len(entities),
	}

	fragments := make([]domain.Fragment, 0, len(entities))
	for i := range entities {
		fragments = append(fragments, s.chunker.ChunkEntity(&entities[i])...)
	}
	logger.Info("Chunked %d entities into %d fragments", len(entities), len(fragments))

	result := &domain.IndexResult{TotalFragments: len(fragments)}

	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Content
	}

	vectors, err := s.embeddings.EmbedMany(ctx, texts)
	if err != nil {
		result.Error = err.Error()
		s.recordRun(ctx, run, result)
		return result, fmt.Errorf("embed fragments: %w", err)
	}

	records := buildRecords(entities, fragments, vectors, s.now())

	upsert, err := s.index.Upsert(ctx, records)
	result.UpsertedFragments = upsert.Upserted
	result.IndexedCount = completedEntities(fragments, upsert.Upserted)
	result.Success = upsert.Success
	if err != nil {
		result.Error = err.Error()
		s.recordRun(ctx, run, result)
		return result, fmt.Errorf("upsert fragments: %w", err)
	}

	logger.Info("Indexed %d entities (%d fragments)", result.IndexedCount, result.UpsertedFragments)
	s.recordRun(ctx, run, result)
	return result, nil
}

// buildRecords pairs fragments with their vectors and entity metadata.
func buildRecords(
	entities []domain.EntityRecord, fragments []domain.Fragment, vectors [][]float32, indexedAt time.Time,
) []domain.EmbeddingRecord {
	byID := make(map[string]*domain.EntityRecord, len(entities))
	for i := range entities {
		byID[entities[i].ID] = &entities[i]
	}

	records := make([]domain.EmbeddingRecord, len(fragments))
	for i, f := range fragments {
		e := byID[f.ParentID]
		records[i] = domain.EmbeddingRecord{
			ID:     f.ID,
			Vector: vectors[i],
			Metadata: domain.FragmentMetadata{
				ParentID:       f.ParentID,
				ParentName:     e.Name,
				Symbol:         strings.ToUpper(e.Symbol),
				Network:        e.Network,
				Index:          f.Index,
				TotalForParent: f.TotalForParent,
				OriginalLength: f.OriginalLength,
				IndexedAt:      indexedAt,
			},
			Content: f.Content,
		}
	}
	return records
}

// completedEntities counts parents whose fragments all fall within the
// first upserted records. Fragments are grouped by parent in order.
func completedEntities(fragments []domain.Fragment, upserted int) int {
	count := 0
	for i := 0; i < upserted && i < len(fragments); i++ {
		if fragments[i].Index == fragments[i].TotalForParent-1 {
			count++
		}
	}
	return count
}

func (s *IndexService) recordRun(ctx context.Context, run domain.IndexRun, result *domain.IndexResult) {
	if s.runs == nil {
		return
	}
	run.FinishedAt = s.now()
	run.IndexedCount = result.IndexedCount
	run.TotalFragments = result.TotalFragments
	run.Upserted = result.UpsertedFragments
	run.Success = result.Success
	run.Error = result.Error
	if err := s.runs.Record(ctx, run); err != nil {
		logger.Warn("Failed to record index run %s: %v", run.ID, err)
	}
}

// RemoveEntity deletes every fragment of the entity.
func (s *IndexService) RemoveEntity(ctx context.Context, entityID string) error {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return &domain.ValidationError{Field: "id", Reason: "must not be empty"}
	}
	logger.Info("Removing fragments of %s", entityID)
	if err := s.index.DeleteByField(ctx, domain.FieldParentID, entityID); err != nil {
		return fmt.Errorf("remove entity %s: %w", entityID, err)
	}
	return nil
}

// EntityFragments returns every stored fragment of the entity in index order.
func (s *IndexService) EntityFragments(ctx context.Context, entityID string) ([]domain.SimilarityResult, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return nil, &domain.ValidationError{Field: "id", Reason: "must not be empty"}
	}

	results, err := s.index.QueryByExactField(ctx, domain.FieldParentID, entityID, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch fragments of %s: %w", entityID, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("entity %s: %w", entityID, domain.ErrNotFound)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Metadata.Index < results[j].Metadata.Index
	})
	return results, nil
}
