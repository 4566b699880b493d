package mcp

import (
	"context"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer  *domain.AnswerResult
	results []domain.SimilarityResult
	err     error

	lastQuery      string
	lastIdentifier string
}

func (m *mockQueryService) AnswerQuery(
	_ context.Context,
	query string,
	_ []domain.ConversationMessage,
) (*domain.AnswerResult, error) {
	m.lastQuery = query
	return m.answer, m.err
}

func (m *mockQueryService) SearchByIdentifier(_ context.Context, identifier string) ([]domain.SimilarityResult, error) {
	m.lastIdentifier = identifier
	return m.results, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	fragments []domain.SimilarityResult
	err       error
}

func (m *mockIndexService) IndexEntities(_ context.Context, _ []domain.EntityRecord) (*domain.IndexResult, error) {
	return &domain.IndexResult{Success: true}, m.err
}

func (m *mockIndexService) RemoveEntity(_ context.Context, _ string) error {
	return m.err
}

func (m *mockIndexService) EntityFragments(_ context.Context, _ string) ([]domain.SimilarityResult, error) {
	return m.fragments, m.err
}

// mockAdminService is a mock implementation of driving.AdminService.
type mockAdminService struct {
	stats *domain.Stats
	err   error
}

func (m *mockAdminService) Health(_ context.Context) *domain.Health {
	return &domain.Health{Healthy: m.err == nil}
}

func (m *mockAdminService) Stats(_ context.Context) (*domain.Stats, error) {
	return m.stats, m.err
}

func (m *mockAdminService) ClearIndex(_ context.Context) error {
	return m.err
}

func fragment(entityID string, index, total int, content string) domain.SimilarityResult {
	return domain.SimilarityResult{
		ID:    domain.FragmentID(entityID, index),
		Score: 1,
		Metadata: domain.FragmentMetadata{
			ParentID:       entityID,
			ParentName:     "Bitcoin",
			Symbol:         "BTC",
			Index:          index,
			TotalForParent: total,
		},
		Content: content,
	}
}
