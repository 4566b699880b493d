package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

type mockIndexService struct {
	result  *domain.IndexResult
	err     error
	removed []string
	got     []domain.EntityRecord
}

func (m *mockIndexService) IndexEntities(_ context.Context, entities []domain.EntityRecord) (*domain.IndexResult, error) {
	m.got = entities
	return m.result, m.err
}

func (m *mockIndexService) RemoveEntity(_ context.Context, id string) error {
	m.removed = append(m.removed, id)
	return m.err
}

func (m *mockIndexService) EntityFragments(_ context.Context, _ string) ([]domain.SimilarityResult, error) {
	return nil, m.err
}

type mockQueryService struct {
	answer  *domain.AnswerResult
	results []domain.SimilarityResult
	err     error
	history []domain.ConversationMessage
}

func (m *mockQueryService) AnswerQuery(
	_ context.Context, _ string, history []domain.ConversationMessage,
) (*domain.AnswerResult, error) {
	m.history = history
	return m.answer, m.err
}

func (m *mockQueryService) SearchByIdentifier(_ context.Context, _ string) ([]domain.SimilarityResult, error) {
	return m.results, m.err
}

type mockAdminService struct {
	health  *domain.Health
	stats   *domain.Stats
	err     error
	cleared bool
}

func (m *mockAdminService) Health(_ context.Context) *domain.Health {
	return m.health
}

func (m *mockAdminService) Stats(_ context.Context) (*domain.Stats, error) {
	return m.stats, m.err
}

func (m *mockAdminService) ClearIndex(_ context.Context) error {
	m.cleared = true
	return m.err
}

// mockSessionService keeps sessions in a map and echoes questions.
type mockSessionService struct {
	mu       sync.Mutex
	sessions map[string]*domain.SessionInfo
	history  map[string][]domain.ConversationMessage
	closed   []string
	askErr   error
	nextID   int
}

func newMockSessionService() *mockSessionService {
	return &mockSessionService{
		sessions: make(map[string]*domain.SessionInfo),
		history:  make(map[string][]domain.ConversationMessage),
	}
}

func (m *mockSessionService) Open(_ context.Context, id string) (*domain.SessionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		m.nextID++
		id = fmt.Sprintf("session-%d", m.nextID)
	}
	info, ok := m.sessions[id]
	if !ok {
		info = &domain.SessionInfo{ID: id, State: domain.SessionActive}
		m.sessions[id] = info
	}
	if info.State == domain.SessionClosed {
		return nil, domain.ErrSessionClosed
	}
	cp := *info
	return &cp, nil
}

func (m *mockSessionService) Ask(_ context.Context, id, query string) (*domain.AnswerResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	if info.State == domain.SessionClosed {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrSessionClosed)
	}
	if m.askErr != nil {
		return nil, m.askErr
	}
	if query == "" {
		return nil, &domain.ValidationError{Field: "query", Reason: "must not be empty"}
	}
	m.history[id] = append(m.history[id],
		domain.ConversationMessage{Role: domain.RoleUser, Content: query},
		domain.ConversationMessage{Role: domain.RoleAssistant, Content: "echo: " + query},
	)
	return &domain.AnswerResult{Response: "echo: " + query, Confidence: 0.5}, nil
}

func (m *mockSessionService) History(_ context.Context, id string) ([]domain.ConversationMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return append([]domain.ConversationMessage(nil), m.history[id]...), nil
}

func (m *mockSessionService) Close(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	info.State = domain.SessionClosed
	delete(m.history, id)
	m.closed = append(m.closed, id)
	return nil
}

func (m *mockSessionService) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.State == domain.SessionActive {
			n++
		}
	}
	return n
}

func (m *mockSessionService) closedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.closed...)
}
