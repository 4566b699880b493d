package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of driven.ConversationStore.
type ConversationStore struct {
	mu       sync.RWMutex
	sessions map[string][]domain.ConversationMessage
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		sessions: make(map[string][]domain.ConversationMessage),
	}
}

// Load returns a copy of the session history oldest first.
func (s *ConversationStore) Load(_ context.Context, sessionID string) ([]domain.ConversationMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.sessions[sessionID]
	if len(history) == 0 {
		return nil, nil
	}
	return append([]domain.ConversationMessage(nil), history...), nil
}

// Append adds a message and keeps the newest maxLen entries.
func (s *ConversationStore) Append(
	_ context.Context, sessionID string, msg domain.ConversationMessage, maxLen int,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = domain.AppendMessage(s.sessions[sessionID], msg, maxLen)
	return nil
}

// Delete discards the session history.
func (s *ConversationStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
