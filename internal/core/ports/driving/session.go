package driving

import (
	"context"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// SessionService runs multi-turn conversations.
type SessionService interface {
	// Open returns the session with the given ID, creating it on first
	// contact. An empty ID creates a new session.
	Open(ctx context.Context, sessionID string) (*domain.SessionInfo, error)

	// Ask runs one enhance, retrieve, respond cycle and records both turns.
	Ask(ctx context.Context, sessionID, query string) (*domain.AnswerResult, error)

	// History returns the session's retained messages oldest first.
	History(ctx context.Context, sessionID string) ([]domain.ConversationMessage, error)

	// Close discards history and marks the session closed.
	Close(ctx context.Context, sessionID string) error

	// ActiveCount returns the number of active sessions.
	ActiveCount() int
}
