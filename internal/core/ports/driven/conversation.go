package driven

import (
	"context"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// ConversationStore persists per-session conversation history.
// Implementations: memory (default), sqlite, redis.
type ConversationStore interface {
	// Load returns the session history oldest first.
	// An unknown session yields an empty history, not an error.
	Load(ctx context.Context, sessionID string) ([]domain.ConversationMessage, error)

	// Append adds a message and trims the history to the newest maxLen entries.
	Append(ctx context.Context, sessionID string, msg domain.ConversationMessage, maxLen int) error

	// Delete discards the session history.
	Delete(ctx context.Context, sessionID string) error
}

// IndexRunStore records indexing runs.
type IndexRunStore interface {
	// Record stores a completed run.
	Record(ctx context.Context, run domain.IndexRun) error

	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]domain.IndexRun, error)
}
