package driving

import (
	"context"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// QueryService answers questions over the indexed entities.
type QueryService interface {
	// AnswerQuery retrieves context for the query and asks the completion provider.
	AnswerQuery(ctx context.Context, query string, history []domain.ConversationMessage) (*domain.AnswerResult, error)

	// SearchByIdentifier tries an exact symbol match, then an exact ID
	// match, then semantic search.
	SearchByIdentifier(ctx context.Context, identifier string) ([]domain.SimilarityResult, error)
}
