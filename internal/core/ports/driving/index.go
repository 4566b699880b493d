package driving

import (
	"context"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// IndexService ingests entity records into the vector index.
type IndexService interface {
	// IndexEntities validates, chunks, embeds and upserts the entities.
	// Validation failures have no side effects. A mid-stream upsert
	// failure is reported with the count written so far.
	IndexEntities(ctx context.Context, entities []domain.EntityRecord) (*domain.IndexResult, error)

	// RemoveEntity deletes every fragment belonging to the entity.
	RemoveEntity(ctx context.Context, entityID string) error

	// EntityFragments returns every stored fragment of one entity in index order.
	EntityFragments(ctx context.Context, entityID string) ([]domain.SimilarityResult, error)
}
