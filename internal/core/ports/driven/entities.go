package driven

import (
	"context"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// EntitySource reads entity records supplied by a collaborator.
type EntitySource interface {
	// Load reads all entity records from the given location.
	Load(ctx context.Context, location string) ([]domain.EntityRecord, error)
}
