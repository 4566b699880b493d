package driving

import (
	"context"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// AdminService exposes health, statistics and index maintenance.
type AdminService interface {
	// Health pings every external dependency.
	Health(ctx context.Context) *domain.Health

	// Stats reports index statistics and pipeline activity.
	Stats(ctx context.Context) (*domain.Stats, error)

	// ClearIndex deletes every vector in the index.
	ClearIndex(ctx context.Context) error
}
