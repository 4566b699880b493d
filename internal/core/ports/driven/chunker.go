package driven

import "github.com/custodia-labs/assetrag/internal/core/domain"

// Chunker converts one entity record into ordered, overlapping fragments.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// ChunkEntity returns the entity's fragments with dense indices and
	// deterministic IDs. The entity is not modified.
	ChunkEntity(entity *domain.EntityRecord) []domain.Fragment
}
