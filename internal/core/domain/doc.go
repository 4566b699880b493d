// Package domain defines the core business entities for assetrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - EntityRecord: A token/asset record supplied by a collaborator
//   - Fragment: An ordered, overlapping text unit cut from one entity
//   - EmbeddingRecord: A fragment plus its vector, ready for the vector store
//   - SimilarityResult: A scored fragment returned by retrieval
//   - ConversationMessage: One turn of a capped conversation history
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
