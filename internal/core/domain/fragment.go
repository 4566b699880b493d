package domain

import (
	"strconv"
	"time"
)

// Fragment is one chunk of an entity's serialised text, sized for embedding.
type Fragment struct {
	// ID is deterministic, see FragmentID.
	ID string

	// ParentID is the owning entity's ID.
	ParentID string

	// Index is 0-based and dense within a parent.
	Index int

	// TotalForParent is the number of fragments produced for the parent.
	TotalForParent int

	// Content is the fragment text.
	Content string

	// OriginalLength is the rune length of the parent's full serialised text.
	OriginalLength int
}

// FragmentID returns the deterministic ID "<parentID>-chunk-<index>".
func FragmentID(parentID string, index int) string {
	return parentID + "-chunk-" + strconv.Itoa(index)
}

// FragmentMetadata is stored alongside each vector in the index.
type FragmentMetadata struct {
	ParentID       string    `json:"parentId"`
	ParentName     string    `json:"parentName"`
	Symbol         string    `json:"symbol"`
	Network        string    `json:"network,omitempty"`
	Index          int       `json:"chunkIndex"`
	TotalForParent int       `json:"totalChunks"`
	OriginalLength int       `json:"originalLength"`
	IndexedAt      time.Time `json:"indexedAt"`
}

// Metadata field names used for exact-field filters in the vector store.
const (
	FieldParentID = "parentId"
	FieldSymbol   = "symbol"
)

// EmbeddingRecord is a fragment plus its vector, ready for upsert.
type EmbeddingRecord struct {
	ID       string
	Vector   []float32
	Metadata FragmentMetadata
	Content  string
}

// SimilarityResult is a scored fragment returned by retrieval.
// Score is nominally in [0, 1].
type SimilarityResult struct {
	ID       string           `json:"id"`
	Score    float64          `json:"score"`
	Metadata FragmentMetadata `json:"metadata"`
	Content  string           `json:"content"`
}
