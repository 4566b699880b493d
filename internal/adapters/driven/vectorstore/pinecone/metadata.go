package pinecone

import (
	"time"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// Metadata keys stored alongside each vector.
const (
	keyParentName     = "parentName"
	keyNetwork        = "network"
	keyChunkIndex     = "chunkIndex"
	keyTotalChunks    = "totalChunks"
	keyOriginalLength = "originalLength"
	keyIndexedAt      = "indexedAt"
	keyContent        = "content"
)

// encodeMetadata flattens a record's metadata and content into the map
// Pinecone stores. Empty optional fields are omitted.
func encodeMetadata(rec domain.EmbeddingRecord) map[string]any {
	m := map[string]any{
		domain.FieldParentID: rec.Metadata.ParentID,
		keyParentName:        rec.Metadata.ParentName,
		domain.FieldSymbol:   rec.Metadata.Symbol,
		keyChunkIndex:        rec.Metadata.Index,
		keyTotalChunks:       rec.Metadata.TotalForParent,
		keyOriginalLength:    rec.Metadata.OriginalLength,
		keyContent:           rec.Content,
	}
	if rec.Metadata.Network != "" {
		m[keyNetwork] = rec.Metadata.Network
	}
	if !rec.Metadata.IndexedAt.IsZero() {
		m[keyIndexedAt] = rec.Metadata.IndexedAt.UTC().Format(time.RFC3339)
	}
	return m
}

// decodeMetadata is the inverse of encodeMetadata. Missing or mistyped
// fields decode to zero values.
func decodeMetadata(m map[string]any) (domain.FragmentMetadata, string) {
	meta := domain.FragmentMetadata{
		ParentID:       str(m[domain.FieldParentID]),
		ParentName:     str(m[keyParentName]),
		Symbol:         str(m[domain.FieldSymbol]),
		Network:        str(m[keyNetwork]),
		Index:          num(m[keyChunkIndex]),
		TotalForParent: num(m[keyTotalChunks]),
		OriginalLength: num(m[keyOriginalLength]),
	}
	if ts := str(m[keyIndexedAt]); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			meta.IndexedAt = t
		}
	}
	return meta, str(m[keyContent])
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// num reads a JSON number; encoding/json decodes numbers into float64.
func num(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

// encodeFilter turns field equality pairs into a Pinecone metadata filter.
func encodeFilter(filter map[string]string) map[string]any {
	if len(filter) == 0 {
		return nil
	}
	out := make(map[string]any, len(filter))
	for field, value := range filter {
		out[field] = map[string]any{"$eq": value}
	}
	return out
}
