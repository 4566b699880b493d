package domain

import (
	"encoding/json"
	"time"
)

// IndexResult summarises one indexEntities call.
type IndexResult struct {
	Success bool `json:"success"`

	// IndexedCount is the number of entities whose fragments were all written.
	IndexedCount int `json:"indexedCount"`

	// TotalFragments is the number of fragments produced by chunking.
	TotalFragments int `json:"totalFragments"`

	// UpsertedFragments is the number of fragments actually written.
	UpsertedFragments int `json:"upsertedFragments"`

	Error string `json:"error,omitempty"`
}

// AnswerResult is the outcome of answering a query.
type AnswerResult struct {
	Response       string             `json:"response"`
	Sources        []SimilarityResult `json:"sources"`
	TokensUsed     int                `json:"tokensUsed"`
	Confidence     float64            `json:"confidence"`
	ProcessingTime time.Duration      `json:"-"`
}

// MarshalJSON adds processingTimeMs.
func (r AnswerResult) MarshalJSON() ([]byte, error) {
	type alias AnswerResult
	return json.Marshal(struct {
		alias
		ProcessingTimeMs int64 `json:"processingTimeMs"`
	}{alias(r), r.ProcessingTime.Milliseconds()})
}

// IndexStats is reported by the vector store.
type IndexStats struct {
	Name        string  `json:"name"`
	Dimension   int     `json:"dimension"`
	VectorCount int64   `json:"vectorCount"`
	Fullness    float64 `json:"fullness"`
}

// ComponentHealth is the state of one external dependency.
type ComponentHealth struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Health aggregates the state of every external dependency.
type Health struct {
	Healthy    bool              `json:"healthy"`
	Components []ComponentHealth `json:"components"`
	CheckedAt  time.Time         `json:"checkedAt"`
}

// Stats combines index statistics with pipeline activity.
type Stats struct {
	Index          IndexStats `json:"index"`
	EmbeddingModel string     `json:"embeddingModel"`
	LLMModel       string     `json:"llmModel"`
	ActiveSessions int        `json:"activeSessions"`
	RecentRuns     []IndexRun `json:"recentRuns,omitempty"`
}

// IndexRun records one indexing attempt.
type IndexRun struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	EntityCount    int       `json:"entityCount"`
	IndexedCount   int       `json:"indexedCount"`
	TotalFragments int       `json:"totalFragments"`
	Upserted       int       `json:"upserted"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
}
