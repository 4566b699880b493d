package services

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/logger"
)

// KeywordBoost is added to a candidate's score for each query keyword its
// content contains. The number of contributing keywords is not bounded;
// only the final score is clamped to 1.
const KeywordBoost = 0.1

// SimilaritySearcher answers top-k similarity queries.
type SimilaritySearcher interface {
	QuerySimilar(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]domain.SimilarityResult, error)
}

// HybridRanker merges semantic similarity with lexical keyword boosts.
type HybridRanker struct {
	searcher SimilaritySearcher
	boost    float64
}

// NewHybridRanker creates a ranker over the given searcher.
func NewHybridRanker(searcher SimilaritySearcher) *HybridRanker {
	return &HybridRanker{searcher: searcher, boost: KeywordBoost}
}

// Rank oversamples 2*topK semantic candidates, boosts those containing
// query keywords, re-sorts by boosted score and returns the first topK.
func (r *HybridRanker) Rank(ctx context.Context, queryVector []float32, queryText string, topK int) ([]domain.SimilarityResult, error) {
	logger.Section("Hybrid Rank")
	if topK <= 0 {
		return []domain.SimilarityResult{}, nil
	}

	candidates, err := r.searcher.QuerySimilar(ctx, queryVector, topK*2, nil)
	if err != nil {
		return nil, err
	}

	keywords := Keywords(queryText)
	logger.Debug("Candidates: %d, keywords: %v", len(candidates), keywords)

	ranked := make([]domain.SimilarityResult, len(candidates))
	copy(ranked, candidates)
	for i := range ranked {
		ranked[i].Score = boostScore(ranked[i].Score, ranked[i].Content, keywords, r.boost)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

// Keywords lower-cases the query, trims punctuation from each
// whitespace-separated token and keeps tokens longer than two characters.
func Keywords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, isPunct)
		if utf8.RuneCountInString(f) > 2 {
			keywords = append(keywords, f)
		}
	}
	return keywords
}

func isPunct(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boostScore(score float64, content string, keywords []string, boost float64) float64 {
	lower := strings.ToLower(content)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			score += boost
		}
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}
