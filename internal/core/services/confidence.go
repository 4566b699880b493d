package services

import "github.com/custodia-labs/assetrag/internal/core/domain"

// Confidence policy values.
const (
	highConfidenceScore = 0.8
	highConfidenceUnit  = 5.0
	highConfidenceCap   = 0.2
)

// ConfidenceScore is the mean score plus a bonus of 1/5 per result above
// 0.8 (at most 0.2), clamped to 1. An empty set scores 0.
func ConfidenceScore(results []domain.SimilarityResult) float64 {
	if len(results) == 0 {
		return 0
	}

	var sum float64
	high := 0
	for _, r := range results {
		sum += r.Score
		if r.Score > highConfidenceScore {
			high++
		}
	}

	avg := sum / float64(len(results))
	bonus := min(float64(high)/highConfidenceUnit, highConfidenceCap)
	return min(avg+bonus, 1.0)
}
