package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// stubSearcher implements SimilaritySearcher for testing.
type stubSearcher struct {
	results []domain.SimilarityResult
	err     error
	topK    int
}

func (s *stubSearcher) QuerySimilar(_ context.Context, _ []float32, topK int, _ map[string]string) ([]domain.SimilarityResult, error) {
	s.topK = topK
	if s.err != nil {
		return nil, s.err
	}
	out := append([]domain.SimilarityResult(nil), s.results...)
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func TestHybridRanker_BoostsLiteralSymbolMatch(t *testing.T) {
	searcher := &stubSearcher{results: []domain.SimilarityResult{
		{ID: "btc-chunk-0", Score: 0.75, Content: "Name: Bitcoin\nSymbol: BTC"},
		{ID: "eth-chunk-0", Score: 0.60, Content: "Name: Ethereum\nSymbol: ETH"},
	}}
	ranker := NewHybridRanker(searcher)

	ranked, err := ranker.Rank(context.Background(), []float32{1}, "BTC price today", 5)

	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "btc-chunk-0", ranked[0].ID)
	assert.InDelta(t, 0.85, ranked[0].Score, 1e-9)
	assert.Equal(t, "eth-chunk-0", ranked[1].ID)
	assert.InDelta(t, 0.60, ranked[1].Score, 1e-9)
	assert.Equal(t, 10, searcher.topK, "oversamples twice topK")
}

func TestHybridRanker_ReordersByBoostedScore(t *testing.T) {
	searcher := &stubSearcher{results: []domain.SimilarityResult{
		{ID: "a", Score: 0.70, Content: "unrelated"},
		{ID: "b", Score: 0.65, Content: "solana staking rewards"},
	}}
	ranker := NewHybridRanker(searcher)

	ranked, err := ranker.Rank(context.Background(), []float32{1}, "solana staking", 1)

	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "b", ranked[0].ID)
	assert.InDelta(t, 0.85, ranked[0].Score, 1e-9)
}

func TestHybridRanker_ClampsAtOne(t *testing.T) {
	searcher := &stubSearcher{results: []domain.SimilarityResult{
		{ID: "a", Score: 0.95, Content: "alpha beta gamma delta"},
	}}
	ranker := NewHybridRanker(searcher)

	ranked, err := ranker.Rank(context.Background(), []float32{1}, "alpha beta gamma delta", 3)

	require.NoError(t, err)
	assert.Equal(t, 1.0, ranked[0].Score)
}

func TestHybridRanker_BoostNeverLowersScore(t *testing.T) {
	searcher := &stubSearcher{results: []domain.SimilarityResult{
		{ID: "a", Score: 0.4, Content: "Token with USDC liquidity"},
		{ID: "b", Score: 0.3, Content: "nothing"},
		{ID: "c", Score: 0.99, Content: "usdc usdc"},
	}}
	ranker := NewHybridRanker(searcher)

	ranked, err := ranker.Rank(context.Background(), []float32{1}, "usdc liquidity pools", 3)

	require.NoError(t, err)
	original := map[string]float64{"a": 0.4, "b": 0.3, "c": 0.99}
	for _, r := range ranked {
		assert.GreaterOrEqual(t, r.Score, original[r.ID])
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestHybridRanker_DoesNotMutateCandidates(t *testing.T) {
	candidates := []domain.SimilarityResult{{ID: "a", Score: 0.5, Content: "bitcoin"}}
	searcher := &stubSearcher{results: candidates}

	_, err := NewHybridRanker(searcher).Rank(context.Background(), []float32{1}, "bitcoin", 1)

	require.NoError(t, err)
	assert.Equal(t, 0.5, candidates[0].Score)
}

func TestHybridRanker_ZeroTopK(t *testing.T) {
	searcher := &stubSearcher{}

	ranked, err := NewHybridRanker(searcher).Rank(context.Background(), []float32{1}, "q", 0)

	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestHybridRanker_SearchError(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("store down")}

	_, err := NewHybridRanker(searcher).Rank(context.Background(), []float32{1}, "q", 3)

	assert.Error(t, err)
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"BTC price today", []string{"btc", "price", "today"}},
		{"is it up", []string{}},
		{"  ETH   vs  eth ", []string{"eth", "eth"}},
		{"", []string{}},
		{"What is the BTC price?", []string{"what", "the", "btc", "price"}},
		{"(btc, eth) vs. sol!", []string{"btc", "eth", "sol"}},
		{"$1,000 u.s.", []string{"1,000", "u.s"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Keywords(tt.query))
		})
	}
}
