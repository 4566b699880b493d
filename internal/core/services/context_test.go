package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

func TestAssembleContext_Empty(t *testing.T) {
	assert.Equal(t, NoRelevantInformation, AssembleContext(nil, 4000))
}

func TestAssembleContext_GroupsAndOrders(t *testing.T) {
	results := []domain.SimilarityResult{
		result("btc", "Bitcoin", "BTC", 1, 0.9, "second btc"),
		result("eth", "Ethereum", "ETH", 0, 0.8, "first eth"),
		result("btc", "Bitcoin", "BTC", 0, 0.7, "first btc"),
	}

	got := AssembleContext(results, 4000)

	want := "--- Bitcoin (BTC) ---\nfirst btc\nsecond btc\n\n--- Ethereum (ETH) ---\nfirst eth"
	assert.Equal(t, want, got)
}

func TestAssembleContext_HeaderFallsBackToParentID(t *testing.T) {
	results := []domain.SimilarityResult{result("btc", "", "BTC", 0, 0.9, "text")}

	assert.Equal(t, "--- btc (BTC) ---\ntext", AssembleContext(results, 4000))
}

func TestAssembleContext_KeepsHeaderWhenFragmentDoesNotFit(t *testing.T) {
	long := strings.Repeat("x", 80)
	results := []domain.SimilarityResult{
		result("a", "A", "AAA", 0, 0.9, "short"),
		result("b", "B", "BBB", 0, 0.8, long),
		result("c", "C", "CCC", 0, 0.7, "tiny"),
	}

	got := AssembleContext(results, 60)

	assert.Equal(t, "--- A (AAA) ---\nshort\n\n--- B (BBB) ---\n\n--- C (CCC) ---\ntiny", got)
	assert.Equal(t, 60, utf8.RuneCountInString(got))
}

func TestAssembleContext_StopsAtFirstHeaderThatDoesNotFit(t *testing.T) {
	results := []domain.SimilarityResult{
		result("a", "A", "AAA", 0, 0.9, "short"),
		result("b", "B", "BBB", 0, 0.8, "more"),
		result("c", "C", "C", 0, 0.7, ""),
	}

	// B's header alone needs 17 runes after A's 21.
	got := AssembleContext(results, 30)

	assert.Equal(t, "--- A (AAA) ---\nshort", got)
}

func TestAssembleContext_DropsTrailingFragmentsThatOverflow(t *testing.T) {
	results := []domain.SimilarityResult{
		result("a", "A", "AAA", 0, 0.9, "one"),
		result("a", "A", "AAA", 1, 0.9, strings.Repeat("y", 100)),
	}

	got := AssembleContext(results, 40)

	assert.Equal(t, "--- A (AAA) ---\none", got)
}

func TestAssembleContext_NothingFits(t *testing.T) {
	results := []domain.SimilarityResult{result("a", "A", "AAA", 0, 0.9, strings.Repeat("z", 50))}

	assert.Equal(t, "", AssembleContext(results, 10))
}

func TestAssembleContext_NeverExceedsMaxLength(t *testing.T) {
	var results []domain.SimilarityResult
	for i := 0; i < 30; i++ {
		parent := string(rune('a' + i%7))
		content := strings.Repeat("é", 10+i*3)
		results = append(results, result(parent, "Name "+parent, "SYM", i, 0.5, content))
	}

	for _, max := range []int{0, 1, 25, 50, 100, 333, 1000, 5000} {
		got := AssembleContext(results, max)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), max, "maxLength %d", max)
	}
}
