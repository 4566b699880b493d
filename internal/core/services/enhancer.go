package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// enhancerWindow is how many trailing messages are scanned for symbols.
const enhancerWindow = 4

var symbolPattern = regexp.MustCompile(`\b[A-Z]{2,5}\b`)

// EnhanceQuery appends symbols mentioned in the last few messages so a
// follow-up like "what about its supply?" still retrieves the right entity.
// The history is not modified.
func EnhanceQuery(query string, history []domain.ConversationMessage) string {
	if len(history) == 0 {
		return query
	}

	recent := history[max(len(history)-enhancerWindow, 0):]

	seen := make(map[string]struct{})
	var symbols []string
	for _, msg := range recent {
		for _, sym := range symbolPattern.FindAllString(msg.Content, -1) {
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			symbols = append(symbols, sym)
		}
	}

	if len(symbols) == 0 {
		return query
	}
	return query + " (previous conversation mentioned: " + strings.Join(symbols, ", ") + ")"
}
