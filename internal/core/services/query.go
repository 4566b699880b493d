package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/assetrag/internal/core/domain"
	"github.com/custodia-labs/assetrag/internal/core/ports/driven"
	"github.com/custodia-labs/assetrag/internal/core/ports/driving"
	"github.com/custodia-labs/assetrag/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// Query defaults.
const (
	DefaultTopK             = 5
	DefaultMaxContextLength = 4000
	DefaultHistoryTurns     = 6
	identifierFallbackTopK  = 5
)

// QueryOptions holds retrieval and completion policy.
type QueryOptions struct {
	TopK             int
	MaxContextLength int

	// HistoryTurns is how many trailing history messages reach the LLM.
	HistoryTurns int

	Chat driven.ChatOptions
}

// DefaultQueryOptions returns the default retrieval and completion policy.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		TopK:             DefaultTopK,
		MaxContextLength: DefaultMaxContextLength,
		HistoryTurns:     DefaultHistoryTurns,
		Chat: driven.ChatOptions{
			MaxTokens:   1000,
			Temperature: 0.7,
			TopP:        1.0,
		},
	}
}

// QueryService answers questions: enhance, embed, rank, assemble, complete.
type QueryService struct {
	embeddings *EmbeddingGenerator
	ranker     *HybridRanker
	index      *VectorIndexClient
	llm        driven.LLMService
	prompts    driven.PromptStore
	opts       QueryOptions
}

// NewQueryService creates a new query service.
// The llm parameter is optional; without it only SearchByIdentifier works.
func NewQueryService(
	embeddings *EmbeddingGenerator,
	index *VectorIndexClient,
	llm driven.LLMService,
	opts QueryOptions,
) *QueryService {
	d := DefaultQueryOptions()
	if opts.TopK <= 0 {
		opts.TopK = d.TopK
	}
	if opts.MaxContextLength <= 0 {
		opts.MaxContextLength = d.MaxContextLength
	}
	if opts.HistoryTurns < 0 {
		opts.HistoryTurns = 0
	}
	return &QueryService{
		embeddings: embeddings,
		ranker:     NewHybridRanker(index),
		index:      index,
		llm:        llm,
		opts:       opts,
	}
}

// SetPromptStore sets the store for customisable prompts.
func (s *QueryService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// AnswerQuery retrieves context for the query and asks the completion provider.
func (s *QueryService) AnswerQuery(
	ctx context.Context, query string, history []domain.ConversationMessage,
) (*domain.AnswerResult, error) {
	logger.Section("Answer Query")
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &domain.ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	enhanced := EnhanceQuery(query, history)
	if enhanced != query {
		logger.Debug("Enhanced query: %q", enhanced)
	}

	vector, err := s.embeddings.EmbedOne(ctx, enhanced)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Keywords come from the user's own words; the enhancement only steers
	// the embedding.
	results, err := s.ranker.Rank(ctx, vector, query, s.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}

	contextText := AssembleContext(results, s.opts.MaxContextLength)
	if contextText == "" {
		contextText = NoRelevantInformation
	}
	confidence := ConfidenceScore(results)
	logger.Debug("Context: %d chars from %d sources, confidence %.2f", len(contextText), len(results), confidence)

	messages := s.buildMessages(contextText, query, history)
	chat, err := s.llm.Chat(ctx, messages, s.opts.Chat)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", asProviderError(s.llm.ModelName(), "chat", err))
	}

	result := &domain.AnswerResult{
		Response:       chat.Content,
		Sources:        results,
		TokensUsed:     chat.TotalTokens,
		Confidence:     confidence,
		ProcessingTime: time.Since(start),
	}
	logger.Info("Answered in %s using %d tokens", result.ProcessingTime, result.TokensUsed)
	return result, nil
}

// buildMessages assembles system prompt, recent history and the user turn.
func (s *QueryService) buildMessages(
	contextText, query string, history []domain.ConversationMessage,
) []driven.ChatMessage {
	messages := make([]driven.ChatMessage, 0, s.opts.HistoryTurns+2)
	messages = append(messages, driven.ChatMessage{
		Role:    domain.RoleSystem,
		Content: s.prompt(driven.PromptAnswerSystem),
	})

	recent := history[max(len(history)-s.opts.HistoryTurns, 0):]
	for _, msg := range recent {
		if msg.Role == domain.RoleSystem {
			continue
		}
		messages = append(messages, driven.ChatMessage{Role: msg.Role, Content: msg.Content})
	}

	messages = append(messages, driven.ChatMessage{
		Role:    domain.RoleUser,
		Content: fmt.Sprintf(s.prompt(driven.PromptAnswerUser), contextText, query),
	})
	return messages
}

// prompt returns the named template, falling back to the built-in one.
// The user template must carry exactly two %s verbs.
func (s *QueryService) prompt(name string) string {
	if s.prompts != nil {
		p, err := s.prompts.Load(name)
		switch {
		case err != nil || p == "":
		case name == driven.PromptAnswerUser && strings.Count(p, "%s") != 2:
			logger.Warn("Ignoring prompt %q: expected two %%s placeholders", name)
		default:
			return p
		}
	}
	return driven.DefaultPrompts()[name]
}

// SearchByIdentifier tries an exact symbol match (upper-cased), then an
// exact entity ID match, then a top-5 semantic search. Each stage runs
// only when the previous one found nothing.
func (s *QueryService) SearchByIdentifier(ctx context.Context, identifier string) ([]domain.SimilarityResult, error) {
	logger.Section("Search By Identifier")

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, &domain.ValidationError{Field: "identifier", Reason: "must not be empty"}
	}

	results, err := s.index.QueryByExactField(ctx, domain.FieldSymbol, strings.ToUpper(identifier), 0)
	if err != nil {
		return nil, fmt.Errorf("symbol lookup: %w", err)
	}
	if len(results) > 0 {
		logger.Debug("Matched %d fragments by symbol", len(results))
		return results, nil
	}

	results, err = s.index.QueryByExactField(ctx, domain.FieldParentID, identifier, 0)
	if err != nil {
		return nil, fmt.Errorf("id lookup: %w", err)
	}
	if len(results) > 0 {
		logger.Debug("Matched %d fragments by id", len(results))
		return results, nil
	}

	vector, err := s.embeddings.EmbedOne(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("embed identifier: %w", err)
	}
	results, err = s.index.QuerySimilar(ctx, vector, identifierFallbackTopK, nil)
	if err != nil {
		return nil, fmt.Errorf("semantic fallback: %w", err)
	}
	if results == nil {
		results = []domain.SimilarityResult{}
	}
	logger.Debug("Semantic fallback returned %d results", len(results))
	return results, nil
}
