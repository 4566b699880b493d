package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the indexed assets"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Response   string         `json:"response"`
	Confidence float64        `json:"confidence"`
	TokensUsed int            `json:"tokens_used"`
	Sources    []SourceOutput `json:"sources"`
}

// SearchIdentifierInput is the input schema for the search_identifier tool.
type SearchIdentifierInput struct {
	Identifier string `json:"identifier" jsonschema:"a ticker symbol, entity ID or short free-text name"`
}

// SearchIdentifierOutput is the output schema for the search_identifier tool.
type SearchIdentifierOutput struct {
	Results []SourceOutput `json:"results"`
	Count   int            `json:"count"`
}

// IndexStatsInput is the (empty) input schema for the index_stats tool.
type IndexStatsInput struct{}

// IndexStatsOutput is the output schema for the index_stats tool.
type IndexStatsOutput struct {
	IndexName      string  `json:"index_name"`
	Dimension      int     `json:"dimension"`
	VectorCount    int64   `json:"vector_count"`
	Fullness       float64 `json:"fullness"`
	EmbeddingModel string  `json:"embedding_model"`
	LLMModel       string  `json:"llm_model"`
	ActiveSessions int     `json:"active_sessions"`
	RecentRuns     int     `json:"recent_runs"`
}

// SourceOutput represents a single retrieved fragment.
type SourceOutput struct {
	FragmentID string  `json:"fragment_id"`
	EntityID   string  `json:"entity_id"`
	Name       string  `json:"name"`
	Symbol     string  `json:"symbol"`
	Score      float64 `json:"score"`
	Content    string  `json:"content,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the indexed token and asset records",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_identifier",
		Description: "Find fragments by ticker symbol or entity ID, falling back to semantic search",
	}, s.handleSearchIdentifier)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_stats",
		Description: "Report vector index statistics and pipeline activity",
	}, s.handleIndexStats)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.ports.Query.AnswerQuery(ctx, input.Query, nil)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Response:   result.Response,
		Confidence: result.Confidence,
		TokensUsed: result.TokensUsed,
		Sources:    toSourceOutputs(result.Sources, false),
	}, nil
}

// handleSearchIdentifier handles the search_identifier tool invocation.
func (s *Server) handleSearchIdentifier(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchIdentifierInput,
) (*mcp.CallToolResult, SearchIdentifierOutput, error) {
	results, err := s.ports.Query.SearchByIdentifier(ctx, input.Identifier)
	if err != nil {
		return nil, SearchIdentifierOutput{}, err
	}

	return nil, SearchIdentifierOutput{
		Results: toSourceOutputs(results, true),
		Count:   len(results),
	}, nil
}

// handleIndexStats handles the index_stats tool invocation.
func (s *Server) handleIndexStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatsInput,
) (*mcp.CallToolResult, IndexStatsOutput, error) {
	if s.ports.Admin == nil {
		return nil, IndexStatsOutput{}, errors.New("index statistics are not available")
	}

	stats, err := s.ports.Admin.Stats(ctx)
	if err != nil {
		return nil, IndexStatsOutput{}, err
	}
	return nil, IndexStatsOutput{
		IndexName:      stats.Index.Name,
		Dimension:      stats.Index.Dimension,
		VectorCount:    stats.Index.VectorCount,
		Fullness:       stats.Index.Fullness,
		EmbeddingModel: stats.EmbeddingModel,
		LLMModel:       stats.LLMModel,
		ActiveSessions: stats.ActiveSessions,
		RecentRuns:     len(stats.RecentRuns),
	}, nil
}

func toSourceOutputs(results []domain.SimilarityResult, withContent bool) []SourceOutput {
	out := make([]SourceOutput, len(results))
	for i := range results {
		out[i] = SourceOutput{
			FragmentID: results[i].ID,
			EntityID:   results[i].Metadata.ParentID,
			Name:       results[i].Metadata.ParentName,
			Symbol:     results[i].Metadata.Symbol,
			Score:      results[i].Score,
		}
		if withContent {
			out[i].Content = results[i].Content
		}
	}
	return out
}
