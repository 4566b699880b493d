package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for assetrag resources.
	uriScheme = "assetrag://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Template for the stored fragments of one entity.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "entities/{entityId}",
		Name:        "entity-fragments",
		Description: "Every indexed fragment of one entity, in chunk order",
		MIMEType:    "application/json",
	}, s.handleEntityResource)
}

// handleEntityResource returns the fragments stored for an entity.
func (s *Server) handleEntityResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Index == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract entityId from URI: assetrag://entities/{entityId}
	entityID := extractEntityID(req.Params.URI)
	if entityID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	fragments, err := s.ports.Index.EntityFragments(ctx, entityID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("reading entity fragments: %w", err)
	}

	// Build simplified fragment list.
	type fragmentInfo struct {
		ID      string `json:"id"`
		Index   int    `json:"index"`
		Total   int    `json:"total"`
		Content string `json:"content"`
	}

	infos := make([]fragmentInfo, len(fragments))
	for i := range fragments {
		infos[i] = fragmentInfo{
			ID:      fragments[i].ID,
			Index:   fragments[i].Metadata.Index,
			Total:   fragments[i].Metadata.TotalForParent,
			Content: fragments[i].Content,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling fragments: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractEntityID extracts the entity ID from a URI like assetrag://entities/{entityId}.
func extractEntityID(uri string) string {
	const prefix = uriScheme + "entities/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
