package mcp

import (
	"github.com/custodia-labs/assetrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions and resolves identifiers.
	Query driving.QueryService

	// Index reads stored fragments for the entity resource.
	Index driving.IndexService

	// Admin reports index statistics.
	Admin driving.AdminService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	// Index and Admin are optional; their tools degrade gracefully.
	return nil
}
