// Package mcp provides an MCP (Model Context Protocol) server adapter for assetrag.
// It lets AI assistants ask questions over the indexed entities and read
// their stored fragments.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
