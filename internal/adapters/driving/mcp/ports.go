package mcp

import (
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP
// server. This provides a single injection point for dependency
// injection.
type Ports struct {
	// Retrieval provides document search.
	Retrieval driving.Retrieval

	// Generator provides grounded generation. Optional; without it
	// the generate tool is not registered.
	Generator driving.Generator

	// Documents backs the document resources. Optional.
	Documents driven.DocumentStore

	// OwnerID scopes all tool calls. The MCP server is single-user.
	OwnerID string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrieval
	}
	return nil
}
