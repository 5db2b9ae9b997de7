package mcp

import (
	"github.com/veridian-labs/kbengine/internal/core/ports/driven"
	"github.com/veridian-labs/kbengine/internal/core/ports/driving"
)

// Ports aggregates the driving and driven interfaces the MCP server
// exposes. A single injection point keeps wiring in one place.
type Ports struct {
	// Search provides retrieval over the knowledge base.
	Search driving.SearchService

	// Ingest runs the document pipeline. Optional; without it the
	// process_document tool is not registered.
	Ingest driving.IngestService

	// Documents lists documents and their status. Optional.
	Documents driven.DocumentStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
