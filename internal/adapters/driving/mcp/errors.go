// Package mcp provides a Model Context Protocol server adapter so AI
// assistants can query and maintain the manufacturer knowledge base.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
