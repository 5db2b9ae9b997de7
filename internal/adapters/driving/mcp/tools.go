package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/veridian-labs/kbengine/internal/core/domain"
)

// SearchInput is the input schema for the kb_search tool.
type SearchInput struct {
	Query        string  `json:"query" jsonschema:"the search query"`
	Mode         string  `json:"mode,omitempty" jsonschema:"search mode: vector, text, or hybrid (default hybrid)"`
	Manufacturer string  `json:"manufacturer,omitempty" jsonschema:"restrict results to a manufacturer slug"`
	Category     string  `json:"category,omitempty" jsonschema:"restrict results to a document category"`
	Limit        int     `json:"limit,omitempty" jsonschema:"maximum number of results (default 5)"`
	Threshold    float64 `json:"threshold,omitempty" jsonschema:"minimum cosine similarity for vector matches (default 0.7)"`
}

// SearchOutput is the output schema for the kb_search tool.
type SearchOutput struct {
	// Mode is the strategy that actually ran after any fallback.
	Mode    string                `json:"mode"`
	Results []domain.SearchResult `json:"results"`
	Count   int                   `json:"count"`
}

// ProcessInput is the input schema for the process_document tool.
type ProcessInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to process or reprocess"`
}

// ProcessOutput is the output schema for the process_document tool.
type ProcessOutput struct {
	ChunksCreated   int `json:"chunks_created"`
	TotalCharacters int `json:"total_characters"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	ManufacturerID string `json:"manufacturer_id,omitempty" jsonschema:"restrict to one manufacturer"`
}

// DocumentOutput is a single document in list_documents output.
type DocumentOutput struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Category     string `json:"category,omitempty"`
	Status       string `json:"status"`
	ChunkCount   int    `json:"chunk_count"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kb_search",
		Description: "Search the manufacturer knowledge base",
	}, s.handleSearch)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "process_document",
			Description: "Run the ingestion pipeline for a registered document",
		}, s.handleProcess)
	}

	if s.ports.Documents != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List registered documents and their status",
		}, s.handleListDocuments)
	}
}

// handleSearch handles the kb_search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		Mode:      domain.SearchMode(input.Mode),
		Limit:     input.Limit,
		Threshold: input.Threshold,
		Filters: domain.SearchFilters{
			ManufacturerSlug: input.Manufacturer,
			Category:         input.Category,
		},
	}

	resp, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Mode:    string(resp.Mode),
		Results: resp.Results,
		Count:   len(resp.Results),
	}, nil
}

// handleProcess handles the process_document tool invocation.
func (s *Server) handleProcess(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProcessInput,
) (*mcp.CallToolResult, ProcessOutput, error) {
	result, err := s.ports.Ingest.ProcessDocument(ctx, input.DocumentID)
	if err != nil {
		return nil, ProcessOutput{}, err
	}

	return nil, ProcessOutput{
		ChunksCreated:   result.ChunksCreated,
		TotalCharacters: result.TotalCharacters,
	}, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Documents.ListDocuments(ctx, input.ManufacturerID)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	out := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i, doc := range docs {
		out.Documents[i] = DocumentOutput{
			ID:           doc.ID,
			Title:        doc.Title,
			Category:     doc.Category,
			Status:       string(doc.Status),
			ChunkCount:   doc.ChunkCount,
			ErrorMessage: doc.ErrorMessage,
		}
	}
	return nil, out, nil
}
