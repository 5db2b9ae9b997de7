package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/kbengine/internal/core/domain"
	"github.com/veridian-labs/kbengine/internal/core/ports/driving"
)

func TestNewServer_RequiresSearchService(t *testing.T) {
	_, err := NewServer(&Ports{})
	require.ErrorIs(t, err, ErrMissingSearchService)
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			response: &domain.SearchResponse{
				Mode: domain.SearchModeHybrid,
				Results: []domain.SearchResult{
					{
						ChunkID:       "c-1",
						DocumentID:    "doc-1",
						DocumentTitle: "Pump Manual",
						Manufacturer:  "Acme",
						Content:       "bearing lubrication schedule",
						Similarity:    0.92,
					},
				},
			},
		}

		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		input := SearchInput{Query: "lubrication", Mode: "hybrid"}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "hybrid", output.Mode)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "doc-1", output.Results[0].DocumentID)
		assert.Equal(t, 0.92, output.Results[0].Similarity)
	})

	t.Run("passes filters through", func(t *testing.T) {
		mockSearch := &mockSearchService{
			response: &domain.SearchResponse{Mode: domain.SearchModeText},
		}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		input := SearchInput{
			Query:        "pump",
			Manufacturer: "acme",
			Category:     "manuals",
			Limit:        3,
			Threshold:    0.5,
		}
		_, _, err = server.handleSearch(ctx, nil, input)
		require.NoError(t, err)

		assert.Equal(t, "acme", mockSearch.gotOpts.Filters.ManufacturerSlug)
		assert.Equal(t, "manuals", mockSearch.gotOpts.Filters.Category)
		assert.Equal(t, 3, mockSearch.gotOpts.Limit)
		assert.Equal(t, 0.5, mockSearch.gotOpts.Threshold)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mockSearch := &mockSearchService{err: errors.New("search failed")}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ingestion summary", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Search: &mockSearchService{response: &domain.SearchResponse{}},
			Ingest: &mockIngestService{
				result: &driving.ProcessResult{ChunksCreated: 4, TotalCharacters: 9000},
			},
		})
		require.NoError(t, err)

		_, output, err := server.handleProcess(ctx, nil, ProcessInput{DocumentID: "doc-1"})
		require.NoError(t, err)
		assert.Equal(t, 4, output.ChunksCreated)
		assert.Equal(t, 9000, output.TotalCharacters)
	})

	t.Run("propagates pipeline errors", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Search: &mockSearchService{response: &domain.SearchResponse{}},
			Ingest: &mockIngestService{err: domain.ErrProcessingInProgress},
		})
		require.NoError(t, err)

		_, _, err = server.handleProcess(ctx, nil, ProcessInput{DocumentID: "doc-1"})
		require.ErrorIs(t, err, domain.ErrProcessingInProgress)
	})
}

func TestServer_handleListDocuments(t *testing.T) {
	ctx := context.Background()

	server, err := NewServer(&Ports{
		Search: &mockSearchService{response: &domain.SearchResponse{}},
		Documents: &mockDocumentStore{
			documents: []domain.Document{
				{ID: "doc-1", Title: "Manual", Status: domain.StatusReady, ChunkCount: 6},
				{ID: "doc-2", Title: "Broken", Status: domain.StatusError, ErrorMessage: "bad pdf"},
			},
		},
	})
	require.NoError(t, err)

	_, output, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, output.Count)
	assert.Equal(t, "ready", output.Documents[0].Status)
	assert.Equal(t, 6, output.Documents[0].ChunkCount)
	assert.Equal(t, "bad pdf", output.Documents[1].ErrorMessage)
}
