package mcp

import (
	"context"

	"github.com/veridian-labs/kbengine/internal/core/domain"
	"github.com/veridian-labs/kbengine/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	response *domain.SearchResponse
	gotOpts  domain.SearchOptions
	err      error
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.gotOpts = opts
	return m.response, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result *driving.ProcessResult
	raw    *driving.RawTextResult
	err    error
}

func (m *mockIngestService) ProcessDocument(
	_ context.Context,
	_ string,
) (*driving.ProcessResult, error) {
	return m.result, m.err
}

func (m *mockIngestService) ProcessRawText(
	_ context.Context,
	_ string,
) (*driving.RawTextResult, error) {
	return m.raw, m.err
}

// mockDocumentStore implements the subset of driven.DocumentStore the
// list_documents tool exercises.
type mockDocumentStore struct {
	documents []domain.Document
	err       error
}

func (m *mockDocumentStore) SaveDocument(_ context.Context, _ *domain.Document) error {
	return m.err
}

func (m *mockDocumentStore) GetDocument(_ context.Context, _ string) (*domain.Document, error) {
	return nil, m.err
}

func (m *mockDocumentStore) ListDocuments(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentStore) SetProcessing(_ context.Context, _ string) error { return m.err }

func (m *mockDocumentStore) SetReady(_ context.Context, _ string, _ int) error { return m.err }

func (m *mockDocumentStore) SetError(_ context.Context, _ string, _ string) error { return m.err }
