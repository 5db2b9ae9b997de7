package services

import (
	"context"
	"fmt"

	"github.com/veridian-labs/kbengine/internal/core/domain"
	"github.com/veridian-labs/kbengine/internal/core/ports/driven"
)

// mockEmbedder returns deterministic vectors and records call shapes.
type mockEmbedder struct {
	dims       int
	batchCalls [][]string
	embedCalls []string
	err        error
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dims: 4}
}

func (m *mockEmbedder) vector(seed byte) []float32 {
	v := make([]float32, m.dims)
	v[0] = 1
	v[1] = float32(seed) / 255
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.embedCalls = append(m.embedCalls, text)
	var seed byte
	if len(text) > 0 {
		seed = text[0]
	}
	return m.vector(seed), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.batchCalls = append(m.batchCalls, texts)
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		var seed byte
		if len(text) > 0 {
			seed = text[0]
		}
		vectors[i] = m.vector(seed)
	}
	return vectors, nil
}

func (m *mockEmbedder) Dimensions() int            { return m.dims }
func (m *mockEmbedder) ModelName() string          { return "mock-embedder" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

// mockExtractorRegistry serves canned text per source type.
type mockExtractorRegistry struct {
	text map[string]string
	err  error
}

var _ driven.ExtractorRegistry = (*mockExtractorRegistry)(nil)

func (m *mockExtractorRegistry) Extract(_ context.Context, sourceType, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	text, ok := m.text[sourceType]
	if !ok {
		return "", fmt.Errorf("%s: %w", sourceType, domain.ErrUnsupportedType)
	}
	return text, nil
}

func (m *mockExtractorRegistry) Register(driven.TextExtractor) {}

// mockSearchStore lets individual branches fail for hybrid tests.
type mockSearchStore struct {
	vectorResults []domain.SearchResult
	textResults   []domain.SearchResult
	vectorErr     error
	textErr       error
}

var _ driven.SearchStore = (*mockSearchStore)(nil)

func (m *mockSearchStore) SimilaritySearch(
	_ context.Context, _ []float32, _ domain.SearchFilters, limit int, _ float64,
) ([]domain.SearchResult, error) {
	if m.vectorErr != nil {
		return nil, m.vectorErr
	}
	results := m.vectorResults
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return append([]domain.SearchResult(nil), results...), nil
}

func (m *mockSearchStore) TextSearch(
	_ context.Context, _ string, _ domain.SearchFilters, limit int,
) ([]domain.SearchResult, error) {
	if m.textErr != nil {
		return nil, m.textErr
	}
	results := m.textResults
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return append([]domain.SearchResult(nil), results...), nil
}
