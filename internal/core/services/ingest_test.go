package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/kbengine/internal/adapters/driven/storage/memory"
	"github.com/veridian-labs/kbengine/internal/core/domain"
)

const sampleText = `The hydraulic press requires regular maintenance of its seals.
Inspect the pressure relief valve quarterly and replace worn gaskets.

Operating temperature must stay between 10 and 40 degrees Celsius.
Exceeding this range voids the warranty and risks seal failure.`

func setupIngest(t *testing.T, extracted string, opts ...IngestOption) (*IngestController, *memory.Store, string) {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, store.ManufacturerStore().Save(ctx, &domain.Manufacturer{
		ID: "m1", Name: "Acme", Slug: "acme",
	}))
	require.NoError(t, store.DocumentStore().SaveDocument(ctx, &domain.Document{
		ID: "d1", ManufacturerID: "m1", Title: "Press Manual",
		SourceURI: "/docs/press.md", SourceType: "markdown",
	}))

	registry := &mockExtractorRegistry{text: map[string]string{"markdown": extracted}}
	ic := NewIngestController(store.DocumentStore(), store.ChunkStore(), registry, opts...)
	return ic, store, "d1"
}

func TestProcessDocument_Success(t *testing.T) {
	embedder := newMockEmbedder()
	ic, store, docID := setupIngest(t, sampleText, WithEmbedder(embedder))
	ctx := context.Background()

	result, err := ic.ProcessDocument(ctx, docID)
	require.NoError(t, err)
	assert.Positive(t, result.ChunksCreated)
	assert.Positive(t, result.TotalCharacters)

	doc, err := store.DocumentStore().GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, doc.Status)
	assert.Equal(t, result.ChunksCreated, doc.ChunkCount)

	chunks, err := store.ChunkStore().GetChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, chunks, result.ChunksCreated)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.NotEmpty(t, chunk.ID)
		assert.NotNil(t, chunk.Embedding)
	}
}

func TestProcessDocument_NoEmbedder(t *testing.T) {
	ic, store, docID := setupIngest(t, sampleText)
	ctx := context.Background()

	result, err := ic.ProcessDocument(ctx, docID)
	require.NoError(t, err)

	chunks, err := store.ChunkStore().GetChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, chunks, result.ChunksCreated)
	for _, chunk := range chunks {
		assert.Nil(t, chunk.Embedding)
	}
}

func TestProcessDocument_TextTooShort(t *testing.T) {
	ic, store, docID := setupIngest(t, "too short")
	ctx := context.Background()

	_, err := ic.ProcessDocument(ctx, docID)
	require.ErrorIs(t, err, domain.ErrTextTooShort)

	doc, err := store.DocumentStore().GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, doc.Status)
	assert.NotEmpty(t, doc.ErrorMessage)
}

func TestProcessDocument_MinimumLengthBoundary(t *testing.T) {
	ctx := context.Background()

	ic, _, docID := setupIngest(t, strings.Repeat("a", MinDocumentChars-1))
	_, err := ic.ProcessDocument(ctx, docID)
	require.ErrorIs(t, err, domain.ErrTextTooShort)

	ic, store, docID := setupIngest(t, strings.Repeat("a", MinDocumentChars))
	result, err := ic.ProcessDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ChunksCreated)

	doc, err := store.DocumentStore().GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, doc.Status)
}

func TestProcessDocument_ExtractionFailure(t *testing.T) {
	ic, store, docID := setupIngest(t, sampleText)
	ic.extractors = &mockExtractorRegistry{err: domain.ErrExtractionFailed}
	ctx := context.Background()

	_, err := ic.ProcessDocument(ctx, docID)
	require.ErrorIs(t, err, domain.ErrExtractionFailed)

	doc, err := store.DocumentStore().GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, doc.Status)
}

func TestProcessDocument_EmbeddingFailureLeavesErrorState(t *testing.T) {
	embedder := newMockEmbedder()
	embedder.err = assert.AnError
	ic, store, docID := setupIngest(t, sampleText, WithEmbedder(embedder))
	ctx := context.Background()

	_, err := ic.ProcessDocument(ctx, docID)
	require.ErrorIs(t, err, domain.ErrEmbeddingProvider)

	doc, err := store.DocumentStore().GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, doc.Status)

	// Nothing was persisted for the failed run.
	chunks, err := store.ChunkStore().GetChunks(ctx, docID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestProcessDocument_DropsOversizedChunksAndReindexes(t *testing.T) {
	embedder := newMockEmbedder()

	// A normal paragraph followed by a huge one with no sentence
	// boundaries: the second survives chunking as-is but exceeds the
	// embedding ceiling and is dropped from persistence.
	text := sampleText + "\n\n" + strings.Repeat("word ", 1100)
	ic, store, docID := setupIngest(t, text, WithEmbedder(embedder))
	ctx := context.Background()

	result, err := ic.ProcessDocument(ctx, docID)
	require.NoError(t, err)

	chunks, err := store.ChunkStore().GetChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, chunks, result.ChunksCreated)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.LessOrEqual(t, chunk.TokenCount, MaxChunkTokens)
		assert.NotNil(t, chunk.Embedding)
	}

	doc, err := store.DocumentStore().GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, doc.Status)
	assert.Equal(t, result.ChunksCreated, doc.ChunkCount)
}

func TestProcessDocument_UnknownDocument(t *testing.T) {
	ic, _, _ := setupIngest(t, sampleText)

	_, err := ic.ProcessDocument(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProcessDocument_ReprocessReplacesChunks(t *testing.T) {
	ic, store, docID := setupIngest(t, sampleText)
	ctx := context.Background()

	first, err := ic.ProcessDocument(ctx, docID)
	require.NoError(t, err)

	second, err := ic.ProcessDocument(ctx, docID)
	require.NoError(t, err)

	chunks, err := store.ChunkStore().GetChunks(ctx, docID)
	require.NoError(t, err)
	assert.Len(t, chunks, second.ChunksCreated)
	assert.Equal(t, first.ChunksCreated, second.ChunksCreated)
}

func TestProcessDocument_ConcurrentReprocessRejected(t *testing.T) {
	ic, _, docID := setupIngest(t, sampleText)

	// Hold the slot manually to simulate an in-flight run.
	require.True(t, ic.tryAcquire(docID))

	var wg sync.WaitGroup
	wg.Add(1)
	var err error
	go func() {
		defer wg.Done()
		_, err = ic.ProcessDocument(context.Background(), docID)
	}()
	wg.Wait()

	require.ErrorIs(t, err, domain.ErrProcessingInProgress)
	ic.release(docID)

	// After release, processing succeeds.
	_, err = ic.ProcessDocument(context.Background(), docID)
	require.NoError(t, err)
}

func TestProcessRawText(t *testing.T) {
	embedder := newMockEmbedder()
	ic, _, _ := setupIngest(t, sampleText, WithEmbedder(embedder))

	result, err := ic.ProcessRawText(context.Background(), sampleText)
	require.NoError(t, err)
	require.NotEmpty(t, result.Chunks)

	for i, chunk := range result.Chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Positive(t, chunk.TokenCount)
		assert.Equal(t, embedder.dims, chunk.EmbeddingDimensions)
	}
}

func TestProcessRawText_EmptyInput(t *testing.T) {
	ic, _, _ := setupIngest(t, sampleText)

	_, err := ic.ProcessRawText(context.Background(), "   \n\n  ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProcessRawText_OversizedChunkNotEmbedded(t *testing.T) {
	embedder := newMockEmbedder()
	ic, _, _ := setupIngest(t, sampleText, WithEmbedder(embedder))

	// One long sentence-free paragraph stays a single oversized chunk.
	text := strings.Repeat("word ", (MaxChunkTokens+200)*4/5)
	result, err := ic.ProcessRawText(context.Background(), text)
	require.NoError(t, err)
	require.NotEmpty(t, result.Chunks)

	oversized := 0
	for _, chunk := range result.Chunks {
		if chunk.TokenCount > MaxChunkTokens {
			oversized++
			assert.Zero(t, chunk.EmbeddingDimensions)
		}
	}
	assert.Positive(t, oversized)
}
