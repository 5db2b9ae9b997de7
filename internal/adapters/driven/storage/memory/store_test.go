package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/kbengine/internal/core/domain"
)

func seed(t *testing.T) (*Store, string, string) {
	t.Helper()
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.ManufacturerStore().Save(ctx, &domain.Manufacturer{
		ID: "m1", Name: "Acme", Slug: "acme",
	}))
	require.NoError(t, store.DocumentStore().SaveDocument(ctx, &domain.Document{
		ID: "d1", ManufacturerID: "m1", Title: "Pump Manual",
		Category: "manuals", SourceURI: "/docs/pump.md", SourceType: "markdown",
	}))
	return store, "m1", "d1"
}

func TestDocumentLifecycle(t *testing.T) {
	store, _, docID := seed(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	doc, err := docs.GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, doc.Status)

	require.NoError(t, docs.SetProcessing(ctx, docID))
	require.NoError(t, docs.SetError(ctx, docID, "boom"))

	doc, err = docs.GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, doc.Status)
	assert.Equal(t, "boom", doc.ErrorMessage)

	require.NoError(t, docs.SetReady(ctx, docID, 3))
	doc, err = docs.GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, doc.Status)
	assert.Equal(t, 3, doc.ChunkCount)
	assert.Empty(t, doc.ErrorMessage)

	require.ErrorIs(t, docs.SetReady(ctx, "missing", 1), domain.ErrNotFound)
}

func TestResolveSlug(t *testing.T) {
	store, mID, _ := seed(t)
	ctx := context.Background()

	id, err := store.ManufacturerStore().ResolveSlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, mID, id)

	_, err = store.ManufacturerStore().ResolveSlug(ctx, "unknown")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkReplaceCycle(t *testing.T) {
	store, _, docID := seed(t)
	ctx := context.Background()
	chunks := store.ChunkStore()

	ids, err := chunks.InsertBatch(ctx, docID, []domain.Chunk{
		{Index: 1, Content: "second"},
		{Index: 0, Content: "first"},
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	got, err := chunks.GetChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "second", got[1].Content)

	require.NoError(t, chunks.DeleteAllForDocument(ctx, docID))
	got, err = chunks.GetChunks(ctx, docID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSimilaritySearch(t *testing.T) {
	store, _, docID := seed(t)
	ctx := context.Background()

	_, err := store.ChunkStore().InsertBatch(ctx, docID, []domain.Chunk{
		{Index: 0, Content: "aligned", Embedding: []float32{1, 0}},
		{Index: 1, Content: "sideways", Embedding: []float32{0, 1}},
		{Index: 2, Content: "no vector"},
	})
	require.NoError(t, err)

	results, err := store.SearchStore().SimilaritySearch(ctx,
		[]float32{1, 0}, domain.SearchFilters{}, 5, 0.7)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "aligned", results[0].Content)
	assert.Equal(t, "Pump Manual", results[0].DocumentTitle)
	assert.Equal(t, "Acme", results[0].Manufacturer)
}

func TestTextSearchFilters(t *testing.T) {
	store, mID, docID := seed(t)
	ctx := context.Background()

	require.NoError(t, store.ManufacturerStore().Save(ctx, &domain.Manufacturer{
		ID: "m2", Name: "Globex", Slug: "globex",
	}))
	require.NoError(t, store.DocumentStore().SaveDocument(ctx, &domain.Document{
		ID: "d2", ManufacturerID: "m2", Title: "Globex Sheet",
		Category: "datasheets", SourceURI: "/docs/g.md", SourceType: "markdown",
	}))

	_, err := store.ChunkStore().InsertBatch(ctx, docID, []domain.Chunk{
		{Index: 0, Content: "compressor oil interval"},
	})
	require.NoError(t, err)
	_, err = store.ChunkStore().InsertBatch(ctx, "d2", []domain.Chunk{
		{Index: 0, Content: "compressor noise levels"},
	})
	require.NoError(t, err)

	results, err := store.SearchStore().TextSearch(ctx, "compressor",
		domain.SearchFilters{ManufacturerID: mID}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Acme", results[0].Manufacturer)

	results, err = store.SearchStore().TextSearch(ctx, "compressor oil",
		domain.SearchFilters{}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Content, "oil")
}
