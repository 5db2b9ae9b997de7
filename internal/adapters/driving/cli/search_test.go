package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/kbengine/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute(t, "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_Flags(t *testing.T) {
	limit := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "n", limit.Shorthand)
	assert.Equal(t, "5", limit.DefValue)

	mode := searchCmd.Flags().Lookup("mode")
	require.NotNil(t, mode)
	assert.Equal(t, "hybrid", mode.DefValue)

	threshold := searchCmd.Flags().Lookup("threshold")
	require.NotNil(t, threshold)
	assert.Equal(t, "0.7", threshold.DefValue)
}

func TestSearchCmd_NoResults(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	out, err := execute(t, "search", "anything")
	require.NoError(t, err)
	assert.Contains(t, out, "No results")
	// Without an embedder the hybrid default degrades to text.
	assert.Contains(t, out, "text search")
}

func TestSearchCmd_PrintsResults(t *testing.T) {
	store, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.DocumentStore().SaveDocument(ctx, &domain.Document{
		ID: "d1", ManufacturerID: "m1", Title: "Pump Manual",
		SourceURI: "/x", SourceType: "text",
	}))
	_, err := store.ChunkStore().InsertBatch(ctx, "d1", []domain.Chunk{
		{Index: 0, Content: "centrifugal pump bearing maintenance"},
	})
	require.NoError(t, err)

	out, err := execute(t, "search", "--mode", "text", "pump")
	require.NoError(t, err)
	assert.Contains(t, out, "Pump Manual")
	assert.Contains(t, out, "Acme")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	store, cleanup := setupTestServices(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.DocumentStore().SaveDocument(ctx, &domain.Document{
		ID: "d1", ManufacturerID: "m1", Title: "Pump Manual",
		SourceURI: "/x", SourceType: "text",
	}))
	_, err := store.ChunkStore().InsertBatch(ctx, "d1", []domain.Chunk{
		{Index: 0, Content: "impeller replacement procedure"},
	})
	require.NoError(t, err)

	defer func() { searchJSON = false }()
	out, err := execute(t, "search", "--json", "impeller")
	require.NoError(t, err)
	assert.Contains(t, out, `"mode"`)
	assert.Contains(t, out, `"documentTitle"`)
}

func TestSearchCmd_InvalidMode(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	defer func() { searchMode = "hybrid" }()
	_, err := execute(t, "search", "--mode", "fuzzy", "pump")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short", 10))
	assert.Equal(t, "abc...", snippet("abcdef", 3))
}
