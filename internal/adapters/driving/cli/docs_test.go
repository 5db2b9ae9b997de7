package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/kbengine/internal/core/domain"
)

func TestDocsListCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	out, err := execute(t, "docs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents registered")
}

func TestDocsListCmd_ShowsStatusAndErrors(t *testing.T) {
	store, cleanup := setupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.DocumentStore().SaveDocument(ctx, &domain.Document{
		ID: "d1", ManufacturerID: "m1", Title: "Good Manual",
		SourceURI: "/x", SourceType: "text",
	}))
	require.NoError(t, store.DocumentStore().SetReady(ctx, "d1", 4))
	require.NoError(t, store.DocumentStore().SaveDocument(ctx, &domain.Document{
		ID: "d2", ManufacturerID: "m1", Title: "Bad Manual",
		SourceURI: "/y", SourceType: "pdf",
	}))
	require.NoError(t, store.DocumentStore().SetError(ctx, "d2", "extraction failed"))

	out, err := execute(t, "docs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Good Manual")
	assert.Contains(t, out, "4 chunks")
	assert.Contains(t, out, "Bad Manual")
	assert.Contains(t, out, "extraction failed")
}

func TestDocsStatusCmd(t *testing.T) {
	store, cleanup := setupTestServices(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.DocumentStore().SaveDocument(ctx, &domain.Document{
		ID: "d1", ManufacturerID: "m1", Title: "Pump Manual",
		Category: "manuals", SourceURI: "/docs/pump.md", SourceType: "markdown",
	}))

	out, err := execute(t, "docs", "status", "d1")
	require.NoError(t, err)
	assert.Contains(t, out, "Pump Manual")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "manuals")
}

func TestDocsStatusCmd_UnknownDocument(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute(t, "docs", "status", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
