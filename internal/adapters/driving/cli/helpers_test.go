package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/kbengine/internal/adapters/driven/storage/memory"
	"github.com/veridian-labs/kbengine/internal/core/domain"
	"github.com/veridian-labs/kbengine/internal/core/services"
	"github.com/veridian-labs/kbengine/internal/extractors"
	"github.com/veridian-labs/kbengine/internal/extractors/markdown"
	"github.com/veridian-labs/kbengine/internal/extractors/plaintext"
)

// setupTestServices wires the commands to an in-memory store seeded
// with one manufacturer and returns a cleanup that restores the
// previous wiring.
func setupTestServices(t *testing.T) (*memory.Store, func()) {
	t.Helper()

	oldDocuments := documents
	oldManufacturers := manufacturers
	oldIngest := ingestService
	oldSearch := searchService

	store := memory.NewStore()
	require.NoError(t, store.ManufacturerStore().Save(context.Background(), &domain.Manufacturer{
		ID: "m1", Name: "Acme", Slug: "acme",
	}))

	registry := extractors.NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(markdown.New())

	documents = store.DocumentStore()
	manufacturers = store.ManufacturerStore()
	ingestService = services.NewIngestController(
		store.DocumentStore(), store.ChunkStore(), registry)
	searchService = services.NewRetrievalEngine(
		store.SearchStore(), store.ManufacturerStore())

	return store, func() {
		documents = oldDocuments
		manufacturers = oldManufacturers
		ingestService = oldIngest
		searchService = oldSearch
	}
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
