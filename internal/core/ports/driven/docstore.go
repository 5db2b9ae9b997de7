package driven

import (
	"context"

	"github.com/veridian-labs/kbengine/internal/core/domain"
)

// DocumentStore persists document metadata and lifecycle status.
// Backed by SQLite.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns documents for a manufacturer. An empty
	// manufacturerID returns all documents.
	ListDocuments(ctx context.Context, manufacturerID string) ([]domain.Document, error)

	// SetProcessing transitions a document to processing before any
	// extraction work begins.
	SetProcessing(ctx context.Context, id string) error

	// SetReady transitions a document to ready, persisting the chunk
	// count and clearing any previous error message.
	SetReady(ctx context.Context, id string, chunkCount int) error

	// SetError transitions a document to error, persisting the failure
	// message and resetting the chunk count.
	SetError(ctx context.Context, id string, message string) error
}

// ManufacturerStore persists manufacturers and resolves slugs.
type ManufacturerStore interface {
	// Save stores or updates a manufacturer.
	Save(ctx context.Context, m *domain.Manufacturer) error

	// Get retrieves a manufacturer by ID.
	Get(ctx context.Context, id string) (*domain.Manufacturer, error)

	// ResolveSlug returns the manufacturer ID for a slug.
	// Returns domain.ErrNotFound for unknown slugs.
	ResolveSlug(ctx context.Context, slug string) (string, error)
}

// ChunkStore persists and replaces a document's chunks. Callers must
// serialize delete-then-insert per document; concurrent reprocessing of
// the same document is unsafe at this layer.
type ChunkStore interface {
	// DeleteAllForDocument removes all chunks owned by a document.
	// Idempotent: deleting a document with no chunks is not an error.
	DeleteAllForDocument(ctx context.Context, documentID string) error

	// InsertBatch inserts chunk records preserving index order and
	// returns the assigned chunk IDs.
	InsertBatch(ctx context.Context, documentID string, chunks []domain.Chunk) ([]string, error)

	// GetChunks retrieves all chunks for a document ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
}

// SearchStore executes retrieval queries against stored chunks.
type SearchStore interface {
	// SimilaritySearch returns chunks whose embedding has cosine
	// similarity >= threshold against the query vector, ordered
	// descending and capped at limit. Chunks without embeddings are
	// skipped.
	SimilaritySearch(
		ctx context.Context,
		query []float32,
		filters domain.SearchFilters,
		limit int,
		threshold float64,
	) ([]domain.SearchResult, error)

	// TextSearch returns full-text ranked matches independent of
	// embeddings. Results carry a Rank score instead of Similarity.
	TextSearch(
		ctx context.Context,
		query string,
		filters domain.SearchFilters,
		limit int,
	) ([]domain.SearchResult, error)
}
