package domain

import "time"

// DocumentStatus tracks a document through the ingestion lifecycle.
type DocumentStatus string

// Lifecycle states. Ready and Error are terminal but re-enterable via
// reprocessing.
const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusError      DocumentStatus = "error"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusReady, StatusError:
		return true
	}
	return false
}

// Document represents a knowledge base document owned by a manufacturer.
// Documents are created externally (CLI registration, watcher) and enter
// the engine's ownership while being processed or searched.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// ManufacturerID links to the owning Manufacturer.
	ManufacturerID string

	// Title is the human-readable title.
	Title string

	// Category is an optional classification used as a search filter.
	Category string

	// SourceURI is an opaque locator for the raw content (file path).
	SourceURI string

	// SourceType selects the text extractor ("text", "markdown", "pdf").
	SourceType string

	// Status is the current lifecycle state.
	Status DocumentStatus

	// ChunkCount equals the number of persisted chunks when Status is ready.
	ChunkCount int

	// ErrorMessage holds the failure reason. Non-empty only when Status
	// is error.
	ErrorMessage string

	// CreatedAt is when the document was registered.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// Manufacturer is the owner of a set of documents. Slug is a URL-safe
// identifier used as an alternative search filter.
type Manufacturer struct {
	ID   string
	Name string
	Slug string
}

// Chunk represents a searchable unit within a document. Chunks are
// immutable once written; reprocessing replaces a document's entire set.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Index is the 0-based ordinal position within the document. After a
	// successful ingestion cycle indexes form a contiguous 0..N-1 range.
	Index int

	// Content is the text content of this chunk.
	Content string

	// TokenCount is the estimated token count (len/4 approximation).
	TokenCount int

	// Embedding is the vector representation for semantic search.
	// Nil when embedding was skipped.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}
