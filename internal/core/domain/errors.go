package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown extractor source type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion errors.

	// ErrExtractionFailed indicates raw text could not be obtained from
	// the document's source.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrTextTooShort indicates extracted text is below the 50 character
	// minimum. Treated as an extraction failure, not an empty document.
	ErrTextTooShort = errors.New("extracted text too short")

	// ErrEmbeddingProvider indicates the embedding provider call failed.
	// Any provider failure aborts ingestion for the whole document.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrPersistence indicates a chunk or status write failed.
	ErrPersistence = errors.New("persistence error")

	// ErrProcessingInProgress indicates a concurrent reprocess of the
	// same document was rejected. Delete-then-insert must be serialized
	// per document.
	ErrProcessingInProgress = errors.New("document is already being processed")

	// Search errors.

	// ErrEmbeddingUnavailable indicates no embedding provider is
	// configured. On the query path this triggers silent fallback to
	// text search rather than an error.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSearchUnavailable indicates the search store is not configured.
	ErrSearchUnavailable = errors.New("search store unavailable")
)
