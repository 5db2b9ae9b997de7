package driving

import "context"

// ProcessResult summarises a completed document ingestion.
type ProcessResult struct {
	// ChunksCreated is the number of chunks persisted.
	ChunksCreated int `json:"chunksCreated"`

	// TotalCharacters is the length of the extracted text.
	TotalCharacters int `json:"totalCharacters"`
}

// RawTextChunk describes one chunk produced by the diagnostic path.
type RawTextChunk struct {
	Index               int    `json:"index"`
	Content             string `json:"content"`
	TokenCount          int    `json:"tokenCount"`
	EmbeddingDimensions int    `json:"embeddingDimensions"`
}

// RawTextResult is the output of the diagnostic no-persistence path.
type RawTextResult struct {
	Chunks []RawTextChunk `json:"chunks"`
}

// IngestService runs the document ingestion pipeline.
type IngestService interface {
	// ProcessDocument runs extraction, chunking, embedding, and storage
	// for a registered document, tracking its lifecycle status.
	ProcessDocument(ctx context.Context, documentID string) (*ProcessResult, error)

	// ProcessRawText chunks and embeds text without persisting anything.
	// Diagnostic path for inspecting chunker output.
	ProcessRawText(ctx context.Context, text string) (*RawTextResult, error)
}
