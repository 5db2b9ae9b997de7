// Package services implements the core ingestion and retrieval logic,
// independent of any storage or provider specifics.
package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/veridian-labs/kbengine/internal/chunker"
	"github.com/veridian-labs/kbengine/internal/core/domain"
	"github.com/veridian-labs/kbengine/internal/core/ports/driven"
	"github.com/veridian-labs/kbengine/internal/core/ports/driving"
	"github.com/veridian-labs/kbengine/internal/logger"
)

// MinDocumentChars is the minimum extracted text length. Anything
// shorter is treated as an extraction failure rather than a valid
// empty document.
const MinDocumentChars = 50

// Ensure IngestController implements the driving port.
var _ driving.IngestService = (*IngestController)(nil)

// IngestController runs the extraction, chunking, embedding, and
// storage pipeline for documents, tracking lifecycle status throughout.
// Reprocessing the same document concurrently is rejected; the
// delete-then-insert chunk replacement must be serialized per document.
type IngestController struct {
	documents  driven.DocumentStore
	chunks     driven.ChunkStore
	extractors driven.ExtractorRegistry
	embedder   driven.EmbeddingService // nil when embeddings are disabled
	chunker    *chunker.Chunker
	batcher    *EmbeddingBatcher

	mu         sync.Mutex
	processing map[string]struct{}
}

// IngestOption configures an IngestController.
type IngestOption func(*IngestController)

// WithChunker overrides the default chunker.
func WithChunker(c *chunker.Chunker) IngestOption {
	return func(ic *IngestController) {
		ic.chunker = c
	}
}

// WithEmbedder sets the embedding provider. Without one, chunks are
// stored without embeddings and only text search is available.
func WithEmbedder(e driven.EmbeddingService) IngestOption {
	return func(ic *IngestController) {
		ic.embedder = e
		ic.batcher = NewEmbeddingBatcher(e)
	}
}

// NewIngestController creates the ingestion pipeline service.
func NewIngestController(
	documents driven.DocumentStore,
	chunks driven.ChunkStore,
	extractors driven.ExtractorRegistry,
	opts ...IngestOption,
) *IngestController {
	ic := &IngestController{
		documents:  documents,
		chunks:     chunks,
		extractors: extractors,
		chunker:    chunker.New(),
		processing: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(ic)
	}
	return ic
}

// ProcessDocument runs the full ingestion pipeline for a registered
// document. On any failure the document lands in the error state with
// the failure message; on success it becomes ready with its chunk count.
func (ic *IngestController) ProcessDocument(ctx context.Context, documentID string) (*driving.ProcessResult, error) {
	if !ic.tryAcquire(documentID) {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrProcessingInProgress)
	}
	defer ic.release(documentID)

	doc, err := ic.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}

	if err := ic.documents.SetProcessing(ctx, documentID); err != nil {
		return nil, fmt.Errorf("marking processing: %w", err)
	}

	result, err := ic.process(ctx, doc)
	if err != nil {
		if stErr := ic.documents.SetError(ctx, documentID, err.Error()); stErr != nil {
			logger.Warn("failed to record error state for document %s: %v", documentID, stErr)
		}
		return nil, err
	}

	if err := ic.documents.SetReady(ctx, documentID, result.ChunksCreated); err != nil {
		return nil, fmt.Errorf("marking ready: %w", err)
	}

	logger.Info("document %s processed: %d chunks from %d characters",
		documentID, result.ChunksCreated, result.TotalCharacters)
	return result, nil
}

func (ic *IngestController) process(ctx context.Context, doc *domain.Document) (*driving.ProcessResult, error) {
	logger.Section("Extraction")
	raw, err := ic.extractors.Extract(ctx, doc.SourceType, doc.SourceURI)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", doc.SourceURI, err)
	}

	text := chunker.Normalize(raw)
	if len(text) < MinDocumentChars {
		return nil, fmt.Errorf("%w: %d characters after normalisation", domain.ErrTextTooShort, len(text))
	}
	logger.Debug("extracted %d characters (~%d tokens)", len(text), chunker.EstimateTokens(text))

	logger.Section("Chunking")
	pieces := ic.chunker.Chunk(text)
	logger.Debug("produced %d chunks", len(pieces))

	chunks := make([]domain.Chunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = domain.Chunk{
			DocumentID: doc.ID,
			Index:      i,
			Content:    content,
			TokenCount: chunker.EstimateTokens(content),
		}
	}

	if ic.embedder != nil {
		logger.Section("Embedding")
		kept, dropped, err := ic.batcher.EmbedChunks(ctx, chunks)
		if err != nil {
			return nil, fmt.Errorf("embedding chunks: %w", err)
		}
		if dropped > 0 {
			// Reindex so persisted chunks stay contiguous 0..N-1.
			for i := range kept {
				kept[i].Index = i
			}
			logger.Debug("embedded %d chunks, dropped %d oversized", len(kept), dropped)
		}
		chunks = kept
	} else {
		logger.Debug("no embedding provider configured, storing chunks without embeddings")
	}

	logger.Section("Storage")
	if err := ic.chunks.DeleteAllForDocument(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("replacing chunks: %w", err)
	}
	if _, err := ic.chunks.InsertBatch(ctx, doc.ID, chunks); err != nil {
		return nil, fmt.Errorf("storing chunks: %w", err)
	}

	return &driving.ProcessResult{
		ChunksCreated:   len(chunks),
		TotalCharacters: len(text),
	}, nil
}

// ProcessRawText chunks and embeds text without persisting anything.
func (ic *IngestController) ProcessRawText(ctx context.Context, text string) (*driving.RawTextResult, error) {
	normalized := chunker.Normalize(text)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrInvalidInput)
	}

	pieces := ic.chunker.Chunk(normalized)
	result := &driving.RawTextResult{
		Chunks: make([]driving.RawTextChunk, len(pieces)),
	}

	for i, content := range pieces {
		rc := driving.RawTextChunk{
			Index:      i,
			Content:    content,
			TokenCount: chunker.EstimateTokens(content),
		}

		if ic.embedder != nil && rc.TokenCount <= MaxChunkTokens {
			vector, err := ic.embedder.Embed(ctx, content)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingProvider, err)
			}
			rc.EmbeddingDimensions = len(vector)
		}

		result.Chunks[i] = rc
	}

	return result, nil
}

func (ic *IngestController) tryAcquire(documentID string) bool {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if _, busy := ic.processing[documentID]; busy {
		return false
	}
	ic.processing[documentID] = struct{}{}
	return true
}

func (ic *IngestController) release(documentID string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	delete(ic.processing, documentID)
}
