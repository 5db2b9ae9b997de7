package services

import (
	"context"
	"fmt"

	"github.com/veridian-labs/kbengine/internal/core/domain"
	"github.com/veridian-labs/kbengine/internal/core/ports/driven"
	"github.com/veridian-labs/kbengine/internal/logger"
)

// Embedding batch limits. The per-chunk ceiling protects the provider's
// per-input limit; the request budget keeps a whole batch under the
// provider's per-request token limit with headroom for estimation error.
const (
	// MaxChunkTokens is the hard per-chunk ceiling. Chunks estimated
	// above it are dropped from the ingestion run entirely.
	MaxChunkTokens = 1000

	// MaxBatchSize is the maximum number of chunks per embedding request.
	MaxBatchSize = 5

	// MaxRequestTokens is the estimated token budget for one request.
	MaxRequestTokens = 7500
)

// EmbeddingBatcher groups chunks into provider requests, enforcing the
// per-chunk ceiling and per-request budget. Requests are issued
// sequentially with no retry; any provider failure aborts the run.
type EmbeddingBatcher struct {
	embedder driven.EmbeddingService
}

// NewEmbeddingBatcher creates a batcher over the given provider.
func NewEmbeddingBatcher(embedder driven.EmbeddingService) *EmbeddingBatcher {
	return &EmbeddingBatcher{embedder: embedder}
}

// EmbedChunks embeds chunks and returns the survivors in their original
// order with Embedding filled. Chunks over the per-chunk ceiling are
// dropped with a warning; the caller must not persist them and must
// reindex the survivors. A chunk of exactly MaxChunkTokens survives.
func (b *EmbeddingBatcher) EmbedChunks(ctx context.Context, chunks []domain.Chunk) (kept []domain.Chunk, dropped int, err error) {
	kept = make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.TokenCount > MaxChunkTokens {
			logger.Warn("chunk %d (~%d tokens) exceeds embedding ceiling of %d tokens, dropping",
				chunk.Index, chunk.TokenCount, MaxChunkTokens)
			dropped++
			continue
		}
		kept = append(kept, chunk)
	}

	for start := 0; start < len(kept); {
		end := start
		batchTokens := 0
		for end < len(kept) && end-start < MaxBatchSize {
			next := kept[end].TokenCount
			if end > start && batchTokens+next > MaxRequestTokens {
				break
			}
			batchTokens += next
			end++
		}

		if batchTokens > MaxRequestTokens {
			// A single over-budget batch is embedded one chunk at a
			// time instead of failing the request outright.
			err = b.embedIndividually(ctx, kept[start:end])
		} else {
			err = b.embedBatch(ctx, kept[start:end])
		}
		if err != nil {
			return nil, dropped, err
		}

		start = end
	}

	return kept, dropped, nil
}

func (b *EmbeddingBatcher) embedBatch(ctx context.Context, batch []domain.Chunk) error {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Content
	}

	logger.Debug("embedding batch of %d chunks", len(batch))
	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingProvider, err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("%w: got %d embeddings for %d inputs",
			domain.ErrEmbeddingProvider, len(vectors), len(batch))
	}

	for i := range batch {
		batch[i].Embedding = vectors[i]
	}
	return nil
}

func (b *EmbeddingBatcher) embedIndividually(ctx context.Context, batch []domain.Chunk) error {
	for i := range batch {
		vector, err := b.embedder.Embed(ctx, batch[i].Content)
		if err != nil {
			return fmt.Errorf("%w: chunk %d: %w", domain.ErrEmbeddingProvider, batch[i].Index, err)
		}
		batch[i].Embedding = vector
	}
	return nil
}
