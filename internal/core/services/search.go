package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/veridian-labs/kbengine/internal/core/domain"
	"github.com/veridian-labs/kbengine/internal/core/ports/driven"
	"github.com/veridian-labs/kbengine/internal/core/ports/driving"
	"github.com/veridian-labs/kbengine/internal/logger"
)

// Ensure RetrievalEngine implements the driving port.
var _ driving.SearchService = (*RetrievalEngine)(nil)

// RetrievalEngine executes vector, text, and hybrid queries. Without an
// embedding provider, vector and hybrid requests silently degrade to
// text search; the response carries the mode that actually ran.
type RetrievalEngine struct {
	search        driven.SearchStore
	manufacturers driven.ManufacturerStore
	embedder      driven.EmbeddingService // nil when embeddings are disabled
}

// SearchOption configures a RetrievalEngine.
type SearchOption func(*RetrievalEngine)

// WithSearchEmbedder sets the embedding provider used for query vectors.
func WithSearchEmbedder(e driven.EmbeddingService) SearchOption {
	return func(re *RetrievalEngine) {
		re.embedder = e
	}
}

// NewRetrievalEngine creates the retrieval service.
func NewRetrievalEngine(
	search driven.SearchStore,
	manufacturers driven.ManufacturerStore,
	opts ...SearchOption,
) *RetrievalEngine {
	re := &RetrievalEngine{
		search:        search,
		manufacturers: manufacturers,
	}
	for _, opt := range opts {
		opt(re)
	}
	return re
}

// Search executes a query using the requested strategy after applying
// defaults, slug resolution, and embedder fallback.
func (re *RetrievalEngine) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if re.search == nil {
		return nil, domain.ErrSearchUnavailable
	}

	if opts.Mode == "" {
		opts.Mode = domain.SearchModeHybrid
	}
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, opts.Mode)
	}
	if opts.Limit <= 0 {
		opts.Limit = domain.DefaultSearchLimit
	}
	if opts.Threshold <= 0 {
		opts.Threshold = domain.DefaultSearchThreshold
	}

	filters, err := re.resolveFilters(ctx, opts.Filters)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Filtering on an unknown manufacturer matches nothing.
			return &domain.SearchResponse{
				Mode:    re.effectiveMode(opts.Mode),
				Results: []domain.SearchResult{},
			}, nil
		}
		return nil, err
	}
	opts.Filters = filters

	mode := re.effectiveMode(opts.Mode)
	if mode != opts.Mode {
		logger.Debug("no embedding provider, falling back from %s to %s search", opts.Mode, mode)
	}

	var results []domain.SearchResult
	switch mode {
	case domain.SearchModeVector:
		results, err = re.vectorSearch(ctx, query, opts)
	case domain.SearchModeText:
		results, err = re.textSearch(ctx, query, opts)
	case domain.SearchModeHybrid:
		results, err = re.hybridSearch(ctx, query, opts)
	}
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []domain.SearchResult{}
	}
	return &domain.SearchResponse{Mode: mode, Results: results}, nil
}

// effectiveMode downgrades vector and hybrid to text when no embedding
// provider is configured.
func (re *RetrievalEngine) effectiveMode(requested domain.SearchMode) domain.SearchMode {
	if re.embedder == nil && requested != domain.SearchModeText {
		return domain.SearchModeText
	}
	return requested
}

// resolveFilters translates a manufacturer slug into its ID when only
// the slug was provided.
func (re *RetrievalEngine) resolveFilters(ctx context.Context, filters domain.SearchFilters) (domain.SearchFilters, error) {
	if filters.ManufacturerID != "" || filters.ManufacturerSlug == "" {
		return filters, nil
	}
	if re.manufacturers == nil {
		return filters, fmt.Errorf("%w: cannot resolve manufacturer slug", domain.ErrInvalidInput)
	}

	id, err := re.manufacturers.ResolveSlug(ctx, filters.ManufacturerSlug)
	if err != nil {
		return filters, fmt.Errorf("resolving manufacturer %q: %w", filters.ManufacturerSlug, err)
	}
	filters.ManufacturerID = id
	return filters, nil
}

func (re *RetrievalEngine) vectorSearch(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	vector, err := re.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", domain.ErrEmbeddingProvider, err)
	}

	results, err := re.search.SimilaritySearch(ctx, vector, opts.Filters, opts.Limit, opts.Threshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	for i := range results {
		results[i].Similarity = roundSimilarity(results[i].Similarity)
	}
	return results, nil
}

func (re *RetrievalEngine) textSearch(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	results, err := re.search.TextSearch(ctx, query, opts.Filters, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	return results, nil
}

// hybridSearch fans out vector and text queries concurrently, each with
// an expanded candidate limit, and merges by chunk ID with vector hits
// taking priority. If exactly one branch fails the surviving branch's
// results are returned alone.
func (re *RetrievalEngine) hybridSearch(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	fanoutLimit := opts.Limit * 2

	var (
		wg         sync.WaitGroup
		vectorHits []domain.SearchResult
		textHits   []domain.SearchResult
		vectorErr  error
		textErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorOpts := opts
		vectorOpts.Limit = fanoutLimit
		vectorHits, vectorErr = re.vectorSearch(ctx, query, vectorOpts)
	}()
	go func() {
		defer wg.Done()
		textOpts := opts
		textOpts.Limit = fanoutLimit
		textHits, textErr = re.textSearch(ctx, query, textOpts)
	}()
	wg.Wait()

	if vectorErr != nil && textErr != nil {
		return nil, fmt.Errorf("hybrid search: %w", errors.Join(vectorErr, textErr))
	}
	if vectorErr != nil {
		logger.Warn("hybrid search: vector branch failed, returning text results only: %v", vectorErr)
		vectorHits = nil
	}
	if textErr != nil {
		logger.Warn("hybrid search: text branch failed, returning vector results only: %v", textErr)
		textHits = nil
	}

	merged := mergeHybrid(vectorHits, textHits)
	if len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}
	return merged, nil
}

// mergeHybrid deduplicates by chunk ID keeping the vector hit when both
// branches matched. Text-only hits copy their rank into Similarity so
// the merged list sorts on one field.
func mergeHybrid(vectorHits, textHits []domain.SearchResult) []domain.SearchResult {
	seen := make(map[string]struct{}, len(vectorHits))
	merged := make([]domain.SearchResult, 0, len(vectorHits)+len(textHits))

	for _, hit := range vectorHits {
		seen[hit.ChunkID] = struct{}{}
		merged = append(merged, hit)
	}
	for _, hit := range textHits {
		if _, dup := seen[hit.ChunkID]; dup {
			continue
		}
		hit.Similarity = hit.Rank
		merged = append(merged, hit)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})
	return merged
}

func roundSimilarity(v float64) float64 {
	return math.Round(v*100) / 100
}
