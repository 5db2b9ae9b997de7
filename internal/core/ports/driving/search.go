package driving

import (
	"context"

	"github.com/veridian-labs/kbengine/internal/core/domain"
)

// SearchService provides retrieval over the knowledge base.
type SearchService interface {
	// Search executes a vector, text, or hybrid query. The response
	// reports the mode that actually ran after any fallback.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
}
