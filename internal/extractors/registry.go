package extractors

import (
	"context"
	"fmt"
	"sync"

	"github.com/veridian-labs/kbengine/internal/core/domain"
	"github.com/veridian-labs/kbengine/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry selects a TextExtractor by document source type.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.TextExtractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]driven.TextExtractor),
	}
}

// Register adds an extractor for each of its source types.
// A later registration for the same type replaces the earlier one.
func (r *Registry) Register(extractor driven.TextExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range extractor.SourceTypes() {
		r.extractors[t] = extractor
	}
}

// Extract dispatches to the extractor registered for sourceType.
func (r *Registry) Extract(ctx context.Context, sourceType, locator string) (string, error) {
	r.mu.RLock()
	extractor, ok := r.extractors[sourceType]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedType, sourceType)
	}

	return extractor.Extract(ctx, locator)
}
