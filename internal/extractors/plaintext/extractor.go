// Package plaintext extracts text and similar sources unchanged.
package plaintext

import (
	"context"
	"fmt"
	"os"

	"github.com/veridian-labs/kbengine/internal/core/domain"
	"github.com/veridian-labs/kbengine/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles plain text sources. Content passes through
// unchanged; normalisation happens in the chunker.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SourceTypes returns the source types this extractor handles.
func (e *Extractor) SourceTypes() []string {
	return []string{"text", "txt"}
}

// Extract reads the locator and returns its content as-is.
func (e *Extractor) Extract(_ context.Context, locator string) (string, error) {
	content, err := os.ReadFile(locator)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", domain.ErrExtractionFailed, locator, err)
	}
	return string(content), nil
}
