package driven

import "context"

// TextExtractor obtains raw text from a document source locator.
// Plain text and markdown pass through with light normalisation. PDF
// extraction is a best-effort fallback with documented low reliability
// and may legitimately fail on low-quality input.
type TextExtractor interface {
	// SourceTypes returns the source type identifiers this extractor
	// handles (e.g. "text", "markdown", "pdf").
	SourceTypes() []string

	// Extract reads the locator and returns its plain text content.
	Extract(ctx context.Context, locator string) (string, error)
}

// ExtractorRegistry selects an extractor by document source type.
type ExtractorRegistry interface {
	// Extract dispatches to the extractor registered for sourceType.
	// Returns domain.ErrUnsupportedType for unknown source types.
	Extract(ctx context.Context, sourceType, locator string) (string, error)

	// Register adds an extractor to the registry.
	Register(extractor TextExtractor)
}
