package domain

// SearchMode selects the retrieval strategy for a query.
type SearchMode string

// Retrieval strategies. Vector and hybrid silently degrade to text when no
// embedding provider is configured; the response reports the mode that
// actually ran.
const (
	SearchModeVector SearchMode = "vector"
	SearchModeText   SearchMode = "text"
	SearchModeHybrid SearchMode = "hybrid"
)

// Valid reports whether the mode is one of the known strategies.
func (m SearchMode) Valid() bool {
	switch m {
	case SearchModeVector, SearchModeText, SearchModeHybrid:
		return true
	}
	return false
}

// Default search parameters.
const (
	DefaultSearchLimit     = 5
	DefaultSearchThreshold = 0.7
)

// SearchFilters narrows a query to a manufacturer and/or category.
// ManufacturerSlug is resolved to an ID when only the slug is given.
type SearchFilters struct {
	ManufacturerID   string
	ManufacturerSlug string
	Category         string
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Mode is the requested retrieval strategy (default hybrid).
	Mode SearchMode

	// Filters narrows the searched chunk set.
	Filters SearchFilters

	// Limit is the maximum number of results (default 5).
	Limit int

	// Threshold is the minimum cosine similarity for vector matches
	// (default 0.7). Ignored by text search.
	Threshold float64
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// ChunkID is the matched chunk.
	ChunkID string `json:"chunkId"`

	// DocumentID is the owning document.
	DocumentID string `json:"documentId"`

	// DocumentTitle is the owning document's title.
	DocumentTitle string `json:"documentTitle"`

	// Manufacturer is the owning manufacturer's name.
	Manufacturer string `json:"manufacturer"`

	// Content is the chunk text.
	Content string `json:"content"`

	// Similarity is the cosine similarity for vector-sourced hits,
	// rounded to 2 decimals. For text-only hits merged in hybrid mode it
	// carries the copied rank so all results sort uniformly.
	Similarity float64 `json:"similarity,omitempty"`

	// Rank is the full-text relevance score for text-sourced hits.
	Rank float64 `json:"rank,omitempty"`
}

// SearchResponse pairs results with the mode that actually executed,
// which may differ from the requested mode after fallback.
type SearchResponse struct {
	Mode    SearchMode     `json:"mode"`
	Results []SearchResult `json:"results"`
}
