// Package pdf extracts text from PDF sources using a regex-based
// fallback. This is a best-effort, low-reliability path: it only reads
// literal strings from uncompressed content streams and may legitimately
// fail on scanned, encrypted, or compressed documents. Swap in a real
// parser implementation of driven.TextExtractor for production-quality
// extraction.
package pdf

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/veridian-labs/kbengine/internal/core/domain"
	"github.com/veridian-labs/kbengine/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// minExtractedChars is the floor below which the fallback reports
// failure instead of returning garbage.
const minExtractedChars = 50

// Extractor handles PDF sources via regex scraping of text operators.
type Extractor struct{}

// New creates a new PDF fallback extractor.
func New() *Extractor {
	return &Extractor{}
}

// SourceTypes returns the source types this extractor handles.
func (e *Extractor) SourceTypes() []string {
	return []string{"pdf"}
}

var (
	// (literal) Tj  and  [(lit) (eral)] TJ  show operators.
	showText  = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)\s*Tj`)
	showArray = regexp.MustCompile(`\[((?:[^\[\]])*)\]\s*TJ`)
	literal   = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)
)

// Extract scrapes literal text strings from the PDF content.
// Returns ErrExtractionFailed when too little text is recovered.
func (e *Extractor) Extract(_ context.Context, locator string) (string, error) {
	content, err := os.ReadFile(locator)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", domain.ErrExtractionFailed, locator, err)
	}

	text := scrapeText(string(content))
	if len(text) < minExtractedChars {
		return "", fmt.Errorf("%w: pdf fallback recovered only %d characters from %s",
			domain.ErrExtractionFailed, len(text), locator)
	}

	return text, nil
}

// scrapeText collects literal strings from Tj/TJ show operators in
// document order.
func scrapeText(content string) string {
	var parts []string

	for _, m := range showText.FindAllStringSubmatch(content, -1) {
		if s := unescape(m[1]); s != "" {
			parts = append(parts, s)
		}
	}

	for _, m := range showArray.FindAllStringSubmatch(content, -1) {
		for _, lit := range literal.FindAllStringSubmatch(m[1], -1) {
			if s := unescape(lit[1]); s != "" {
				parts = append(parts, s)
			}
		}
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}

// unescape resolves PDF string escapes for the common cases.
func unescape(s string) string {
	replacer := strings.NewReplacer(
		`\n`, "\n",
		`\r`, "\n",
		`\t`, " ",
		`\(`, "(",
		`\)`, ")",
		`\\`, `\`,
	)
	return replacer.Replace(s)
}
