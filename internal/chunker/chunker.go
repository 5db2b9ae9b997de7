// Package chunker splits normalised text into overlapping, size-bounded
// segments for embedding and indexing.
package chunker

import (
	"regexp"
	"strings"
)

// DefaultTargetTokens is the default chunk size in estimated tokens.
const DefaultTargetTokens = 800

// DefaultOverlapTokens is the default overlap between chunks in
// estimated tokens.
const DefaultOverlapTokens = 100

// MinChunkChars is the minimum chunk length. Shorter fragments are
// dropped as noise.
const MinChunkChars = 50

// bytesPerToken is the deterministic token approximation used everywhere
// token budgets are checked. Not a real tokenizer.
const bytesPerToken = 4

var (
	crlf          = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// EstimateTokens returns the estimated token count for text,
// ceil(len/4). The same approximation is applied to chunk budgets and
// embedding request budgets.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + bytesPerToken - 1) / bytesPerToken
}

// Normalize converts CRLF to LF, collapses runs of 3+ newlines to exactly
// 2, and trims surrounding whitespace.
func Normalize(text string) string {
	text = crlf.Replace(text)
	text = multiNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Chunker splits document text into paragraph-aligned chunks with
// overlap, re-splitting oversized chunks at sentence boundaries.
type Chunker struct {
	targetTokens  int
	overlapTokens int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithTargetTokens sets the target chunk size in estimated tokens.
func WithTargetTokens(tokens int) Option {
	return func(c *Chunker) {
		if tokens > 0 {
			c.targetTokens = tokens
		}
	}
}

// WithOverlapTokens sets the overlap between chunks in estimated tokens.
func WithOverlapTokens(tokens int) Option {
	return func(c *Chunker) {
		if tokens >= 0 {
			c.overlapTokens = tokens
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		targetTokens:  DefaultTargetTokens,
		overlapTokens: DefaultOverlapTokens,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlapTokens >= c.targetTokens {
		c.overlapTokens = c.targetTokens / 4
	}

	return c
}

// Chunk normalises text and returns an ordered sequence of chunks.
// Empty or whitespace-only input yields zero chunks; callers must treat
// that as an extraction failure, not a valid empty document.
func (c *Chunker) Chunk(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	maxChars := c.targetTokens * bytesPerToken
	overlapChars := c.overlapTokens * bytesPerToken

	chunks := c.accumulateParagraphs(normalized, maxChars, overlapChars)

	// Post-pass: re-split anything well over target at sentence
	// boundaries, without additional overlap.
	oversized := maxChars + maxChars/2
	var final []string
	for _, chunk := range chunks {
		if len(chunk) > oversized {
			final = append(final, splitSentences(chunk, maxChars)...)
		} else {
			final = append(final, chunk)
		}
	}

	// Drop sub-minimum fragments as noise.
	filtered := final[:0]
	for _, chunk := range final {
		if len(chunk) >= MinChunkChars {
			filtered = append(filtered, chunk)
		}
	}

	return filtered
}

// accumulateParagraphs greedily packs paragraphs into chunks up to
// maxChars, seeding each new chunk with the tail of the previous one.
func (c *Chunker) accumulateParagraphs(text string, maxChars, overlapChars int) []string {
	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var current string

	for _, para := range paragraphs {
		if current == "" {
			current = para
			continue
		}

		candidate := current + "\n\n" + para
		if len(candidate) > maxChars {
			chunks = append(chunks, current)

			// Seed the next chunk with the emitted chunk's tail
			// followed by the paragraph that triggered the overflow.
			seed := current
			if len(seed) > overlapChars {
				seed = seed[len(seed)-overlapChars:]
			}
			if overlapChars > 0 {
				current = seed + "\n\n" + para
			} else {
				current = para
			}
			continue
		}

		current = candidate
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// splitSentences greedily accumulates sentences up to maxChars. A text
// with no sentence boundaries is returned as-is even when oversized;
// that is a documented limitation, not further split.
func splitSentences(text string, maxChars int) []string {
	sentences := sentenceBoundaries(text)
	if len(sentences) <= 1 {
		return []string{text}
	}

	var chunks []string
	var current string

	for _, sentence := range sentences {
		if current == "" {
			current = sentence
			continue
		}

		candidate := current + " " + sentence
		if len(candidate) > maxChars {
			chunks = append(chunks, current)
			current = sentence
			continue
		}

		current = candidate
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// sentenceBoundaries splits after '.', '!', or '?' followed by
// whitespace. Trailing punctuation stays with its sentence.
func sentenceBoundaries(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text)-1; i++ {
		ch := text[i]
		if (ch == '.' || ch == '!' || ch == '?') && isSpace(text[i+1]) {
			sentence := strings.TrimSpace(text[start : i+1])
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			start = i + 1
		}
	}

	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n'
}
