// Package extractors provides TextExtractor implementations and a
// registry that dispatches on a document's source type. Extraction is
// the first pipeline stage: it turns a source locator into plain text
// for the chunker.
package extractors
