// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): persistence, embedding providers, and
// text extractors.
package driven
