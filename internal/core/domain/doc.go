// Package domain contains the core business entities and errors for the
// knowledge base engine: documents, chunks, manufacturers, and the search
// result model. Types here have no dependencies on adapters or services.
package domain
