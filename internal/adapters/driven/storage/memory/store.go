// Package memory provides an in-memory implementation of the storage
// interfaces. Useful for tests and throwaway sessions where nothing
// should touch disk. Text search is a naive substring match, not bm25.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veridian-labs/kbengine/internal/core/domain"
	"github.com/veridian-labs/kbengine/internal/core/ports/driven"
)

// Store keeps manufacturers, documents, and chunks in maps guarded by a
// single mutex. Satisfies the same accessor shape as the SQLite store.
type Store struct {
	mu            sync.RWMutex
	manufacturers map[string]domain.Manufacturer
	documents     map[string]domain.Document
	chunks        map[string][]domain.Chunk // documentID -> ordered chunks
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		manufacturers: make(map[string]domain.Manufacturer),
		documents:     make(map[string]domain.Document),
		chunks:        make(map[string][]domain.Chunk),
	}
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore { return &documentStore{s} }

// ManufacturerStore returns a ManufacturerStore interface backed by this store.
func (s *Store) ManufacturerStore() driven.ManufacturerStore { return &manufacturerStore{s} }

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore { return &chunkStore{s} }

// SearchStore returns a SearchStore interface backed by this store.
func (s *Store) SearchStore() driven.SearchStore { return &searchStore{s} }

type manufacturerStore struct{ store *Store }

var _ driven.ManufacturerStore = (*manufacturerStore)(nil)

func (s *manufacturerStore) Save(_ context.Context, m *domain.Manufacturer) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.manufacturers[m.ID] = *m
	return nil
}

func (s *manufacturerStore) Get(_ context.Context, id string) (*domain.Manufacturer, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	m, ok := s.store.manufacturers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

func (s *manufacturerStore) ResolveSlug(_ context.Context, slug string) (string, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	for _, m := range s.store.manufacturers {
		if m.Slug == slug {
			return m.ID, nil
		}
	}
	return "", domain.ErrNotFound
}

type documentStore struct{ store *Store }

var _ driven.DocumentStore = (*documentStore)(nil)

func (s *documentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.Status == "" {
		doc.Status = domain.StatusPending
	}
	s.store.documents[doc.ID] = *doc
	return nil
}

func (s *documentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	doc, ok := s.store.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (s *documentStore) ListDocuments(_ context.Context, manufacturerID string) ([]domain.Document, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	var docs []domain.Document
	for _, doc := range s.store.documents {
		if manufacturerID != "" && doc.ManufacturerID != manufacturerID {
			continue
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

func (s *documentStore) SetProcessing(_ context.Context, id string) error {
	return s.update(id, func(doc *domain.Document) {
		doc.Status = domain.StatusProcessing
	})
}

func (s *documentStore) SetReady(_ context.Context, id string, chunkCount int) error {
	return s.update(id, func(doc *domain.Document) {
		doc.Status = domain.StatusReady
		doc.ChunkCount = chunkCount
		doc.ErrorMessage = ""
	})
}

func (s *documentStore) SetError(_ context.Context, id string, message string) error {
	return s.update(id, func(doc *domain.Document) {
		doc.Status = domain.StatusError
		doc.ChunkCount = 0
		doc.ErrorMessage = message
	})
}

func (s *documentStore) update(id string, fn func(*domain.Document)) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	doc, ok := s.store.documents[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	fn(&doc)
	doc.UpdatedAt = time.Now().UTC()
	s.store.documents[id] = doc
	return nil
}

type chunkStore struct{ store *Store }

var _ driven.ChunkStore = (*chunkStore)(nil)

func (s *chunkStore) DeleteAllForDocument(_ context.Context, documentID string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	delete(s.store.chunks, documentID)
	return nil
}

func (s *chunkStore) InsertBatch(_ context.Context, documentID string, chunks []domain.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	ids := make([]string, 0, len(chunks))
	stored := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.ID == "" {
			chunk.ID = uuid.New().String()
		}
		chunk.DocumentID = documentID
		ids = append(ids, chunk.ID)
		stored = append(stored, chunk)
	}

	s.store.chunks[documentID] = append(s.store.chunks[documentID], stored...)
	sort.Slice(s.store.chunks[documentID], func(i, j int) bool {
		return s.store.chunks[documentID][i].Index < s.store.chunks[documentID][j].Index
	})
	return ids, nil
}

func (s *chunkStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	chunks := s.store.chunks[documentID]
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

type searchStore struct{ store *Store }

var _ driven.SearchStore = (*searchStore)(nil)

func (s *searchStore) SimilaritySearch(
	_ context.Context,
	query []float32,
	filters domain.SearchFilters,
	limit int,
	threshold float64,
) ([]domain.SearchResult, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	var results []domain.SearchResult
	s.eachCandidate(filters, func(doc domain.Document, m domain.Manufacturer, chunk domain.Chunk) {
		if len(chunk.Embedding) == 0 {
			return
		}
		similarity := cosineSimilarity(query, chunk.Embedding)
		if similarity < threshold {
			return
		}
		results = append(results, domain.SearchResult{
			ChunkID:       chunk.ID,
			DocumentID:    doc.ID,
			DocumentTitle: doc.Title,
			Manufacturer:  m.Name,
			Content:       chunk.Content,
			Similarity:    similarity,
		})
	})

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *searchStore) TextSearch(
	_ context.Context,
	query string,
	filters domain.SearchFilters,
	limit int,
) ([]domain.SearchResult, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	var results []domain.SearchResult
	s.eachCandidate(filters, func(doc domain.Document, m domain.Manufacturer, chunk domain.Chunk) {
		content := strings.ToLower(chunk.Content)
		matched := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				matched++
			}
		}
		if matched != len(terms) {
			return
		}
		results = append(results, domain.SearchResult{
			ChunkID:       chunk.ID,
			DocumentID:    doc.ID,
			DocumentTitle: doc.Title,
			Manufacturer:  m.Name,
			Content:       chunk.Content,
			Rank:          float64(matched),
		})
	})

	sort.Slice(results, func(i, j int) bool {
		return results[i].Rank > results[j].Rank
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// eachCandidate walks every chunk passing the filters. Caller holds the
// read lock.
func (s *searchStore) eachCandidate(
	filters domain.SearchFilters,
	fn func(domain.Document, domain.Manufacturer, domain.Chunk),
) {
	for docID, chunks := range s.store.chunks {
		doc, ok := s.store.documents[docID]
		if !ok {
			continue
		}
		if filters.ManufacturerID != "" && doc.ManufacturerID != filters.ManufacturerID {
			continue
		}
		if filters.Category != "" && doc.Category != filters.Category {
			continue
		}
		m := s.store.manufacturers[doc.ManufacturerID]
		for _, chunk := range chunks {
			fn(doc, m, chunk)
		}
	}
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
