// Package sqlite provides SQLite-backed persistence for manufacturers,
// documents, and chunks, including full-text (FTS5) and brute-force
// cosine similarity retrieval.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/veridian-labs/kbengine/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/veridian-labs/kbengine/internal/core/domain"
	"github.com/veridian-labs/kbengine/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all persistence interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.kbengine/data/knowledge.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".kbengine", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "knowledge.db")

	// WAL for concurrency; pragmas go in the DSN so every pooled
	// connection picks them up.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// ManufacturerStore returns a ManufacturerStore interface backed by this store.
func (s *Store) ManufacturerStore() driven.ManufacturerStore {
	return &manufacturerStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// SearchStore returns a SearchStore interface backed by this store.
func (s *Store) SearchStore() driven.SearchStore {
	return &searchStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Manufacturer Store ====================

// manufacturerStore implements driven.ManufacturerStore.
type manufacturerStore struct {
	store *Store
}

var _ driven.ManufacturerStore = (*manufacturerStore)(nil)

// Save stores or updates a manufacturer.
func (s *manufacturerStore) Save(ctx context.Context, m *domain.Manufacturer) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO manufacturers (id, name, slug)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			slug = excluded.slug
	`, m.ID, m.Name, m.Slug)

	if err != nil {
		return fmt.Errorf("saving manufacturer: %w", err)
	}
	return nil
}

// Get retrieves a manufacturer by ID.
func (s *manufacturerStore) Get(ctx context.Context, id string) (*domain.Manufacturer, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, slug FROM manufacturers WHERE id = ?
	`, id)

	var m domain.Manufacturer
	if err := row.Scan(&m.ID, &m.Name, &m.Slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning manufacturer: %w", err)
	}

	return &m, nil
}

// ResolveSlug returns the manufacturer ID for a slug.
func (s *manufacturerStore) ResolveSlug(ctx context.Context, slug string) (string, error) {
	var id string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT id FROM manufacturers WHERE slug = ?", slug,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("resolving slug: %w", err)
	}
	return id, nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.Status == "" {
		doc.Status = domain.StatusPending
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, manufacturer_id, title, category, source_uri,
			source_type, status, chunk_count, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			manufacturer_id = excluded.manufacturer_id,
			title = excluded.title,
			category = excluded.category,
			source_uri = excluded.source_uri,
			source_type = excluded.source_type,
			updated_at = excluded.updated_at
	`, doc.ID, doc.ManufacturerID, doc.Title, doc.Category, doc.SourceURI,
		doc.SourceType, string(doc.Status), doc.ChunkCount, doc.ErrorMessage,
		doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, manufacturer_id, title, category, source_uri, source_type,
			status, chunk_count, error_message, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// ListDocuments returns documents for a manufacturer. An empty
// manufacturerID returns all documents.
func (s *documentStore) ListDocuments(ctx context.Context, manufacturerID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, manufacturer_id, title, category, source_uri, source_type,
			status, chunk_count, error_message, created_at, updated_at
		FROM documents
		WHERE (? = '' OR manufacturer_id = ?)
		ORDER BY created_at
	`, manufacturerID, manufacturerID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// SetProcessing transitions a document to processing.
func (s *documentStore) SetProcessing(ctx context.Context, id string) error {
	return s.updateStatus(ctx, id, `
		UPDATE documents SET status = ?, updated_at = ? WHERE id = ?
	`, string(domain.StatusProcessing), time.Now().UTC(), id)
}

// SetReady transitions a document to ready, persisting the chunk count
// and clearing any previous error message.
func (s *documentStore) SetReady(ctx context.Context, id string, chunkCount int) error {
	return s.updateStatus(ctx, id, `
		UPDATE documents SET status = ?, chunk_count = ?, error_message = '', updated_at = ?
		WHERE id = ?
	`, string(domain.StatusReady), chunkCount, time.Now().UTC(), id)
}

// SetError transitions a document to error with the failure message.
// The chunk count is reset since any surviving chunks are stale.
func (s *documentStore) SetError(ctx context.Context, id string, message string) error {
	return s.updateStatus(ctx, id, `
		UPDATE documents SET status = ?, chunk_count = 0, error_message = ?, updated_at = ?
		WHERE id = ?
	`, string(domain.StatusError), message, time.Now().UTC(), id)
}

func (s *documentStore) updateStatus(ctx context.Context, id, query string, args ...any) error {
	res, err := s.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: updating document status: %w", domain.ErrPersistence, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	doc, err := scanDocumentRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func scanDocumentRows(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(&doc.ID, &doc.ManufacturerID, &doc.Title, &doc.Category,
		&doc.SourceURI, &doc.SourceType, &status, &doc.ChunkCount,
		&doc.ErrorMessage, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}

	return &doc, nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// DeleteAllForDocument removes all chunks owned by a document.
func (s *chunkStore) DeleteAllForDocument(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("%w: deleting chunks: %w", domain.ErrPersistence, err)
	}
	return nil
}

// InsertBatch inserts chunk records preserving index order and returns
// the assigned chunk IDs.
func (s *chunkStore) InsertBatch(ctx context.Context, documentID string, chunks []domain.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %w", domain.ErrPersistence, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, chunk_index, content, token_count, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: preparing statement: %w", domain.ErrPersistence, err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		id := chunk.ID
		if id == "" {
			id = uuid.New().String()
		}

		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, id, documentID, chunk.Index,
			chunk.Content, chunk.TokenCount, embeddingBlob, string(metadataJSON)); err != nil {
			return nil, fmt.Errorf("%w: inserting chunk %d: %w", domain.ErrPersistence, chunk.Index, err)
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing transaction: %w", domain.ErrPersistence, err)
	}
	return ids, nil
}

// GetChunks retrieves all chunks for a document ordered by index.
func (s *chunkStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, content, token_count, embedding, metadata
		FROM chunks WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		var metadataJSON string

		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index,
			&chunk.Content, &chunk.TokenCount, &embeddingBlob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}

		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// ==================== Search Store ====================

// searchStore implements driven.SearchStore.
type searchStore struct {
	store *Store
}

var _ driven.SearchStore = (*searchStore)(nil)

// SimilaritySearch loads candidate chunk embeddings matching the filters
// and ranks them by cosine similarity in memory. Brute force is adequate
// for knowledge bases in the tens of thousands of chunks; swap in a
// dedicated vector index behind driven.SearchStore beyond that.
func (s *searchStore) SimilaritySearch(
	ctx context.Context,
	query []float32,
	filters domain.SearchFilters,
	limit int,
	threshold float64,
) ([]domain.SearchResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, d.title, m.name, c.content, c.embedding
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		JOIN manufacturers m ON m.id = d.manufacturer_id
		WHERE c.embedding IS NOT NULL
		  AND (? = '' OR d.manufacturer_id = ?)
		  AND (? = '' OR d.category = ?)
	`, filters.ManufacturerID, filters.ManufacturerID,
		filters.Category, filters.Category)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var r domain.SearchResult
		var embeddingBlob []byte

		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.DocumentTitle,
			&r.Manufacturer, &r.Content, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}

		similarity := cosineSimilarity(query, bytesToFloat32Slice(embeddingBlob))
		if similarity < threshold {
			continue
		}
		r.Similarity = similarity
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// TextSearch runs a bm25-ranked FTS5 query. Rank is reported as the
// negated bm25 score so that higher is better, matching the descending
// sort used everywhere else.
func (s *searchStore) TextSearch(
	ctx context.Context,
	query string,
	filters domain.SearchFilters,
	limit int,
) ([]domain.SearchResult, error) {
	match := ftsMatchExpression(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, d.title, m.name, c.content,
			-bm25(chunks_fts) AS rank
		FROM chunks_fts
		JOIN chunks c ON c.rowid = chunks_fts.rowid
		JOIN documents d ON d.id = c.document_id
		JOIN manufacturers m ON m.id = d.manufacturer_id
		WHERE chunks_fts MATCH ?
		  AND (? = '' OR d.manufacturer_id = ?)
		  AND (? = '' OR d.category = ?)
		ORDER BY rank DESC
		LIMIT ?
	`, match, filters.ManufacturerID, filters.ManufacturerID,
		filters.Category, filters.Category, limit)
	if err != nil {
		return nil, fmt.Errorf("full-text query: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.SearchResult
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.DocumentTitle,
			&r.Manufacturer, &r.Content, &r.Rank); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}

	return results, nil
}

// ftsMatchExpression quotes each query term so user input cannot inject
// FTS5 query syntax. Terms are implicitly ANDed.
func ftsMatchExpression(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}

	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched dimensions or zero-magnitude vectors.
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
