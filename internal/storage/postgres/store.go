// Package postgres stores documents and chunks in PostgreSQL, with pgvector
// embeddings and a tsvector lexical index on the same chunk rows.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"contrackt-ai/internal/contextutil"
	"contrackt-ai/internal/storage"
)

// Store implements storage.DocumentStore and the chunk index surface on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.DocumentStore = (*Store)(nil)

// Open migrates the database and returns a Store over a new connection pool.
// Migrations run first because the vector type must exist before pgvector
// registers its codecs on each connection.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "database connection pool established",
		"max_conns", poolConfig.MaxConns,
	)
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks database reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const documentColumns = "id, title, storage_key, category, uploaded_at, total_pages, effective_date, expiry_date"

// Create inserts the document and sets its ID and UploadedAt.
func (s *Store) Create(ctx context.Context, doc *storage.Document) error {
	if doc.Category == "" {
		doc.Category = storage.CategoryGeneral
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO documents (title, storage_key, category, total_pages, effective_date, expiry_date)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, uploaded_at`,
		doc.Title, doc.StorageKey, string(doc.Category), doc.TotalPages, doc.EffectiveDate, doc.ExpiryDate,
	).Scan(&doc.ID, &doc.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetByID returns storage.ErrNotFound if the document does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*storage.Document, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	doc, err := pgx.CollectExactlyOneRow(rows, scanDocument)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	return &doc, nil
}

// List returns documents newest first. An empty category lists everything.
func (s *Store) List(ctx context.Context, category storage.Category) ([]storage.Document, error) {
	query := "SELECT " + documentColumns + " FROM documents"
	var args []any
	if category != "" {
		query += " WHERE category = $1"
		args = append(args, string(category))
	}
	query += " ORDER BY uploaded_at DESC, id DESC"
	return s.queryDocuments(ctx, query, args...)
}

// ListExpiringBetween returns documents whose expiry date lies in [from, to], soonest first.
func (s *Store) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]storage.Document, error) {
	return s.queryDocuments(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE expiry_date BETWEEN $1::date AND $2::date ORDER BY expiry_date ASC, id ASC",
		from.Format(storage.DateLayout), to.Format(storage.DateLayout),
	)
}

// UpdateDates backfills the effective and expiry dates.
func (s *Store) UpdateDates(ctx context.Context, id int64, effective, expiry *time.Time) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE documents SET effective_date = $1, expiry_date = $2 WHERE id = $3",
		effective, expiry, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update document dates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes the document and, by cascade, its chunks.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) queryDocuments(ctx context.Context, query string, args ...any) ([]storage.Document, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	docs, err := pgx.CollectRows(rows, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to scan documents: %w", err)
	}
	if docs == nil {
		docs = []storage.Document{}
	}
	return docs, nil
}

func scanDocument(row pgx.CollectableRow) (storage.Document, error) {
	var (
		doc      storage.Document
		category string
	)
	err := row.Scan(&doc.ID, &doc.Title, &doc.StorageKey, &category, &doc.UploadedAt, &doc.TotalPages, &doc.EffectiveDate, &doc.ExpiryDate)
	doc.Category = storage.Category(category)
	return doc, err
}

// StoreChunks inserts the chunk rows with their embeddings and then fills the
// lexical index for the document, all in one transaction.
func (s *Store) StoreChunks(ctx context.Context, doc *storage.Document, chunks []storage.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	batch := &pgx.Batch{}
	for i := range chunks {
		if chunks[i].ChunkIndex < 1 {
			return fmt.Errorf("chunk index must be 1-based, got %d", chunks[i].ChunkIndex)
		}
		if chunks[i].ID == "" {
			chunks[i].ID = uuid.New().String()
		}
		batch.Queue(
			"INSERT INTO chunks (id, document_id, chunk_index, text_content, embedding) VALUES ($1, $2, $3, $4, $5)",
			chunks[i].ID, doc.ID, chunks[i].ChunkIndex, chunks[i].Text, pgvector.NewVector(chunks[i].Embedding),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE chunks SET search_vector = to_tsvector('english', text_content) WHERE document_id = $1",
		doc.ID,
	); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// RemoveDocument is a no-op: chunk rows and their vectors go with the document row.
func (s *Store) RemoveDocument(context.Context, int64) error {
	return nil
}

// NearestChunks returns up to n in-scope chunks by ascending cosine distance, ties by chunk id.
func (s *Store) NearestChunks(ctx context.Context, embedding []float32, scope storage.Scope, n int) ([]storage.ScoredChunk, error) {
	query, scopeArgs := nearestQuery(scope)
	args := append([]any{pgvector.NewVector(embedding), n}, scopeArgs...)
	return s.queryScored(ctx, query, args...)
}

// KeywordChunks returns up to n in-scope chunks with ts_rank > 0, best first.
func (s *Store) KeywordChunks(ctx context.Context, queryText string, scope storage.Scope, n int) ([]storage.ScoredChunk, error) {
	query, scopeArgs := keywordQuery(scope)
	args := append([]any{queryText, n}, scopeArgs...)
	return s.queryScored(ctx, query, args...)
}

const chunkViewColumns = "c.id::text, c.document_id, c.chunk_index, c.text_content, d.title, d.storage_key, d.category"

// nearestQuery binds $1 to the query vector and $2 to the limit; scope binds from $3.
func nearestQuery(scope storage.Scope) (string, []any) {
	where, args := storage.ScopeClause(scope, "d.id", "d.category", storage.DollarPlaceholders(3))
	return "SELECT " + chunkViewColumns + ", c.embedding <=> $1 AS value " +
		"FROM chunks c JOIN documents d ON d.id = c.document_id " +
		"WHERE " + where + " ORDER BY value ASC, c.id ASC LIMIT $2", args
}

// keywordQuery binds $1 to the query text and $2 to the limit; scope binds from $3.
func keywordQuery(scope storage.Scope) (string, []any) {
	where, args := storage.ScopeClause(scope, "d.id", "d.category", storage.DollarPlaceholders(3))
	return "SELECT " + chunkViewColumns + ", ts_rank(c.search_vector, q)::float8 AS value " +
		"FROM chunks c JOIN documents d ON d.id = c.document_id, plainto_tsquery('english', $1) q " +
		"WHERE c.search_vector @@ q AND ts_rank(c.search_vector, q) > 0 AND " + where +
		" ORDER BY value DESC, c.id ASC LIMIT $2", args
}

func (s *Store) queryScored(ctx context.Context, query string, args ...any) ([]storage.ScoredChunk, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.ScoredChunk, error) {
		var (
			sc       storage.ScoredChunk
			category string
		)
		err := row.Scan(&sc.Chunk.ChunkID, &sc.Chunk.DocumentID, &sc.Chunk.ChunkIndex, &sc.Chunk.Text,
			&sc.Chunk.Title, &sc.Chunk.StorageKey, &category, &sc.Value)
		sc.Chunk.Category = storage.Category(category)
		return sc, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan chunks: %w", err)
	}
	if results == nil {
		results = []storage.ScoredChunk{}
	}
	return results, nil
}
