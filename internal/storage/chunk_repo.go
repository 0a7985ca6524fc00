package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks contrackt-ai/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// InsertBatch stores all chunks and their lexical index rows in one transaction.
	InsertBatch(ctx context.Context, chunks []Chunk) error
	// ListIDsByDocument returns chunk IDs of a document ordered by chunk_index.
	ListIDsByDocument(ctx context.Context, documentID int64) ([]string, error)
	// GetByIDs returns the chunks that exist among ids, keyed by chunk ID.
	GetByIDs(ctx context.Context, ids []string) (map[string]ChunkView, error)
	// KeywordSearch returns up to limit chunks with a positive lexical rank, best first.
	KeywordSearch(ctx context.Context, query string, scope Scope, limit int) ([]ScoredChunk, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

const chunkViewColumns = "c.id, c.document_id, c.chunk_index, c.text_content, d.title, d.storage_key, d.category"

// InsertBatch stores all chunks, then their term rows, inside one transaction so
// the lexical index never references a chunk that was not committed.
// Chunks without an ID get a fresh UUID.
func (r *ChunkRepo) InsertBatch(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	chunkStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (id, document_id, chunk_index, text_content, term_count) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() {
		_ = chunkStmt.Close()
	}()

	freqs := make([]map[string]int, len(chunks))
	for i := range chunks {
		if chunks[i].ChunkIndex < 1 {
			return fmt.Errorf("chunk index must be 1-based, got %d", chunks[i].ChunkIndex)
		}
		if chunks[i].ID == "" {
			chunks[i].ID = uuid.New().String()
		}
		freq, termCount := TermFrequencies(chunks[i].Text)
		freqs[i] = freq

		if _, err := chunkStmt.ExecContext(ctx,
			chunks[i].ID, chunks[i].DocumentID, chunks[i].ChunkIndex, chunks[i].Text, termCount,
		); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunks[i].ChunkIndex, err)
		}
	}

	termStmt, err := tx.PrepareContext(ctx, "INSERT INTO chunk_terms (chunk_id, term, tf) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare term insert: %w", err)
	}
	defer func() {
		_ = termStmt.Close()
	}()

	for i, freq := range freqs {
		for term, tf := range freq {
			if _, err := termStmt.ExecContext(ctx, chunks[i].ID, term, tf); err != nil {
				return fmt.Errorf("failed to index chunk %d: %w", chunks[i].ChunkIndex, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// ListIDsByDocument returns chunk IDs of a document ordered by chunk_index.
// Returns an empty slice if no chunks exist (not an error).
func (r *ChunkRepo) ListIDsByDocument(ctx context.Context, documentID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM chunks WHERE document_id = ? ORDER BY chunk_index",
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chunk ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

// GetByIDs returns the chunks that exist among ids, keyed by chunk ID.
func (r *ChunkRepo) GetByIDs(ctx context.Context, ids []string) (map[string]ChunkView, error) {
	result := make(map[string]ChunkView, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+chunkViewColumns+" FROM chunks c JOIN documents d ON d.id = c.document_id WHERE c.id IN ("+strings.Join(marks, ", ")+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var view ChunkView
		var category string
		if err := rows.Scan(&view.ChunkID, &view.DocumentID, &view.ChunkIndex, &view.Text, &view.Title, &view.StorageKey, &category); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		view.Category = Category(category)
		result[view.ChunkID] = view
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return result, nil
}

// KeywordSearch ranks in-scope chunks against the query terms and returns up to
// limit chunks with a positive rank, best first. Ties keep chunk ID order.
func (r *ChunkRepo) KeywordSearch(ctx context.Context, query string, scope Scope, limit int) ([]ScoredChunk, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	terms := QueryTerms(query)
	if len(terms) == 0 {
		return []ScoredChunk{}, nil
	}

	marks := make([]string, len(terms))
	args := make([]any, 0, len(terms))
	for i, term := range terms {
		marks[i] = "?"
		args = append(args, term)
	}
	scopeSQL, scopeArgs := ScopeClause(scope, "d.id", "d.category", QuestionMarks)
	args = append(args, scopeArgs...)

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+chunkViewColumns+", c.term_count, ct.tf FROM chunk_terms ct "+
			"JOIN chunks c ON c.id = ct.chunk_id JOIN documents d ON d.id = c.document_id "+
			"WHERE ct.term IN ("+strings.Join(marks, ", ")+") AND "+scopeSQL,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query lexical index: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	type accum struct {
		view      ChunkView
		termCount int
		tfs       []int
	}
	byID := make(map[string]*accum)
	for rows.Next() {
		var (
			view      ChunkView
			category  string
			termCount int
			tf        int
		)
		if err := rows.Scan(&view.ChunkID, &view.DocumentID, &view.ChunkIndex, &view.Text, &view.Title, &view.StorageKey, &category, &termCount, &tf); err != nil {
			return nil, fmt.Errorf("failed to scan lexical match: %w", err)
		}
		a, ok := byID[view.ChunkID]
		if !ok {
			view.Category = Category(category)
			a = &accum{view: view, termCount: termCount}
			byID[view.ChunkID] = a
		}
		a.tfs = append(a.tfs, tf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	results := make([]ScoredChunk, 0, len(byID))
	for _, a := range byID {
		rank := LexicalRank(a.tfs, a.termCount)
		if rank <= 0 {
			continue
		}
		results = append(results, ScoredChunk{Chunk: a.view, Value: rank})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Value != results[j].Value {
			return results[i].Value > results[j].Value
		}
		return results[i].Chunk.ChunkID < results[j].Chunk.ChunkID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
