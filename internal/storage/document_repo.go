package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks contrackt-ai/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// Create inserts the document and sets its ID and UploadedAt.
	Create(ctx context.Context, doc *Document) error
	// GetByID returns ErrNotFound if the document does not exist.
	GetByID(ctx context.Context, id int64) (*Document, error)
	// List returns documents newest first. An empty category lists everything.
	List(ctx context.Context, category Category) ([]Document, error)
	// ListExpiringBetween returns documents whose expiry date lies in [from, to], soonest first.
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]Document, error)
	// UpdateDates backfills the effective and expiry dates.
	UpdateDates(ctx context.Context, id int64, effective, expiry *time.Time) error
	// Delete removes the document and, by cascade, its chunks.
	Delete(ctx context.Context, id int64) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = "id, title, storage_key, category, uploaded_at, total_pages, effective_date, expiry_date"

// Create inserts the document and sets its ID and UploadedAt.
func (r *DocumentRepo) Create(ctx context.Context, doc *Document) error {
	if doc.Category == "" {
		doc.Category = CategoryGeneral
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO documents (title, storage_key, category, uploaded_at, total_pages, effective_date, expiry_date) VALUES (?, ?, ?, ?, ?, ?, ?)",
		doc.Title, doc.StorageKey, string(doc.Category), doc.UploadedAt.Format(time.RFC3339),
		doc.TotalPages, formatDate(doc.EffectiveDate), formatDate(doc.ExpiryDate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get document ID: %w", err)
	}
	doc.ID = id
	return nil
}

// GetByID returns ErrNotFound if the document does not exist.
func (r *DocumentRepo) GetByID(ctx context.Context, id int64) (*Document, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

// List returns documents newest first. An empty category lists everything.
func (r *DocumentRepo) List(ctx context.Context, category Category) ([]Document, error) {
	query := "SELECT " + documentColumns + " FROM documents"
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, string(category))
	}
	query += " ORDER BY uploaded_at DESC, id DESC"

	return r.queryDocuments(ctx, query, args...)
}

// ListExpiringBetween returns documents whose expiry date lies in [from, to], soonest first.
func (r *DocumentRepo) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]Document, error) {
	return r.queryDocuments(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE expiry_date IS NOT NULL AND expiry_date >= ? AND expiry_date <= ? ORDER BY expiry_date ASC, id ASC",
		from.Format(DateLayout), to.Format(DateLayout),
	)
}

// UpdateDates backfills the effective and expiry dates.
func (r *DocumentRepo) UpdateDates(ctx context.Context, id int64, effective, expiry *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE documents SET effective_date = ?, expiry_date = ? WHERE id = ?",
		formatDate(effective), formatDate(expiry), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update document dates: %w", err)
	}
	return requireAffected(result)
}

// Delete removes the document and, by cascade, its chunks and lexical rows.
func (r *DocumentRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return requireAffected(result)
}

func (r *DocumentRepo) queryDocuments(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc               Document
		category          string
		uploadedAt        string
		effective, expiry sql.NullString
	)
	if err := row.Scan(&doc.ID, &doc.Title, &doc.StorageKey, &category, &uploadedAt, &doc.TotalPages, &effective, &expiry); err != nil {
		return nil, err
	}
	doc.Category = Category(category)

	t, err := time.Parse(time.RFC3339, uploadedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse uploaded_at: %w", err)
	}
	doc.UploadedAt = t

	if doc.EffectiveDate, err = parseDate(effective); err != nil {
		return nil, err
	}
	if doc.ExpiryDate, err = parseDate(expiry); err != nil {
		return nil, err
	}
	return &doc, nil
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(DateLayout)
}

func parseDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date %q: %w", s.String, err)
	}
	return &t, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
