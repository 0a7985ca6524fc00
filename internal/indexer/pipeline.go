// Package indexer turns uploaded PDF contracts into searchable page chunks.
package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_indexer.go -package=mocks contrackt-ai/internal/indexer ChunkIndexer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"contrackt-ai/internal/blob"
	"contrackt-ai/internal/contextutil"
	"contrackt-ai/internal/llm"
	"contrackt-ai/internal/storage"
)

var (
	// ErrNotPDF is returned for uploads that are not PDF files.
	ErrNotPDF = errors.New("only PDF files are supported")
	// ErrEmptyFile is returned for zero-byte uploads.
	ErrEmptyFile = errors.New("file is empty")
)

// embedConcurrency bounds parallel embedding calls per upload.
const embedConcurrency = 4

// ChunkIndexer stores page chunks with their embeddings and removes them again.
type ChunkIndexer interface {
	StoreChunks(ctx context.Context, doc *storage.Document, chunks []storage.Chunk) error
	RemoveDocument(ctx context.Context, documentID int64) error
}

// Upload is one file handed to Ingest.
type Upload struct {
	Filename string
	Category storage.Category
	Data     []byte
}

// Pipeline orchestrates uploading, extracting, embedding and indexing contracts.
type Pipeline struct {
	blobs     blob.Store
	docs      storage.DocumentStore
	index     ChunkIndexer
	embedder  llm.Embedder
	extractor PageExtractor
	dates     *DateExtractor
}

// NewPipeline creates a new indexing pipeline. dates may be nil to skip date extraction.
func NewPipeline(
	blobs blob.Store,
	docs storage.DocumentStore,
	index ChunkIndexer,
	embedder llm.Embedder,
	extractor PageExtractor,
	dates *DateExtractor,
) *Pipeline {
	return &Pipeline{
		blobs:     blobs,
		docs:      docs,
		index:     index,
		embedder:  embedder,
		extractor: extractor,
		dates:     dates,
	}
}

// Ingest stores the file, indexes every page with enough text and backfills the
// contract dates. Chunks are embedded before anything is written to the index, and
// a failure after the document row exists removes the row again.
func (p *Pipeline) Ingest(ctx context.Context, up Upload) (*IngestReport, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	if len(up.Data) == 0 {
		return nil, ErrEmptyFile
	}
	if !strings.EqualFold(path.Ext(blob.CleanName(up.Filename)), ".pdf") || !IsPDF(up.Data) {
		return nil, ErrNotPDF
	}
	if up.Category == "" {
		up.Category = storage.CategoryGeneral
	}

	raw, err := p.extractor.ExtractPages(bytes.NewReader(up.Data), int64(len(up.Data)))
	if err != nil {
		return nil, fmt.Errorf("failed to extract pages: %w", err)
	}
	pages, skipped := SelectPages(raw)
	logger.InfoContext(ctx, "pages extracted",
		"filename", up.Filename,
		"pages_total", len(raw),
		"pages_indexable", len(pages),
	)

	chunks, err := p.embedPages(ctx, pages)
	if err != nil {
		return nil, err
	}

	key := blob.Key(up.Filename)
	if err := p.blobs.Put(ctx, key, bytes.NewReader(up.Data), int64(len(up.Data)), "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &storage.Document{
		Title:      up.Filename,
		StorageKey: key,
		Category:   up.Category,
		TotalPages: len(raw),
	}
	if err := p.docs.Create(ctx, doc); err != nil {
		p.discardFile(ctx, key)
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	for i := range chunks {
		chunks[i].DocumentID = doc.ID
	}
	if err := p.index.StoreChunks(ctx, doc, chunks); err != nil {
		if delErr := p.docs.Delete(context.WithoutCancel(ctx), doc.ID); delErr != nil {
			logger.ErrorContext(ctx, "failed to roll back document", "document_id", doc.ID, "error", delErr)
		}
		p.discardFile(ctx, key)
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}

	report := &IngestReport{
		Document:     doc,
		PagesTotal:   len(raw),
		PagesIndexed: len(chunks),
		SkippedPages: skipped,
		PageChars:    pageCharStats(pages),
	}
	report.DatesFound = p.backfillDates(ctx, doc, pages)
	report.DurationMs = time.Since(start).Milliseconds()

	if len(chunks) == 0 {
		logger.WarnContext(ctx, "document has no indexable pages", "document_id", doc.ID, "filename", up.Filename)
	}
	logger.InfoContext(ctx, "document ingested",
		"document_id", doc.ID,
		"category", string(doc.Category),
		"pages_indexed", report.PagesIndexed,
		"pages_skipped", report.PagesSkipped(),
		"dates_found", report.DatesFound,
		"duration_ms", report.DurationMs,
	)
	return report, nil
}

// discardFile deletes a stored upload whose document could not be indexed.
func (p *Pipeline) discardFile(ctx context.Context, key string) {
	if err := p.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to delete orphaned file", "key", key, "error", err)
	}
}

// embedPages embeds every page, a few at a time. Chunk order follows page order.
func (p *Pipeline) embedPages(ctx context.Context, pages []Page) ([]storage.Chunk, error) {
	chunks := make([]storage.Chunk, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for i, page := range pages {
		g.Go(func() error {
			vec, err := p.embedder.Embed(gctx, page.Text)
			if err != nil {
				return fmt.Errorf("failed to embed page %d: %w", page.Number, err)
			}
			chunks[i] = storage.Chunk{
				ChunkIndex: page.Number,
				Text:       page.Text,
				Embedding:  vec,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// backfillDates extracts contract dates from the first pages. Failures are logged
// and leave the dates empty.
func (p *Pipeline) backfillDates(ctx context.Context, doc *storage.Document, pages []Page) bool {
	if p.dates == nil || len(pages) == 0 {
		return false
	}
	logger := contextutil.LoggerFromContext(ctx)

	dates, err := p.dates.Extract(ctx, sampleText(pages, DateSamplePages, DateSampleChars))
	if err != nil {
		logger.WarnContext(ctx, "date extraction failed", "document_id", doc.ID, "error", err)
		return false
	}
	if dates.Empty() {
		return false
	}
	if err := p.docs.UpdateDates(ctx, doc.ID, dates.Effective, dates.Expiry); err != nil {
		logger.WarnContext(ctx, "failed to store contract dates", "document_id", doc.ID, "error", err)
		return false
	}
	doc.EffectiveDate = dates.Effective
	doc.ExpiryDate = dates.Expiry
	return true
}

// Remove deletes a document with its vectors and stored file. Vectors go first so
// search never returns a point whose chunk row is gone.
func (p *Pipeline) Remove(ctx context.Context, id int64) error {
	logger := contextutil.LoggerFromContext(ctx)

	doc, err := p.docs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := p.index.RemoveDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to remove document vectors: %w", err)
	}
	if err := p.docs.Delete(ctx, id); err != nil {
		return err
	}
	if err := p.blobs.Delete(ctx, doc.StorageKey); err != nil {
		logger.WarnContext(ctx, "failed to delete stored file", "document_id", id, "key", doc.StorageKey, "error", err)
	}
	logger.InfoContext(ctx, "document removed", "document_id", id, "title", doc.Title)
	return nil
}
