package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_service.go -package=mocks -mock_names=DocumentService=MockDocumentService contrackt-ai/internal/service DocumentService
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ingester.go -package=mocks contrackt-ai/internal/service Ingester

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"contrackt-ai/internal/contextutil"
	"contrackt-ai/internal/indexer"
	"contrackt-ai/internal/llm"
	"contrackt-ai/internal/rag"
	"contrackt-ai/internal/storage"
)

const (
	// DefaultMaxUploadBytes is the upload limit when none is configured.
	DefaultMaxUploadBytes = 25 << 20
	// AlertWindowDays is how far ahead expiry alerts look.
	AlertWindowDays = 60
	// CriticalDays is the last stretch before expiry that counts as critical.
	CriticalDays = 20
)

// AlertSeverity ranks an expiry alert.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityUpcoming AlertSeverity = "upcoming"
)

// Ingester indexes and removes documents.
// This interface is defined from the service layer's perspective (consumer-first).
type Ingester interface {
	Ingest(ctx context.Context, up indexer.Upload) (*indexer.IngestReport, error)
	Remove(ctx context.Context, id int64) error
}

// UploadRequest is one uploaded file.
type UploadRequest struct {
	Filename string
	Category string
	Data     []byte
}

// DocumentInfo is a stored document with a link to its file.
type DocumentInfo struct {
	storage.Document
	FileURL *string
}

// Alert warns about a contract that expires soon.
type Alert struct {
	Document      storage.Document
	DaysRemaining int
	Severity      AlertSeverity
	FileURL       *string
}

// DocumentService manages the contract library.
type DocumentService interface {
	// Upload validates and ingests one PDF.
	Upload(ctx context.Context, req UploadRequest) (*indexer.IngestReport, error)
	// List returns documents newest first. Empty or "all" lists every category.
	List(ctx context.Context, category string) ([]DocumentInfo, error)
	// Delete removes a document, its chunks and its file.
	Delete(ctx context.Context, id int64) error
	// Alerts returns contracts expiring within AlertWindowDays, nearest first.
	Alerts(ctx context.Context) ([]Alert, error)
}

// documentService implements DocumentService.
type documentService struct {
	ingester Ingester
	docs     storage.DocumentStore
	files    rag.FileLinker
	maxBytes int64
	now      func() time.Time
}

// NewDocumentService creates a new DocumentService. maxBytes <= 0 means
// DefaultMaxUploadBytes; now nil means time.Now.
func NewDocumentService(ingester Ingester, docs storage.DocumentStore, files rag.FileLinker, maxBytes int64, now func() time.Time) DocumentService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if now == nil {
		now = time.Now
	}
	return &documentService{
		ingester: ingester,
		docs:     docs,
		files:    files,
		maxBytes: maxBytes,
		now:      now,
	}
}

// Upload validates the request and hands the file to the ingester.
func (s *documentService) Upload(ctx context.Context, req UploadRequest) (*indexer.IngestReport, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Filename) == "" {
		return nil, &ValidationError{Field: "file", Message: "is required"}
	}
	if int64(len(req.Data)) > s.maxBytes {
		logger.WarnContext(ctx, "upload too large", "filename", req.Filename, "size", len(req.Data), "limit", s.maxBytes)
		return nil, fmt.Errorf("%w: file is larger than %d MB", ErrPayloadTooLarge, s.maxBytes>>20)
	}
	category, err := storage.ParseCategory(strings.TrimSpace(req.Category))
	if err != nil {
		return nil, &ValidationError{Field: "category", Message: err.Error()}
	}

	report, err := s.ingester.Ingest(ctx, indexer.Upload{Filename: req.Filename, Category: category, Data: req.Data})
	switch {
	case errors.Is(err, indexer.ErrNotPDF), errors.Is(err, indexer.ErrEmptyFile):
		return nil, &ValidationError{Field: "file", Message: err.Error()}
	case err != nil && llm.IsProviderError(err):
		logger.ErrorContext(ctx, "model provider failed during upload", "error", err)
		return nil, externalError(err, "failed to index document")
	case err != nil:
		logger.ErrorContext(ctx, "failed to ingest document", "error", err)
		return nil, WrapError(err, "failed to ingest document")
	}
	return report, nil
}

// List returns stored documents with file links.
func (s *documentService) List(ctx context.Context, category string) ([]DocumentInfo, error) {
	var filter storage.Category
	if c := strings.TrimSpace(category); c != "" && !strings.EqualFold(c, "all") {
		parsed, err := storage.ParseCategory(c)
		if err != nil {
			return nil, &ValidationError{Field: "category", Message: err.Error()}
		}
		filter = parsed
	}

	docs, err := s.docs.List(ctx, filter)
	if err != nil {
		return nil, WrapError(err, "failed to list documents")
	}

	out := make([]DocumentInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentInfo{Document: d, FileURL: s.fileURL(ctx, d.StorageKey)})
	}
	return out, nil
}

// Delete removes a document.
func (s *documentService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return &ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	if err := s.ingester.Remove(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("document %d: %w", id, ErrNotFound)
		}
		return WrapError(err, "failed to delete document")
	}
	return nil
}

// Alerts lists contracts whose expiry date is between today and AlertWindowDays from now.
func (s *documentService) Alerts(ctx context.Context) ([]Alert, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	until := today.AddDate(0, 0, AlertWindowDays)

	docs, err := s.docs.ListExpiringBetween(ctx, today, until)
	if err != nil {
		return nil, WrapError(err, "failed to list expiring documents")
	}

	alerts := make([]Alert, 0, len(docs))
	for _, d := range docs {
		if d.ExpiryDate == nil {
			continue
		}
		days := DaysUntil(today, *d.ExpiryDate)
		if days < 0 || days > AlertWindowDays {
			continue
		}
		alerts = append(alerts, Alert{
			Document:      d,
			DaysRemaining: days,
			Severity:      severityFor(days),
			FileURL:       s.fileURL(ctx, d.StorageKey),
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DaysRemaining < alerts[j].DaysRemaining
	})
	return alerts, nil
}

func (s *documentService) fileURL(ctx context.Context, key string) *string {
	if s.files == nil || key == "" {
		return nil
	}
	if u, ok := s.files.URL(ctx, key); ok {
		return &u
	}
	return nil
}

// DaysUntil counts whole calendar days from today to date.
func DaysUntil(today, date time.Time) int {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(today).Hours() / 24)
}

func severityFor(days int) AlertSeverity {
	if days <= CriticalDays {
		return SeverityCritical
	}
	return SeverityUpcoming
}
