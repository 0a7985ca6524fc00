package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"contrackt-ai/internal/contextutil"
	"contrackt-ai/internal/indexer"
	"contrackt-ai/internal/service"
	"contrackt-ai/internal/storage"
)

// multipartOverhead is the slack allowed on top of the file limit for form fields and boundaries.
const multipartOverhead = 1 << 20

// DocumentsHandler handles HTTP requests for the contract library.
type DocumentsHandler struct {
	documents service.DocumentService
	maxBytes  int64
}

// NewDocumentsHandler creates a new DocumentsHandler. maxBytes caps the request body.
func NewDocumentsHandler(documents service.DocumentService, maxBytes int64) *DocumentsHandler {
	if maxBytes <= 0 {
		maxBytes = service.DefaultMaxUploadBytes
	}
	return &DocumentsHandler{documents: documents, maxBytes: maxBytes}
}

// DocumentResponse is one stored contract.
//
// swagger:model DocumentResponse
type DocumentResponse struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	UploadedAt time.Time `json:"uploaded_at"`
	TotalPages int       `json:"total_pages"`

	// Dates are YYYY-MM-DD, omitted when they could not be extracted
	EffectiveDate *string `json:"effective_date,omitempty"`
	ExpiryDate    *string `json:"expiry_date,omitempty"`

	// Link to the PDF, omitted when none could be made
	FileURL *string `json:"file_url,omitempty"`
}

// IngestSummary describes how an upload was indexed.
//
// swagger:model IngestSummary
type IngestSummary struct {
	PagesTotal   int                   `json:"pages_total"`
	PagesIndexed int                   `json:"pages_indexed"`
	SkippedPages []int                 `json:"skipped_pages"`
	PageChars    indexer.PageCharStats `json:"page_chars"`
	DatesFound   bool                  `json:"dates_found"`
	DurationMs   int64                 `json:"duration_ms"`
}

// UploadResponse is the stored document plus its ingest summary.
//
// swagger:model UploadResponse
type UploadResponse struct {
	DocumentResponse
	Ingest IngestSummary `json:"ingest"`
}

// AlertResponse warns about a contract expiring soon.
//
// swagger:model AlertResponse
type AlertResponse struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Category      string  `json:"category"`
	ExpiryDate    string  `json:"expiry_date"`
	DaysRemaining int     `json:"days_remaining"`
	Status        string  `json:"status"`
	FileURL       *string `json:"file_url,omitempty"`
}

// Upload handles POST /api/upload.
//
// swagger:route POST /api/upload documents uploadDocument
//
// # Upload a contract
//
// Stores a PDF, indexes each page and extracts its effective and expiry dates.
// The multipart form carries the file under "file" and an optional "category".
//
// ---
// consumes:
// - multipart/form-data
// produces:
// - application/json
// responses:
//
//	'201':
//	  description: Document stored and indexed
//	  schema:
//	    "$ref": "#/definitions/UploadResponse"
//	'400':
//	  description: Missing file, not a PDF or unknown category
//	'413':
//	  description: File too large
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.WarnContext(ctx, "upload body too large", "limit", tooLarge.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.WarnContext(ctx, "missing file in upload", "error", err)
		writeError(w, http.StatusBadRequest, "Form field \"file\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read uploaded file", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	report, err := h.documents.Upload(ctx, service.UploadRequest{
		Filename: header.Filename,
		Category: r.FormValue("category"),
		Data:     data,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to upload document")
		return
	}

	skipped := report.SkippedPages
	if skipped == nil {
		skipped = []int{}
	}
	writeJSON(ctx, w, http.StatusCreated, UploadResponse{
		DocumentResponse: toDocumentResponse(*report.Document, nil),
		Ingest: IngestSummary{
			PagesTotal:   report.PagesTotal,
			PagesIndexed: report.PagesIndexed,
			SkippedPages: skipped,
			PageChars:    report.PageChars,
			DatesFound:   report.DatesFound,
			DurationMs:   report.DurationMs,
		},
	})
}

// List handles GET /api/documents.
//
// swagger:route GET /api/documents documents listDocuments
//
// # List contracts
//
// Lists stored documents newest first, optionally filtered by ?category=.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Documents
//	  schema:
//	    type: array
//	    items:
//	      "$ref": "#/definitions/DocumentResponse"
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.documents.List(ctx, r.URL.Query().Get("category"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list documents")
		return
	}

	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d.Document, d.FileURL))
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

// Delete handles DELETE /api/documents/{id}.
//
// swagger:route DELETE /api/documents/{id} documents deleteDocument
//
// # Delete a contract
//
// Removes the document, its indexed pages and its file.
//
// ---
// responses:
//
//	'204':
//	  description: Deleted
//	'404':
//	  description: No such document
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid document id", "id", chi.URLParam(r, "id"))
		writeError(w, http.StatusBadRequest, "Invalid document id")
		return
	}

	if err := h.documents.Delete(ctx, id); err != nil {
		handleServiceError(ctx, w, err, "Failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Alerts handles GET /api/alerts.
//
// swagger:route GET /api/alerts documents listAlerts
//
// # Expiry alerts
//
// Lists contracts expiring within the next 60 days, nearest first.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Alerts
//	  schema:
//	    type: array
//	    items:
//	      "$ref": "#/definitions/AlertResponse"
func (h *DocumentsHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	alerts, err := h.documents.Alerts(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list alerts")
		return
	}

	out := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, AlertResponse{
			ID:            a.Document.ID,
			Title:         a.Document.Title,
			Category:      string(a.Document.Category),
			ExpiryDate:    a.Document.ExpiryDate.Format(storage.DateLayout),
			DaysRemaining: a.DaysRemaining,
			Status:        string(a.Severity),
			FileURL:       a.FileURL,
		})
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

func toDocumentResponse(d storage.Document, fileURL *string) DocumentResponse {
	return DocumentResponse{
		ID:            d.ID,
		Title:         d.Title,
		Category:      string(d.Category),
		UploadedAt:    d.UploadedAt,
		TotalPages:    d.TotalPages,
		EffectiveDate: formatDate(d.EffectiveDate),
		ExpiryDate:    formatDate(d.ExpiryDate),
		FileURL:       fileURL,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(storage.DateLayout)
	return &s
}
