package indexer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"contrackt-ai/internal/blob"
	"contrackt-ai/internal/indexer/mocks"
	llmmocks "contrackt-ai/internal/llm/mocks"
	"contrackt-ai/internal/storage"
	storagemocks "contrackt-ai/internal/storage/mocks"
)

type fakeExtractor struct {
	pages []string
	err   error
}

func (f fakeExtractor) ExtractPages(io.ReaderAt, int64) ([]string, error) {
	return f.pages, f.err
}

type pipelineHarness struct {
	dir       string
	blobs     *blob.DiskStore
	docs      *storagemocks.MockDocumentStore
	index     *mocks.MockChunkIndexer
	embedder  *llmmocks.MockEmbedder
	completer *llmmocks.MockCompleter
}

func newPipelineHarness(t *testing.T) *pipelineHarness {
	t.Helper()
	ctrl := gomock.NewController(t)
	dir := t.TempDir()
	blobs, err := blob.NewDiskStore(dir, "http://localhost:8000")
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}
	return &pipelineHarness{
		dir:       dir,
		blobs:     blobs,
		docs:      storagemocks.NewMockDocumentStore(ctrl),
		index:     mocks.NewMockChunkIndexer(ctrl),
		embedder:  llmmocks.NewMockEmbedder(ctrl),
		completer: llmmocks.NewMockCompleter(ctrl),
	}
}

func (h *pipelineHarness) pipeline(pages []string) *Pipeline {
	return NewPipeline(h.blobs, h.docs, h.index, h.embedder, fakeExtractor{pages: pages}, NewDateExtractor(h.completer, time.Second))
}

var pdfBytes = []byte("%PDF-1.7\n...")

func contractPages() []string {
	return []string{
		"This Non-Disclosure Agreement is effective as of January 15, 2025 between Acme and Beta.",
		"12",
		"The receiving party shall keep all Confidential Information secret for two years.",
	}
}

func TestPipeline_Ingest(t *testing.T) {
	h := newPipelineHarness(t)
	ctx := context.Background()

	h.embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, text string) ([]float32, error) {
			return []float32{float32(len(text))}, nil
		}).Times(2)
	h.docs.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc *storage.Document) error {
			if doc.Title != "Acme NDA (final).pdf" || !strings.HasPrefix(doc.StorageKey, "uploads/") || !strings.HasSuffix(doc.StorageKey, "/Acme_NDA_final.pdf") {
				t.Errorf("document = %+v", doc)
			}
			if doc.Category != storage.CategoryNDA || doc.TotalPages != 3 {
				t.Errorf("document = %+v", doc)
			}
			doc.ID = 7
			return nil
		})
	h.index.EXPECT().StoreChunks(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc *storage.Document, chunks []storage.Chunk) error {
			if doc.ID != 7 {
				t.Errorf("StoreChunks doc.ID = %d, want 7", doc.ID)
			}
			got := make([]int, len(chunks))
			for i, c := range chunks {
				got[i] = c.ChunkIndex
				if c.DocumentID != 7 || len(c.Embedding) != 1 || c.Text == "" {
					t.Errorf("chunk %d = %+v", i, c)
				}
			}
			if !reflect.DeepEqual(got, []int{1, 3}) {
				t.Errorf("chunk pages = %v, want [1 3]", got)
			}
			return nil
		})
	h.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		Return(`{"effective_date": "2025-01-15", "expiry_date": "2027-01-14"}`, nil)
	h.docs.EXPECT().UpdateDates(gomock.Any(), int64(7), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, effective, expiry *time.Time) error {
			if effective == nil || expiry == nil || expiry.Format(storage.DateLayout) != "2027-01-14" {
				t.Errorf("UpdateDates(%v, %v)", effective, expiry)
			}
			return nil
		})

	report, err := h.pipeline(contractPages()).Ingest(ctx, Upload{
		Filename: "Acme NDA (final).pdf",
		Category: storage.CategoryNDA,
		Data:     pdfBytes,
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if report.PagesTotal != 3 || report.PagesIndexed != 2 || report.PagesSkipped() != 1 {
		t.Errorf("report = %+v", report)
	}
	if !reflect.DeepEqual(report.SkippedPages, []int{2}) {
		t.Errorf("SkippedPages = %v, want [2]", report.SkippedPages)
	}
	if !report.DatesFound || report.Document.ExpiryDate == nil {
		t.Errorf("dates not reported: %+v", report.Document)
	}

	stored, err := os.ReadFile(filepath.Join(h.dir, filepath.FromSlash(report.Document.StorageKey)))
	if err != nil || string(stored) != string(pdfBytes) {
		t.Errorf("stored file = %q, %v", stored, err)
	}
}

func TestPipeline_Ingest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		upload  Upload
		wantErr error
	}{
		{name: "empty", upload: Upload{Filename: "a.pdf"}, wantErr: ErrEmptyFile},
		{name: "wrong extension", upload: Upload{Filename: "a.docx", Data: pdfBytes}, wantErr: ErrNotPDF},
		{name: "not a pdf", upload: Upload{Filename: "a.pdf", Data: []byte("PK\x03\x04")}, wantErr: ErrNotPDF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newPipelineHarness(t)
			_, err := h.pipeline(contractPages()).Ingest(context.Background(), tt.upload)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Ingest() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPipeline_Ingest_DefaultsCategory(t *testing.T) {
	h := newPipelineHarness(t)
	h.docs.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc *storage.Document) error {
			if doc.Category != storage.CategoryGeneral {
				t.Errorf("Category = %q, want general", doc.Category)
			}
			doc.ID = 1
			return nil
		})
	h.index.EXPECT().StoreChunks(gomock.Any(), gomock.Any(), gomock.Len(0)).Return(nil)

	report, err := h.pipeline([]string{"", "tiny"}).Ingest(context.Background(), Upload{Filename: "scan.pdf", Data: pdfBytes})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if report.PagesIndexed != 0 || report.DatesFound {
		t.Errorf("report = %+v", report)
	}
}

func TestPipeline_Ingest_EmbeddingFailureWritesNothing(t *testing.T) {
	h := newPipelineHarness(t)
	h.embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return(nil, errors.New("embedding service down")).MinTimes(1)

	_, err := h.pipeline(contractPages()).Ingest(context.Background(), Upload{Filename: "nda.pdf", Data: pdfBytes})
	if err == nil || !strings.Contains(err.Error(), "failed to embed page") {
		t.Fatalf("Ingest() error = %v, want embed failure", err)
	}
	if _, statErr := os.Stat(filepath.Join(h.dir, "uploads")); !os.IsNotExist(statErr) {
		t.Error("file should not be stored when embedding fails")
	}
}

func TestPipeline_Ingest_IndexFailureRollsBack(t *testing.T) {
	h := newPipelineHarness(t)
	h.embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([]float32{1}, nil).Times(2)
	h.docs.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc *storage.Document) error {
			doc.ID = 9
			return nil
		})
	h.index.EXPECT().StoreChunks(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("qdrant unavailable"))
	h.docs.EXPECT().Delete(gomock.Any(), int64(9)).Return(nil)

	if _, err := h.pipeline(contractPages()).Ingest(context.Background(), Upload{Filename: "nda.pdf", Data: pdfBytes}); err == nil {
		t.Fatal("Ingest() expected error")
	}
	assertNoStoredFiles(t, h.dir)
}

func TestPipeline_Ingest_CreateFailureDeletesFile(t *testing.T) {
	h := newPipelineHarness(t)
	h.embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([]float32{1}, nil).Times(2)
	h.docs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("database is locked"))

	_, err := h.pipeline(contractPages()).Ingest(context.Background(), Upload{Filename: "nda.pdf", Data: pdfBytes})
	if err == nil || !strings.Contains(err.Error(), "failed to create document") {
		t.Fatalf("Ingest() error = %v, want create failure", err)
	}
	assertNoStoredFiles(t, h.dir)
}

// assertNoStoredFiles fails when any regular file is left under dir.
func assertNoStoredFiles(t *testing.T, dir string) {
	t.Helper()
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			t.Errorf("file %s left behind", path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir() error = %v", err)
	}
}

func TestPipeline_SameNameUploadsKeepSeparateFiles(t *testing.T) {
	h := newPipelineHarness(t)
	ctx := context.Background()

	var nextID int64
	docs := map[int64]*storage.Document{}
	h.embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([]float32{1}, nil).AnyTimes()
	h.docs.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc *storage.Document) error {
			nextID++
			doc.ID = nextID
			docs[doc.ID] = doc
			return nil
		}).Times(2)
	h.index.EXPECT().StoreChunks(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	h.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(`{}`, nil).Times(2)

	p := h.pipeline(contractPages())
	for i := 0; i < 2; i++ {
		if _, err := p.Ingest(ctx, Upload{Filename: "Contract.pdf", Data: pdfBytes}); err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
	}
	if docs[1].StorageKey == docs[2].StorageKey {
		t.Fatalf("both uploads stored under %q", docs[1].StorageKey)
	}

	h.docs.EXPECT().GetByID(gomock.Any(), int64(1)).Return(docs[1], nil)
	h.index.EXPECT().RemoveDocument(gomock.Any(), int64(1)).Return(nil)
	h.docs.EXPECT().Delete(gomock.Any(), int64(1)).Return(nil)
	if err := p.Remove(ctx, 1); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, ok := h.blobs.URL(ctx, docs[1].StorageKey); ok {
		t.Error("removed document's file should be gone")
	}
	if _, ok := h.blobs.URL(ctx, docs[2].StorageKey); !ok {
		t.Error("other document's file should survive the removal")
	}
}

func TestPipeline_Ingest_DateFailureIsNotFatal(t *testing.T) {
	h := newPipelineHarness(t)
	h.embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([]float32{1}, nil).Times(2)
	h.docs.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc *storage.Document) error {
			doc.ID = 3
			return nil
		})
	h.index.EXPECT().StoreChunks(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	h.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", errors.New("timeout"))

	report, err := h.pipeline(contractPages()).Ingest(context.Background(), Upload{Filename: "nda.pdf", Data: pdfBytes})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if report.DatesFound || report.Document.ExpiryDate != nil {
		t.Errorf("report = %+v", report)
	}
}

func TestPipeline_Remove(t *testing.T) {
	h := newPipelineHarness(t)
	ctx := context.Background()
	if err := h.blobs.Put(ctx, "uploads/nda.pdf", strings.NewReader("x"), 1, ""); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	gomock.InOrder(
		h.docs.EXPECT().GetByID(gomock.Any(), int64(4)).Return(&storage.Document{ID: 4, Title: "nda.pdf", StorageKey: "uploads/nda.pdf"}, nil),
		h.index.EXPECT().RemoveDocument(gomock.Any(), int64(4)).Return(nil),
		h.docs.EXPECT().Delete(gomock.Any(), int64(4)).Return(nil),
	)

	if err := h.pipeline(nil).Remove(ctx, 4); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok := h.blobs.URL(ctx, "uploads/nda.pdf"); ok {
		t.Error("stored file should be deleted")
	}
}

func TestPipeline_Remove_NotFound(t *testing.T) {
	h := newPipelineHarness(t)
	h.docs.EXPECT().GetByID(gomock.Any(), int64(5)).Return(nil, storage.ErrNotFound)

	if err := h.pipeline(nil).Remove(context.Background(), 5); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Remove() error = %v, want ErrNotFound", err)
	}
}
