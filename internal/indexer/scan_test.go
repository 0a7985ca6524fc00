package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"contrackt-ai/internal/storage"
)

func TestScanPDFs(t *testing.T) {
	root := t.TempDir()

	testFiles := []string{
		"loose.pdf",
		"nda/acme.pdf",
		"NDA/Upper.PDF",
		"loan_agreements/2024/bank.pdf",
		"misc/notes.pdf",
		"nda/readme.txt",
		".trash/old.pdf",
		"nda/.hidden.pdf",
	}
	for _, rel := range testFiles {
		fullPath := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte("%PDF-1.4"), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}

	files, err := ScanPDFs(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanPDFs() error = %v", err)
	}

	want := []struct {
		rel      string
		category storage.Category
	}{
		{"NDA/Upper.PDF", storage.CategoryNDA},
		{"loan_agreements/2024/bank.pdf", storage.CategoryLoanAgreements},
		{"loose.pdf", ""},
		{"misc/notes.pdf", ""},
		{"nda/acme.pdf", storage.CategoryNDA},
	}
	if len(files) != len(want) {
		t.Fatalf("ScanPDFs() found %d files, want %d: %+v", len(files), len(want), files)
	}
	for i, w := range want {
		if files[i].RelPath != w.rel || files[i].Category != w.category {
			t.Errorf("file %d = %+v, want %s (%q)", i, files[i], w.rel, w.category)
		}
		if files[i].AbsPath != filepath.Join(root, filepath.FromSlash(w.rel)) {
			t.Errorf("file %d AbsPath = %s", i, files[i].AbsPath)
		}
	}
}

func TestScanPDFs_MissingRoot(t *testing.T) {
	if _, err := ScanPDFs(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("ScanPDFs() expected error for a missing root")
	}
}

func TestScanPDFs_Canceled(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.pdf"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ScanPDFs(ctx, root); err == nil {
		t.Error("ScanPDFs() expected error for a canceled context")
	}
}
