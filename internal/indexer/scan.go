package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"contrackt-ai/internal/storage"
)

// ScannedFile is a PDF found under a folder being bulk ingested.
type ScannedFile struct {
	RelPath string // Relative path from the scan root, slash separated (e.g. "nda/acme.pdf")
	AbsPath string
	// Category comes from the first folder of RelPath when it names a known
	// category, and is empty otherwise.
	Category storage.Category
}

// ScanPDFs walks root and returns every .pdf file, sorted by relative path.
// Hidden files and folders are skipped.
func ScanPDFs(ctx context.Context, root string) ([]ScannedFile, error) {
	var files []ScannedFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		files = append(files, ScannedFile{
			RelPath:  relPath,
			AbsPath:  path,
			Category: folderCategory(relPath),
		})
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func folderCategory(relPath string) storage.Category {
	first, _, found := strings.Cut(relPath, "/")
	if !found {
		return ""
	}
	c := storage.Category(strings.ToLower(first))
	if !c.Valid() {
		return ""
	}
	return c
}
