package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FilesRoute is where DiskStore.Handler is mounted.
const FilesRoute = "/files/"

// DiskStore keeps files under a local directory and links to them through
// the API server's /files/ route.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates the directory if needed. baseURL is the public origin
// of the API server, e.g. http://localhost:8000.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Put writes body to the file for key, replacing any previous content.
func (s *DiskStore) Put(ctx context.Context, key string, body io.Reader, _ int64, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create blob folder: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create blob %s: %w", key, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close blob %s: %w", key, err)
	}
	return nil
}

// URL links to the file when it exists.
func (s *DiskStore) URL(_ context.Context, key string) (string, bool) {
	p, err := s.path(key)
	if err != nil {
		return "", false
	}
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return s.baseURL + FilesRoute + (&url.URL{Path: key}).EscapedPath(), true
}

// Delete removes the file. A missing file is not an error.
func (s *DiskStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	// Drop the per-upload folder once it is empty; a non-empty folder stays.
	if parent := filepath.Dir(p); parent != filepath.Clean(s.dir) {
		_ = os.Remove(parent)
	}
	return nil
}

// Handler serves stored files under FilesRoute.
func (s *DiskStore) Handler() http.Handler {
	return http.StripPrefix(FilesRoute, http.FileServer(http.Dir(s.dir)))
}

func (s *DiskStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if key == "" || clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.dir, clean), nil
}
