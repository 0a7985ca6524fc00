// Package blob stores uploaded contract files and hands out links to them.
package blob

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// KeyPrefix is the folder every uploaded file is stored under.
const KeyPrefix = "uploads/"

// Store keeps uploaded files. URL never fails: a false return means no link.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	URL(ctx context.Context, key string) (string, bool)
	Delete(ctx context.Context, key string) error
}

var nameCleaner = strings.NewReplacer(" ", "_", "(", "", ")", "")

// CleanName strips directories from filename, replaces spaces with underscores
// and drops parentheses.
func CleanName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return nameCleaner.Replace(name)
}

// Key returns a new storage key for an uploaded file name. Every call gets its
// own folder so uploads with the same name never share a file.
func Key(filename string) string {
	return KeyPrefix + uuid.NewString() + "/" + CleanName(filename)
}
