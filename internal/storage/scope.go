package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownCategory is returned for category names outside Categories.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrInvalidScope is returned when document IDs in a scope are not positive.
	ErrInvalidScope = errors.New("invalid search scope")
)

// ScopeKind says which restriction a Scope applies.
type ScopeKind int

const (
	ScopeAll ScopeKind = iota
	ScopeCategory
	ScopeDocuments
)

// Scope restricts retrieval to a category, an explicit document set, or nothing.
type Scope struct {
	Kind        ScopeKind
	Category    Category
	DocumentIDs []int64
}

// Unscoped returns the scope that matches every chunk.
func Unscoped() Scope {
	return Scope{Kind: ScopeAll}
}

// NewScope resolves request parameters into a Scope. A non-empty document ID
// list overrides the category; a category of "" or "all" means unscoped.
func NewScope(category string, documentIDs []int64) (Scope, error) {
	if len(documentIDs) > 0 {
		seen := make(map[int64]struct{}, len(documentIDs))
		ids := make([]int64, 0, len(documentIDs))
		for _, id := range documentIDs {
			if id <= 0 {
				return Scope{}, fmt.Errorf("%w: document id %d", ErrInvalidScope, id)
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		return Scope{Kind: ScopeDocuments, DocumentIDs: ids}, nil
	}

	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, "all") {
		return Unscoped(), nil
	}

	c := Category(category)
	if !c.Valid() {
		return Scope{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return Scope{Kind: ScopeCategory, Category: c}, nil
}

// IsCategory reports whether the scope restricts by category.
func (s Scope) IsCategory() bool {
	return s.Kind == ScopeCategory
}

// String describes the scope for logs and user-facing notices.
func (s Scope) String() string {
	switch s.Kind {
	case ScopeCategory:
		return string(s.Category)
	case ScopeDocuments:
		parts := make([]string, len(s.DocumentIDs))
		for i, id := range s.DocumentIDs {
			parts[i] = strconv.FormatInt(id, 10)
		}
		return "documents " + strings.Join(parts, ",")
	default:
		return "all"
	}
}

// ScopeClause renders s as a SQL condition over the given document id and
// category columns. placeholder returns the next bind marker ("?" or "$n").
// The unscoped clause is "1=1" so callers can always AND it in.
func ScopeClause(s Scope, idColumn, categoryColumn string, placeholder func() string) (string, []any) {
	switch s.Kind {
	case ScopeDocuments:
		marks := make([]string, len(s.DocumentIDs))
		args := make([]any, len(s.DocumentIDs))
		for i, id := range s.DocumentIDs {
			marks[i] = placeholder()
			args[i] = id
		}
		return idColumn + " IN (" + strings.Join(marks, ", ") + ")", args
	case ScopeCategory:
		return categoryColumn + " = " + placeholder(), []any{string(s.Category)}
	default:
		return "1=1", nil
	}
}

// QuestionMarks is the sqlite placeholder generator for ScopeClause.
func QuestionMarks() string { return "?" }

// DollarPlaceholders returns a Postgres placeholder generator starting at $start.
func DollarPlaceholders(start int) func() string {
	n := start - 1
	return func() string {
		n++
		return "$" + strconv.Itoa(n)
	}
}
