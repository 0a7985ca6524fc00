package storage

import (
	"fmt"
	"time"
)

// Category groups documents for scoped search.
type Category string

const (
	CategoryGeneral           Category = "general"
	CategoryEmployeeContracts Category = "employee_contracts"
	CategoryNDA               Category = "nda"
	CategoryLoanAgreements    Category = "loan_agreements"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryGeneral,
	CategoryEmployeeContracts,
	CategoryNDA,
	CategoryLoanAgreements,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts user input to a Category. Empty input means general.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryGeneral, nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// DateLayout is the storage and wire format for contract dates.
const DateLayout = "2006-01-02"

// Document is an uploaded contract file.
type Document struct {
	ID            int64
	Title         string
	StorageKey    string
	Category      Category
	UploadedAt    time.Time
	TotalPages    int
	EffectiveDate *time.Time
	ExpiryDate    *time.Time
}

// Chunk is one indexed page of a document. ChunkIndex is the 1-based page number.
type Chunk struct {
	ID         string // UUID, also the vector point ID
	DocumentID int64
	ChunkIndex int
	Text       string
	Embedding  []float32
}

// ChunkView is a chunk joined with the metadata of its document.
type ChunkView struct {
	ChunkID    string
	DocumentID int64
	ChunkIndex int
	Text       string
	Title      string
	StorageKey string
	Category   Category
}

// ScoredChunk pairs a chunk with the raw value produced by one search:
// cosine distance for vector search, lexical rank for keyword search.
type ScoredChunk struct {
	Chunk ChunkView
	Value float64
}
