package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks contrackt-ai/internal/vectorstore VectorStore

import "context"

// Payload keys written for every chunk point.
const (
	PayloadDocumentID = "document_id"
	PayloadCategory   = "category"
	PayloadChunkIndex = "chunk_index"
)

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
// Score is the cosine similarity reported by the store.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// Filter restricts a search or delete to a subset of points.
// DocumentIDs takes precedence over Category; the zero value matches everything.
type Filter struct {
	DocumentIDs []int64
	Category    string
}

// IsZero reports whether f matches every point.
func (f Filter) IsZero() bool {
	return len(f.DocumentIDs) == 0 && f.Category == ""
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection and waits for them to be indexed.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns up to k points ordered by descending similarity.
	Search(ctx context.Context, collection string, query []float32, k int, filter Filter) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// DeleteByFilter removes every point matching filter. A zero filter is rejected.
	DeleteByFilter(ctx context.Context, collection string, filter Filter) error
}
