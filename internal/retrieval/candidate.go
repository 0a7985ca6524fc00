// Package retrieval finds, fuses and packs contract chunks for a question.
package retrieval

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_index.go -package=mocks contrackt-ai/internal/retrieval ChunkIndex

import (
	"context"

	"contrackt-ai/internal/storage"
)

// ChunkIndex is the query side of a chunk store. Both the SQLite+Qdrant index and
// the Postgres store satisfy it.
type ChunkIndex interface {
	// NearestChunks returns up to n in-scope chunks by ascending cosine distance.
	NearestChunks(ctx context.Context, embedding []float32, scope storage.Scope, n int) ([]storage.ScoredChunk, error)
	// KeywordChunks returns up to n in-scope chunks with lexical rank > 0, best first.
	KeywordChunks(ctx context.Context, query string, scope storage.Scope, n int) ([]storage.ScoredChunk, error)
}

// Candidate is one chunk ranked for a single question.
// Candidates are built once by Fuse and copied, never updated, afterwards.
type Candidate struct {
	Chunk storage.ChunkView
	// Score is the fused reciprocal rank score. Higher is better.
	Score float64
	// Distance is the cosine distance when the chunk came back from vector search.
	Distance *float64
	// LexicalRank is the text search rank when the chunk came back from keyword search.
	LexicalRank *float64
	// VectorPos and KeywordPos are 1-based positions in each list, 0 when absent.
	VectorPos  int
	KeywordPos int
}

// Key identifies the citation slot of a candidate.
func (c Candidate) Key() CitationKey {
	return CitationKey{Title: c.Chunk.Title, ChunkIndex: c.Chunk.ChunkIndex}
}

// CitationKey is the (title, page) pair citations are deduplicated on.
type CitationKey struct {
	Title      string
	ChunkIndex int
}
