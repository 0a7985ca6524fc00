package retrieval

import (
	"context"
	"errors"
	"fmt"

	"contrackt-ai/internal/llm"
	"contrackt-ai/internal/observability"
	"contrackt-ai/internal/storage"
)

// ErrEmbeddingUnavailable means the query could not be embedded.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// VectorSearch ranks chunks by cosine distance to the embedded query.
type VectorSearch struct {
	embedder llm.Embedder
	index    ChunkIndex
}

// NewVectorSearch creates a VectorSearch.
func NewVectorSearch(embedder llm.Embedder, index ChunkIndex) *VectorSearch {
	return &VectorSearch{embedder: embedder, index: index}
}

// Search embeds the first llm.MaxEmbedChars characters of query and returns up to n
// in-scope chunks, nearest first.
func (v *VectorSearch) Search(ctx context.Context, query string, scope storage.Scope, n int) ([]storage.ScoredChunk, error) {
	if n <= 0 {
		return nil, nil
	}
	ctx, span := observability.StartSearchSpan(ctx, "vector", n)
	defer span.End()

	vec, err := v.embedder.Embed(ctx, llm.TruncateForEmbedding(query))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
		observability.RecordError(span, err)
		return nil, err
	}

	results, err := v.index.NearestChunks(ctx, vec, scope, n)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}
