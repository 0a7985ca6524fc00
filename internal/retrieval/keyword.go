package retrieval

import (
	"context"
	"fmt"

	"contrackt-ai/internal/observability"
	"contrackt-ai/internal/storage"
)

// KeywordSearch ranks chunks by lexical overlap with the query.
type KeywordSearch struct {
	index ChunkIndex
}

// NewKeywordSearch creates a KeywordSearch.
func NewKeywordSearch(index ChunkIndex) *KeywordSearch {
	return &KeywordSearch{index: index}
}

// Search returns up to n in-scope chunks with rank > 0, best first.
// Chunks without any lexical match are never returned.
func (k *KeywordSearch) Search(ctx context.Context, query string, scope storage.Scope, n int) ([]storage.ScoredChunk, error) {
	if n <= 0 {
		return nil, nil
	}
	ctx, span := observability.StartSearchSpan(ctx, "keyword", n)
	defer span.End()

	results, err := k.index.KeywordChunks(ctx, query, scope, n)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to search keywords: %w", err)
	}

	kept := make([]storage.ScoredChunk, 0, len(results))
	for _, r := range results {
		if r.Value > 0 {
			kept = append(kept, r)
		}
	}
	if len(kept) > n {
		kept = kept[:n]
	}
	return kept, nil
}
