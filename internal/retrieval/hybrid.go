package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"contrackt-ai/internal/contextutil"
	"contrackt-ai/internal/llm"
	"contrackt-ai/internal/storage"
)

// Hybrid runs vector and keyword search side by side and fuses the lists.
type Hybrid struct {
	vector     *VectorSearch
	keyword    *KeywordSearch
	oversample int
}

// NewHybrid creates a Hybrid retriever. oversample <= 0 means DefaultOversample.
func NewHybrid(embedder llm.Embedder, index ChunkIndex, oversample int) *Hybrid {
	if oversample <= 0 {
		oversample = DefaultOversample
	}
	return &Hybrid{
		vector:     NewVectorSearch(embedder, index),
		keyword:    NewKeywordSearch(index),
		oversample: oversample,
	}
}

// HybridResult carries the fused list and what each side returned.
type HybridResult struct {
	Candidates   []Candidate
	VectorHits   int
	KeywordHits  int
	VectorErr    error
	KeywordErr   error
	SearchTiming time.Duration
}

// Search fetches up to oversample hits from each list within scope and fuses them.
// The fused pool keeps max(2*oversample, topK) candidates so the diversity pass can
// still reach documents ranked below topK; callers apply the topK cut. One failing
// list is tolerated and reported in the result; the call fails only when both lists
// fail or ctx is done.
func (h *Hybrid) Search(ctx context.Context, query string, scope storage.Scope, topK int) (HybridResult, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	var (
		vecHits, kwHits []storage.ScoredChunk
		vecErr, kwErr   error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vecHits, vecErr = h.vector.Search(gctx, query, scope, h.oversample)
		return nil
	})
	g.Go(func() error {
		kwHits, kwErr = h.keyword.Search(gctx, query, scope, h.oversample)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return HybridResult{}, err
	}
	if vecErr != nil && kwErr != nil {
		return HybridResult{}, fmt.Errorf("hybrid search failed: %w", errors.Join(vecErr, kwErr))
	}
	if vecErr != nil {
		logger.WarnContext(ctx, "vector search failed, continuing keyword-only", "scope", scope.String(), "error", vecErr)
	}
	if kwErr != nil {
		logger.WarnContext(ctx, "keyword search failed, continuing vector-only", "scope", scope.String(), "error", kwErr)
	}

	fused := Fuse(vecHits, kwHits, max(2*h.oversample, topK))
	elapsed := time.Since(start)
	logger.InfoContext(ctx, "hybrid search completed",
		"scope", scope.String(),
		"vector_hits", len(vecHits),
		"keyword_hits", len(kwHits),
		"fused", len(fused),
		"top_k", topK,
		"duration_ms", elapsed.Milliseconds(),
	)

	return HybridResult{
		Candidates:   fused,
		VectorHits:   len(vecHits),
		KeywordHits:  len(kwHits),
		VectorErr:    vecErr,
		KeywordErr:   kwErr,
		SearchTiming: elapsed,
	}, nil
}
