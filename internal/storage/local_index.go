package storage

import (
	"context"
	"fmt"
	"sort"

	"contrackt-ai/internal/contextutil"
	"contrackt-ai/internal/vectorstore"
)

// LocalIndex backs retrieval with SQLite for chunk text and the lexical index
// and Qdrant for embeddings. Point IDs equal chunk IDs.
type LocalIndex struct {
	chunks     ChunkStore
	vectors    vectorstore.VectorStore
	collection string
}

// NewLocalIndex creates a LocalIndex over the given stores.
func NewLocalIndex(chunks ChunkStore, vectors vectorstore.VectorStore, collection string) *LocalIndex {
	return &LocalIndex{chunks: chunks, vectors: vectors, collection: collection}
}

// StoreChunks commits the chunk rows first and only then publishes their vectors,
// so a vector hit always resolves to stored text.
func (x *LocalIndex) StoreChunks(ctx context.Context, doc *Document, chunks []Chunk) error {
	if err := x.chunks.InsertBatch(ctx, chunks); err != nil {
		return err
	}

	points := make([]vectorstore.Point, 0, len(chunks))
	for _, c := range chunks {
		points = append(points, vectorstore.Point{
			ID:  c.ID,
			Vec: c.Embedding,
			Meta: map[string]any{
				vectorstore.PayloadDocumentID: doc.ID,
				vectorstore.PayloadCategory:   string(doc.Category),
				vectorstore.PayloadChunkIndex: int64(c.ChunkIndex),
			},
		})
	}
	if err := x.vectors.Upsert(ctx, x.collection, points); err != nil {
		return fmt.Errorf("failed to publish chunk vectors: %w", err)
	}
	return nil
}

// RemoveDocument deletes the document's vectors. Chunk rows go with the document row.
func (x *LocalIndex) RemoveDocument(ctx context.Context, documentID int64) error {
	return x.vectors.DeleteByFilter(ctx, x.collection, vectorstore.Filter{DocumentIDs: []int64{documentID}})
}

// NearestChunks returns up to n in-scope chunks by ascending cosine distance.
// Points whose chunk row no longer exists are skipped.
func (x *LocalIndex) NearestChunks(ctx context.Context, embedding []float32, scope Scope, n int) ([]ScoredChunk, error) {
	hits, err := x.vectors.Search(ctx, x.collection, embedding, n, scopeFilter(scope))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.PointID)
	}
	views, err := x.chunks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]ScoredChunk, 0, len(hits))
	for _, h := range hits {
		view, ok := views[h.PointID]
		if !ok {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "vector point without chunk row", "point_id", h.PointID)
			continue
		}
		results = append(results, ScoredChunk{Chunk: view, Value: 1 - float64(h.Score)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Value != results[j].Value {
			return results[i].Value < results[j].Value
		}
		return results[i].Chunk.ChunkID < results[j].Chunk.ChunkID
	})
	return results, nil
}

// KeywordChunks delegates to the SQLite lexical index.
func (x *LocalIndex) KeywordChunks(ctx context.Context, query string, scope Scope, n int) ([]ScoredChunk, error) {
	return x.chunks.KeywordSearch(ctx, query, scope, n)
}

func scopeFilter(s Scope) vectorstore.Filter {
	switch s.Kind {
	case ScopeDocuments:
		return vectorstore.Filter{DocumentIDs: s.DocumentIDs}
	case ScopeCategory:
		return vectorstore.Filter{Category: string(s.Category)}
	default:
		return vectorstore.Filter{}
	}
}
