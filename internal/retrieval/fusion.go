package retrieval

import (
	"sort"

	"contrackt-ai/internal/storage"
)

// RRFConstant is the smoothing constant k in 1/(k + rank + 1).
const RRFConstant = 60

// DefaultOversample is how many results each list contributes before fusion.
const DefaultOversample = 20

// RRFContribution is the score a list adds for a hit at 0-based rank.
func RRFContribution(rank int) float64 {
	return 1.0 / float64(RRFConstant+rank+1)
}

// Fuse merges a vector-ordered and a keyword-ordered list with reciprocal rank fusion
// and returns at most topK candidates, best first. Equal scores keep first-seen order,
// vector list first.
func Fuse(vector, keyword []storage.ScoredChunk, topK int) []Candidate {
	if topK <= 0 {
		return nil
	}

	byID := make(map[string]*Candidate, len(vector)+len(keyword))
	order := make([]string, 0, len(vector)+len(keyword))

	get := func(view storage.ChunkView) *Candidate {
		c, ok := byID[view.ChunkID]
		if !ok {
			c = &Candidate{Chunk: view}
			byID[view.ChunkID] = c
			order = append(order, view.ChunkID)
		}
		return c
	}

	for rank, hit := range vector {
		c := get(hit.Chunk)
		if c.VectorPos != 0 {
			continue
		}
		dist := hit.Value
		c.Distance = &dist
		c.VectorPos = rank + 1
		c.Score += RRFContribution(rank)
	}
	for rank, hit := range keyword {
		c := get(hit.Chunk)
		if c.KeywordPos != 0 {
			continue
		}
		lex := hit.Value
		c.LexicalRank = &lex
		c.KeywordPos = rank + 1
		c.Score += RRFContribution(rank)
	}

	fused := make([]Candidate, 0, len(order))
	for _, id := range order {
		fused = append(fused, *byID[id])
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	if len(fused) > topK {
		fused = fused[:topK]
	}
	return fused
}
