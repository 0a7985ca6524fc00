package retrieval

import "sort"

// Diversify reorders fused candidates so every document gets a slot before any
// document gets a second one. Candidates are grouped by title keeping fused order;
// groups are visited in lexicographic title order, one candidate per group per pass,
// until k candidates are picked or every group is empty.
func Diversify(candidates []Candidate, k int) []Candidate {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	groups := make(map[string][]Candidate)
	for _, c := range candidates {
		groups[c.Chunk.Title] = append(groups[c.Chunk.Title], c)
	}
	titles := make([]string, 0, len(groups))
	for title := range groups {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	limit := min(k, len(candidates))
	out := make([]Candidate, 0, limit)
	for len(out) < limit {
		for _, title := range titles {
			queue := groups[title]
			if len(queue) == 0 {
				continue
			}
			out = append(out, queue[0])
			groups[title] = queue[1:]
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
