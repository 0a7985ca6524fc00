package retrieval

import (
	"strings"
	"unicode/utf8"
)

// DefaultContextBudget is the hard cap on context characters sent to the model.
const DefaultContextBudget = 50000

// OverflowPolicy decides what happens to a block that does not fit.
type OverflowPolicy int

const (
	// StopAtOverflow ends packing at the first block that does not fit.
	// Use it when input is in score order.
	StopAtOverflow OverflowPolicy = iota
	// SkipOverflow drops the block and keeps trying later, possibly smaller ones.
	// Use it when input is in round-robin order.
	SkipOverflow
)

func (p OverflowPolicy) String() string {
	if p == StopAtOverflow {
		return "stop"
	}
	return "skip"
}

// SourceBlock renders one chunk the way the model sees it.
func SourceBlock(title, text string) string {
	return "[[SOURCE: " + title + "]]\n" + text + "\n\n"
}

// Budgeter packs candidates into a context string no longer than Limit characters.
type Budgeter struct {
	Limit  int
	Policy OverflowPolicy
}

// Packed is the outcome of Budgeter.Pack.
type Packed struct {
	Context string
	// Included are the candidates whose blocks are in Context, in order.
	Included []Candidate
	// Skipped are the candidates left out, in input order.
	Skipped []Candidate
	// Chars is the length of Context in characters.
	Chars int
}

// Pack appends blocks in input order while the running total stays within Limit.
// Blocks are never truncated.
func (b Budgeter) Pack(candidates []Candidate) Packed {
	limit := b.Limit
	if limit <= 0 {
		limit = DefaultContextBudget
	}

	var sb strings.Builder
	out := Packed{}
	for i, c := range candidates {
		block := SourceBlock(c.Chunk.Title, c.Chunk.Text)
		size := utf8.RuneCountInString(block)
		if out.Chars+size > limit {
			if b.Policy == StopAtOverflow {
				out.Skipped = append(out.Skipped, candidates[i:]...)
				break
			}
			out.Skipped = append(out.Skipped, c)
			continue
		}
		sb.WriteString(block)
		out.Chars += size
		out.Included = append(out.Included, c)
	}
	out.Context = sb.String()
	return out
}
