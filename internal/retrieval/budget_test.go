package retrieval

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"contrackt-ai/internal/storage"
)

// sized returns a candidate whose rendered block is exactly blockChars characters.
func sized(id, title string, blockChars int) Candidate {
	overhead := utf8.RuneCountInString(SourceBlock(title, ""))
	return Candidate{Chunk: storage.ChunkView{
		ChunkID: id,
		Title:   title,
		Text:    strings.Repeat("x", blockChars-overhead),
	}}
}

func TestSourceBlock(t *testing.T) {
	got := SourceBlock("NDA.pdf", "Both parties agree.")
	want := "[[SOURCE: NDA.pdf]]\nBoth parties agree.\n\n"
	if got != want {
		t.Errorf("SourceBlock() = %q, want %q", got, want)
	}
}

func TestBudgeter_Pack(t *testing.T) {
	input := []Candidate{
		sized("big", "A.pdf", 30000),
		sized("mid", "B.pdf", 25000),
		sized("small", "C.pdf", 15000),
	}

	tests := []struct {
		name         string
		policy       OverflowPolicy
		wantIncluded []string
		wantSkipped  []string
		wantChars    int
	}{
		{
			name:         "stop at first overflow",
			policy:       StopAtOverflow,
			wantIncluded: []string{"big"},
			wantSkipped:  []string{"mid", "small"},
			wantChars:    30000,
		},
		{
			name:         "skip and keep trying",
			policy:       SkipOverflow,
			wantIncluded: []string{"big", "small"},
			wantSkipped:  []string{"mid"},
			wantChars:    45000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Budgeter{Limit: 50000, Policy: tt.policy}.Pack(input)
			if fmt.Sprint(ids(got.Included)) != fmt.Sprint(tt.wantIncluded) {
				t.Errorf("Included = %v, want %v", ids(got.Included), tt.wantIncluded)
			}
			if fmt.Sprint(ids(got.Skipped)) != fmt.Sprint(tt.wantSkipped) {
				t.Errorf("Skipped = %v, want %v", ids(got.Skipped), tt.wantSkipped)
			}
			if got.Chars != tt.wantChars {
				t.Errorf("Chars = %d, want %d", got.Chars, tt.wantChars)
			}
			if n := utf8.RuneCountInString(got.Context); n != got.Chars {
				t.Errorf("context length %d does not match Chars %d", n, got.Chars)
			}
		})
	}
}

func TestBudgeter_FiftyTwoThousandAtFiftyThousand(t *testing.T) {
	input := []Candidate{
		sized("a", "A.pdf", 13000),
		sized("b", "B.pdf", 13000),
		sized("c", "C.pdf", 13000),
		sized("d", "D.pdf", 13000),
	}

	for _, policy := range []OverflowPolicy{StopAtOverflow, SkipOverflow} {
		t.Run(policy.String(), func(t *testing.T) {
			got := Budgeter{Limit: DefaultContextBudget, Policy: policy}.Pack(input)
			if len(got.Included) != 3 {
				t.Fatalf("included %d chunks, want 3", len(got.Included))
			}
			if len(got.Skipped) != 1 || got.Skipped[0].Chunk.ChunkID != "d" {
				t.Fatalf("skipped = %v, want [d]", ids(got.Skipped))
			}
			if strings.Contains(got.Context, "[[SOURCE: D.pdf]]") {
				t.Error("context must not contain the excluded chunk")
			}
			if got.Chars > DefaultContextBudget {
				t.Errorf("Chars = %d exceeds cap", got.Chars)
			}
		})
	}
}

func TestBudgeter_HardCapAndIdempotence(t *testing.T) {
	sizes := []int{9000, 20001, 14000, 7000, 49999, 3000, 12000, 500}
	var input []Candidate
	for i, n := range sizes {
		input = append(input, sized(fmt.Sprintf("c%d", i), fmt.Sprintf("T%d.pdf", i%3), n))
	}

	for _, policy := range []OverflowPolicy{StopAtOverflow, SkipOverflow} {
		t.Run(policy.String(), func(t *testing.T) {
			b := Budgeter{Limit: 50000, Policy: policy}
			first := b.Pack(input)
			if utf8.RuneCountInString(first.Context) > 50000 {
				t.Fatalf("context is %d characters, cap is 50000", utf8.RuneCountInString(first.Context))
			}
			second := b.Pack(first.Included)
			if second.Context != first.Context {
				t.Error("packing the included chunks again should reproduce the same context")
			}
			if len(second.Skipped) != 0 {
				t.Errorf("second pass skipped %d chunks", len(second.Skipped))
			}
			if len(first.Included)+len(first.Skipped) != len(input) {
				t.Errorf("included+skipped = %d, want %d", len(first.Included)+len(first.Skipped), len(input))
			}
		})
	}
}

func TestBudgeter_CountsCharactersNotBytes(t *testing.T) {
	title := "Ü.pdf"
	c := Candidate{Chunk: storage.ChunkView{ChunkID: "u", Title: title, Text: strings.Repeat("é", 100)}}
	limit := utf8.RuneCountInString(SourceBlock(title, c.Chunk.Text))

	got := Budgeter{Limit: limit, Policy: StopAtOverflow}.Pack([]Candidate{c})
	if len(got.Included) != 1 {
		t.Errorf("a block of exactly %d characters should fit a %d character budget", limit, limit)
	}
}

func TestBudgeter_DefaultLimit(t *testing.T) {
	got := Budgeter{}.Pack([]Candidate{sized("a", "A", DefaultContextBudget), sized("b", "B", 10)})
	if fmt.Sprint(ids(got.Included)) != "[a]" {
		t.Errorf("Included = %v, want [a]", ids(got.Included))
	}
}
