package retrieval

import (
	"fmt"
	"testing"

	"contrackt-ai/internal/storage"
)

func cand(id, title string, score float64) Candidate {
	return Candidate{
		Chunk: storage.ChunkView{ChunkID: id, Title: title, Text: "text " + id},
		Score: score,
	}
}

func TestDiversify(t *testing.T) {
	tests := []struct {
		name  string
		input []Candidate
		k     int
		want  []string
	}{
		{
			name:  "empty input",
			input: nil,
			k:     5,
			want:  []string{},
		},
		{
			name:  "zero k",
			input: []Candidate{cand("a1", "A", 1)},
			k:     0,
			want:  []string{},
		},
		{
			name: "one dominant document does not starve others",
			input: []Candidate{
				cand("b1", "B", 0.9), cand("b2", "B", 0.8), cand("b3", "B", 0.7),
				cand("a1", "A", 0.6), cand("c1", "C", 0.1),
			},
			k:    4,
			want: []string{"a1", "b1", "c1", "b2"},
		},
		{
			name: "exhausts groups before reaching k",
			input: []Candidate{
				cand("a1", "A", 0.9), cand("b1", "B", 0.8), cand("a2", "A", 0.7),
			},
			k:    10,
			want: []string{"a1", "b1", "a2"},
		},
		{
			name: "group order is internal fused order",
			input: []Candidate{
				cand("z1", "Z", 0.9), cand("z2", "Z", 0.5), cand("m1", "M", 0.4), cand("z3", "Z", 0.3),
			},
			k:    4,
			want: []string{"m1", "z1", "z2", "z3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Diversify(tt.input, tt.k))
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Diversify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiversify_FiveDocumentsKFive(t *testing.T) {
	var input []Candidate
	titles := []string{"Epsilon.pdf", "Alpha.pdf", "Delta.pdf", "Charlie.pdf", "Bravo.pdf"}
	for _, title := range titles {
		for i := 1; i <= 3; i++ {
			input = append(input, cand(fmt.Sprintf("%s-%d", title, i), title, float64(10-i)))
		}
	}

	got := Diversify(input, 5)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	seen := map[string]int{}
	for _, c := range got {
		seen[c.Chunk.Title]++
	}
	for _, title := range titles {
		if seen[title] != 1 {
			t.Errorf("document %s contributed %d chunks, want 1", title, seen[title])
		}
	}
	want := []string{"Alpha.pdf-1", "Bravo.pdf-1", "Charlie.pdf-1", "Delta.pdf-1", "Epsilon.pdf-1"}
	if fmt.Sprint(ids(got)) != fmt.Sprint(want) {
		t.Errorf("Diversify() = %v, want %v", ids(got), want)
	}
}

func TestDiversify_TopOfEveryGroupBeforeAnySecond(t *testing.T) {
	var input []Candidate
	for g := 0; g < 4; g++ {
		for i := 0; i < 1+g; i++ {
			input = append(input, cand(fmt.Sprintf("g%d-%d", g, i), fmt.Sprintf("G%d", g), float64(100-g*10-i)))
		}
	}

	for k := 1; k <= len(input); k++ {
		got := Diversify(input, k)
		groups := min(k, 4)
		firsts := map[string]bool{}
		for i, c := range got[:groups] {
			if firsts[c.Chunk.Title] {
				t.Fatalf("k=%d: title %s repeated within first %d picks (position %d)", k, c.Chunk.Title, groups, i)
			}
			firsts[c.Chunk.Title] = true
		}
	}
}
