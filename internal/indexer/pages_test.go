package indexer

import (
	"reflect"
	"strings"
	"testing"
)

func TestSelectPages(t *testing.T) {
	long := strings.Repeat("Termination requires notice. ", 3)
	raw := []string{
		"Page 1",
		long,
		"",
		"   \n\n  " + strings.Repeat("x", 49) + "  \n",
		strings.Repeat("y", 50),
	}

	kept, skipped := SelectPages(raw)

	if want := []int{1, 3, 4}; !reflect.DeepEqual(skipped, want) {
		t.Errorf("skipped = %v, want %v", skipped, want)
	}
	if len(kept) != 2 {
		t.Fatalf("kept %d pages, want 2", len(kept))
	}
	if kept[0].Number != 2 || kept[1].Number != 5 {
		t.Errorf("kept page numbers = %d, %d, want 2, 5", kept[0].Number, kept[1].Number)
	}
	if kept[0].Text != strings.TrimSpace(long) {
		t.Errorf("kept[0].Text = %q", kept[0].Text)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trailing spaces", in: "a  \nb\t", want: "a\nb"},
		{name: "blank runs collapse", in: "a\n\n\n\nb", want: "a\n\nb"},
		{name: "crlf", in: "a\r\nb\r\n", want: "a\nb"},
		{name: "nul bytes", in: "a\x00b", want: "ab"},
		{name: "outer whitespace", in: "\n\n  a  \n\n", want: "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeText(tt.in); got != tt.want {
				t.Errorf("normalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSampleText(t *testing.T) {
	pages := []Page{{1, "one"}, {2, "two"}, {3, "three"}, {4, "four"}}

	if got := sampleText(pages, 3, 100); got != "one\n\ntwo\n\nthree" {
		t.Errorf("sampleText() = %q", got)
	}
	if got := sampleText(pages, 3, 5); got != "one\n\n" {
		t.Errorf("sampleText() truncated = %q", got)
	}
	if got := sampleText([]Page{{1, "äöü"}}, 1, 2); got != "äö" {
		t.Errorf("sampleText() should cut on characters, got %q", got)
	}
}

func TestComputeCharStats(t *testing.T) {
	if got := computeCharStats(nil); got != (PageCharStats{}) {
		t.Errorf("computeCharStats(nil) = %+v", got)
	}

	counts := make([]int, 0, 20)
	for i := 1; i <= 20; i++ {
		counts = append(counts, i*10)
	}
	got := computeCharStats(counts)
	want := PageCharStats{Min: 10, Max: 200, Mean: 105, P95: 190}
	if got != want {
		t.Errorf("computeCharStats() = %+v, want %+v", got, want)
	}

	if got := computeCharStats([]int{70}); got != (PageCharStats{Min: 70, Max: 70, Mean: 70, P95: 70}) {
		t.Errorf("computeCharStats(single) = %+v", got)
	}
}
