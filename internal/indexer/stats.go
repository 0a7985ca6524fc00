package indexer

import (
	"math"
	"sort"
	"unicode/utf8"

	"contrackt-ai/internal/storage"
)

// IngestReport summarizes one upload.
type IngestReport struct {
	// Document is the stored document, with dates when they were found.
	Document *storage.Document `json:"document"`
	// PagesTotal is the page count of the PDF.
	PagesTotal int `json:"pages_total"`
	// PagesIndexed is the number of pages stored as chunks.
	PagesIndexed int `json:"pages_indexed"`
	// SkippedPages lists the 1-based numbers of pages with too little text.
	SkippedPages []int `json:"skipped_pages,omitempty"`
	// PageChars describes the length of the indexed pages.
	PageChars PageCharStats `json:"page_chars"`
	// DatesFound is set when an effective or expiry date was extracted.
	DatesFound bool `json:"dates_found"`
	// DurationMs is the wall time of the whole ingest.
	DurationMs int64 `json:"duration_ms"`
}

// PagesSkipped is the number of pages that were not indexed.
func (r *IngestReport) PagesSkipped() int {
	return len(r.SkippedPages)
}

// PageCharStats contains statistics about character counts of indexed pages.
type PageCharStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

func pageCharStats(pages []Page) PageCharStats {
	counts := make([]int, len(pages))
	for i, p := range pages {
		counts[i] = utf8.RuneCountInString(p.Text)
	}
	return computeCharStats(counts)
}

// computeCharStats computes min, max, mean, and p95 from character counts.
func computeCharStats(counts []int) PageCharStats {
	if len(counts) == 0 {
		return PageCharStats{}
	}

	sorted := make([]int, len(counts))
	copy(sorted, counts)
	sort.Ints(sorted)

	sum := 0
	for _, c := range counts {
		sum += c
	}
	mean := float64(sum) / float64(len(counts))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	return PageCharStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
