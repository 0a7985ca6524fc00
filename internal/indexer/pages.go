package indexer

import (
	"strings"
	"unicode/utf8"
)

// MinPageChars is the shortest page text that gets indexed. Shorter pages are
// usually blank, scanned images or a lone page number.
const MinPageChars = 50

// Page is the text of one PDF page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// SelectPages normalizes every extracted page and splits them into pages worth
// indexing and the numbers of pages that were too short.
func SelectPages(raw []string) (kept []Page, skipped []int) {
	kept = make([]Page, 0, len(raw))
	for i, text := range raw {
		text = normalizeText(text)
		if utf8.RuneCountInString(text) < MinPageChars {
			skipped = append(skipped, i+1)
			continue
		}
		kept = append(kept, Page{Number: i + 1, Text: text})
	}
	return kept, skipped
}

// normalizeText trims trailing spaces from each line, collapses runs of blank
// lines to one, and removes NUL bytes some PDF producers emit.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// sampleText joins the first pages up to maxChars characters.
func sampleText(pages []Page, maxPages, maxChars int) string {
	var b strings.Builder
	for i, p := range pages {
		if i == maxPages {
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.Text)
	}
	s := b.String()
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	return string([]rune(s)[:maxChars])
}
