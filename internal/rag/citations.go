package rag

import (
	"context"
	"strings"

	"contrackt-ai/internal/retrieval"
)

// SnippetChars is the length of a citation snippet in characters.
const SnippetChars = 600

// FileLinker makes a viewable link for a stored file. A false return means no link.
type FileLinker interface {
	URL(ctx context.Context, key string) (string, bool)
}

// BuildCitations returns one citation per (title, page) among the chunks sent to the
// model whose title the model cited. Skipped chunks never appear.
func BuildCitations(ctx context.Context, included []retrieval.Candidate, reasons map[string]string, files FileLinker) []SourceCitation {
	citations := make([]SourceCitation, 0, len(included))
	seen := make(map[retrieval.CitationKey]struct{}, len(included))
	links := make(map[string]*string)

	for _, c := range included {
		reason, cited := reasonFor(c.Chunk.Title, reasons)
		if !cited {
			continue
		}
		key := c.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		citations = append(citations, SourceCitation{
			Title:   c.Chunk.Title,
			Page:    c.Chunk.ChunkIndex,
			Score:   c.Score,
			FileURL: fileURL(ctx, files, c.Chunk.StorageKey, links),
			Snippet: Snippet(c.Chunk.Text),
			Reason:  reason,
		})
	}
	return citations
}

// reasonFor finds the reason the model gave for title. Models sometimes change the
// case of a file name or prefix a folder, so those variants match too.
func reasonFor(title string, reasons map[string]string) (string, bool) {
	if r, ok := reasons[title]; ok {
		return r, true
	}
	want := normalizeTitle(title)
	for cited, r := range reasons {
		if normalizeTitle(cited) == want {
			return r, true
		}
	}
	return "", false
}

func normalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	if i := strings.LastIndexAny(t, "/\\"); i >= 0 {
		t = t[i+1:]
	}
	return t
}

func fileURL(ctx context.Context, files FileLinker, key string, cache map[string]*string) *string {
	if files == nil || key == "" {
		return nil
	}
	if u, ok := cache[key]; ok {
		return u
	}
	var out *string
	if u, ok := files.URL(ctx, key); ok {
		out = &u
	}
	cache[key] = out
	return out
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Snippet returns the first SnippetChars characters of text on one line.
func Snippet(text string) string {
	r := []rune(text)
	if len(r) > SnippetChars {
		r = r[:SnippetChars]
	}
	return newlines.Replace(string(r))
}
