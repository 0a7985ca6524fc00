package rag

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ProtocolVersion names the reply grammar the system prompt asks for.
//
// A reply is a sequence of source blocks:
//
//	### SOURCE: <document title>
//	[[REASON: <one line>]]
//	<answer text>
//
// A block whose body holds EmptyMarker, or is shorter than MinBlockChars, is dropped.
// StatusNotFound anywhere in the reply means the context did not answer the question.
// Text before the first header is dropped. A reply without any header is kept whole.
const ProtocolVersion = "v1"

const (
	// HeaderPrefix starts a source block line.
	HeaderPrefix = "### SOURCE:"
	// EmptyMarker tells the parser a block has nothing to say.
	EmptyMarker = "[[EMPTY]]"
	// StatusNotFound is the structured not-found signal.
	StatusNotFound = "[[STATUS: NOT_FOUND]]"
	// MinBlockChars is the shortest body a block may have.
	MinBlockChars = 10
	// DefaultReason is used when a block carries no reason tag.
	DefaultReason = "Referenced in the answer"
	// GeneralSource is the title the model uses for answers not tied to a document.
	GeneralSource = "General Analysis"
)

// legacyNotFoundReasons are reason texts older prompts used to mean not found.
var legacyNotFoundReasons = []string{
	"outside of knowledge base",
	"context missing",
}

var (
	headerLine = regexp.MustCompile(`(?m)^[ \t]*###[ \t]*SOURCE:[ \t]*(.*?)[ \t]*\r?$`)
	reasonTag  = regexp.MustCompile(`\[\[REASON:\s*(.*?)\]\]`)
	statusTag  = regexp.MustCompile(`\[\[STATUS:\s*[A-Z_]+\s*\]\]`)
)

// ParsedAnswer is a model reply split into visible text and per-source reasons.
type ParsedAnswer struct {
	// Clean is the surviving blocks joined in reply order, tags removed.
	Clean string
	// Reasons maps each surviving source title to its stated reason.
	Reasons map[string]string
	// Titles lists surviving source titles in first-seen order.
	Titles []string
	// NotFound reports the structured or legacy not-found signal.
	NotFound bool
	// Dropped counts blocks discarded as empty or too short.
	Dropped int
}

// ParseReply applies the v1 grammar to a raw model reply.
func ParseReply(raw string) ParsedAnswer {
	out := ParsedAnswer{Reasons: make(map[string]string)}
	out.NotFound = strings.Contains(raw, StatusNotFound)

	headers := headerLine.FindAllStringSubmatchIndex(raw, -1)
	if len(headers) == 0 {
		out.Clean = strings.TrimSpace(stripTags(raw))
		return out
	}

	segments := make([]string, 0, len(headers))
	for i, h := range headers {
		title := cleanTitle(raw[h[2]:h[3]])
		bodyEnd := len(raw)
		if i+1 < len(headers) {
			bodyEnd = headers[i+1][0]
		}
		body := strings.TrimSpace(raw[h[1]:bodyEnd])

		if strings.Contains(body, EmptyMarker) || utf8.RuneCountInString(body) < MinBlockChars {
			out.Dropped++
			continue
		}

		reason := DefaultReason
		if m := reasonTag.FindStringSubmatch(body); m != nil && strings.TrimSpace(m[1]) != "" {
			reason = strings.TrimSpace(m[1])
		}
		if prev, seen := out.Reasons[title]; !seen {
			out.Titles = append(out.Titles, title)
			out.Reasons[title] = reason
		} else if prev == DefaultReason {
			out.Reasons[title] = reason
		}

		visible := strings.TrimSpace(stripTags(body))
		segments = append(segments, HeaderPrefix+" "+title+"\n"+visible)
	}
	out.Clean = strings.Join(segments, "\n\n")

	if !out.NotFound {
		for _, reason := range out.Reasons {
			if isLegacyNotFound(reason) {
				out.NotFound = true
				break
			}
		}
	}
	return out
}

func stripTags(s string) string {
	s = reasonTag.ReplaceAllString(s, "")
	return statusTag.ReplaceAllString(s, "")
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func isLegacyNotFound(reason string) bool {
	r := strings.ToLower(reason)
	for _, legacy := range legacyNotFoundReasons {
		if strings.Contains(r, legacy) {
			return true
		}
	}
	return false
}

// notFoundReply is what the composer would receive for an empty context.
func notFoundReply() string {
	return HeaderPrefix + " " + GeneralSource + "\n" +
		"[[REASON: Outside of knowledge base]]\n" +
		StatusNotFound + "\n" +
		"I apologize, but I cannot find information regarding that topic in your uploaded documents."
}
