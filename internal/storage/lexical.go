package storage

import (
	"math"
	"strings"
	"unicode"
)

var lexicalStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "with": {}, "what": {}, "which": {},
	"who": {}, "this": {}, "that": {}, "does": {}, "do": {}, "my": {}, "our": {}, "any": {},
}

// Tokenize lowercases text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// QueryTerms returns the distinct non-stopword tokens of a query in first-seen order.
func QueryTerms(query string) []string {
	tokens := Tokenize(query)
	seen := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := lexicalStopwords[token]; isStop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		terms = append(terms, token)
	}
	return terms
}

// TermFrequencies counts non-stopword tokens in text and returns the total token count.
func TermFrequencies(text string) (map[string]int, int) {
	tokens := Tokenize(text)
	freq := make(map[string]int)
	for _, token := range tokens {
		if _, isStop := lexicalStopwords[token]; isStop {
			continue
		}
		freq[token]++
	}
	return freq, len(tokens)
}

// LexicalRank scores a chunk from the frequencies of matched query terms.
// Each match contributes 1+ln(tf); the sum is damped by document length.
// The result is zero iff no query term occurs in the chunk.
func LexicalRank(matchedTF []int, termCount int) float64 {
	var sum float64
	for _, tf := range matchedTF {
		if tf > 0 {
			sum += 1 + math.Log(float64(tf))
		}
	}
	if sum == 0 {
		return 0
	}
	return sum / (1 + math.Log(1+float64(termCount)))
}
