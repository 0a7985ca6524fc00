package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"contrackt-ai/internal/llm"
	"contrackt-ai/internal/storage"
)

const (
	// DateSamplePages is how many leading pages are shown to the date extractor.
	DateSamplePages = 3
	// DateSampleChars caps the sample length.
	DateSampleChars = 4000
)

const dateSystemPrompt = `You are a data extraction assistant. Analyze the contract text and extract:
1. Effective Date (Start Date)
2. Expiration Date (End Date / Due Date)

Output STRICT JSON only:
{
  "effective_date": "YYYY-MM-DD" or null,
  "expiry_date": "YYYY-MM-DD" or null
}

RULES:
- If the contract says "1 year from effective date", calculate it if possible, otherwise null.
- If a date is ambiguous, return null.
- Do NOT output markdown or explanations. Just the JSON object.`

// Dates are the contract dates found in a document. Either may be nil.
type Dates struct {
	Effective *time.Time
	Expiry    *time.Time
}

// Empty reports whether no date was found.
func (d Dates) Empty() bool {
	return d.Effective == nil && d.Expiry == nil
}

// DateExtractor asks the model for the effective and expiry dates of a contract.
type DateExtractor struct {
	completer llm.Completer
	timeout   time.Duration
}

// NewDateExtractor creates a DateExtractor. timeout <= 0 means no extra deadline.
func NewDateExtractor(completer llm.Completer, timeout time.Duration) *DateExtractor {
	return &DateExtractor{completer: completer, timeout: timeout}
}

type dateReply struct {
	EffectiveDate *string `json:"effective_date"`
	ExpiryDate    *string `json:"expiry_date"`
}

// Extract returns the dates in sample. Dates that are missing or not in
// YYYY-MM-DD form come back nil; only a failed call or unreadable JSON is an error.
func (d *DateExtractor) Extract(ctx context.Context, sample string) (Dates, error) {
	if strings.TrimSpace(sample) == "" {
		return Dates{}, nil
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	reply, err := d.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: dateSystemPrompt,
		UserPrompt:   "Extract dates from this contract snippet:\n\n" + sample,
		Temperature:  0,
		MaxTokens:    100,
		JSONMode:     true,
	})
	if err != nil {
		return Dates{}, fmt.Errorf("failed to extract dates: %w", err)
	}

	var parsed dateReply
	if err := json.Unmarshal([]byte(stripFence(reply)), &parsed); err != nil {
		return Dates{}, fmt.Errorf("failed to decode date reply: %w", err)
	}
	return Dates{
		Effective: parseContractDate(parsed.EffectiveDate),
		Expiry:    parseContractDate(parsed.ExpiryDate),
	}, nil
}

// stripFence removes a ```json fence a model may add despite JSON mode.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func parseContractDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(storage.DateLayout, strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	return &t
}
