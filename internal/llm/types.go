package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm.go -package=mocks contrackt-ai/internal/llm Completer,Embedder

import (
	"context"
	"errors"
	"fmt"
)

// MaxEmbedChars caps the text sent to the embedding model.
const MaxEmbedChars = 8000

// CompletionRequest holds a single-turn chat completion.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	// Temperature is sent as-is, including zero.
	Temperature float32
	// MaxTokens limits the reply length. If 0, no limit is sent.
	MaxTokens int
	// JSONMode asks the model for a single JSON object.
	JSONMode bool
}

// Completer produces one chat completion.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ProviderError is returned for any failure talking to a model provider.
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed with status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError reports whether err came from a model provider.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// TruncateForEmbedding returns at most MaxEmbedChars characters of text.
func TruncateForEmbedding(text string) string {
	if len(text) <= MaxEmbedChars {
		return text
	}
	count := 0
	for i := range text {
		if count == MaxEmbedChars {
			return text[:i]
		}
		count++
	}
	return text
}
