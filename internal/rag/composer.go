package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contrackt-ai/internal/contextutil"
	"contrackt-ai/internal/llm"
)

const (
	composeTemperature = 0.1
	composeMaxTokens   = 2048

	// DateLayout is how the current date is written into the system prompt.
	DateLayout = "Monday, January 02, 2006"

	msgTooLarge    = "Error: The query and documents are too large for the model to process at once. Please ask a more specific question."
	msgUnavailable = "Error calling AI: the language model is currently unavailable. Please try again shortly."
)

const composeSystemPrompt = `You are an expert contract analyst.
Current Date: %s

INSTRUCTIONS:
1. Answer the user's question accurately using only the provided context. Every context block starts with a [[SOURCE: <filename>]] tag.

2. GREETINGS: if the user only greets you ("Hi", "Hello"), reply:
### SOURCE: General Analysis
[[REASON: Greeting]]
Hello! I am ready to analyze your documents.

3. NOT IN CONTEXT: if the context does not answer the question, reply exactly:
### SOURCE: General Analysis
[[REASON: Outside of knowledge base]]
[[STATUS: NOT_FOUND]]
I apologize, but I cannot find information regarding that topic in your uploaded documents.

4. DOCUMENT ANSWERS: for every document you rely on, write one block in this format:
### SOURCE: <exact filename from the tag>
[[REASON: <one line on why this document answers the question>]]
<answer derived from this document>

CRITICAL:
- Do not list documents that are irrelevant to the question.
- If a document turns out to have nothing to add, write [[EMPTY]] as its body.
- Use the current date when the question is about deadlines or expiry.`

// Composer asks the model for the final answer over a packed context.
type Composer struct {
	completer llm.Completer
	timeout   time.Duration
	now       func() time.Time
}

// NewComposer creates a Composer. now defaults to time.Now.
func NewComposer(completer llm.Completer, timeout time.Duration, now func() time.Time) *Composer {
	if now == nil {
		now = time.Now
	}
	return &Composer{completer: completer, timeout: timeout, now: now}
}

// Composition is the raw model reply, or a user-facing error text when OK is false.
type Composition struct {
	Reply string
	OK    bool
	// Retried is set when the half-context retry ran.
	Retried bool
}

// Compose never returns an error. An empty reply is retried once with the first half
// of the context; model failures become a user-facing message.
func (c *Composer) Compose(ctx context.Context, contextText, query string) Composition {
	logger := contextutil.LoggerFromContext(ctx)
	system := fmt.Sprintf(composeSystemPrompt, c.now().Format(DateLayout))

	reply, err := c.call(ctx, system, contextText, query)
	if err != nil {
		logger.ErrorContext(ctx, "answer generation failed", "error", err)
		return Composition{Reply: msgUnavailable}
	}
	if reply != "" {
		return Composition{Reply: reply, OK: true}
	}

	half := halfOf(contextText)
	logger.WarnContext(ctx, "empty answer from model, retrying with shorter context",
		"context_chars", len([]rune(contextText)),
		"retry_chars", len([]rune(half)),
	)
	reply, err = c.call(ctx, system, half, query)
	if err != nil {
		logger.ErrorContext(ctx, "answer generation retry failed", "error", err)
		return Composition{Reply: msgUnavailable, Retried: true}
	}
	if reply == "" {
		return Composition{Reply: msgTooLarge, Retried: true}
	}
	return Composition{Reply: reply, OK: true, Retried: true}
}

func (c *Composer) call(ctx context.Context, system, contextText, query string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	reply, err := c.completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: system,
		UserPrompt:   userPrompt(contextText, query),
		Temperature:  composeTemperature,
		MaxTokens:    composeMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func userPrompt(contextText, query string) string {
	return "Context:\n" + contextText + "\n\nQuestion: " + query
}

// halfOf returns the first half of s, counted in characters.
func halfOf(s string) string {
	r := []rune(s)
	return string(r[:len(r)/2])
}
