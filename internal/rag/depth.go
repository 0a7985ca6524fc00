package rag

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"contrackt-ai/internal/contextutil"
	"contrackt-ai/internal/llm"
)

const (
	// MinDepth is the smallest retrieval depth the planner returns.
	MinDepth = 5
	// DefaultMaxDepth caps the planner when no maximum is configured.
	DefaultMaxDepth = 1000
	// DefaultDepth is used when the model cannot be asked or answers without a number.
	DefaultDepth = 20
)

const depthSystemPrompt = `You are a search optimization engine. Analyze the user's question and output ONLY a single integer: the number of document chunks (top_k) to retrieve.

Decide by semantic breadth:
- A specific fact (e.g. "What is the date?", "Who is the lender?"): output 10.
- A comparison (e.g. "Compare X and Y"): output 50.
- A broad, exhaustive or list-style request (e.g. "List all...", "Summary of..."): output 600.

Output ONLY the integer. No text.`

var firstInteger = regexp.MustCompile(`\d+`)

// DepthPlanner asks the model how many chunks a question needs.
type DepthPlanner struct {
	completer llm.Completer
	timeout   time.Duration
	maxDepth  int
}

// NewDepthPlanner creates a planner. maxDepth <= 0 means DefaultMaxDepth; timeout <= 0 means no extra bound.
func NewDepthPlanner(completer llm.Completer, timeout time.Duration, maxDepth int) *DepthPlanner {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if maxDepth < MinDepth {
		maxDepth = MinDepth
	}
	return &DepthPlanner{completer: completer, timeout: timeout, maxDepth: maxDepth}
}

// Plan returns a depth in [MinDepth, maxDepth]. It never fails: model errors and replies
// without an integer give DefaultDepth.
func (p *DepthPlanner) Plan(ctx context.Context, query string) int {
	logger := contextutil.LoggerFromContext(ctx)

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	reply, err := p.completer.Complete(callCtx, llm.CompletionRequest{
		SystemPrompt: depthSystemPrompt,
		UserPrompt:   query,
		Temperature:  0,
		MaxTokens:    10,
	})
	if err != nil {
		logger.WarnContext(ctx, "depth planning failed, using default", "default", p.fallback(), "error", err)
		return p.fallback()
	}

	k, ok := parseDepth(reply, p.maxDepth)
	if !ok {
		logger.WarnContext(ctx, "depth reply had no integer, using default", "reply", reply, "default", p.fallback())
		return p.fallback()
	}
	logger.DebugContext(ctx, "depth planned", "reply", reply, "k", k)
	return k
}

func (p *DepthPlanner) fallback() int {
	return clamp(DefaultDepth, MinDepth, p.maxDepth)
}

// parseDepth reads the first integer in reply and clamps it to [MinDepth, maxDepth].
func parseDepth(reply string, maxDepth int) (int, bool) {
	m := firstInteger.FindString(reply)
	if m == "" {
		return 0, false
	}
	k, err := strconv.Atoi(m)
	if err != nil {
		// Too many digits for an int; anything that long is above the cap.
		return maxDepth, true
	}
	return clamp(k, MinDepth, maxDepth), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
