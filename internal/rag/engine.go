package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks contrackt-ai/internal/rag Engine

import (
	"context"
	"fmt"
	"time"

	"contrackt-ai/internal/contextutil"
	"contrackt-ai/internal/llm"
	"contrackt-ai/internal/observability"
	"contrackt-ai/internal/retrieval"
	"contrackt-ai/internal/storage"
)

// Engine provides RAG (Retrieval-Augmented Generation) functionality.
type Engine interface {
	// Ask answers a question over the documents in req.Scope, widening a category
	// scope to all documents when it holds no answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

// Options tunes the engine. Zero values take the package defaults.
type Options struct {
	ContextBudget int
	Oversample    int
	MaxTopK       int
	LLMTimeout    time.Duration
	DepthTimeout  time.Duration
	// Policy is how the budgeter treats a block that does not fit. Candidates reach
	// the budgeter in round-robin order, so the default is SkipOverflow.
	Policy *retrieval.OverflowPolicy
	Now    func() time.Time
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	planner  *DepthPlanner
	hybrid   *retrieval.Hybrid
	budgeter retrieval.Budgeter
	composer *Composer
	files    FileLinker
}

// NewEngine creates a new RAG engine.
func NewEngine(
	completer llm.Completer,
	embedder llm.Embedder,
	index retrieval.ChunkIndex,
	files FileLinker,
	opts Options,
) Engine {
	policy := retrieval.SkipOverflow
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	return &ragEngine{
		planner:  NewDepthPlanner(completer, opts.DepthTimeout, opts.MaxTopK),
		hybrid:   retrieval.NewHybrid(embedder, index, opts.Oversample),
		budgeter: retrieval.Budgeter{Limit: opts.ContextBudget, Policy: policy},
		composer: NewComposer(completer, opts.LLMTimeout, opts.Now),
		files:    files,
	}
}

// attempt is the outcome of one retrieve-and-answer pass.
type attempt struct {
	scope       storage.Scope
	search      retrieval.HybridResult
	ranked      []retrieval.Candidate
	packed      retrieval.Packed
	parsed      ParsedAnswer
	retried     bool
	retrieveDur time.Duration
	generateDur time.Duration
}

// Ask answers a question using RAG.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	ctx, span := observability.StartAskSpan(ctx, req.Scope.String())
	defer span.End()

	logger.InfoContext(ctx, "question received", "scope", req.Scope.String(), "query_length", len(req.Query))

	planStart := time.Now()
	k := e.planner.Plan(ctx, req.Query)
	planning := time.Since(planStart)
	logger.InfoContext(ctx, "retrieval depth planned", "k", k)

	first, err := e.run(ctx, req.Query, req.Scope, k)
	if err != nil {
		observability.RecordError(span, err)
		return AskResponse{}, err
	}
	attempts := []*attempt{first}
	final := first
	widened := false
	var globalErr error

	if first.parsed.NotFound && req.Scope.IsCategory() {
		logger.InfoContext(ctx, "nothing found in category, searching all documents", "category", string(req.Scope.Category))
		global, err := e.run(ctx, req.Query, storage.Unscoped(), k)
		switch {
		case err != nil && ctx.Err() != nil:
			observability.RecordError(span, err)
			return AskResponse{}, err
		case err != nil:
			// The scoped answer stands when the wider search cannot run.
			globalErr = err
			observability.RecordError(span, err)
			logger.WarnContext(ctx, "global search failed, keeping scoped answer", "error", err)
		case !global.parsed.NotFound:
			attempts = append(attempts, global)
			final = global
			widened = true
		default:
			attempts = append(attempts, global)
			logger.InfoContext(ctx, "global search found nothing either, keeping scoped answer")
		}
	}

	answer := final.parsed.Clean
	if widened {
		answer = widenedNotice(req.Scope) + "\n\n" + answer
	}

	resp := AskResponse{
		Answer:  answer,
		Sources: BuildCitations(ctx, final.packed.Included, final.parsed.Reasons, e.files),
		Widened: widened,
	}

	logger.InfoContext(ctx, "question answered",
		"k", k,
		"attempts", len(attempts),
		"widened", widened,
		"not_found", final.parsed.NotFound,
		"sources", len(resp.Sources),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if req.Debug {
		resp.Debug = buildDebugInfo(k, attempts, planning, time.Since(start))
		if globalErr != nil {
			resp.Debug.GlobalRetryError = globalErr.Error()
		}
	}
	return resp, nil
}

// run performs retrieval, re-ranking, packing and generation for one scope.
func (e *ragEngine) run(ctx context.Context, query string, scope storage.Scope, k int) (*attempt, error) {
	logger := contextutil.LoggerFromContext(ctx)
	ctx, span := observability.StartAttemptSpan(ctx, scope.String(), k)
	defer span.End()

	a := &attempt{scope: scope}

	retrievalStart := time.Now()
	search, err := e.hybrid.Search(ctx, query, scope, k)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to retrieve chunks: %w", err)
	}
	a.search = search
	a.ranked = retrieval.Diversify(search.Candidates, k)
	a.packed = e.budgeter.Pack(a.ranked)
	a.retrieveDur = time.Since(retrievalStart)

	logger.InfoContext(ctx, "context packed",
		"scope", scope.String(),
		"candidates", len(search.Candidates),
		"included", len(a.packed.Included),
		"skipped", len(a.packed.Skipped),
		"context_chars", a.packed.Chars,
	)

	if len(a.packed.Included) == 0 {
		a.parsed = ParseReply(notFoundReply())
		return a, nil
	}

	generationStart := time.Now()
	comp := e.composer.Compose(ctx, a.packed.Context, query)
	a.generateDur = time.Since(generationStart)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.retried = comp.Retried
	a.parsed = ParseReply(comp.Reply)

	logger.DebugContext(ctx, "answer parsed",
		"titles", a.parsed.Titles,
		"dropped_blocks", a.parsed.Dropped,
		"not_found", a.parsed.NotFound,
	)
	return a, nil
}

func widenedNotice(scope storage.Scope) string {
	return fmt.Sprintf("**Note:** No answer was found in the %q category, so the search was widened to all documents.", string(scope.Category))
}

func buildDebugInfo(k int, attempts []*attempt, planning, total time.Duration) *DebugInfo {
	info := &DebugInfo{
		K:               k,
		ProtocolVersion: ProtocolVersion,
		Attempts:        make([]AttemptDebug, 0, len(attempts)),
		Latency: LatencyBreakdown{
			PlanningMs: planning.Milliseconds(),
			TotalMs:    total.Milliseconds(),
		},
	}

	for _, a := range attempts {
		info.Latency.RetrievalMs += a.retrieveDur.Milliseconds()
		info.Latency.GenerationMs += a.generateDur.Milliseconds()

		included := make(map[string]bool, len(a.packed.Included))
		for _, c := range a.packed.Included {
			included[c.Chunk.ChunkID] = true
		}
		chunks := make([]RetrievedChunk, 0, len(a.ranked))
		for i, c := range a.ranked {
			chunks = append(chunks, RetrievedChunk{
				ChunkID:     c.Chunk.ChunkID,
				Title:       c.Chunk.Title,
				Page:        c.Chunk.ChunkIndex,
				ScoreFinal:  c.Score,
				Distance:    c.Distance,
				LexicalRank: c.LexicalRank,
				VectorRank:  c.VectorPos,
				KeywordRank: c.KeywordPos,
				Rank:        i + 1,
				Included:    included[c.Chunk.ChunkID],
			})
		}

		d := AttemptDebug{
			Scope:        a.scope.String(),
			VectorHits:   a.search.VectorHits,
			KeywordHits:  a.search.KeywordHits,
			Chunks:       chunks,
			ContextChars: a.packed.Chars,
			NotFound:     a.parsed.NotFound,
			Retried:      a.retried,
			DroppedCount: a.parsed.Dropped,
		}
		if a.search.VectorErr != nil {
			d.VectorError = a.search.VectorErr.Error()
		}
		if a.search.KeywordErr != nil {
			d.KeywordError = a.search.KeywordErr.Error()
		}
		info.Attempts = append(info.Attempts, d)
	}
	return info
}
