package rag

import "contrackt-ai/internal/storage"

// AskRequest represents one question.
type AskRequest struct {
	// Query is the user's question.
	Query string
	// Scope restricts retrieval. The zero value searches every document.
	Scope storage.Scope
	// Debug enables debug mode, returning detailed retrieval information.
	Debug bool
}

// SourceCitation points at one page the answer relied on.
type SourceCitation struct {
	// Title is the document title as shown to the model.
	Title string `json:"title"`
	// Page is the 1-based chunk index.
	Page int `json:"page"`
	// Score is the fused retrieval score.
	Score float64 `json:"score"`
	// FileURL links to the stored file, nil when no link could be made.
	FileURL *string `json:"file_url"`
	// Snippet is the start of the page text with newlines collapsed.
	Snippet string `json:"snippet"`
	// Reason is the model's stated reason for using the document.
	Reason string `json:"reason"`
}

// AskResponse represents the response from a question.
type AskResponse struct {
	// Answer is the cleaned answer text.
	Answer string `json:"answer"`
	// Sources are the cited pages, in context order.
	Sources []SourceCitation `json:"sources"`
	// Widened is set when a category search found nothing and all documents were searched.
	Widened bool `json:"widened,omitempty"`
	// Debug contains debug information when debug mode is enabled.
	Debug *DebugInfo `json:"debug,omitempty"`
}

// DebugInfo contains detailed retrieval information for debugging and evaluation.
type DebugInfo struct {
	// K is the planned retrieval depth.
	K int `json:"k"`
	// ProtocolVersion is the reply grammar the answer was parsed with.
	ProtocolVersion string `json:"protocol_version"`
	// Attempts lists the scoped pass and, when it ran, the global retry.
	Attempts []AttemptDebug `json:"attempts"`
	// GlobalRetryError is set when the search over all documents failed and the
	// scoped answer was kept.
	GlobalRetryError string `json:"global_retry_error,omitempty"`
	// Latency breaks down where the time went.
	Latency LatencyBreakdown `json:"latency"`
}

// AttemptDebug describes one retrieve-and-answer pass.
type AttemptDebug struct {
	Scope        string           `json:"scope"`
	VectorHits   int              `json:"vector_hits"`
	KeywordHits  int              `json:"keyword_hits"`
	VectorError  string           `json:"vector_error,omitempty"`
	KeywordError string           `json:"keyword_error,omitempty"`
	Chunks       []RetrievedChunk `json:"chunks"`
	ContextChars int              `json:"context_chars"`
	NotFound     bool             `json:"not_found"`
	Retried      bool             `json:"half_context_retry"`
	DroppedCount int              `json:"dropped_blocks"`
}

// RetrievedChunk represents a retrieved chunk with scoring information.
type RetrievedChunk struct {
	// ChunkID is the stable chunk identifier.
	ChunkID string `json:"chunk_id"`
	// Title is the document title.
	Title string `json:"title"`
	// Page is the 1-based chunk index.
	Page int `json:"page"`
	// ScoreFinal is the fused score.
	ScoreFinal float64 `json:"score_final"`
	// Distance is the cosine distance, when vector search returned the chunk.
	Distance *float64 `json:"distance,omitempty"`
	// LexicalRank is the keyword rank, when keyword search returned the chunk.
	LexicalRank *float64 `json:"lexical_rank,omitempty"`
	// VectorRank and KeywordRank are 1-based list positions, 0 when absent.
	VectorRank  int `json:"vector_rank,omitempty"`
	KeywordRank int `json:"keyword_rank,omitempty"`
	// Rank is the position after diversity re-ranking (1-based).
	Rank int `json:"rank"`
	// Included reports whether the chunk fit in the context budget.
	Included bool `json:"included"`
}

// LatencyBreakdown is per-stage wall time in milliseconds.
type LatencyBreakdown struct {
	PlanningMs   int64 `json:"planning_ms"`
	RetrievalMs  int64 `json:"retrieval_ms"`
	GenerationMs int64 `json:"generation_ms"`
	TotalMs      int64 `json:"total_ms"`
}
