package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"

	"contrackt-ai/internal/contextutil"
	"contrackt-ai/internal/rag"
	"contrackt-ai/internal/service"
)

// ChatHandler handles HTTP requests for questions over the contract library.
type ChatHandler struct {
	chatService service.ChatService
	markdown    goldmark.Markdown
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		markdown:    newAnswerRenderer(),
	}
}

// ChatRequest represents the HTTP request payload for chat.
//
// swagger:model ChatRequest
type ChatRequest struct {
	// The question to answer
	Query string `json:"query"`

	// Restrict the search to one category (general, employee_contracts, nda, loan_agreements or all)
	CategoryFilter string `json:"category_filter,omitempty"`

	// Restrict the search to these documents. Takes precedence over category_filter.
	DocIDs []int64 `json:"doc_ids,omitempty"`
}

// ChatResponse represents the HTTP response payload for chat.
//
// swagger:model ChatResponse
type ChatResponse struct {
	// The answer as markdown
	Answer string `json:"answer"`

	// The answer rendered to HTML
	AnswerHTML string `json:"answer_html,omitempty"`

	// Pages the answer relied on
	Sources []rag.SourceCitation `json:"sources"`

	// Widened is set when a category search found nothing and every document was searched
	Widened bool `json:"widened"`

	// Processing time in seconds
	ProcessingTime float64 `json:"processing_time"`

	// Debug contains retrieval details when ?debug=true is set
	Debug *rag.DebugInfo `json:"debug,omitempty"`
}

// ServeHTTP handles HTTP requests for chat.
//
// swagger:route POST /api/chat chat askQuestion
//
// # Ask a question
//
// Answers a question from the uploaded contracts and cites the pages used.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// parameters:
//   - name: debug
//     in: query
//     type: boolean
//     required: false
//
// responses:
//
//	'200':
//	  description: Answer with sources
//	  schema:
//	    "$ref": "#/definitions/ChatResponse"
//	'400':
//	  description: Invalid request
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: Model provider failed
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	debug := false
	if debugParam := r.URL.Query().Get("debug"); debugParam != "" {
		debug = strings.ToLower(debugParam) == "true" || debugParam == "1"
	}

	svcResp, err := h.chatService.Ask(ctx, service.ChatRequest{
		Query:          req.Query,
		CategoryFilter: req.CategoryFilter,
		DocIDs:         req.DocIDs,
		Debug:          debug,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process chat request")
		return
	}

	sources := svcResp.Sources
	if sources == nil {
		sources = []rag.SourceCitation{}
	}

	html, err := renderMarkdown(h.markdown, svcResp.Answer)
	if err != nil {
		logger.WarnContext(ctx, "failed to render answer", "error", err)
	}

	writeJSON(ctx, w, http.StatusOK, ChatResponse{
		Answer:         svcResp.Answer,
		AnswerHTML:     html,
		Sources:        sources,
		Widened:        svcResp.Widened,
		ProcessingTime: svcResp.ProcessingTime.Seconds(),
		Debug:          svcResp.Debug,
	})
}
