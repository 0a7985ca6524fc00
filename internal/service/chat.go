package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService contrackt-ai/internal/service ChatService

import (
	"context"
	"errors"
	"strings"
	"time"

	"contrackt-ai/internal/contextutil"
	"contrackt-ai/internal/rag"
	"contrackt-ai/internal/storage"
)

// ChatRequest represents a question in the domain layer.
type ChatRequest struct {
	Query string
	// CategoryFilter restricts the search to one category. Empty or "all" searches everything.
	CategoryFilter string
	// DocIDs restricts the search to these documents and wins over CategoryFilter.
	DocIDs []int64
	Debug  bool
}

// ChatResponse represents an answer in the domain layer.
type ChatResponse struct {
	Answer         string
	Sources        []rag.SourceCitation
	Widened        bool
	Debug          *rag.DebugInfo
	ProcessingTime time.Duration
}

// ChatService answers questions over the uploaded contracts.
type ChatService interface {
	// Ask validates the request, resolves its scope and answers it.
	Ask(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// chatService implements ChatService.
type chatService struct {
	engine rag.Engine
}

// NewChatService creates a new ChatService.
func NewChatService(engine rag.Engine) ChatService {
	return &chatService{engine: engine}
}

// Ask answers one question.
func (s *chatService) Ask(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		logger.WarnContext(ctx, "empty query in chat request")
		return ChatResponse{}, &ValidationError{Field: "query", Message: "cannot be empty"}
	}

	scope, err := storage.NewScope(req.CategoryFilter, req.DocIDs)
	if err != nil {
		logger.WarnContext(ctx, "invalid chat scope", "error", err)
		field := "category_filter"
		if errors.Is(err, storage.ErrInvalidScope) {
			field = "doc_ids"
		}
		return ChatResponse{}, &ValidationError{Field: field, Message: err.Error()}
	}

	resp, err := s.engine.Ask(ctx, rag.AskRequest{Query: query, Scope: scope, Debug: req.Debug})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ChatResponse{}, WrapError(ctxErr, "question canceled")
		}
		logger.ErrorContext(ctx, "failed to answer question", "error", err)
		return ChatResponse{}, externalError(err, "failed to answer question")
	}

	elapsed := time.Since(start)
	logger.InfoContext(ctx, "chat request processed successfully",
		"scope", scope.String(),
		"sources", len(resp.Sources),
		"widened", resp.Widened,
		"duration_ms", elapsed.Milliseconds(),
	)
	return ChatResponse{
		Answer:         resp.Answer,
		Sources:        resp.Sources,
		Widened:        resp.Widened,
		Debug:          resp.Debug,
		ProcessingTime: elapsed,
	}, nil
}
