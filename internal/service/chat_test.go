package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"go.uber.org/mock/gomock"

	"contrackt-ai/internal/rag"
	ragmocks "contrackt-ai/internal/rag/mocks"
	"contrackt-ai/internal/service"
	"contrackt-ai/internal/storage"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// testContext returns a context for testing.
// The default logger is already set to discard in init().
func testContext() context.Context {
	return context.Background()
}

func TestNewChatService(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := service.NewChatService(ragmocks.NewMockEngine(ctrl))
	if svc == nil {
		t.Fatal("NewChatService() returned nil")
	}
}

func TestChatService_Ask(t *testing.T) {
	ndaScope := storage.Scope{Kind: storage.ScopeCategory, Category: storage.CategoryNDA}
	docScope := storage.Scope{Kind: storage.ScopeDocuments, DocumentIDs: []int64{3, 4}}

	tests := []struct {
		name       string
		req        service.ChatRequest
		wantScope  *storage.Scope
		engineResp rag.AskResponse
		engineErr  error
		wantErr    func(error) bool
		wantAnswer string
	}{
		{
			name:       "unscoped question",
			req:        service.ChatRequest{Query: "  What is the notice period?  "},
			wantScope:  &storage.Scope{Kind: storage.ScopeAll},
			engineResp: rag.AskResponse{Answer: "60 days"},
			wantAnswer: "60 days",
		},
		{
			name:       "category scope",
			req:        service.ChatRequest{Query: "q", CategoryFilter: "nda"},
			wantScope:  &ndaScope,
			engineResp: rag.AskResponse{Answer: "a", Widened: true},
			wantAnswer: "a",
		},
		{
			name:       "document ids win over category",
			req:        service.ChatRequest{Query: "q", CategoryFilter: "nda", DocIDs: []int64{3, 4, 3}},
			wantScope:  &docScope,
			engineResp: rag.AskResponse{Answer: "b"},
			wantAnswer: "b",
		},
		{
			name:       "all means unscoped",
			req:        service.ChatRequest{Query: "q", CategoryFilter: "all"},
			wantScope:  &storage.Scope{Kind: storage.ScopeAll},
			engineResp: rag.AskResponse{Answer: "c"},
			wantAnswer: "c",
		},
		{
			name:    "empty query",
			req:     service.ChatRequest{Query: "   "},
			wantErr: validationOn("query"),
		},
		{
			name:    "unknown category",
			req:     service.ChatRequest{Query: "q", CategoryFilter: "leases"},
			wantErr: validationOn("category_filter"),
		},
		{
			name:    "bad document id",
			req:     service.ChatRequest{Query: "q", DocIDs: []int64{0}},
			wantErr: validationOn("doc_ids"),
		},
		{
			name:      "engine failure",
			req:       service.ChatRequest{Query: "q"},
			wantScope: &storage.Scope{Kind: storage.ScopeAll},
			engineErr: errors.New("hybrid search failed"),
			wantErr: func(err error) bool {
				return errors.Is(err, service.ErrExternalService)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			engine := ragmocks.NewMockEngine(ctrl)
			if tt.wantScope != nil {
				engine.EXPECT().Ask(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req rag.AskRequest) (rag.AskResponse, error) {
						if req.Scope.Kind != tt.wantScope.Kind || req.Scope.Category != tt.wantScope.Category ||
							len(req.Scope.DocumentIDs) != len(tt.wantScope.DocumentIDs) {
							t.Errorf("scope = %+v, want %+v", req.Scope, *tt.wantScope)
						}
						if req.Query != "q" && req.Query != "What is the notice period?" {
							t.Errorf("query = %q, want trimmed", req.Query)
						}
						return tt.engineResp, tt.engineErr
					})
			}

			resp, err := service.NewChatService(engine).Ask(testContext(), tt.req)
			if tt.wantErr != nil {
				if err == nil || !tt.wantErr(err) {
					t.Fatalf("Ask() error = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Ask() unexpected error: %v", err)
			}
			if resp.Answer != tt.wantAnswer || resp.Widened != tt.engineResp.Widened {
				t.Errorf("Ask() = %+v", resp)
			}
		})
	}
}

func TestChatService_Ask_Canceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)

	ctx, cancel := context.WithCancel(testContext())
	engine.EXPECT().Ask(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, rag.AskRequest) (rag.AskResponse, error) {
			cancel()
			return rag.AskResponse{}, context.Canceled
		})

	_, err := service.NewChatService(engine).Ask(ctx, service.ChatRequest{Query: "q"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Ask() error = %v, want context.Canceled", err)
	}
	if errors.Is(err, service.ErrExternalService) {
		t.Error("a canceled question is not an external service failure")
	}
}

func validationOn(field string) func(error) bool {
	return func(err error) bool {
		var validationErr *service.ValidationError
		return errors.As(err, &validationErr) && validationErr.Field == field
	}
}
