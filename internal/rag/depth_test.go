package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"contrackt-ai/internal/llm"
	"contrackt-ai/internal/llm/mocks"
)

func TestParseDepth(t *testing.T) {
	tests := []struct {
		reply  string
		want   int
		wantOK bool
	}{
		{reply: "10", want: 10, wantOK: true},
		{reply: " 600\n", want: 600, wantOK: true},
		{reply: "top_k = 50 or 60", want: 50, wantOK: true},
		{reply: "2", want: MinDepth, wantOK: true},
		{reply: "0", want: MinDepth, wantOK: true},
		{reply: "5000", want: 1000, wantOK: true},
		{reply: "99999999999999999999999", want: 1000, wantOK: true},
		{reply: "many", wantOK: false},
		{reply: "", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := parseDepth(tt.reply, 1000)
		if ok != tt.wantOK {
			t.Errorf("parseDepth(%q) ok = %v, want %v", tt.reply, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("parseDepth(%q) = %d, want %d", tt.reply, got, tt.want)
		}
	}
}

func TestDepthPlanner_Plan(t *testing.T) {
	tests := []struct {
		name     string
		maxDepth int
		reply    string
		err      error
		want     int
	}{
		{name: "narrow question", reply: "10", want: 10},
		{name: "broad question", reply: "600", want: 600},
		{name: "clamped to configured max", maxDepth: 100, reply: "600", want: 100},
		{name: "model error", err: &llm.ProviderError{Provider: "openai", Op: "chat", StatusCode: 500, Err: errors.New("boom")}, want: DefaultDepth},
		{name: "no integer", reply: "a lot", want: DefaultDepth},
		{name: "default respects small max", maxDepth: 8, reply: "n/a", want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			completer := mocks.NewMockCompleter(ctrl)
			completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, req llm.CompletionRequest) (string, error) {
					if req.Temperature != 0 {
						t.Errorf("Temperature = %v, want 0", req.Temperature)
					}
					if req.MaxTokens != 10 {
						t.Errorf("MaxTokens = %d, want 10", req.MaxTokens)
					}
					if req.UserPrompt != "List all loan agreements" {
						t.Errorf("UserPrompt = %q", req.UserPrompt)
					}
					return tt.reply, tt.err
				})

			got := NewDepthPlanner(completer, time.Second, tt.maxDepth).Plan(context.Background(), "List all loan agreements")
			if got != tt.want {
				t.Errorf("Plan() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDepthPlanner_AppliesTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ llm.CompletionRequest) (string, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected a deadline on the planner call")
			}
			<-ctx.Done()
			return "", ctx.Err()
		})

	got := NewDepthPlanner(completer, 20*time.Millisecond, 0).Plan(context.Background(), "q")
	if got != DefaultDepth {
		t.Errorf("Plan() = %d, want %d", got, DefaultDepth)
	}
}
