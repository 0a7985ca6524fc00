package contextutil

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, nil)).With("request_id", "abc")

	tests := []struct {
		name       string
		ctx        context.Context
		wantCustom bool
	}{
		{name: "no logger falls back to default", ctx: context.Background()},
		{name: "logger stored in context", ctx: WithLogger(context.Background(), custom), wantCustom: true},
		{name: "wrong type is ignored", ctx: context.WithValue(context.Background(), loggerKey, "not a logger")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LoggerFromContext(tt.ctx)
			if got == nil {
				t.Fatal("LoggerFromContext() returned nil")
			}
			if (got == custom) != tt.wantCustom {
				t.Errorf("LoggerFromContext() custom = %v, want %v", got == custom, tt.wantCustom)
			}
		})
	}

	LoggerFromContext(WithLogger(context.Background(), custom)).Info("hello")
	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Errorf("logger output = %q, want request_id attribute", buf.String())
	}
}
