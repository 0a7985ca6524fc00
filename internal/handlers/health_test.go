package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeCollections struct {
	exists bool
	err    error
}

func (f fakeCollections) CollectionExists(context.Context, string) (bool, error) {
	return f.exists, f.err
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	dbOK := HealthCheck{Name: "database", Check: func(context.Context) error { return nil }}
	dbDown := HealthCheck{Name: "database", Check: func(context.Context) error { return errors.New("connection refused") }}

	tests := []struct {
		name       string
		method     string
		checks     []HealthCheck
		wantStatus int
		wantBody   HealthResponse
	}{
		{
			name:       "all healthy",
			method:     http.MethodGet,
			checks:     []HealthCheck{dbOK, VectorStoreCheck(fakeCollections{exists: true}, "contract_chunks")},
			wantStatus: http.StatusOK,
			wantBody: HealthResponse{
				Status: "healthy",
				Checks: map[string]string{"database": "ok", "vector_store": "ok"},
			},
		},
		{
			name:       "missing collection",
			method:     http.MethodGet,
			checks:     []HealthCheck{dbOK, VectorStoreCheck(fakeCollections{}, "contract_chunks")},
			wantStatus: http.StatusServiceUnavailable,
			wantBody: HealthResponse{
				Status: "unhealthy",
				Checks: map[string]string{"database": "ok", "vector_store": "error"},
				Issues: []string{"vector_store_unavailable"},
			},
		},
		{
			name:       "database down",
			method:     http.MethodGet,
			checks:     []HealthCheck{dbDown},
			wantStatus: http.StatusServiceUnavailable,
			wantBody: HealthResponse{
				Status: "unhealthy",
				Checks: map[string]string{"database": "error"},
				Issues: []string{"database_unavailable"},
			},
		},
		{
			name:       "method not allowed",
			method:     http.MethodPost,
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.checks...)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, "/api/health", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusMethodNotAllowed {
				return
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantBody.Status {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantBody.Status)
			}
			if resp.Timestamp == "" {
				t.Error("timestamp missing")
			}
			for name, want := range tt.wantBody.Checks {
				if resp.Checks[name] != want {
					t.Errorf("checks[%s] = %q, want %q", name, resp.Checks[name], want)
				}
			}
			if len(resp.Issues) != len(tt.wantBody.Issues) {
				t.Errorf("issues = %v, want %v", resp.Issues, tt.wantBody.Issues)
			}
		})
	}
}

func TestPingCheck(t *testing.T) {
	check := PingCheck("database", pingFunc(func(context.Context) error { return errors.New("down") }))
	if check.Name != "database" || check.Check(context.Background()) == nil {
		t.Errorf("PingCheck() = %+v", check)
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }
