package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"contrackt-ai/internal/contextutil"
)

// ShutdownTimeout bounds how long in-flight requests get after a stop signal.
const ShutdownTimeout = 30 * time.Second

// Server runs the HTTP API until its context is canceled.
type Server struct {
	server *http.Server
}

// NewServer creates a server listening on addr. The write timeout leaves room
// for the answer model, which can take minutes on long contexts.
func NewServer(addr string, handler http.Handler, llmTimeout time.Duration) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       2 * time.Minute,
			WriteTimeout:      3*llmTimeout + time.Minute,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	errChan := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting API server", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.InfoContext(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	logger.InfoContext(ctx, "API server stopped gracefully")
	return nil
}
