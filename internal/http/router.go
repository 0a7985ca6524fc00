package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"contrackt-ai/internal/handlers"
	"contrackt-ai/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService     service.ChatService
	DocumentService service.DocumentService
	// MaxUploadBytes caps upload bodies; <= 0 uses the service default.
	MaxUploadBytes int64
	HealthChecks   []handlers.HealthCheck
	// Files serves stored PDFs under /files/ when blobs are kept on disk. Nil disables the route.
	Files http.Handler
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	documentsHandler := handlers.NewDocumentsHandler(deps.DocumentService, deps.MaxUploadBytes)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks...)

	r.Route("/api", func(r chi.Router) {
		r.Handle("/chat", chatHandler)
		r.Post("/upload", documentsHandler.Upload)
		r.Get("/documents", documentsHandler.List)
		r.Delete("/documents/{id}", documentsHandler.Delete)
		r.Get("/alerts", documentsHandler.Alerts)
		r.Handle("/health", healthHandler)
	})

	if deps.Files != nil {
		r.Handle("/files/*", deps.Files)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("contrackt-ai\n"))
	})

	return r
}
