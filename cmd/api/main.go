package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"contrackt-ai/internal/app"
	"contrackt-ai/internal/config"
	"contrackt-ai/internal/contextutil"
	"contrackt-ai/internal/http"
)

// General API information
//
// This API answers questions over uploaded contract PDFs and tracks their expiry dates.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Contrackt AI API
//   description: |
//     Contract document RAG API. Upload PDFs into categories, ask questions scoped to a
//     category or a set of documents, and list contracts that expire soon.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = contextutil.WithLogger(ctx, logger)

	services, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Error("Failed to build services", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := services.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Error("Failed to close services", "error", err)
		}
	}()

	router := http.NewRouter(&http.Deps{
		ChatService:     services.Chat,
		DocumentService: services.Documents,
		MaxUploadBytes:  cfg.MaxUploadMB << 20,
		HealthChecks:    services.HealthChecks,
		Files:           services.Files,
	})

	slog.Debug("LLM configuration", "provider", cfg.LLM.Provider, "base_url", cfg.LLM.BaseURL, "model", cfg.LLM.Model)
	server := app.NewServer(":"+cfg.APIPort, router, cfg.LLM.Timeout)
	if err := server.Run(ctx); err != nil {
		logger.Error("API server stopped with error", "error", err)
		stop()
		_ = services.Close(context.Background())
		os.Exit(1)
	}
}
