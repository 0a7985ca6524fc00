package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"contrackt-ai/cmd/contrackt/commands"
	"contrackt-ai/internal/app"
	"contrackt-ai/internal/config"
	"contrackt-ai/internal/contextutil"
)

// Version information (set by the release build)
var (
	version = "dev"
	commit  = "none"
)

func main() {
	commands.SetVersion(version, commit)
	app.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCmd(openBackend).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// openBackend loads configuration and wires the services. Logs go to stderr
// only with --verbose so command output stays clean.
func openBackend(ctx context.Context, verbose bool) (*commands.Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var w io.Writer = io.Discard
	level := cfg.LogLevel
	if verbose {
		w = os.Stderr
		level = slog.LevelDebug
	}
	logger := app.NewLogger(w, level, cfg.LogFormat)
	slog.SetDefault(logger)

	services, err := app.Build(contextutil.WithLogger(ctx, logger), cfg)
	if err != nil {
		return nil, err
	}
	return &commands.Backend{
		Chat:      services.Chat,
		Documents: services.Documents,
		Close: func() error {
			return services.Close(context.WithoutCancel(ctx))
		},
	}, nil
}
