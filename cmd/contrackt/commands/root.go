// Package commands implements the contrackt command line client.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"contrackt-ai/internal/service"
)

// Backend is what the commands need from the wired application.
type Backend struct {
	Chat      service.ChatService
	Documents service.DocumentService
	Close     func() error
}

// BackendFactory opens a Backend. It is called once per command run.
type BackendFactory func(ctx context.Context, verbose bool) (*Backend, error)

type rootOptions struct {
	open    BackendFactory
	verbose bool
	json    bool
}

// NewRootCmd creates the contrackt root command with every subcommand attached.
func NewRootCmd(open BackendFactory) *cobra.Command {
	opts := &rootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "contrackt",
		Short: "Ask questions about your contracts",
		Long: `contrackt indexes contract PDFs and answers questions about them.

It talks to the same database, vector index and file store as the API server,
configured through the same environment variables and .env file.

Examples:
  contrackt ingest employment.pdf --category employee_contracts
  contrackt ask "What is the notice period?" --category nda
  contrackt documents --category loan_agreements
  contrackt alerts`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log progress to stderr")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print results as JSON")

	cmd.AddCommand(
		newIngestCmd(opts),
		newAskCmd(opts),
		newDocumentsCmd(opts),
		newDeleteCmd(opts),
		newAlertsCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// withBackend opens the backend, runs fn and closes it again.
func (o *rootOptions) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b *Backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := o.open(ctx, o.verbose)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		if b.Close != nil {
			_ = b.Close()
		}
	}()
	return fn(ctx, b)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
