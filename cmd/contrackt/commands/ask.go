package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"contrackt-ai/internal/service"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		category string
		docIDs   []int64
		debug    bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the indexed contracts",
		Long: `Ask a question and print the answer with the pages it cites.

A category search that finds nothing is retried over all documents.
Document IDs take precedence over --category.

Examples:
  contrackt ask "When does the loan mature?"
  contrackt ask "What is the non-compete period?" --category employee_contracts
  contrackt ask "Who are the parties?" --doc 3 --doc 4
  contrackt ask "Termination terms" --debug --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd, func(ctx context.Context, b *Backend) error {
				resp, err := b.Chat.Ask(ctx, service.ChatRequest{
					Query:          strings.Join(args, " "),
					CategoryFilter: category,
					DocIDs:         docIDs,
					Debug:          debug,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if opts.json {
					return writeJSON(out, resp)
				}

				fmt.Fprintln(out, resp.Answer)
				if len(resp.Sources) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, "Sources:")
					for _, s := range resp.Sources {
						fmt.Fprintf(out, "  - %s, page %d", s.Title, s.Page)
						if s.Reason != "" {
							fmt.Fprintf(out, ": %s", s.Reason)
						}
						fmt.Fprintln(out)
					}
				}
				fmt.Fprintf(out, "\n(%.1fs)\n", resp.ProcessingTime.Seconds())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Restrict the search to one category")
	cmd.Flags().Int64SliceVar(&docIDs, "doc", nil, "Restrict the search to these document IDs")
	cmd.Flags().BoolVar(&debug, "debug", false, "Include retrieval details (with --json)")
	return cmd
}
