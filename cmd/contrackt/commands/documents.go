package commands

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"contrackt-ai/internal/storage"
)

func newDocumentsCmd(opts *rootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"ls"},
		Short:   "List indexed contracts",
		Long: `List indexed contracts, newest first.

Examples:
  contrackt documents
  contrackt documents --category nda --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd, func(ctx context.Context, b *Backend) error {
				docs, err := b.Documents.List(ctx, category)
				if err != nil {
					return err
				}
				if opts.json {
					return writeJSON(cmd.OutOrStdout(), docs)
				}
				if len(docs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No documents.")
					return nil
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPAGES\tEFFECTIVE\tEXPIRES")
				for _, d := range docs {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
						d.ID, d.Title, d.Category, d.TotalPages, dateOrDash(d.EffectiveDate), dateOrDash(d.ExpiryDate))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Only list this category")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contract and its index entries",
		Long: `Delete a contract, its indexed pages and its stored file.

Examples:
  contrackt delete 12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid document id %q", args[0])
			}
			return opts.withBackend(cmd, func(ctx context.Context, b *Backend) error {
				if err := b.Documents.Delete(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted document %d\n", id)
				return nil
			})
		},
	}
}

func newAlertsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "List contracts expiring soon",
		Long: `List contracts that expire within the next 60 days, nearest first.
Contracts within 20 days are critical.

Examples:
  contrackt alerts
  contrackt alerts --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd, func(ctx context.Context, b *Backend) error {
				alerts, err := b.Documents.Alerts(ctx)
				if err != nil {
					return err
				}
				if opts.json {
					return writeJSON(cmd.OutOrStdout(), alerts)
				}
				if len(alerts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No contracts expire in the next 60 days.")
					return nil
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "STATUS\tDAYS\tEXPIRES\tID\tTITLE")
				for _, a := range alerts {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n",
						a.Severity, a.DaysRemaining, dateOrDash(a.Document.ExpiryDate), a.Document.ID, a.Document.Title)
				}
				return tw.Flush()
			})
		},
	}
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(storage.DateLayout)
}
