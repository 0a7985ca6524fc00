package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"contrackt-ai/internal/indexer"
	"contrackt-ai/internal/service"
	"contrackt-ai/internal/storage"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "ingest <file.pdf|folder>...",
		Short: "Upload and index contract PDFs",
		Long: `Upload one or more PDFs, index every page with enough text and extract
the effective and expiry dates.

Folders are scanned for PDFs. A file under a folder named after a category
(for example contracts/nda/acme.pdf) goes into that category unless
--category is given.

Examples:
  contrackt ingest nda.pdf --category nda
  contrackt ingest ./contracts`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit := cmd.Flags().Changed("category")

			return opts.withBackend(cmd, func(ctx context.Context, b *Backend) error {
				files, err := collectFiles(ctx, args)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				var failed int
				for _, f := range files {
					data, err := os.ReadFile(f.AbsPath)
					if err != nil {
						return fmt.Errorf("failed to read %s: %w", f.AbsPath, err)
					}

					cat := category
					if !explicit && f.Category != "" {
						cat = string(f.Category)
					}
					report, err := b.Documents.Upload(ctx, service.UploadRequest{
						Filename: filepath.Base(f.AbsPath),
						Category: cat,
						Data:     data,
					})
					if err != nil {
						failed++
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", f.AbsPath, err)
						continue
					}

					if opts.json {
						if err := writeJSON(out, report); err != nil {
							return err
						}
						continue
					}
					doc := report.Document
					fmt.Fprintf(out, "Indexed %s (id %d, %s): %d of %d pages",
						doc.Title, doc.ID, doc.Category, report.PagesIndexed, report.PagesTotal)
					if doc.ExpiryDate != nil {
						fmt.Fprintf(out, ", expires %s", doc.ExpiryDate.Format(storage.DateLayout))
					}
					fmt.Fprintln(out)
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d files failed", failed, len(files))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "general", "Document category (general, employee_contracts, nda, loan_agreements)")
	return cmd
}

// collectFiles expands folder arguments into the PDFs they contain.
func collectFiles(ctx context.Context, args []string) ([]indexer.ScannedFile, error) {
	var files []indexer.ScannedFile
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, indexer.ScannedFile{RelPath: filepath.Base(arg), AbsPath: arg})
			continue
		}
		scanned, err := indexer.ScanPDFs(ctx, arg)
		if err != nil {
			return nil, err
		}
		if len(scanned) == 0 {
			return nil, fmt.Errorf("no PDF files found in %s", arg)
		}
		files = append(files, scanned...)
	}
	return files, nil
}
