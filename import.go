package main

import (
	"fmt"

	"github.com/felo/case-outreach/internal/importer"
	"github.com/spf13/cobra"
)

var importWorkers int

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Ingest job postings from .eml files",
	Long: `Walks the import directory and stores every .eml file not seen before
as a case owned by the configured session owner. Files already imported are
skipped, so the command is safe to re-run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cfg.Data.ImportPath
		if len(args) == 1 {
			root = args[0]
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		im := importer.New(database, root, cfg.Session.Owner, logger)
		if importWorkers > 0 {
			im = im.WithConcurrency(importWorkers)
		}

		result, err := im.Import(cmd.Context(), func(current, total int, path string) {
			logger.Debug("imported", "current", current, "total", total, "file", path)
		})
		if err != nil {
			return fmt.Errorf("import %s: %w", root, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Found %d postings: %d new, %d skipped, %d failed\n",
			result.TotalFound, result.NewImported, result.Skipped, result.Failed)
		for _, f := range result.FailedFiles {
			fmt.Fprintf(cmd.OutOrStdout(), "  failed: %s\n", f)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().IntVar(&importWorkers, "workers", 0, "parallel file workers (default is 2x CPU count)")
	rootCmd.AddCommand(importCmd)
}
