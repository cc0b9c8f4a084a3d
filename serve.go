package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/felo/case-outreach/internal/compose"
	"github.com/felo/case-outreach/internal/db"
	"github.com/felo/case-outreach/internal/handlers"
	"github.com/felo/case-outreach/internal/importer"
	"github.com/spf13/cobra"
)

var (
	serveOpen   bool
	serveImport bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the outreach HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		if serveImport {
			importOnStartup(ctx, database)
		}

		catalogue, err := compose.NewCatalogue(cfg.Templates...)
		if err != nil {
			return fmt.Errorf("load templates: %w", err)
		}

		session := newSession(database, catalogue)
		if err := session.Refresh(); err != nil {
			return err
		}

		h := handlers.New(database, cfg, session, catalogue, logger)

		srv := &http.Server{
			Addr:         cfg.Address(),
			Handler:      h.Router(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 5 * time.Minute, // SSE import progress
			IdleTimeout:  60 * time.Second,
		}

		errChan := make(chan error, 1)
		go func() {
			logger.Info("starting server", "url", cfg.URL())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		if serveOpen {
			time.Sleep(500 * time.Millisecond) // Give server time to start
			if err := openBrowser(cfg.URL()); err != nil {
				logger.Warn("failed to open browser", "url", cfg.URL(), "error", err)
			}
		}

		select {
		case err := <-errChan:
			return fmt.Errorf("server failed: %w", err)
		case <-ctx.Done():
		}

		logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	},
}

// importOnStartup ingests postings before serving. Failures are logged and
// do not stop the server.
func importOnStartup(ctx context.Context, database *db.DB) {
	if _, err := os.Stat(cfg.Data.ImportPath); os.IsNotExist(err) {
		logger.Info("import directory not found, skipping import", "path", cfg.Data.ImportPath)
		return
	}

	result, err := importer.New(database, cfg.Data.ImportPath, cfg.Session.Owner, logger).Import(ctx, nil)
	if err != nil {
		logger.Warn("import failed", "error", err)
		return
	}
	logger.Info("import complete", "new", result.NewImported, "skipped", result.Skipped, "failed", result.Failed)
}

// openBrowser opens the default browser to the specified URL
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}

func init() {
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "open the API base URL in a browser")
	serveCmd.Flags().BoolVar(&serveImport, "import", false, "ingest postings from the import directory before serving")
	rootCmd.AddCommand(serveCmd)
}
