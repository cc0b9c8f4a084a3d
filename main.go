package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/felo/case-outreach/internal/compose"
	"github.com/felo/case-outreach/internal/config"
	"github.com/felo/case-outreach/internal/db"
	"github.com/felo/case-outreach/internal/mailer"
	"github.com/felo/case-outreach/internal/outreach"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "case-outreach",
	Short: "Bulk outreach to job posting contacts",
	Long: `case-outreach keeps job postings (cases) and engineers in a local
database and sends templated messages to the contacts of selected cases.

Delivery is simulated: messages are composed in full and recorded in the
outbox instead of being handed to an SMTP relay.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CASE_OUTREACH_HOME/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// openDatabase opens the configured database, creating its directory first
func openDatabase() (*db.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Data.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	database, err := db.Open(cfg.Data.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("database opened", "path", cfg.Data.DBPath)
	return database, nil
}

// newSession wires the outreach session to the database and the simulated
// sender
func newSession(database *db.DB, catalogue *compose.Catalogue) *outreach.Session {
	sender := mailer.NewSimulated(database, mailer.Options{
		Owner:         cfg.Session.Owner,
		FromAddress:   cfg.Mail.FromAddress,
		FromName:      cfg.Mail.FromName,
		TestAddress:   cfg.Mail.TestAddress,
		Delay:         cfg.Mail.SendDelay.Duration,
		RatePerSecond: cfg.Mail.RatePerSecond,
		Workers:       cfg.Mail.Workers,
		Logger:        logger,
	})

	return outreach.NewSession(cfg.Session.Owner, cfg.Session.PageSize, outreach.Deps{
		Cases:     database,
		Engineers: database,
		Sender:    sender,
		Templates: compose.NewEngine(catalogue),
		Logger:    logger,
	})
}
