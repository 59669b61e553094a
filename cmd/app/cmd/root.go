// Package cmd provides the zenwallet CLI commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"zenwallet/internal/config"
	"zenwallet/internal/db"
	"zenwallet/internal/logging"
	"zenwallet/internal/service"
	"zenwallet/internal/util"
	"zenwallet/repository"
)

var (
	envFile  string
	debug    bool
	jsonLogs bool

	cfg       config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "zenwallet",
	Short: "Personal ledger with running balances and reconciliation",
	Long: `zenwallet keeps accounts, categories and a transaction log whose
effects always add up to the stored balances.

Example:
  zenwallet serve
  zenwallet import transactions.csv
  zenwallet reconcile --account Checking statement.csv`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var paths []string
		if envFile != "" {
			paths = append(paths, envFile)
		}
		var err error
		cfg, err = config.Load(paths...)
		if err != nil {
			return err
		}
		if debug {
			cfg.LogLevel = slog.LevelDebug
		}
		var logger *slog.Logger
		logger, logCloser = logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, JSON: jsonLogs})
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "log as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(balancesCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(reconcileCmd)
}

// openRepository returns the store selected by LEDGER_STORE.
func openRepository(ctx context.Context, c config.Config) (repository.StateRepository, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Store == config.StoreBolt {
		slog.Debug("opening bolt store", "path", c.BoltPath)
		return repository.NewBoltStateRepository(c.BoltPath)
	}
	slog.Debug("opening sql store", "store", c.Store)
	conn, err := db.Connect(ctx, c)
	if err != nil {
		return nil, err
	}
	return repository.NewSQLStateRepository(conn), nil
}

// openLedger loads the stored ledger, seeding an empty store first. The
// caller closes the returned repository.
func openLedger(ctx context.Context) (service.LedgerService, repository.StateRepository, error) {
	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	opts := service.Options{Logger: slog.Default(), NewID: uuid.NewString}
	seed, err := util.LoadSeed(cfg.SeedFile, opts.NewID, time.Now())
	if err != nil {
		_ = repo.Close()
		return nil, nil, fmt.Errorf("failed to load seed: %w", err)
	}
	svc, err := service.Open(ctx, repo, seed, opts)
	if err != nil {
		_ = repo.Close()
		return nil, nil, err
	}
	return svc, repo, nil
}

func closeRepository(repo repository.StateRepository) {
	if err := repo.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
}
