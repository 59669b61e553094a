// Command binlog_consumer follows the ledger tables in the MySQL binlog and
// logs every row change.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"zenwallet/internal/binlog"
	"zenwallet/internal/config"
	"zenwallet/internal/logging"
)

func main() {
	envFile := flag.String("env", "", "env file (default is .env)")
	checkpoint := flag.String("checkpoint", "./data/binlog_checkpoint.json", "file holding the last committed position")
	flag.Parse()

	var paths []string
	if *envFile != "" {
		paths = append(paths, *envFile)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger, closer := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, JSON: true})
	defer closer.Close()
	slog.SetDefault(logger)

	if cfg.Binlog.Password == "" {
		logger.Error("MYSQL_REPLICATOR_PASSWORD not set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := binlog.NewWatcher(cfg.Binlog, binlog.FileCheckpoint(*checkpoint), logger)
	if err := w.Run(ctx, logChange(logger)); err != nil {
		logger.Error("binlog consumer stopped", "error", err)
		os.Exit(1)
	}
}

// logChange logs one line per change. Balance updates on accounts also log
// the difference.
func logChange(logger *slog.Logger) binlog.Handler {
	return func(ctx context.Context, c binlog.Change) error {
		attrs := []any{"action", c.Action, "table", c.Table, "key", c.Key()}
		if c.Table == "accounts" && c.Action == binlog.Update {
			after, err := c.Decimal("balance")
			if err != nil {
				return err
			}
			prev, err := c.PreviousDecimal("balance")
			if err != nil {
				return err
			}
			attrs = append(attrs, "balance", after.String(), "delta", after.Sub(prev).String())
		}
		logger.InfoContext(ctx, "ledger row changed", attrs...)
		return nil
	}
}
