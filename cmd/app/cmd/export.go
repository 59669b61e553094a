package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"zenwallet/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <ledger.xlsx>",
	Short: "Export accounts and transactions to an xlsx workbook",
	Long: `Write an xlsx workbook with an Accounts sheet and a Transactions sheet
showing every transaction with the balance before and after it.

Example:
  zenwallet export ledger.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	ledgerSvc, repo, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeRepository(repo)

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if err := export.WriteWorkbook(f, ledgerSvc.Snapshot()); err != nil {
		return err
	}
	slog.Info("ledger exported", "path", args[0])
	fmt.Printf("Exported to %s\n", args[0])
	return nil
}
