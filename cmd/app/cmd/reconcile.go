package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"zenwallet/internal/service"
	"zenwallet/internal/util"
)

var reconcileAccount string

var reconcileCmd = &cobra.Command{
	Use:   "reconcile --account <name> <statement.csv>",
	Short: "Reconcile an account against a bank statement",
	Long: `Match a bank statement (CSV with id, date, amount and optional
reference columns; debits negative) against the account's transactions.
Entries are matched by signed amount within a few days; same-day entries
in the same direction with different amounts are listed as mismatches.

Example:
  zenwallet reconcile --account Checking statement.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileAccount, "account", "", "account name or id")
	_ = reconcileCmd.MarkFlagRequired("account")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ledgerSvc, repo, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeRepository(repo)

	accountID := reconcileAccount
	for _, a := range ledgerSvc.Snapshot().Accounts {
		if strings.EqualFold(a.Name, reconcileAccount) {
			accountID = a.ID
			break
		}
	}

	statement, err := util.NewCSVDataLoader(slog.Default()).LoadExternalTransactions(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	report, err := service.NewReconciliationService(ledgerSvc).ReconcileStatement(accountID, statement)
	if err != nil {
		return err
	}
	report.Write(os.Stdout)
	return nil
}
