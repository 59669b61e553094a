package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"zenwallet/internal/service"
)

var errUnbalanced = errors.New("stored balances drift from their history")

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check stored balances against the transaction log",
	Long: `Recompute every balance as opening balance plus the effects of all
transactions and report drift and transactions that reference deleted
accounts. Exits non-zero when any balance drifts.

Example:
  zenwallet audit`,
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	ledgerSvc, repo, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeRepository(repo)

	report := service.NewReconciliationService(ledgerSvc).AuditBalances()
	report.Write(os.Stdout)
	if !report.Balanced() {
		return errUnbalanced
	}
	return nil
}
