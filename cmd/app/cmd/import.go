package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"zenwallet/internal/util"
)

var importCmd = &cobra.Command{
	Use:   "import <transactions.csv>",
	Short: "Import transactions from a CSV file",
	Long: `Import transactions from a CSV file with the columns
type, account, amount and optionally to_account, category, sub_category,
date and note. Accounts may be given by name or id. Rows that fail
validation are reported and skipped; the rest are recorded.

Example:
  zenwallet import march.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	ledgerSvc, repo, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeRepository(repo)

	drafts, err := util.NewCSVDataLoader(slog.Default()).LoadDrafts(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	util.ResolveAccountRefs(drafts, ledgerSvc.Snapshot().Accounts)

	result, err := ledgerSvc.Import(cmd.Context(), drafts)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d of %d transactions\n", len(result.Created), len(drafts))
	for _, r := range result.Rejected {
		fmt.Printf("  row %d: %v\n", r.Row, r.Err)
	}
	return nil
}
