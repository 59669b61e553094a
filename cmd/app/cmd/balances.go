package cmd

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"zenwallet/internal/util"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "List accounts with their balances",
	Long: `List every account with its current balance, followed by the total
per currency. Currencies are never converted into each other.

Example:
  zenwallet balances`,
	RunE: runBalances,
}

func runBalances(cmd *cobra.Command, args []string) error {
	ledgerSvc, repo, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer closeRepository(repo)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tTYPE\tBALANCE")
	for _, a := range ledgerSvc.Snapshot().Accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.Name, a.Type, util.FormatAmount(a.Balance, a.Currency))
	}
	fmt.Fprintln(w, "\t\t")
	totals := ledgerSvc.TotalsByCurrency()
	for _, code := range slices.Sorted(maps.Keys(totals)) {
		fmt.Fprintf(w, "TOTAL %s\t\t%s\n", code, util.FormatAmount(totals[code], code))
	}
	return w.Flush()
}
