package ledger

import (
	"slices"

	"github.com/shopspring/decimal"

	"zenwallet/models"
)

// Perspective keys a pre-balance: the same transfer seen from its source and
// from its destination are two entries.
type Perspective struct {
	TransactionID string
	AccountID     string
}

// ComputePreBalances walks the log newest-first from the current account
// balances and undoes one transaction at a time. The balance an account held
// right before a transaction is recorded under (transaction, account).
// Legs whose account is missing from accounts get no entry.
func ComputePreBalances(txs []models.Transaction, accounts []models.Account) map[Perspective]decimal.Decimal {
	running := make(map[string]decimal.Decimal, len(accounts))
	for _, a := range accounts {
		running[a.ID] = a.Balance
	}

	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b models.Transaction) int {
		return b.Date.Compare(a.Date)
	})

	pre := make(map[Perspective]decimal.Decimal, len(sorted))
	for _, tx := range sorted {
		for _, e := range Effects(tx) {
			bal, ok := running[e.AccountID]
			if !ok {
				continue
			}
			before := bal.Sub(e.Delta)
			pre[Perspective{TransactionID: tx.ID, AccountID: e.AccountID}] = before
			running[e.AccountID] = before
		}
	}
	return pre
}

// Row is one line of an account ledger view.
type Row struct {
	Transaction models.Transaction `json:"transaction"`
	AccountID   string             `json:"accountId"`
	Delta       decimal.Decimal    `json:"delta"`
	Before      decimal.Decimal    `json:"before"`
	After       decimal.Decimal    `json:"after"`
	// Known is false when the perspective account no longer exists.
	Known bool `json:"known"`
}

// Rows lists the transactions touching any of the selected accounts, newest
// first, each annotated from one perspective. A transfer between two selected
// accounts is shown from its source. An empty selection means every account.
func Rows(txs []models.Transaction, accounts []models.Account, selected []string) []Row {
	pre := ComputePreBalances(txs, accounts)

	include := func(id string) bool {
		return len(selected) == 0 || slices.Contains(selected, id)
	}

	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b models.Transaction) int {
		return b.Date.Compare(a.Date)
	})

	rows := []Row{}
	for _, tx := range sorted {
		var accountID string
		switch {
		case include(tx.AccountID):
			accountID = tx.AccountID
		case tx.Type == models.Transfer && include(tx.ToAccountID):
			accountID = tx.ToAccountID
		default:
			continue
		}
		delta, _ := EffectOn(tx, accountID)
		row := Row{Transaction: tx, AccountID: accountID, Delta: delta}
		if before, ok := pre[Perspective{TransactionID: tx.ID, AccountID: accountID}]; ok {
			row.Before = before
			row.After = before.Add(delta)
			row.Known = true
		}
		rows = append(rows, row)
	}
	return rows
}
