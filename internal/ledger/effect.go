package ledger

import (
	"github.com/shopspring/decimal"

	"zenwallet/models"
)

// Effect is the signed change a transaction makes to one account's balance.
type Effect struct {
	AccountID string
	Delta     decimal.Decimal
}

// Effects is the single mapping from a transaction to balance changes:
// income adds to the source, expense subtracts from it, and a transfer
// subtracts from the source and adds to the destination.
func Effects(tx models.Transaction) []Effect {
	switch tx.Type {
	case models.Income:
		return []Effect{{AccountID: tx.AccountID, Delta: tx.Amount}}
	case models.Expense:
		return []Effect{{AccountID: tx.AccountID, Delta: tx.Amount.Neg()}}
	case models.Transfer:
		return []Effect{
			{AccountID: tx.AccountID, Delta: tx.Amount.Neg()},
			{AccountID: tx.ToAccountID, Delta: tx.Amount},
		}
	}
	return nil
}

// Reversal undoes Effects(tx).
func Reversal(tx models.Transaction) []Effect {
	effects := Effects(tx)
	for i := range effects {
		effects[i].Delta = effects[i].Delta.Neg()
	}
	return effects
}

// EffectOn returns the net change tx makes to one account, and whether the
// transaction touches it at all.
func EffectOn(tx models.Transaction, accountID string) (decimal.Decimal, bool) {
	total := decimal.Zero
	found := false
	for _, e := range Effects(tx) {
		if e.AccountID == accountID {
			total = total.Add(e.Delta)
			found = true
		}
	}
	return total, found
}
