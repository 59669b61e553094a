package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Income   TransactionType = "INCOME"
	Expense  TransactionType = "EXPENSE"
	Transfer TransactionType = "TRANSFER"
)

// TransferCategory is the category tag every transfer carries.
const TransferCategory = "Transfer"

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense || t == Transfer
}

type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	AccountID   string          `json:"accountId"`
	ToAccountID string          `json:"toAccountId,omitempty"` // set only for transfers
	Category    string          `json:"category"`
	SubCategory string          `json:"subCategory,omitempty"`
	Amount      decimal.Decimal `json:"amount"` // always positive
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
	Note        string          `json:"note,omitempty"`
}

// Touches reports whether the transaction references the account on either side.
func (t Transaction) Touches(accountID string) bool {
	return t.AccountID == accountID || (t.Type == Transfer && t.ToAccountID == accountID)
}

// TransactionDraft is the unvalidated form of a transaction.
// Amount is either a plain number or an arithmetic expression; a zero Date
// means "now".
type TransactionDraft struct {
	Type        TransactionType `json:"type"`
	AccountID   string          `json:"accountId"`
	ToAccountID string          `json:"toAccountId,omitempty"`
	Category    string          `json:"category"`
	SubCategory string          `json:"subCategory,omitempty"`
	Amount      string          `json:"amount"`
	Date        time.Time       `json:"date"`
	Note        string          `json:"note,omitempty"`
}

// DraftOf turns a stored transaction back into a draft carrying the same values.
func DraftOf(t Transaction) TransactionDraft {
	return TransactionDraft{
		Type:        t.Type,
		AccountID:   t.AccountID,
		ToAccountID: t.ToAccountID,
		Category:    t.Category,
		SubCategory: t.SubCategory,
		Amount:      t.Amount.String(),
		Date:        t.Date,
		Note:        t.Note,
	}
}

// ExternalTransaction is one row of a bank statement.
type ExternalTransaction struct {
	ExternalID string
	Date       time.Time
	Amount     decimal.Decimal // signed: positive credits, negative debits
	Reference  string
}
