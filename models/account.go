package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType is the kind of place money is kept in.
type AccountType string

const (
	AccountBank    AccountType = "BANK"
	AccountCash    AccountType = "CASH"
	AccountCrypto  AccountType = "CRYPTO"
	AccountSavings AccountType = "SAVINGS"
	AccountCredit  AccountType = "CREDIT"
	AccountOther   AccountType = "OTHER"
)

// ParseAccountType accepts the type names case-insensitively.
func ParseAccountType(s string) (AccountType, bool) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case AccountBank, AccountCash, AccountCrypto, AccountSavings, AccountCredit, AccountOther:
		return t, true
	}
	return "", false
}

type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	Balance        decimal.Decimal `json:"balance"`
	OpeningBalance decimal.Decimal `json:"openingBalance"` // balance before any logged transaction
	Currency       string          `json:"currency"`
	Color          string          `json:"color"` // hex color code
}

// AccountDraft carries user input for creating or editing an account.
// OpeningBalance is raw text, parsed the same way as transaction amounts
// but allowed to be zero or negative.
type AccountDraft struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Currency       string `json:"currency"`
	Color          string `json:"color"`
	OpeningBalance string `json:"openingBalance"`
}
