package repository

import (
	"context"
	"database/sql"
	"fmt"

	"zenwallet/models"
)

// loadAccounts reads the accounts table in stored order.
func loadAccounts(ctx context.Context, q queryer) ([]models.Account, error) {
	query := "SELECT id, name, account_type, balance, opening_balance, currency, color FROM accounts ORDER BY position"
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("loadAccounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var acc models.Account
		var accType string
		if err := rows.Scan(&acc.ID, &acc.Name, &accType, &acc.Balance, &acc.OpeningBalance, &acc.Currency, &acc.Color); err != nil {
			return nil, fmt.Errorf("loadAccounts: scan error: %w", err)
		}
		acc.Type = models.AccountType(accType)
		accounts = append(accounts, acc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("loadAccounts: rows iteration error: %w", err)
	}
	return accounts, nil
}

// saveAccounts makes the accounts table match accounts: changed rows are
// updated in place, new rows inserted and rows no longer present deleted.
func saveAccounts(ctx context.Context, tx *sql.Tx, accounts []models.Account) error {
	stored, err := storedIDs(ctx, tx, "accounts")
	if err != nil {
		return fmt.Errorf("saveAccounts: %w", err)
	}

	keep := make(map[string]bool, len(accounts))
	for i, acc := range accounts {
		keep[acc.ID] = true
		if stored[acc.ID] {
			query := "UPDATE accounts SET position = ?, name = ?, account_type = ?, balance = ?, opening_balance = ?, currency = ?, color = ? WHERE id = ?"
			_, err = tx.ExecContext(ctx, query, i, acc.Name, string(acc.Type), acc.Balance, acc.OpeningBalance, acc.Currency, acc.Color, acc.ID)
		} else {
			query := "INSERT INTO accounts (id, position, name, account_type, balance, opening_balance, currency, color) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
			_, err = tx.ExecContext(ctx, query, acc.ID, i, acc.Name, string(acc.Type), acc.Balance, acc.OpeningBalance, acc.Currency, acc.Color)
		}
		if err != nil {
			return fmt.Errorf("saveAccounts: account %s: %w", acc.ID, err)
		}
	}

	if err := deleteStale(ctx, tx, "accounts", stored, keep); err != nil {
		return fmt.Errorf("saveAccounts: %w", err)
	}
	return nil
}
