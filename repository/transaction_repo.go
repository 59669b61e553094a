package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"zenwallet/models"
)

// loadTransactions reads the transactions table in log order (newest
// inserted first, lowest position first).
func loadTransactions(ctx context.Context, q queryer) ([]models.Transaction, error) {
	stored, err := queryTransactions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("loadTransactions: %w", err)
	}
	transactions := make([]models.Transaction, len(stored))
	for i, row := range stored {
		transactions[i] = row.Transaction
	}
	return transactions, nil
}

type storedTransaction struct {
	models.Transaction
	position int
}

func queryTransactions(ctx context.Context, q queryer) ([]storedTransaction, error) {
	query := `
		SELECT id, position, transaction_type, account_id, to_account_id, category,
		       sub_category, amount, currency, occurred_at, note
		FROM transactions
		ORDER BY position`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stored := []storedTransaction{}
	for rows.Next() {
		var (
			row                          storedTransaction
			txType, occurredAt           string
			toAccount, subCategory, note sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.position, &txType, &row.AccountID, &toAccount, &row.Category,
			&subCategory, &row.Amount, &row.Currency, &occurredAt, &note); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		date, err := time.Parse(time.RFC3339Nano, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: bad date %q: %w", row.ID, occurredAt, err)
		}
		row.Type = models.TransactionType(txType)
		row.ToAccountID = toAccount.String
		row.SubCategory = subCategory.String
		row.Note = note.String
		row.Date = date
		stored = append(stored, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return stored, nil
}

// transactionPositions assigns each transaction a position so that
// ascending position is log order. Stored rows keep their position while it
// still sorts correctly, so a save that prepends a transaction leaves every
// older row alone; new rows get one less than the row inserted before them.
func transactionPositions(transactions []models.Transaction, stored map[string]int) []int {
	positions := make([]int, len(transactions))
	last, have := 0, false
	for i := len(transactions) - 1; i >= 0; i-- {
		pos, ok := stored[transactions[i].ID]
		switch {
		case ok && (!have || pos < last):
		case have:
			pos = last - 1
		default:
			pos = 0
		}
		positions[i] = pos
		last, have = pos, true
	}
	return positions
}

func sameTransaction(a, b models.Transaction) bool {
	return a.ID == b.ID && a.Type == b.Type && a.AccountID == b.AccountID &&
		a.ToAccountID == b.ToAccountID && a.Category == b.Category &&
		a.SubCategory == b.SubCategory && a.Amount.Equal(b.Amount) &&
		a.Currency == b.Currency && a.Date.Equal(b.Date) && a.Note == b.Note
}

// saveTransactions writes only rows that are new or differ from the stored
// copy, then deletes rows no longer in the log.
func saveTransactions(ctx context.Context, tx *sql.Tx, transactions []models.Transaction) error {
	rows, err := queryTransactions(ctx, tx)
	if err != nil {
		return fmt.Errorf("saveTransactions: %w", err)
	}
	stored := make(map[string]storedTransaction, len(rows))
	storedPos := make(map[string]int, len(rows))
	existing := make(map[string]bool, len(rows))
	for _, row := range rows {
		stored[row.ID] = row
		storedPos[row.ID] = row.position
		existing[row.ID] = true
	}

	positions := transactionPositions(transactions, storedPos)
	keep := make(map[string]bool, len(transactions))
	for i, t := range transactions {
		keep[t.ID] = true
		old, ok := stored[t.ID]
		if ok && old.position == positions[i] && sameTransaction(old.Transaction, t) {
			continue
		}
		args := []any{
			positions[i], string(t.Type), t.AccountID, nullString(t.ToAccountID), t.Category,
			nullString(t.SubCategory), t.Amount, t.Currency,
			t.Date.UTC().Format(time.RFC3339Nano), nullString(t.Note), t.ID,
		}
		if ok {
			query := `
				UPDATE transactions SET position = ?, transaction_type = ?, account_id = ?,
				       to_account_id = ?, category = ?, sub_category = ?, amount = ?,
				       currency = ?, occurred_at = ?, note = ?
				WHERE id = ?`
			_, err = tx.ExecContext(ctx, query, args...)
		} else {
			query := `
				INSERT INTO transactions (position, transaction_type, account_id, to_account_id,
				       category, sub_category, amount, currency, occurred_at, note, id)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
			_, err = tx.ExecContext(ctx, query, args...)
		}
		if err != nil {
			return fmt.Errorf("saveTransactions: transaction %s: %w", t.ID, err)
		}
	}

	if err := deleteStale(ctx, tx, "transactions", existing, keep); err != nil {
		return fmt.Errorf("saveTransactions: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
