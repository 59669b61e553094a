package repository

import (
	"context"
	"database/sql"
	"fmt"

	"zenwallet/models"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// sqlStateRepository implements StateRepository on MySQL or SQLite. The
// schema is created by internal/db.
type sqlStateRepository struct {
	db *sql.DB
}

// NewSQLStateRepository takes ownership of db; Close closes it.
func NewSQLStateRepository(db *sql.DB) StateRepository {
	return &sqlStateRepository{db: db}
}

func (r *sqlStateRepository) Load(ctx context.Context) (models.Snapshot, error) {
	accounts, err := loadAccounts(ctx, r.db)
	if err != nil {
		return models.Snapshot{}, err
	}
	transactions, err := loadTransactions(ctx, r.db)
	if err != nil {
		return models.Snapshot{}, err
	}
	categories, err := loadCategories(ctx, r.db)
	if err != nil {
		return models.Snapshot{}, err
	}
	if len(accounts) == 0 && len(transactions) == 0 && len(categories) == 0 {
		return models.Snapshot{}, ErrNoState
	}
	return models.Snapshot{Accounts: accounts, Transactions: transactions, Categories: categories}, nil
}

// Save writes the snapshot inside one SQL transaction, so a failed save
// leaves the previous state in place.
func (r *sqlStateRepository) Save(ctx context.Context, s models.Snapshot) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Save: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = saveAccounts(ctx, tx, s.Accounts); err != nil {
		return err
	}
	if err = saveTransactions(ctx, tx, s.Transactions); err != nil {
		return err
	}
	if err = saveCategories(ctx, tx, s.Categories); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("Save: commit: %w", err)
	}
	return nil
}

func (r *sqlStateRepository) Close() error {
	return r.db.Close()
}

func loadCategories(ctx context.Context, q queryer) ([]models.Category, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("loadCategories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	index := map[string]int{}
	for rows.Next() {
		cat := models.Category{SubCategories: []string{}}
		if err := rows.Scan(&cat.ID, &cat.Name); err != nil {
			return nil, fmt.Errorf("loadCategories: scan error: %w", err)
		}
		index[cat.ID] = len(categories)
		categories = append(categories, cat)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("loadCategories: rows iteration error: %w", err)
	}

	subRows, err := q.QueryContext(ctx, "SELECT category_id, name FROM sub_categories ORDER BY category_id, position")
	if err != nil {
		return nil, fmt.Errorf("loadCategories: %w", err)
	}
	defer subRows.Close()
	for subRows.Next() {
		var categoryID, name string
		if err := subRows.Scan(&categoryID, &name); err != nil {
			return nil, fmt.Errorf("loadCategories: scan error: %w", err)
		}
		if i, ok := index[categoryID]; ok {
			categories[i].SubCategories = append(categories[i].SubCategories, name)
		}
	}
	if err = subRows.Err(); err != nil {
		return nil, fmt.Errorf("loadCategories: rows iteration error: %w", err)
	}
	return categories, nil
}

// saveCategories rewrites both category tables; they are small and carry
// no balances.
func saveCategories(ctx context.Context, tx *sql.Tx, categories []models.Category) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM sub_categories"); err != nil {
		return fmt.Errorf("saveCategories: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM categories"); err != nil {
		return fmt.Errorf("saveCategories: %w", err)
	}
	for i, cat := range categories {
		if _, err := tx.ExecContext(ctx, "INSERT INTO categories (id, position, name) VALUES (?, ?, ?)", cat.ID, i, cat.Name); err != nil {
			return fmt.Errorf("saveCategories: category %s: %w", cat.ID, err)
		}
		for j, sub := range cat.SubCategories {
			query := "INSERT INTO sub_categories (category_id, position, name) VALUES (?, ?, ?)"
			if _, err := tx.ExecContext(ctx, query, cat.ID, j, sub); err != nil {
				return fmt.Errorf("saveCategories: sub-category %s/%s: %w", cat.ID, sub, err)
			}
		}
	}
	return nil
}

// storedIDs lists the primary keys currently in table. table is always one
// of the fixed ledger table names.
func storedIDs(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id FROM "+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func deleteStale(ctx context.Context, tx *sql.Tx, table string, stored, keep map[string]bool) error {
	for id := range stored {
		if keep[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting %s %s: %w", table, id, err)
		}
	}
	return nil
}
