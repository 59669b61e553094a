package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"zenwallet/internal/config"
)

// Dialect names the database/sql driver in use.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite3"
)

// Connect opens the SQL store selected in cfg, checks the connection and
// creates the ledger tables when missing.
func Connect(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	switch cfg.Store {
	case config.StoreMySQL:
		return Open(ctx, MySQL, cfg.DSN)
	case config.StoreSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	}
	return nil, fmt.Errorf("DB: store %q is not an SQL store", cfg.Store)
}

// OpenSQLite opens (creating if needed) an SQLite file.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("DB: creating %s: %w", dir, err)
		}
	}
	return Open(ctx, SQLite, "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
}

func Open(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("DB: opening database: %w", err)
	}
	if dialect == SQLite {
		// One writer at a time; also keeps ":memory:" databases on one connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("DB: connecting to database: %w", err)
	}
	if err := Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the ledger tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	for _, stmt := range schema(dialect) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("DB: migrating schema: %w", err)
		}
	}
	return nil
}

func schema(dialect Dialect) []string {
	money, suffix := "TEXT", ""
	if dialect == MySQL {
		money, suffix = "DECIMAL(38,18)", " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			position INT NOT NULL,
			name VARCHAR(255) NOT NULL,
			account_type VARCHAR(16) NOT NULL,
			balance ` + money + ` NOT NULL,
			opening_balance ` + money + ` NOT NULL,
			currency VARCHAR(16) NOT NULL,
			color VARCHAR(32) NOT NULL
		)` + suffix,
		`CREATE TABLE IF NOT EXISTS transactions (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			position INT NOT NULL,
			transaction_type VARCHAR(16) NOT NULL,
			account_id VARCHAR(64) NOT NULL,
			to_account_id VARCHAR(64) NULL,
			category VARCHAR(255) NOT NULL,
			sub_category VARCHAR(255) NULL,
			amount ` + money + ` NOT NULL,
			currency VARCHAR(16) NOT NULL,
			occurred_at VARCHAR(40) NOT NULL,
			note TEXT NULL
		)` + suffix,
		`CREATE TABLE IF NOT EXISTS categories (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			position INT NOT NULL,
			name VARCHAR(255) NOT NULL
		)` + suffix,
		`CREATE TABLE IF NOT EXISTS sub_categories (
			category_id VARCHAR(64) NOT NULL,
			position INT NOT NULL,
			name VARCHAR(255) NOT NULL,
			PRIMARY KEY (category_id, position)
		)` + suffix,
	}
}
