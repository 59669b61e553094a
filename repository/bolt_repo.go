package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"zenwallet/models"
)

const ledgerBucket = "ledger"

// Keys inside the ledger bucket.
const (
	keyAccounts     = "accounts"
	keyTransactions = "transactions"
	keyCategories   = "categories"
)

// boltStateRepository stores each part of the snapshot as one JSON document.
type boltStateRepository struct {
	db *bolt.DB
}

// NewBoltStateRepository opens (creating if needed) a bbolt file at path.
func NewBoltStateRepository(path string) (StateRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(ledgerBucket)); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", ledgerBucket, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStateRepository{db: db}, nil
}

func (r *boltStateRepository) Load(ctx context.Context) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, err
	}

	var s models.Snapshot
	found := false
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ledgerBucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", ledgerBucket)
		}
		parts := []struct {
			key  string
			into any
		}{
			{keyAccounts, &s.Accounts},
			{keyTransactions, &s.Transactions},
			{keyCategories, &s.Categories},
		}
		for _, p := range parts {
			data := b.Get([]byte(p.key))
			if data == nil {
				continue
			}
			found = true
			if err := json.Unmarshal(data, p.into); err != nil {
				return fmt.Errorf("failed to unmarshal %s: %w", p.key, err)
			}
		}
		return nil
	})
	if err != nil {
		return models.Snapshot{}, err
	}
	if !found {
		return models.Snapshot{}, ErrNoState
	}
	return s, nil
}

// Save writes all three keys in one bbolt transaction.
func (r *boltStateRepository) Save(ctx context.Context, s models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ledgerBucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", ledgerBucket)
		}
		parts := []struct {
			key   string
			value any
		}{
			{keyAccounts, nonNil(s.Accounts)},
			{keyTransactions, nonNil(s.Transactions)},
			{keyCategories, nonNil(s.Categories)},
		}
		for _, p := range parts {
			data, err := json.Marshal(p.value)
			if err != nil {
				return fmt.Errorf("failed to marshal %s: %w", p.key, err)
			}
			if err := b.Put([]byte(p.key), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *boltStateRepository) Close() error {
	return r.db.Close()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
