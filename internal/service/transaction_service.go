package service

import (
	"context"

	"zenwallet/internal/ledger"
	"zenwallet/models"
)

// ImportResult lists what an import created and which drafts it refused.
type ImportResult struct {
	Created  []models.Transaction
	Rejected []ImportError
}

// ImportError is a refused draft; Row is its 1-based position in the input.
type ImportError struct {
	Row int
	Err error
}

func (s *ledgerServiceImpl) Transaction(id string) (models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.book.Transaction(id)
	if !ok {
		return models.Transaction{}, ledger.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *ledgerServiceImpl) CreateTransaction(ctx context.Context, d models.TransactionDraft) (models.Transaction, error) {
	var tx models.Transaction
	err := s.mutate(ctx, "CreateTransaction", func(b *ledger.Book) error {
		var err error
		tx, err = b.CreateTransaction(s.newID(), d, s.now())
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.logger.Info("transaction created", "id", tx.ID, "type", tx.Type, "account", tx.AccountID,
		"to_account", tx.ToAccountID, "amount", tx.Amount.String(), "currency", tx.Currency)
	return tx, nil
}

// EditTransaction reverses the stored transaction and applies the draft in
// its place under the same id.
func (s *ledgerServiceImpl) EditTransaction(ctx context.Context, id string, d models.TransactionDraft) (models.Transaction, error) {
	var updated, old models.Transaction
	var skipped []error
	err := s.mutate(ctx, "EditTransaction", func(b *ledger.Book) error {
		var err error
		updated, old, skipped, err = b.EditTransaction(id, d, s.now())
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.warnSkipped("EditTransaction", skipped)
	s.logger.Info("transaction edited", "id", id,
		"old_account", old.AccountID, "old_amount", old.Amount.String(),
		"account", updated.AccountID, "amount", updated.Amount.String())
	return updated, nil
}

func (s *ledgerServiceImpl) DeleteTransaction(ctx context.Context, id string) error {
	var tx models.Transaction
	var skipped []error
	err := s.mutate(ctx, "DeleteTransaction", func(b *ledger.Book) error {
		var err error
		tx, skipped, err = b.DeleteTransaction(id)
		return err
	})
	if err != nil {
		return err
	}
	s.warnSkipped("DeleteTransaction", skipped)
	s.logger.Info("transaction deleted", "id", id, "account", tx.AccountID, "amount", tx.Amount.String())
	return nil
}

// BulkDeleteTransactions deletes every known id and returns how many were
// removed. Unknown ids are ignored.
func (s *ledgerServiceImpl) BulkDeleteTransactions(ctx context.Context, ids []string) (int, error) {
	var deleted []models.Transaction
	var skipped []error
	err := s.mutate(ctx, "BulkDeleteTransactions", func(b *ledger.Book) error {
		deleted, skipped = b.BulkDeleteTransactions(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.warnSkipped("BulkDeleteTransactions", skipped)
	s.logger.Info("transactions deleted", "requested", len(ids), "deleted", len(deleted))
	return len(deleted), nil
}

func (s *ledgerServiceImpl) CloneTransaction(ctx context.Context, id string) (models.Transaction, error) {
	var tx models.Transaction
	err := s.mutate(ctx, "CloneTransaction", func(b *ledger.Book) error {
		var err error
		tx, err = b.CloneTransaction(id, s.newID(), s.now())
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.logger.Info("transaction cloned", "source", id, "id", tx.ID, "amount", tx.Amount.String())
	return tx, nil
}

// Import creates each draft in order. Drafts that fail validation are
// reported and skipped; the rest are committed together.
func (s *ledgerServiceImpl) Import(ctx context.Context, drafts []models.TransactionDraft) (ImportResult, error) {
	var res ImportResult
	err := s.mutate(ctx, "Import", func(b *ledger.Book) error {
		res = ImportResult{}
		for i, d := range drafts {
			tx, err := b.CreateTransaction(s.newID(), d, s.now())
			if err != nil {
				res.Rejected = append(res.Rejected, ImportError{Row: i + 1, Err: err})
				continue
			}
			res.Created = append(res.Created, tx)
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	s.logger.Info("transactions imported", "created", len(res.Created), "rejected", len(res.Rejected))
	return res, nil
}
