package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"zenwallet/internal/ledger"
	"zenwallet/models"
	"zenwallet/repository"
)

// PersistFunc receives every committed snapshot. A non-nil error aborts the
// mutation that produced it.
type PersistFunc func(ctx context.Context, s models.Snapshot) error

// LedgerService owns the ledger state. Mutations are serialized; each one
// runs on a working copy and becomes visible only after it persisted.
type LedgerService interface {
	Snapshot() models.Snapshot
	Transaction(id string) (models.Transaction, error)
	CreateTransaction(ctx context.Context, d models.TransactionDraft) (models.Transaction, error)
	EditTransaction(ctx context.Context, id string, d models.TransactionDraft) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	BulkDeleteTransactions(ctx context.Context, ids []string) (int, error)
	CloneTransaction(ctx context.Context, id string) (models.Transaction, error)
	Import(ctx context.Context, drafts []models.TransactionDraft) (ImportResult, error)

	AddAccount(ctx context.Context, d models.AccountDraft) (models.Account, error)
	UpdateAccount(ctx context.Context, id string, d models.AccountDraft) (models.Account, error)
	DeleteAccount(ctx context.Context, id string) error

	AddCategory(ctx context.Context, name string) (models.Category, error)
	AddSubCategory(ctx context.Context, categoryID, name string) (models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	DeleteSubCategory(ctx context.Context, categoryID, name string) error

	PreBalances() map[ledger.Perspective]decimal.Decimal
	Rows(accountIDs []string) []ledger.Row
	NoteSuggestions() []string
	TotalsByCurrency() map[string]decimal.Decimal
}

type Options struct {
	Persist PersistFunc
	Logger  *slog.Logger
	Now     func() time.Time
	NewID   func() string
}

type ledgerServiceImpl struct {
	mu      sync.RWMutex
	book    *ledger.Book
	persist PersistFunc
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewLedgerService starts from initial. Zero options fall back to no
// persistence, the default logger, time.Now and random UUIDs.
func NewLedgerService(initial models.Snapshot, opts Options) LedgerService {
	s := &ledgerServiceImpl{
		book:    ledger.NewBook(initial),
		persist: opts.Persist,
		logger:  opts.Logger,
		now:     opts.Now,
		newID:   opts.NewID,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Open loads the stored state from repo, or stores seed when repo is empty,
// and returns a service that saves every commit back to repo.
func Open(ctx context.Context, repo repository.StateRepository, seed models.Snapshot, opts Options) (LedgerService, error) {
	opts.Persist = repo.Save
	state, err := repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrNoState):
		if err := repo.Save(ctx, seed); err != nil {
			return nil, fmt.Errorf("Open: storing seed: %w", err)
		}
		state = seed
	case err != nil:
		return nil, fmt.Errorf("Open: loading state: %w", err)
	}
	return NewLedgerService(state, opts), nil
}

// mutate runs fn on a copy of the book and commits the copy only when fn
// and the persist hook both succeed.
func (s *ledgerServiceImpl) mutate(ctx context.Context, op string, fn func(b *ledger.Book) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.book.Clone()
	if err := fn(work); err != nil {
		s.logger.Debug("ledger operation rejected", "op", op, "error", err)
		return err
	}
	if s.persist != nil {
		if err := s.persist(ctx, work.Snapshot()); err != nil {
			s.logger.Error("ledger state not persisted", "op", op, "error", err)
			return fmt.Errorf("%s: persisting state: %w", op, err)
		}
	}
	s.book = work
	return nil
}

func (s *ledgerServiceImpl) warnSkipped(op string, skipped []error) {
	for _, err := range skipped {
		var missing *ledger.MissingReferenceError
		if errors.As(err, &missing) {
			s.logger.Warn("reversal skipped for missing account", "op", op,
				"transaction", missing.TransactionID, "account", missing.AccountID)
		}
	}
}

func (s *ledgerServiceImpl) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book.Snapshot()
}

func (s *ledgerServiceImpl) PreBalances() map[ledger.Perspective]decimal.Decimal {
	snap := s.Snapshot()
	return ledger.ComputePreBalances(snap.Transactions, snap.Accounts)
}

func (s *ledgerServiceImpl) Rows(accountIDs []string) []ledger.Row {
	snap := s.Snapshot()
	return ledger.Rows(snap.Transactions, snap.Accounts, accountIDs)
}

func (s *ledgerServiceImpl) NoteSuggestions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book.NoteSuggestions()
}

func (s *ledgerServiceImpl) TotalsByCurrency() map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book.TotalsByCurrency()
}
