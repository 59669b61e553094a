package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"zenwallet/internal/ledger"
	"zenwallet/models"
	"zenwallet/repository"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu    sync.Mutex
	saved []models.Snapshot
	fail  error
}

func (r *recorder) persist(_ context.Context, s models.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.saved = append(r.saved, s)
	return nil
}

func seedSnapshot() models.Snapshot {
	return models.Snapshot{
		Accounts: []models.Account{
			{ID: "A", Name: "Checking", Type: models.AccountBank, Balance: decimal.NewFromInt(1000), OpeningBalance: decimal.NewFromInt(1000), Currency: "USD"},
			{ID: "B", Name: "Wallet", Type: models.AccountCash, Balance: decimal.NewFromInt(500), OpeningBalance: decimal.NewFromInt(500), Currency: "USD"},
		},
		Categories: []models.Category{{ID: "c1", Name: "Food", SubCategories: []string{"Groceries"}}},
	}
}

func newTestService(t *testing.T, rec *recorder, logs *bytes.Buffer) LedgerService {
	t.Helper()
	n := 0
	if logs == nil {
		logs = &bytes.Buffer{}
	}
	return NewLedgerService(seedSnapshot(), Options{
		Persist: rec.persist,
		Logger:  slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		Now:     func() time.Time { return testNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
}

func balance(t *testing.T, svc LedgerService, id string) string {
	t.Helper()
	for _, a := range svc.Snapshot().Accounts {
		if a.ID == id {
			return a.Balance.String()
		}
	}
	t.Fatalf("account %s not found", id)
	return ""
}

func TestTransactionLifecycle(t *testing.T) {
	rec := &recorder{}
	svc := newTestService(t, rec, nil)
	ctx := context.Background()

	tx, err := svc.CreateTransaction(ctx, models.TransactionDraft{
		Type: models.Transfer, AccountID: "A", ToAccountID: "B", Amount: "200",
	})
	assert.NoError(t, err)
	assert.Equal(t, "id-1", tx.ID)
	assert.Equal(t, "800", balance(t, svc, "A"))
	assert.Equal(t, "700", balance(t, svc, "B"))

	pre := svc.PreBalances()
	assert.Equal(t, "1000", pre[ledger.Perspective{TransactionID: tx.ID, AccountID: "A"}].String())
	assert.Equal(t, "500", pre[ledger.Perspective{TransactionID: tx.ID, AccountID: "B"}].String())

	_, err = svc.EditTransaction(ctx, tx.ID, models.TransactionDraft{
		Type: models.Expense, AccountID: "B", Category: "Food", Amount: "50",
	})
	assert.NoError(t, err)
	assert.Equal(t, "1000", balance(t, svc, "A"))
	assert.Equal(t, "450", balance(t, svc, "B"))

	clone, err := svc.CloneTransaction(ctx, tx.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, tx.ID, clone.ID)
	assert.Equal(t, "400", balance(t, svc, "B"))

	n, err := svc.BulkDeleteTransactions(ctx, []string{tx.ID, clone.ID, "missing"})
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "500", balance(t, svc, "B"))

	// Every commit reached the persist hook, in order.
	assert.Equal(t, 4, len(rec.saved))
	assert.Equal(t, 0, len(rec.saved[3].Transactions))
}

func TestPersistFailureKeepsPreviousState(t *testing.T) {
	rec := &recorder{}
	svc := newTestService(t, rec, nil)
	ctx := context.Background()

	_, err := svc.CreateTransaction(ctx, models.TransactionDraft{Type: models.Expense, AccountID: "A", Category: "Food", Amount: "10"})
	assert.NoError(t, err)

	boom := errors.New("disk full")
	rec.fail = boom
	_, err = svc.CreateTransaction(ctx, models.TransactionDraft{Type: models.Expense, AccountID: "A", Category: "Food", Amount: "90"})
	assert.IsError(t, err, boom)
	assert.Equal(t, "990", balance(t, svc, "A"))
	assert.Equal(t, 1, len(svc.Snapshot().Transactions))

	err = svc.DeleteAccount(ctx, "B")
	assert.IsError(t, err, boom)
	assert.Equal(t, 2, len(svc.Snapshot().Accounts))
}

func TestRejectionsAreNotPersisted(t *testing.T) {
	rec := &recorder{}
	var logs bytes.Buffer
	svc := newTestService(t, rec, &logs)
	ctx := context.Background()

	_, err := svc.CreateTransaction(ctx, models.TransactionDraft{Type: models.Expense, AccountID: "A", Category: "Food", Amount: "2 * (3 - 3)"})
	assert.IsError(t, err, ledger.ErrInvalidAmount)
	_, err = svc.CreateTransaction(ctx, models.TransactionDraft{Type: models.Transfer, AccountID: "A", ToAccountID: "A", Amount: "1"})
	assert.IsError(t, err, ledger.ErrSameAccountTransfer)
	err = svc.DeleteTransaction(ctx, "nope")
	assert.True(t, ledger.IsNotFound(err))
	_, err = svc.Transaction("nope")
	assert.IsError(t, err, ledger.ErrTransactionNotFound)

	assert.Equal(t, 0, len(rec.saved))
	assert.Contains(t, logs.String(), "ledger operation rejected")
}

func TestAccountAndCategoryGuards(t *testing.T) {
	rec := &recorder{}
	svc := newTestService(t, rec, nil)
	ctx := context.Background()

	_, err := svc.CreateTransaction(ctx, models.TransactionDraft{Type: models.Expense, AccountID: "B", Category: "Food", SubCategory: "Groceries", Amount: "5"})
	assert.NoError(t, err)

	assert.IsError(t, svc.DeleteAccount(ctx, "B"), ledger.ErrAccountInUse)
	assert.IsError(t, svc.DeleteCategory(ctx, "c1"), ledger.ErrCategoryInUse)
	assert.IsError(t, svc.DeleteSubCategory(ctx, "c1", "Groceries"), ledger.ErrCategoryInUse)

	acc, err := svc.AddAccount(ctx, models.AccountDraft{Name: "Savings", Type: "savings", Currency: "eur", OpeningBalance: "100"})
	assert.NoError(t, err)
	assert.Equal(t, "EUR", acc.Currency)
	acc, err = svc.UpdateAccount(ctx, acc.ID, models.AccountDraft{OpeningBalance: "150"})
	assert.NoError(t, err)
	assert.Equal(t, "150", acc.Balance.String())
	assert.NoError(t, svc.DeleteAccount(ctx, acc.ID))

	cat, err := svc.AddCategory(ctx, "Travel")
	assert.NoError(t, err)
	_, err = svc.AddSubCategory(ctx, cat.ID, "Flights")
	assert.NoError(t, err)
	assert.NoError(t, svc.DeleteSubCategory(ctx, cat.ID, "Flights"))
	assert.NoError(t, svc.DeleteCategory(ctx, cat.ID))
	_, err = svc.AddCategory(ctx, "FOOD")
	assert.IsError(t, err, ledger.ErrDuplicateCategory)

	totals := svc.TotalsByCurrency()
	assert.Equal(t, "1495", totals["USD"].String())
}

func TestImport(t *testing.T) {
	rec := &recorder{}
	svc := newTestService(t, rec, nil)

	res, err := svc.Import(context.Background(), []models.TransactionDraft{
		{Type: models.Income, AccountID: "A", Category: "Salary", Amount: "100", Note: "bonus"},
		{Type: models.Expense, AccountID: "Z", Category: "Food", Amount: "1"},
		{Type: models.Expense, AccountID: "B", Category: "Food", Amount: "oops"},
		{Type: models.Expense, AccountID: "B", Category: "Food", Amount: "25"},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(res.Created))
	assert.Equal(t, 2, len(res.Rejected))
	assert.Equal(t, 2, res.Rejected[0].Row)
	assert.IsError(t, res.Rejected[0].Err, ledger.ErrAccountNotFound)
	assert.Equal(t, 3, res.Rejected[1].Row)
	assert.Equal(t, "1100", balance(t, svc, "A"))
	assert.Equal(t, "475", balance(t, svc, "B"))
	assert.Equal(t, 1, len(rec.saved))
	assert.Equal(t, []string{"bonus"}, svc.NoteSuggestions())
}

func TestRowsUsesSelectedPerspective(t *testing.T) {
	svc := newTestService(t, &recorder{}, nil)
	_, err := svc.CreateTransaction(context.Background(), models.TransactionDraft{
		Type: models.Transfer, AccountID: "A", ToAccountID: "B", Amount: "200",
	})
	assert.NoError(t, err)

	rows := svc.Rows([]string{"B"})
	assert.Equal(t, 1, len(rows))
	assert.Equal(t, "500", rows[0].Before.String())
	assert.Equal(t, "700", rows[0].After.String())
}

func TestConcurrentMutationsKeepInvariant(t *testing.T) {
	svc := newTestService(t, &recorder{}, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.CreateTransaction(ctx, models.TransactionDraft{
				Type: models.Transfer, AccountID: "A", ToAccountID: "B", Amount: "10",
			})
			_ = svc.Rows(nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, "800", balance(t, svc, "A"))
	assert.Equal(t, "700", balance(t, svc, "B"))
	assert.True(t, NewReconciliationService(svc).AuditBalances().Balanced())
}

func TestOpenSeedsEmptyRepository(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := repository.NewBoltStateRepository(path)
	assert.NoError(t, err)
	defer repo.Close()

	svc, err := Open(ctx, repo, seedSnapshot(), Options{})
	assert.NoError(t, err)
	_, err = svc.CreateTransaction(ctx, models.TransactionDraft{Type: models.Expense, AccountID: "A", Category: "Food", Amount: "1"})
	assert.NoError(t, err)

	reopened, err := Open(ctx, repo, models.Snapshot{}, Options{})
	assert.NoError(t, err)
	assert.Equal(t, "999", balance(t, reopened, "A"))
}
