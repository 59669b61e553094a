package ledger

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"zenwallet/models"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newTestBook returns a book with accounts A (1000) and B (500) and one
// category.
func newTestBook(t *testing.T) *Book {
	t.Helper()
	b := NewBook(models.Snapshot{})
	_, err := b.AddAccount("A", models.AccountDraft{Name: "Checking", Currency: "usd", OpeningBalance: "1000"})
	assert.NoError(t, err)
	_, err = b.AddAccount("B", models.AccountDraft{Name: "Wallet", Type: "cash", Currency: "USD", OpeningBalance: "500"})
	assert.NoError(t, err)
	_, err = b.AddCategory("c1", "Food")
	assert.NoError(t, err)
	_, err = b.AddSubCategory("c1", "Groceries")
	assert.NoError(t, err)
	return b
}

func assertBalance(t *testing.T, b *Book, id, want string) {
	t.Helper()
	acc, ok := b.Account(id)
	assert.True(t, ok, "account %s", id)
	assert.True(t, acc.Balance.Equal(dec(want)), "account %s: want %s, got %s", id, want, acc.Balance)
}

// assertInvariant checks every balance equals its opening balance plus the
// effects of the current log.
func assertInvariant(t *testing.T, b *Book) {
	t.Helper()
	snap := b.Snapshot()
	for _, acc := range snap.Accounts {
		want := acc.OpeningBalance
		for _, tx := range snap.Transactions {
			if d, ok := EffectOn(tx, acc.ID); ok {
				want = want.Add(d)
			}
		}
		assert.True(t, acc.Balance.Equal(want), "account %s: want %s, got %s", acc.ID, want, acc.Balance)
	}
}

func expense(account, amount string) models.TransactionDraft {
	return models.TransactionDraft{Type: models.Expense, AccountID: account, Category: "Food", Amount: amount}
}

func TestEffects(t *testing.T) {
	amount := dec("200")
	tests := []struct {
		name string
		tx   models.Transaction
		want map[string]string
	}{
		{"income", models.Transaction{Type: models.Income, AccountID: "A", Amount: amount}, map[string]string{"A": "200"}},
		{"expense", models.Transaction{Type: models.Expense, AccountID: "A", Amount: amount}, map[string]string{"A": "-200"}},
		{"transfer", models.Transaction{Type: models.Transfer, AccountID: "A", ToAccountID: "B", Amount: amount}, map[string]string{"A": "-200", "B": "200"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			effects := Effects(tt.tx)
			assert.Equal(t, len(tt.want), len(effects))
			for _, e := range effects {
				assert.Equal(t, tt.want[e.AccountID], e.Delta.String())
			}
			for i, r := range Reversal(tt.tx) {
				assert.True(t, r.Delta.Equal(effects[i].Delta.Neg()))
			}
		})
	}

	_, ok := EffectOn(models.Transaction{Type: models.Income, AccountID: "A", Amount: amount}, "B")
	assert.False(t, ok)
}

func TestCreateTransaction(t *testing.T) {
	b := newTestBook(t)

	tx, err := b.CreateTransaction("t1", expense("A", "(20 + 5) * 2"), testNow)
	assert.NoError(t, err)
	assert.Equal(t, "50", tx.Amount.String())
	assert.Equal(t, "USD", tx.Currency)
	assert.Equal(t, testNow, tx.Date)
	assertBalance(t, b, "A", "950")

	tx, err = b.CreateTransaction("t2", models.TransactionDraft{
		Type: models.Transfer, AccountID: "A", ToAccountID: "B", Category: "ignored", Amount: "200",
	}, testNow)
	assert.NoError(t, err)
	assert.Equal(t, models.TransferCategory, tx.Category)
	assertBalance(t, b, "A", "750")
	assertBalance(t, b, "B", "700")

	snap := b.Snapshot()
	assert.Equal(t, "t2", snap.Transactions[0].ID)
	assertInvariant(t, b)
}

func TestCreateTransactionRejects(t *testing.T) {
	tests := []struct {
		name  string
		draft models.TransactionDraft
		field string
		err   error
	}{
		{"zero amount", expense("A", "0"), "amount", ErrInvalidAmount},
		{"negative amount", expense("A", "5 - 10"), "amount", ErrInvalidAmount},
		{"bad expression", expense("A", "5 +"), "amount", ErrInvalidExpression},
		{"unknown type", models.TransactionDraft{Type: "REFUND", AccountID: "A", Category: "Food", Amount: "1"}, "type", ErrInvalidType},
		{"missing account", expense("", "10"), "account", ErrMissingField},
		{"unknown account", expense("Z", "10"), "account", ErrAccountNotFound},
		{"missing category", models.TransactionDraft{Type: models.Income, AccountID: "A", Amount: "10"}, "category", ErrMissingField},
		{"transfer without destination", models.TransactionDraft{Type: models.Transfer, AccountID: "A", Amount: "10"}, "destination account", ErrMissingField},
		{"transfer to self", models.TransactionDraft{Type: models.Transfer, AccountID: "A", ToAccountID: "A", Amount: "10"}, "destination account", ErrSameAccountTransfer},
		{"transfer to unknown", models.TransactionDraft{Type: models.Transfer, AccountID: "A", ToAccountID: "Z", Amount: "10"}, "destination account", ErrAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBook(t)
			before := b.Snapshot()

			_, err := b.CreateTransaction("t1", tt.draft, testNow)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.IsError(t, err, tt.err)
			assert.False(t, IsNotFound(err))

			after := b.Snapshot()
			assert.Equal(t, 0, len(after.Transactions))
			for i := range before.Accounts {
				assert.True(t, before.Accounts[i].Balance.Equal(after.Accounts[i].Balance))
			}
		})
	}
}

func TestEditRoundTrip(t *testing.T) {
	b := newTestBook(t)
	draft := expense("A", "75.25")
	draft.Date = testNow.Add(-time.Hour)
	_, err := b.CreateTransaction("t1", draft, testNow)
	assert.NoError(t, err)
	assertBalance(t, b, "A", "924.75")

	updated, old, skipped, err := b.EditTransaction("t1", draft, testNow)
	assert.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, old.Amount.String(), updated.Amount.String())
	assertBalance(t, b, "A", "924.75")
	assertInvariant(t, b)
}

func TestEditTypeChange(t *testing.T) {
	b := newTestBook(t)
	_, err := b.CreateTransaction("t1", expense("A", "100"), testNow)
	assert.NoError(t, err)
	assertBalance(t, b, "A", "900")

	_, _, _, err = b.EditTransaction("t1", models.TransactionDraft{
		Type: models.Income, AccountID: "A", Category: "Salary", Amount: "100",
	}, testNow)
	assert.NoError(t, err)
	assertBalance(t, b, "A", "1100")
	assertInvariant(t, b)
}

func TestEditCrossAccount(t *testing.T) {
	b := newTestBook(t)
	_, err := b.CreateTransaction("t1", expense("A", "50"), testNow)
	assert.NoError(t, err)

	updated, _, _, err := b.EditTransaction("t1", expense("B", "50"), testNow)
	assert.NoError(t, err)
	assert.Equal(t, "t1", updated.ID)
	assert.Equal(t, testNow, updated.Date)
	assertBalance(t, b, "A", "1000")
	assertBalance(t, b, "B", "450")

	// Expense on B edited into a transfer B -> A.
	_, _, _, err = b.EditTransaction("t1", models.TransactionDraft{
		Type: models.Transfer, AccountID: "B", ToAccountID: "A", Amount: "30",
	}, testNow)
	assert.NoError(t, err)
	assertBalance(t, b, "A", "1030")
	assertBalance(t, b, "B", "470")
	assertInvariant(t, b)
}

func TestEditRejectsLeavesStateUnchanged(t *testing.T) {
	b := newTestBook(t)
	_, err := b.CreateTransaction("t1", expense("A", "50"), testNow)
	assert.NoError(t, err)

	_, _, _, err = b.EditTransaction("t1", expense("A", "-1"), testNow)
	assert.IsError(t, err, ErrInvalidAmount)
	assertBalance(t, b, "A", "950")
	tx, _ := b.Transaction("t1")
	assert.Equal(t, "50", tx.Amount.String())

	_, _, _, err = b.EditTransaction("nope", expense("A", "1"), testNow)
	assert.IsError(t, err, ErrTransactionNotFound)
	assert.True(t, IsNotFound(err))
}

func TestDeleteUndoesCreate(t *testing.T) {
	drafts := []models.TransactionDraft{
		expense("A", "12.5"),
		{Type: models.Income, AccountID: "B", Category: "Gift", Amount: "99"},
		{Type: models.Transfer, AccountID: "B", ToAccountID: "A", Amount: "250"},
	}
	for i, d := range drafts {
		t.Run(string(d.Type), func(t *testing.T) {
			b := newTestBook(t)
			id := fmt.Sprintf("t%d", i)
			_, err := b.CreateTransaction(id, d, testNow)
			assert.NoError(t, err)

			deleted, skipped, err := b.DeleteTransaction(id)
			assert.NoError(t, err)
			assert.Zero(t, skipped)
			assert.Equal(t, id, deleted.ID)
			assertBalance(t, b, "A", "1000")
			assertBalance(t, b, "B", "500")
			_, ok := b.Transaction(id)
			assert.False(t, ok)
		})
	}

	b := newTestBook(t)
	_, _, err := b.DeleteTransaction("missing")
	assert.IsError(t, err, ErrTransactionNotFound)
}

func TestBulkDeleteEquivalence(t *testing.T) {
	build := func() *Book {
		b := newTestBook(t)
		for i, amount := range []string{"10", "20", "30", "40"} {
			_, err := b.CreateTransaction(fmt.Sprintf("t%d", i), expense("A", amount), testNow)
			assert.NoError(t, err)
		}
		_, err := b.CreateTransaction("tx", models.TransactionDraft{
			Type: models.Transfer, AccountID: "A", ToAccountID: "B", Amount: "5",
		}, testNow)
		assert.NoError(t, err)
		return b
	}

	bulk := build()
	deleted, _ := bulk.BulkDeleteTransactions([]string{"t3", "tx", "t1", "t1", "unknown"})
	assert.Equal(t, 3, len(deleted))

	single := build()
	for _, id := range []string{"t1", "tx", "t3"} {
		_, _, err := single.DeleteTransaction(id)
		assert.NoError(t, err)
	}

	for _, id := range []string{"A", "B"} {
		x, _ := bulk.Account(id)
		y, _ := single.Account(id)
		assert.True(t, x.Balance.Equal(y.Balance))
	}
	assertBalance(t, bulk, "A", "960")
	assertBalance(t, bulk, "B", "500")
	assertInvariant(t, bulk)
}

func TestCloneTransaction(t *testing.T) {
	b := newTestBook(t)
	draft := expense("A", "40")
	draft.Note = "lunch"
	draft.SubCategory = "Groceries"
	draft.Date = testNow.Add(-48 * time.Hour)
	_, err := b.CreateTransaction("t1", draft, testNow)
	assert.NoError(t, err)

	src, _ := b.Transaction("t1")
	_, err = b.UpdateAccount("A", models.AccountDraft{Currency: "EUR"})
	assert.NoError(t, err)

	later := testNow.Add(time.Hour)
	clone, err := b.CloneTransaction("t1", "t2", later)
	assert.NoError(t, err)
	assert.Equal(t, "t2", clone.ID)
	assert.Equal(t, later, clone.Date)
	assert.Equal(t, "lunch", clone.Note)
	assert.Equal(t, "Groceries", clone.SubCategory)
	assert.Equal(t, src.Currency, clone.Currency)
	assert.NotEqual(t, "EUR", clone.Currency)
	stored, ok := b.Transaction("t2")
	assert.True(t, ok)
	assert.Equal(t, clone, stored)
	assertBalance(t, b, "A", "920")
	assertInvariant(t, b)

	_, err = b.CloneTransaction("missing", "t3", later)
	assert.IsError(t, err, ErrTransactionNotFound)
}

func TestDeleteAccountGuard(t *testing.T) {
	b := newTestBook(t)
	_, err := b.CreateTransaction("t1", models.TransactionDraft{
		Type: models.Transfer, AccountID: "A", ToAccountID: "B", Amount: "10",
	}, testNow)
	assert.NoError(t, err)

	for _, id := range []string{"A", "B"} {
		err = b.DeleteAccount(id)
		var rerr *ReferentialIntegrityError
		assert.True(t, errors.As(err, &rerr))
		assert.Equal(t, 1, rerr.References)
		assert.IsError(t, err, ErrAccountInUse)
	}
	assert.Equal(t, 2, len(b.Snapshot().Accounts))

	_, _, err = b.DeleteTransaction("t1")
	assert.NoError(t, err)
	assert.NoError(t, b.DeleteAccount("B"))
	assert.IsError(t, b.DeleteAccount("A"), ErrLastAccount)
	assert.IsError(t, b.DeleteAccount("B"), ErrAccountNotFound)
}

func TestUpdateAccountShiftsOpeningBalance(t *testing.T) {
	b := newTestBook(t)
	_, err := b.CreateTransaction("t1", expense("A", "100"), testNow)
	assert.NoError(t, err)

	acc, err := b.UpdateAccount("A", models.AccountDraft{OpeningBalance: "1500", Color: "#ff0000"})
	assert.NoError(t, err)
	assert.Equal(t, "Checking", acc.Name)
	assert.Equal(t, "#ff0000", acc.Color)
	assertBalance(t, b, "A", "1400")
	assertInvariant(t, b)

	_, err = b.UpdateAccount("A", models.AccountDraft{Type: "yacht"})
	assert.IsError(t, err, ErrInvalidType)
	_, err = b.UpdateAccount("Z", models.AccountDraft{Name: "x"})
	assert.IsError(t, err, ErrAccountNotFound)
}

func TestAddAccountDefaults(t *testing.T) {
	b := NewBook(models.Snapshot{})
	acc, err := b.AddAccount("x", models.AccountDraft{Name: "  Savings  "})
	assert.NoError(t, err)
	assert.Equal(t, "Savings", acc.Name)
	assert.Equal(t, models.AccountBank, acc.Type)
	assert.Equal(t, DefaultCurrency, acc.Currency)
	assert.Equal(t, DefaultColor, acc.Color)
	assert.True(t, acc.Balance.IsZero())

	_, err = b.AddAccount("y", models.AccountDraft{})
	assert.IsError(t, err, ErrMissingField)
}

func TestCategoryGuards(t *testing.T) {
	b := newTestBook(t)
	_, err := b.AddCategory("c2", "food")
	assert.IsError(t, err, ErrDuplicateCategory)
	_, err = b.AddSubCategory("c1", "groceries")
	assert.IsError(t, err, ErrDuplicateCategory)
	_, err = b.AddSubCategory("c1", "Dining")
	assert.NoError(t, err)

	draft := expense("A", "10")
	draft.SubCategory = "Groceries"
	_, err = b.CreateTransaction("t1", draft, testNow)
	assert.NoError(t, err)

	assert.IsError(t, b.DeleteCategory("c1"), ErrCategoryInUse)
	assert.IsError(t, b.DeleteSubCategory("c1", "Groceries"), ErrCategoryInUse)
	assert.NoError(t, b.DeleteSubCategory("c1", "Dining"))
	assert.IsError(t, b.DeleteSubCategory("c1", "Dining"), ErrCategoryNotFound)

	_, _, err = b.DeleteTransaction("t1")
	assert.NoError(t, err)
	assert.NoError(t, b.DeleteSubCategory("c1", "Groceries"))
	assert.NoError(t, b.DeleteCategory("c1"))
	assert.IsError(t, b.DeleteCategory("c1"), ErrCategoryNotFound)
}

func TestMissingAccountOnReversal(t *testing.T) {
	b := NewBook(models.Snapshot{
		Accounts: []models.Account{{ID: "A", Name: "A", Currency: "USD", Balance: dec("800")}},
		Transactions: []models.Transaction{{
			ID: "t1", Type: models.Transfer, AccountID: "A", ToAccountID: "gone", Amount: dec("200"), Date: testNow,
		}},
	})

	_, skipped, err := b.DeleteTransaction("t1")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(skipped))
	var missing *MissingReferenceError
	assert.True(t, errors.As(skipped[0], &missing))
	assert.Equal(t, "gone", missing.AccountID)
	assert.False(t, IsNotFound(skipped[0]))
	assertBalance(t, b, "A", "1000")
}

func TestSnapshotIsIndependent(t *testing.T) {
	b := newTestBook(t)
	clone := b.Clone()
	_, err := clone.CreateTransaction("t1", expense("A", "10"), testNow)
	assert.NoError(t, err)
	_, err = clone.AddSubCategory("c1", "Snacks")
	assert.NoError(t, err)

	assertBalance(t, b, "A", "1000")
	assert.Equal(t, 0, len(b.Snapshot().Transactions))
	assert.Equal(t, []string{"Groceries"}, b.Snapshot().Categories[0].SubCategories)
}

func TestNoteSuggestionsAndTotals(t *testing.T) {
	b := newTestBook(t)
	_, err := b.AddAccount("C", models.AccountDraft{Name: "Cold", Type: "crypto", Currency: "btc", OpeningBalance: "0.5"})
	assert.NoError(t, err)
	for i, note := range []string{"coffee", "", "rent", "coffee"} {
		d := expense("A", "1")
		d.Note = note
		_, err := b.CreateTransaction(fmt.Sprintf("t%d", i), d, testNow)
		assert.NoError(t, err)
	}

	assert.Equal(t, []string{"coffee", "rent"}, b.NoteSuggestions())
	totals := b.TotalsByCurrency()
	assert.Equal(t, "1496", totals["USD"].String())
	assert.Equal(t, "0.5", totals["BTC"].String())
}
