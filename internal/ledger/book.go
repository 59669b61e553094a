package ledger

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"zenwallet/models"
)

const (
	DefaultCurrency = "IRR"
	DefaultColor    = "#3b82f6"
)

// Book is the in-memory ledger: the Account Store, the Transaction Log and
// the Category set. Every mutating method either succeeds completely or
// returns an error with the Book unchanged.
//
// A Book is not safe for concurrent use.
type Book struct {
	accounts     []models.Account
	transactions []models.Transaction // newest inserted first
	categories   []models.Category
}

// NewBook builds a Book from a snapshot. The snapshot is copied.
func NewBook(s models.Snapshot) *Book {
	return &Book{
		accounts:     slices.Clone(s.Accounts),
		transactions: slices.Clone(s.Transactions),
		categories:   cloneCategories(s.Categories),
	}
}

// Clone returns an independent copy.
func (b *Book) Clone() *Book {
	return NewBook(b.Snapshot())
}

// Snapshot returns a copy of the current state.
func (b *Book) Snapshot() models.Snapshot {
	return models.Snapshot{
		Accounts:     nonNil(slices.Clone(b.accounts)),
		Transactions: nonNil(slices.Clone(b.transactions)),
		Categories:   nonNil(cloneCategories(b.categories)),
	}
}

// Account looks an account up by id.
func (b *Book) Account(id string) (models.Account, bool) {
	if i := b.accountIndex(id); i >= 0 {
		return b.accounts[i], true
	}
	return models.Account{}, false
}

// Transaction looks a transaction up by id.
func (b *Book) Transaction(id string) (models.Transaction, bool) {
	if i := b.transactionIndex(id); i >= 0 {
		return b.transactions[i], true
	}
	return models.Transaction{}, false
}

func (b *Book) accountIndex(id string) int {
	return slices.IndexFunc(b.accounts, func(a models.Account) bool { return a.ID == id })
}

func (b *Book) transactionIndex(id string) int {
	return slices.IndexFunc(b.transactions, func(t models.Transaction) bool { return t.ID == id })
}

func (b *Book) categoryIndex(id string) int {
	return slices.IndexFunc(b.categories, func(c models.Category) bool { return c.ID == id })
}

// apply adds effects to the stored balances. Legs whose account is gone are
// skipped and reported.
func (b *Book) apply(txID string, effects []Effect) []error {
	var missing []error
	for _, e := range effects {
		i := b.accountIndex(e.AccountID)
		if i < 0 {
			missing = append(missing, &MissingReferenceError{TransactionID: txID, AccountID: e.AccountID})
			continue
		}
		b.accounts[i].Balance = b.accounts[i].Balance.Add(e.Delta)
	}
	return missing
}

// Build validates a draft against the current accounts and returns the
// transaction it describes. A zero draft date becomes now.
func (b *Book) Build(id string, d models.TransactionDraft, now time.Time) (models.Transaction, error) {
	if !d.Type.Valid() {
		return models.Transaction{}, invalid("type", ErrInvalidType)
	}
	amount, err := ParseAmount(d.Amount)
	if err != nil {
		return models.Transaction{}, err
	}
	if d.AccountID == "" {
		return models.Transaction{}, invalid("account", ErrMissingField)
	}
	source, ok := b.Account(d.AccountID)
	if !ok {
		return models.Transaction{}, invalid("account", ErrAccountNotFound)
	}

	tx := models.Transaction{
		ID:          id,
		Type:        d.Type,
		AccountID:   d.AccountID,
		Category:    strings.TrimSpace(d.Category),
		SubCategory: strings.TrimSpace(d.SubCategory),
		Amount:      amount,
		Currency:    source.Currency,
		Date:        d.Date,
		Note:        strings.TrimSpace(d.Note),
	}
	if tx.Date.IsZero() {
		tx.Date = now
	}

	if d.Type == models.Transfer {
		switch {
		case d.ToAccountID == "":
			return models.Transaction{}, invalid("destination account", ErrMissingField)
		case d.ToAccountID == d.AccountID:
			return models.Transaction{}, invalid("destination account", ErrSameAccountTransfer)
		}
		if _, ok := b.Account(d.ToAccountID); !ok {
			return models.Transaction{}, invalid("destination account", ErrAccountNotFound)
		}
		tx.ToAccountID = d.ToAccountID
		tx.Category = models.TransferCategory
	} else if tx.Category == "" {
		return models.Transaction{}, invalid("category", ErrMissingField)
	}
	return tx, nil
}

// CreateTransaction validates the draft, applies its effects and appends it
// to the log.
func (b *Book) CreateTransaction(id string, d models.TransactionDraft, now time.Time) (models.Transaction, error) {
	tx, err := b.Build(id, d, now)
	if err != nil {
		return models.Transaction{}, err
	}
	// Build guarantees every leg has an account.
	b.apply(tx.ID, Effects(tx))
	b.transactions = slices.Insert(b.transactions, 0, tx)
	return tx, nil
}

// EditTransaction replaces transaction id with the draft. The old
// transaction's effects are reversed on the accounts it referenced, then the
// new effects are applied on the accounts the draft references; the two sets
// may be disjoint. A zero draft date keeps the old date. Reversal legs whose
// account no longer exists are skipped and returned.
func (b *Book) EditTransaction(id string, d models.TransactionDraft, now time.Time) (updated, old models.Transaction, skipped []error, err error) {
	i := b.transactionIndex(id)
	if i < 0 {
		return models.Transaction{}, models.Transaction{}, nil, ErrTransactionNotFound
	}
	old = b.transactions[i]
	if d.Date.IsZero() {
		d.Date = old.Date
	}
	updated, err = b.Build(id, d, now)
	if err != nil {
		return models.Transaction{}, models.Transaction{}, nil, err
	}

	skipped = b.apply(old.ID, Reversal(old))
	b.transactions[i] = updated
	b.apply(updated.ID, Effects(updated))
	return updated, old, skipped, nil
}

// DeleteTransaction reverses the transaction's effects and removes it.
func (b *Book) DeleteTransaction(id string) (models.Transaction, []error, error) {
	i := b.transactionIndex(id)
	if i < 0 {
		return models.Transaction{}, nil, ErrTransactionNotFound
	}
	tx := b.transactions[i]
	skipped := b.apply(tx.ID, Reversal(tx))
	b.transactions = slices.Delete(b.transactions, i, i+1)
	return tx, skipped, nil
}

// BulkDeleteTransactions deletes every known id once. Unknown and repeated
// ids are ignored; the order of ids does not affect the result.
func (b *Book) BulkDeleteTransactions(ids []string) (deleted []models.Transaction, skipped []error) {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		tx, missing, err := b.DeleteTransaction(id)
		if err != nil {
			continue
		}
		deleted = append(deleted, tx)
		skipped = append(skipped, missing...)
	}
	return deleted, skipped
}

// CloneTransaction copies transaction id under newID, dated now. The draft
// is revalidated so the copy's accounts must still exist; every other field,
// currency included, is taken from the source as stored.
func (b *Book) CloneTransaction(id, newID string, now time.Time) (models.Transaction, error) {
	src, ok := b.Transaction(id)
	if !ok {
		return models.Transaction{}, ErrTransactionNotFound
	}
	d := models.DraftOf(src)
	d.Date = now
	if _, err := b.Build(newID, d, now); err != nil {
		return models.Transaction{}, err
	}
	clone := src
	clone.ID = newID
	clone.Date = now
	b.apply(clone.ID, Effects(clone))
	b.transactions = slices.Insert(b.transactions, 0, clone)
	return clone, nil
}

// AddAccount creates an account whose balance starts at its opening balance.
func (b *Book) AddAccount(id string, d models.AccountDraft) (models.Account, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return models.Account{}, invalid("name", ErrMissingField)
	}
	acc := models.Account{
		ID:       id,
		Name:     name,
		Type:     models.AccountBank,
		Currency: DefaultCurrency,
		Color:    DefaultColor,
	}
	if err := applyAccountDraft(&acc, d); err != nil {
		return models.Account{}, err
	}
	opening, err := ParseBalance(d.OpeningBalance)
	if err != nil {
		return models.Account{}, err
	}
	acc.OpeningBalance = opening
	acc.Balance = opening

	b.accounts = append(b.accounts, acc)
	return acc, nil
}

// UpdateAccount edits name, type, currency, color and opening balance. Empty
// draft fields keep their current value. Changing the opening balance moves
// the current balance by the same difference.
func (b *Book) UpdateAccount(id string, d models.AccountDraft) (models.Account, error) {
	i := b.accountIndex(id)
	if i < 0 {
		return models.Account{}, ErrAccountNotFound
	}
	acc := b.accounts[i]
	if name := strings.TrimSpace(d.Name); name != "" {
		acc.Name = name
	}
	if err := applyAccountDraft(&acc, d); err != nil {
		return models.Account{}, err
	}
	if strings.TrimSpace(d.OpeningBalance) != "" {
		opening, err := ParseBalance(d.OpeningBalance)
		if err != nil {
			return models.Account{}, err
		}
		acc.Balance = acc.Balance.Add(opening.Sub(acc.OpeningBalance))
		acc.OpeningBalance = opening
	}
	b.accounts[i] = acc
	return acc, nil
}

func applyAccountDraft(acc *models.Account, d models.AccountDraft) error {
	if strings.TrimSpace(d.Type) != "" {
		t, ok := models.ParseAccountType(d.Type)
		if !ok {
			return invalid("account type", ErrInvalidType)
		}
		acc.Type = t
	}
	if c := strings.ToUpper(strings.TrimSpace(d.Currency)); c != "" {
		acc.Currency = c
	}
	if c := strings.TrimSpace(d.Color); c != "" {
		acc.Color = c
	}
	return nil
}

// DeleteAccount removes an account that no transaction references, as long
// as another account remains.
func (b *Book) DeleteAccount(id string) error {
	i := b.accountIndex(id)
	if i < 0 {
		return ErrAccountNotFound
	}
	acc := b.accounts[i]
	if len(b.accounts) == 1 {
		return &ReferentialIntegrityError{Kind: "account", Name: acc.Name, Err: ErrLastAccount}
	}
	refs := 0
	for _, tx := range b.transactions {
		if tx.Touches(id) {
			refs++
		}
	}
	if refs > 0 {
		return &ReferentialIntegrityError{Kind: "account", Name: acc.Name, References: refs, Err: ErrAccountInUse}
	}
	b.accounts = slices.Delete(b.accounts, i, i+1)
	return nil
}

// AddCategory adds a category; names are unique ignoring case.
func (b *Book) AddCategory(id, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, invalid("category", ErrMissingField)
	}
	for _, c := range b.categories {
		if strings.EqualFold(c.Name, name) {
			return models.Category{}, invalid("category", ErrDuplicateCategory)
		}
	}
	cat := models.Category{ID: id, Name: name, SubCategories: []string{}}
	b.categories = append(b.categories, cat)
	return cat, nil
}

// AddSubCategory appends a sub-category; names are unique within the
// category ignoring case.
func (b *Book) AddSubCategory(categoryID, name string) (models.Category, error) {
	i := b.categoryIndex(categoryID)
	if i < 0 {
		return models.Category{}, ErrCategoryNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, invalid("sub-category", ErrMissingField)
	}
	cat := b.categories[i]
	for _, s := range cat.SubCategories {
		if strings.EqualFold(s, name) {
			return models.Category{}, invalid("sub-category", ErrDuplicateCategory)
		}
	}
	cat.SubCategories = append(slices.Clone(cat.SubCategories), name)
	b.categories[i] = cat
	return cat, nil
}

// DeleteCategory refuses while any transaction carries the category name.
func (b *Book) DeleteCategory(id string) error {
	i := b.categoryIndex(id)
	if i < 0 {
		return ErrCategoryNotFound
	}
	cat := b.categories[i]
	refs := b.countTransactions(func(tx models.Transaction) bool { return tx.Category == cat.Name })
	if refs > 0 {
		return &ReferentialIntegrityError{Kind: "category", Name: cat.Name, References: refs, Err: ErrCategoryInUse}
	}
	b.categories = slices.Delete(b.categories, i, i+1)
	return nil
}

// DeleteSubCategory refuses while any transaction carries both the category
// name and the sub-category name.
func (b *Book) DeleteSubCategory(categoryID, name string) error {
	i := b.categoryIndex(categoryID)
	if i < 0 {
		return ErrCategoryNotFound
	}
	cat := b.categories[i]
	j := slices.Index(cat.SubCategories, name)
	if j < 0 {
		return ErrCategoryNotFound
	}
	refs := b.countTransactions(func(tx models.Transaction) bool {
		return tx.Category == cat.Name && tx.SubCategory == name
	})
	if refs > 0 {
		return &ReferentialIntegrityError{Kind: "sub-category", Name: name, References: refs, Err: ErrCategoryInUse}
	}
	cat.SubCategories = slices.Delete(slices.Clone(cat.SubCategories), j, j+1)
	b.categories[i] = cat
	return nil
}

func (b *Book) countTransactions(match func(models.Transaction) bool) int {
	n := 0
	for _, tx := range b.transactions {
		if match(tx) {
			n++
		}
	}
	return n
}

// NoteSuggestions lists distinct non-empty notes in log order.
func (b *Book) NoteSuggestions() []string {
	seen := make(map[string]bool)
	notes := []string{}
	for _, tx := range b.transactions {
		if tx.Note == "" || seen[tx.Note] {
			continue
		}
		seen[tx.Note] = true
		notes = append(notes, tx.Note)
	}
	return notes
}

// TotalsByCurrency sums balances per currency tag. Currencies are never
// converted into each other.
func (b *Book) TotalsByCurrency() map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, a := range b.accounts {
		totals[a.Currency] = totals[a.Currency].Add(a.Balance)
	}
	return totals
}

func cloneCategories(cats []models.Category) []models.Category {
	if cats == nil {
		return nil
	}
	out := make([]models.Category, len(cats))
	for i, c := range cats {
		c.SubCategories = nonNil(slices.Clone(c.SubCategories))
		out[i] = c
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
