package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"zenwallet/internal/ledger"
	"zenwallet/models"
)

// Seed is the YAML shape of an initial ledger. Amounts are text so they go
// through the same parser as user input.
type Seed struct {
	Accounts []struct {
		ID             string `yaml:"id"`
		Name           string `yaml:"name"`
		Type           string `yaml:"type"`
		Currency       string `yaml:"currency"`
		Color          string `yaml:"color"`
		OpeningBalance string `yaml:"opening_balance"`
	} `yaml:"accounts"`
	Categories []struct {
		Name          string   `yaml:"name"`
		SubCategories []string `yaml:"sub_categories"`
	} `yaml:"categories"`
	Transactions []struct {
		Type        string `yaml:"type"`
		Account     string `yaml:"account"`
		ToAccount   string `yaml:"to_account"`
		Category    string `yaml:"category"`
		SubCategory string `yaml:"sub_category"`
		Amount      string `yaml:"amount"`
		Date        string `yaml:"date"`
		Note        string `yaml:"note"`
	} `yaml:"transactions"`
}

// defaultSeed mirrors the categories a fresh ledger starts with.
const defaultSeed = `
accounts:
  - name: Cash
    type: CASH
    currency: IRR
    color: "#10b981"
categories:
  - name: Food & Drink
    sub_categories: [Groceries, Restaurant, Coffee]
  - name: Transportation
    sub_categories: [Fuel, Taxi, Public Transport]
  - name: Shopping
    sub_categories: [Clothes, Electronics, Gifts]
  - name: Housing
    sub_categories: [Rent, Maintenance, Energy]
  - name: Salary
    sub_categories: [Main Job, Freelance]
`

// LoadSeed reads a seed file. An empty path yields the default seed.
func LoadSeed(path string, newID func() string, now time.Time) (models.Snapshot, error) {
	if path == "" {
		return DefaultSeed(newID, now)
	}
	f, err := os.Open(path)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("LoadSeed: %w", err)
	}
	defer f.Close()
	return ParseSeed(f, newID, now)
}

func DefaultSeed(newID func() string, now time.Time) (models.Snapshot, error) {
	return ParseSeed(strings.NewReader(defaultSeed), newID, now)
}

// ParseSeed builds a snapshot by replaying the seed through a ledger, so the
// seeded balances satisfy the same invariant as live ones. Transactions may
// name accounts by id or by name.
func ParseSeed(r io.Reader, newID func() string, now time.Time) (models.Snapshot, error) {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && err != io.EOF {
		return models.Snapshot{}, fmt.Errorf("ParseSeed: decoding: %w", err)
	}

	book := ledger.NewBook(models.Snapshot{})
	for _, a := range seed.Accounts {
		id := a.ID
		if id == "" {
			id = newID()
		}
		_, err := book.AddAccount(id, models.AccountDraft{
			Name: a.Name, Type: a.Type, Currency: a.Currency, Color: a.Color, OpeningBalance: a.OpeningBalance,
		})
		if err != nil {
			return models.Snapshot{}, fmt.Errorf("ParseSeed: account %q: %w", a.Name, err)
		}
	}
	for _, c := range seed.Categories {
		cat, err := book.AddCategory(newID(), c.Name)
		if err != nil {
			return models.Snapshot{}, fmt.Errorf("ParseSeed: category %q: %w", c.Name, err)
		}
		for _, sub := range c.SubCategories {
			if _, err := book.AddSubCategory(cat.ID, sub); err != nil {
				return models.Snapshot{}, fmt.Errorf("ParseSeed: category %q: %w", c.Name, err)
			}
		}
	}

	drafts := make([]models.TransactionDraft, 0, len(seed.Transactions))
	for i, t := range seed.Transactions {
		d := models.TransactionDraft{
			Type:        models.TransactionType(strings.ToUpper(t.Type)),
			AccountID:   t.Account,
			ToAccountID: t.ToAccount,
			Category:    t.Category,
			SubCategory: t.SubCategory,
			Amount:      t.Amount,
			Note:        t.Note,
		}
		if t.Date != "" {
			date, err := ParseDate(t.Date)
			if err != nil {
				return models.Snapshot{}, fmt.Errorf("ParseSeed: transaction %d: %w", i+1, err)
			}
			d.Date = date
		}
		drafts = append(drafts, d)
	}
	ResolveAccountRefs(drafts, book.Snapshot().Accounts)
	for i, d := range drafts {
		if _, err := book.CreateTransaction(newID(), d, now); err != nil {
			return models.Snapshot{}, fmt.Errorf("ParseSeed: transaction %d: %w", i+1, err)
		}
	}
	return book.Snapshot(), nil
}
