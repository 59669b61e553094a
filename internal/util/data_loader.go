package util

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"zenwallet/models"
)

var ErrMissingColumn = errors.New("required column missing")

// DataLoader reads external files: bank statements to reconcile against and
// transaction drafts to import.
type DataLoader interface {
	LoadExternalTransactions(filePath string) ([]models.ExternalTransaction, error)
	LoadDrafts(filePath string) ([]models.TransactionDraft, error)
}

// csvDataLoader implements DataLoader for CSV files with a header row.
type csvDataLoader struct {
	logger *slog.Logger
}

func NewCSVDataLoader(logger *slog.Logger) DataLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &csvDataLoader{logger: logger}
}

// LoadExternalTransactions reads a statement with columns id, date, amount
// and reference. Amounts are signed: credits positive, debits negative.
// Malformed rows are skipped with a warning.
func (l *csvDataLoader) LoadExternalTransactions(filePath string) ([]models.ExternalTransaction, error) {
	header, records, err := readCSV(filePath)
	if err != nil {
		return nil, fmt.Errorf("LoadExternalTransactions: %w", err)
	}
	cols, err := columns(header, "id", "date", "amount")
	if err != nil {
		return nil, fmt.Errorf("LoadExternalTransactions: %s: %w", filePath, err)
	}
	ref, hasRef := indexOf(header, "reference")

	transactions := []models.ExternalTransaction{}
	for i, record := range records {
		line := i + 2
		amount, err := decimal.NewFromString(strings.TrimSpace(record[cols["amount"]]))
		if err != nil {
			l.logger.Warn("skipping statement row with invalid amount", "file", filePath, "line", line, "amount", record[cols["amount"]])
			continue
		}
		date, err := ParseDate(record[cols["date"]])
		if err != nil {
			l.logger.Warn("skipping statement row with invalid date", "file", filePath, "line", line, "error", err)
			continue
		}
		tx := models.ExternalTransaction{
			ExternalID: strings.TrimSpace(record[cols["id"]]),
			Date:       date,
			Amount:     amount,
		}
		if hasRef {
			tx.Reference = strings.TrimSpace(record[ref])
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

// LoadDrafts reads transaction drafts with columns type, account, amount and
// optionally to_account, category, sub_category, date, note. Amounts are
// kept as text so expressions are evaluated by the ledger. Every row is
// returned; validation happens on import.
func (l *csvDataLoader) LoadDrafts(filePath string) ([]models.TransactionDraft, error) {
	header, records, err := readCSV(filePath)
	if err != nil {
		return nil, fmt.Errorf("LoadDrafts: %w", err)
	}
	if _, err := columns(header, "type", "account", "amount"); err != nil {
		return nil, fmt.Errorf("LoadDrafts: %s: %w", filePath, err)
	}

	get := func(record []string, name string) string {
		if i, ok := indexOf(header, name); ok {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	drafts := make([]models.TransactionDraft, 0, len(records))
	for i, record := range records {
		d := models.TransactionDraft{
			Type:        models.TransactionType(strings.ToUpper(get(record, "type"))),
			AccountID:   get(record, "account"),
			ToAccountID: get(record, "to_account"),
			Category:    get(record, "category"),
			SubCategory: get(record, "sub_category"),
			Amount:      get(record, "amount"),
			Note:        get(record, "note"),
		}
		if raw := get(record, "date"); raw != "" {
			date, err := ParseDate(raw)
			if err != nil {
				// Left zero: the ledger stamps it with the import time.
				l.logger.Warn("ignoring invalid draft date", "file", filePath, "line", i+2, "error", err)
			}
			d.Date = date
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// ResolveAccountRefs replaces account names in drafts with account ids.
// References that already are ids, or match no account, are left alone.
func ResolveAccountRefs(drafts []models.TransactionDraft, accounts []models.Account) {
	byName := make(map[string]string, len(accounts))
	ids := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		byName[strings.ToLower(a.Name)] = a.ID
		ids[a.ID] = true
	}
	resolve := func(ref string) string {
		if ref == "" || ids[ref] {
			return ref
		}
		if id, ok := byName[strings.ToLower(ref)]; ok {
			return id
		}
		return ref
	}
	for i := range drafts {
		drafts[i].AccountID = resolve(drafts[i].AccountID)
		drafts[i].ToAccountID = resolve(drafts[i].ToAccountID)
	}
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 timestamps.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

func readCSV(filePath string) ([]string, [][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, fmt.Errorf("%s: empty file", filePath)
		}
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}
	// The reader enforces the header's field count on every record.
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("error reading record: %w", err)
	}
	return header, records, nil
}

func indexOf(header []string, name string) (int, bool) {
	for i, h := range header {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

func columns(header []string, names ...string) (map[string]int, error) {
	cols := make(map[string]int, len(names))
	for _, n := range names {
		i, ok := indexOf(header, n)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, n)
		}
		cols[n] = i
	}
	return cols, nil
}
