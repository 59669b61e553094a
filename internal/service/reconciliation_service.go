package service

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"zenwallet/internal/ledger"
	"zenwallet/internal/util"
	"zenwallet/models"
)

// matchWindow is how far apart a ledger entry and a statement row may be
// dated and still match exactly.
const matchWindow = 3 * 24 * time.Hour

// ReconciliationService checks the ledger against itself and against bank
// statements.
type ReconciliationService interface {
	AuditBalances() AuditReport
	ReconcileStatement(accountID string, statement []models.ExternalTransaction) (StatementReport, error)
}

type reconciliationServiceImpl struct {
	ledger LedgerService
}

func NewReconciliationService(ledger LedgerService) ReconciliationService {
	return &reconciliationServiceImpl{ledger: ledger}
}

// AuditEntry compares one stored balance with opening balance plus effects.
type AuditEntry struct {
	Account  models.Account
	Expected decimal.Decimal
	Drift    decimal.Decimal // stored minus expected
}

type AuditReport struct {
	Entries []AuditEntry
	// Orphans are transaction legs whose account no longer exists.
	Orphans []ledger.MissingReferenceError
}

// Balanced reports whether every stored balance matches its history.
func (r AuditReport) Balanced() bool {
	for _, e := range r.Entries {
		if !e.Drift.IsZero() {
			return false
		}
	}
	return true
}

func (s *reconciliationServiceImpl) AuditBalances() AuditReport {
	snap := s.ledger.Snapshot()

	expected := make(map[string]decimal.Decimal, len(snap.Accounts))
	for _, acc := range snap.Accounts {
		expected[acc.ID] = acc.OpeningBalance
	}

	var report AuditReport
	for _, tx := range snap.Transactions {
		for _, e := range ledger.Effects(tx) {
			cur, ok := expected[e.AccountID]
			if !ok {
				report.Orphans = append(report.Orphans, ledger.MissingReferenceError{TransactionID: tx.ID, AccountID: e.AccountID})
				continue
			}
			expected[e.AccountID] = cur.Add(e.Delta)
		}
	}
	for _, acc := range snap.Accounts {
		report.Entries = append(report.Entries, AuditEntry{
			Account:  acc,
			Expected: expected[acc.ID],
			Drift:    acc.Balance.Sub(expected[acc.ID]),
		})
	}
	return report
}

// Match pairs a ledger transaction with a statement row. Signed is the
// transaction's effect on the reconciled account.
type Match struct {
	Transaction models.Transaction
	Signed      decimal.Decimal
	Statement   models.ExternalTransaction
}

type StatementReport struct {
	Account          models.Account
	Matched          []Match
	AmountMismatches []Match
	OnlyInLedger     []models.Transaction
	OnlyInStatement  []models.ExternalTransaction
}

// ReconcileStatement matches the account's ledger entries against statement
// rows. An exact match has the same signed amount and dates within
// matchWindow. Remaining entries in the same direction on the same day are
// reported as amount mismatches.
func (s *reconciliationServiceImpl) ReconcileStatement(accountID string, statement []models.ExternalTransaction) (StatementReport, error) {
	snap := s.ledger.Snapshot()
	i := slices.IndexFunc(snap.Accounts, func(a models.Account) bool { return a.ID == accountID })
	if i < 0 {
		return StatementReport{}, fmt.Errorf("ReconcileStatement: %w", ledger.ErrAccountNotFound)
	}
	report := StatementReport{Account: snap.Accounts[i]}

	var entries []Match
	for _, tx := range snap.Transactions {
		if signed, ok := ledger.EffectOn(tx, accountID); ok {
			entries = append(entries, Match{Transaction: tx, Signed: signed})
		}
	}
	slices.SortStableFunc(entries, func(a, b Match) int { return a.Transaction.Date.Compare(b.Transaction.Date) })

	usedEntry := make([]bool, len(entries))
	usedRow := make([]bool, len(statement))

	// Exact amount and direction within the window.
	for ei, e := range entries {
		for ri, row := range statement {
			if usedRow[ri] || !row.Amount.Equal(e.Signed) || !withinWindow(e.Transaction.Date, row.Date) {
				continue
			}
			e.Statement = row
			report.Matched = append(report.Matched, e)
			usedEntry[ei], usedRow[ri] = true, true
			break
		}
	}

	// Same direction and day, different amount.
	for ei, e := range entries {
		if usedEntry[ei] {
			continue
		}
		for ri, row := range statement {
			if usedRow[ri] || row.Amount.Sign() != e.Signed.Sign() || !sameDay(e.Transaction.Date, row.Date) {
				continue
			}
			e.Statement = row
			report.AmountMismatches = append(report.AmountMismatches, e)
			usedEntry[ei], usedRow[ri] = true, true
			break
		}
	}

	for ei, e := range entries {
		if !usedEntry[ei] {
			report.OnlyInLedger = append(report.OnlyInLedger, e.Transaction)
		}
	}
	for ri, row := range statement {
		if !usedRow[ri] {
			report.OnlyInStatement = append(report.OnlyInStatement, row)
		}
	}
	return report, nil
}

func withinWindow(a, b time.Time) bool {
	d := a.Sub(b)
	return d <= matchWindow && d >= -matchWindow
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Write prints the report in sections.
func (r StatementReport) Write(w io.Writer) {
	cur := r.Account.Currency
	fmt.Fprintf(w, "\n--- Reconciliation Report: %s (%s) ---\n", r.Account.Name, cur)

	fmt.Fprintln(w, "\n[Found in Both (Exact Match on Amount)]")
	for _, m := range r.Matched {
		fmt.Fprintf(w, "  MATCH: %s %s %s with statement %s %s (Ref: %s)\n",
			m.Transaction.ID, m.Transaction.Date.Format(time.DateOnly), util.FormatAmount(m.Signed, cur),
			m.Statement.ExternalID, util.FormatAmount(m.Statement.Amount, cur), m.Statement.Reference)
	}
	if len(r.Matched) == 0 {
		fmt.Fprintln(w, "  None")
	}

	fmt.Fprintln(w, "\n[Potential Matches with Mismatched Amounts]")
	for _, m := range r.AmountMismatches {
		fmt.Fprintf(w, "  MISMATCH_AMOUNT: %s %s vs statement %s %s (Ref: %s)\n",
			m.Transaction.ID, util.FormatAmount(m.Signed, cur),
			m.Statement.ExternalID, util.FormatAmount(m.Statement.Amount, cur), m.Statement.Reference)
	}
	if len(r.AmountMismatches) == 0 {
		fmt.Fprintln(w, "  None")
	}

	fmt.Fprintln(w, "\n[Only in Ledger]")
	for _, tx := range r.OnlyInLedger {
		fmt.Fprintf(w, "  %s %s %s %s %s\n", tx.ID, tx.Date.Format(time.DateOnly), tx.Type,
			util.FormatAmount(tx.Amount, cur), tx.Note)
	}
	if len(r.OnlyInLedger) == 0 {
		fmt.Fprintln(w, "  None")
	}

	fmt.Fprintln(w, "\n[Only in Statement]")
	for _, row := range r.OnlyInStatement {
		fmt.Fprintf(w, "  %s %s %s (Ref: %s)\n", row.ExternalID, row.Date.Format(time.DateOnly),
			util.FormatAmount(row.Amount, cur), row.Reference)
	}
	if len(r.OnlyInStatement) == 0 {
		fmt.Fprintln(w, "  None")
	}
	fmt.Fprintln(w, "\n--- End of Reconciliation Report ---")
}

// Write prints one line per account and any orphaned legs.
func (r AuditReport) Write(w io.Writer) {
	for _, e := range r.Entries {
		status := "OK"
		if !e.Drift.IsZero() {
			status = "DRIFT " + util.FormatAmount(e.Drift, e.Account.Currency)
		}
		fmt.Fprintf(w, "%-24s stored %s expected %s %s\n", e.Account.Name,
			util.FormatAmount(e.Account.Balance, e.Account.Currency),
			util.FormatAmount(e.Expected, e.Account.Currency), status)
	}
	for _, o := range r.Orphans {
		fmt.Fprintf(w, "ORPHAN: %s\n", o.Error())
	}
}
