package api

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"zenwallet/internal/export"
	"zenwallet/internal/ledger"
	"zenwallet/internal/service"
	"zenwallet/internal/util"
)

// ReportsHandler serves read-only views derived from the ledger.
type ReportsHandler struct {
	ledger service.LedgerService
	recon  service.ReconciliationService
	now    func() time.Time
}

func NewReportsHandler(l service.LedgerService, recon service.ReconciliationService) *ReportsHandler {
	return &ReportsHandler{ledger: l, recon: recon, now: time.Now}
}

type preBalance struct {
	TransactionID string          `json:"transactionId"`
	AccountID     string          `json:"accountId"`
	Before        decimal.Decimal `json:"before"`
}

// PreBalances handles GET /api/pre-balances.
func (h *ReportsHandler) PreBalances(w http.ResponseWriter, r *http.Request) {
	pre := h.ledger.PreBalances()
	out := make([]preBalance, 0, len(pre))
	for _, tx := range h.ledger.Snapshot().Transactions {
		for _, id := range []string{tx.AccountID, tx.ToAccountID} {
			if id == "" {
				continue
			}
			if v, ok := pre[ledger.Perspective{TransactionID: tx.ID, AccountID: id}]; ok {
				out = append(out, preBalance{TransactionID: tx.ID, AccountID: id, Before: v})
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"preBalances": out})
}

// Notes handles GET /api/notes.
func (h *ReportsHandler) Notes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"notes": h.ledger.NoteSuggestions()})
}

type total struct {
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	Formatted string          `json:"formatted"`
}

// Totals handles GET /api/totals.
func (h *ReportsHandler) Totals(w http.ResponseWriter, r *http.Request) {
	totals := h.ledger.TotalsByCurrency()
	out := make([]total, 0, len(totals))
	for _, code := range slices.Sorted(maps.Keys(totals)) {
		out = append(out, total{Currency: code, Amount: totals[code], Formatted: util.FormatAmount(totals[code], code)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"totals": out})
}

type auditEntry struct {
	AccountID string          `json:"accountId"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Expected  decimal.Decimal `json:"expected"`
	Drift     decimal.Decimal `json:"drift"`
}

type orphan struct {
	TransactionID string `json:"transactionId"`
	AccountID     string `json:"accountId"`
}

// Audit handles GET /api/audit.
func (h *ReportsHandler) Audit(w http.ResponseWriter, r *http.Request) {
	report := h.recon.AuditBalances()
	entries := make([]auditEntry, 0, len(report.Entries))
	for _, e := range report.Entries {
		entries = append(entries, auditEntry{
			AccountID: e.Account.ID,
			Name:      e.Account.Name,
			Balance:   e.Account.Balance,
			Expected:  e.Expected,
			Drift:     e.Drift,
		})
	}
	orphans := make([]orphan, 0, len(report.Orphans))
	for _, o := range report.Orphans {
		orphans = append(orphans, orphan{TransactionID: o.TransactionID, AccountID: o.AccountID})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"balanced": report.Balanced(),
		"entries":  entries,
		"orphans":  orphans,
	})
}

// Export handles GET /api/export and streams the ledger as an xlsx workbook.
func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"ledger_%s.xlsx\"", h.now().Format("20060102")))
	if err := export.WriteWorkbook(w, h.ledger.Snapshot()); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to export ledger")
	}
}
