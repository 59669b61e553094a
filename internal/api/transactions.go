package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"zenwallet/internal/service"
	"zenwallet/models"
)

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	ledger service.LedgerService
}

func NewTransactionsHandler(l service.LedgerService) *TransactionsHandler {
	return &TransactionsHandler{ledger: l}
}

// List handles GET /api/transactions. With ?accounts=a,b it returns the
// running-balance rows for those accounts, newest first; without it, rows
// for all accounts.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	var selected []string
	if raw := r.URL.Query().Get("accounts"); raw != "" {
		selected = strings.Split(raw, ",")
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": h.ledger.Rows(selected)})
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.ledger.Transaction(chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": tx})
}

// Create handles POST /api/transactions.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d models.TransactionDraft
	if !decode(w, r, &d) {
		return
	}
	tx, err := h.ledger.CreateTransaction(r.Context(), d)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": tx})
}

// Update handles PUT /api/transactions/{id}.
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var d models.TransactionDraft
	if !decode(w, r, &d) {
		return
	}
	tx, err := h.ledger.EditTransaction(r.Context(), chi.URLParam(r, "id"), d)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": tx})
}

// Delete handles DELETE /api/transactions/{id}.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clone handles POST /api/transactions/{id}/clone.
func (h *TransactionsHandler) Clone(w http.ResponseWriter, r *http.Request) {
	tx, err := h.ledger.CloneTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": tx})
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDelete handles POST /api/transactions/bulk-delete.
func (h *TransactionsHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.ledger.BulkDeleteTransactions(r.Context(), req.IDs)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}
