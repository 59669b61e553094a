package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zenwallet/internal/service"
	"zenwallet/models"
)

// AccountsHandler handles account endpoints.
type AccountsHandler struct {
	ledger service.LedgerService
}

func NewAccountsHandler(l service.LedgerService) *AccountsHandler {
	return &AccountsHandler{ledger: l}
}

// List handles GET /api/accounts.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"accounts": h.ledger.Snapshot().Accounts})
}

// Create handles POST /api/accounts.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d models.AccountDraft
	if !decode(w, r, &d) {
		return
	}
	acc, err := h.ledger.AddAccount(r.Context(), d)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"account": acc})
}

// Update handles PUT /api/accounts/{id}.
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var d models.AccountDraft
	if !decode(w, r, &d) {
		return
	}
	acc, err := h.ledger.UpdateAccount(r.Context(), chi.URLParam(r, "id"), d)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": acc})
}

// Delete handles DELETE /api/accounts/{id}.
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
