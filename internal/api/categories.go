package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zenwallet/internal/service"
)

// CategoriesHandler handles category and sub-category endpoints.
type CategoriesHandler struct {
	ledger service.LedgerService
}

func NewCategoriesHandler(l service.LedgerService) *CategoriesHandler {
	return &CategoriesHandler{ledger: l}
}

type nameRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": h.ledger.Snapshot().Categories})
}

// Create handles POST /api/categories.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	cat, err := h.ledger.AddCategory(r.Context(), req.Name)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"category": cat})
}

// Delete handles DELETE /api/categories/{id}.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateSub handles POST /api/categories/{id}/sub-categories.
func (h *CategoriesHandler) CreateSub(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	cat, err := h.ledger.AddSubCategory(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"category": cat})
}

// DeleteSub handles DELETE /api/categories/{id}/sub-categories/{name}.
func (h *CategoriesHandler) DeleteSub(w http.ResponseWriter, r *http.Request) {
	err := h.ledger.DeleteSubCategory(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
