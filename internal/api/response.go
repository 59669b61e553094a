package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"zenwallet/internal/ledger"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}

// writeLedgerError maps ledger rejections onto HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	var verr *ledger.ValidationError
	var rerr *ledger.ReferentialIntegrityError
	switch {
	case errors.As(err, &verr):
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
	case errors.As(err, &rerr):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case ledger.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to update ledger")
	}
}

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request_too_large", "Request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return false
	}
	return true
}
