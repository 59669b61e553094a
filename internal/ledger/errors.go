package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount       = errors.New("amount must be a positive number")
	ErrInvalidExpression   = errors.New("invalid amount expression")
	ErrMissingField        = errors.New("required field is empty")
	ErrInvalidType         = errors.New("unknown type")
	ErrAccountNotFound     = errors.New("account not found")
	ErrSameAccountTransfer = errors.New("cannot transfer funds to the same account")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrDuplicateCategory   = errors.New("category already exists")
	ErrAccountInUse        = errors.New("account is referenced by transactions")
	ErrLastAccount         = errors.New("cannot delete the last account")
	ErrCategoryInUse       = errors.New("category is used in transactions")
)

// ValidationError rejects a draft. Nothing was changed.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// ReferentialIntegrityError rejects a delete that would leave dangling
// references. Nothing was changed.
type ReferentialIntegrityError struct {
	Kind       string // "account", "category" or "sub-category"
	Name       string
	References int
	Err        error
}

func (e *ReferentialIntegrityError) Error() string {
	if e.References > 0 {
		return fmt.Sprintf("cannot delete %s %q: %v (%d)", e.Kind, e.Name, e.Err, e.References)
	}
	return fmt.Sprintf("cannot delete %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *ReferentialIntegrityError) Unwrap() error { return e.Err }

// MissingReferenceError describes a transaction leg whose account no longer
// exists. It is reported, never fatal.
type MissingReferenceError struct {
	TransactionID string
	AccountID     string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("transaction %s references missing account %s", e.TransactionID, e.AccountID)
}

func (e *MissingReferenceError) Unwrap() error { return ErrAccountNotFound }

// IsNotFound reports whether err means the addressed record does not exist.
func IsNotFound(err error) bool {
	var missing *MissingReferenceError
	if errors.As(err, &missing) {
		return false
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return false
	}
	return errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrCategoryNotFound)
}
