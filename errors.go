package invoicing

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("invoicing: not found")
	ErrInvalidInput = errors.New("invoicing: invalid input")
	ErrMissingActor = errors.New("invoicing: missing actor identity")

	// Invoice errors
	ErrInvoiceNotFound    = errors.New("invoicing: invoice not found")
	ErrDuplicateReference = errors.New("invoicing: duplicate reference number")
	ErrInvalidTransition  = errors.New("invoicing: invalid status transition")
	ErrVersionConflict    = errors.New("invoicing: invoice modified concurrently")

	// Transaction errors
	ErrTransactionNotFound = errors.New("invoicing: transaction not found")
	ErrMissingInvoice      = errors.New("invoicing: transaction requires an invoice")

	// Store errors
	ErrStoreClosed = errors.New("invoicing: store is closed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invoicing: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// IsConflict returns true if the error indicates a write lost to another:
// a duplicate reference number or a concurrent modification.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateReference) ||
		errors.Is(err, ErrVersionConflict)
}

// IsValidation returns true if the error is client input the engine
// rejected before touching the store.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrMissingActor) ||
		errors.Is(err, ErrMissingInvoice)
}
