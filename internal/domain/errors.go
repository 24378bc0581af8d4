package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrOrderNotFound  = errors.New("order_not_found")
	ErrSymbolNotFound = errors.New("symbol_not_found")
)

// ValidationError represents an order that fails submission validation
// (non-positive price or quantity, missing user or symbol). It is
// raised before any state mutation, so a rejected submission has no
// side effects.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
