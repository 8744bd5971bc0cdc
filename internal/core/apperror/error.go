// Package apperror provides structured error handling for the kitchen and
// inventory core. All business errors must use AppError so the HTTP layer can
// render consistent responses and callers can branch on machine codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by concern.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeBatchLocked       = "BATCH_LOCKED"
	CodeInvalidTransition = "INVALID_TRANSITION"

	// Contention (409, retryable)
	CodeLockTimeout = "LOCK_TIMEOUT"
	CodeConflict    = "CONFLICT"

	// Ledger consistency check failed (500, fatal for the enclosing operation)
	CodeLedgerInvariant = "LEDGER_INVARIANT_VIOLATION"

	// Authorization errors (401)
	CodeUnauthorized = "UNAUTHORIZED"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"
)

// AppError is the standard error type for the service.
// It implements the error interface and carries structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (ids, quantities, attempted edges)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Retryable marks contention errors the caller may safely retry
	Retryable bool `json:"retryable,omitempty"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInsufficientStock is returned when allocation is infeasible for an ingredient.
// Recoverable: the caller can substitute or wait for a delivery.
func NewInsufficientStock(ingredientID string, requested, available string) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"ingredient_id": ingredientID,
			"requested":     requested,
			"available":     available,
		},
	}
}

// NewBatchLocked is returned on attempted mutation of a held batch.
func NewBatchLocked(batchID string, lockedBy string) *AppError {
	return &AppError{
		Code:       CodeBatchLocked,
		Message:    "Batch is locked",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"batch_id":  batchID,
			"locked_by": lockedBy,
		},
	}
}

// NewInvalidTransition names the rejected state-machine edge.
// Always surfaced: it indicates a caller bug, never silently ignored.
func NewInvalidTransition(entity, from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("Cannot transition %s from %s to %s", entity, from, to),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"entity": entity,
			"from":   from,
			"to":     to,
		},
	}
}

// NewLockTimeout is returned when per-ingredient lock acquisition exceeds the
// bounded wait. Retryable by contract.
func NewLockTimeout(ingredientID string) *AppError {
	return &AppError{
		Code:       CodeLockTimeout,
		Message:    "Timed out waiting for ingredient lock",
		HTTPStatus: http.StatusConflict,
		Retryable:  true,
		Details:    map[string]any{"ingredient_id": ingredientID},
	}
}

// NewLedgerInvariant reports an internal ledger consistency failure.
// Fatal for the enclosing operation; must be logged for manual reconciliation
// and never auto-corrected.
func NewLedgerInvariant(batchID string, message string) *AppError {
	return &AppError{
		Code:       CodeLedgerInvariant,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"batch_id": batchID},
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewInternal creates an internal server error (hides details from clients).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode checks whether err carries the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsInsufficientStock checks if error is CodeInsufficientStock.
func IsInsufficientStock(err error) bool { return IsCode(err, CodeInsufficientStock) }

// IsInvalidTransition checks if error is CodeInvalidTransition.
func IsInvalidTransition(err error) bool { return IsCode(err, CodeInvalidTransition) }

// IsLockTimeout checks if error is CodeLockTimeout.
func IsLockTimeout(err error) bool { return IsCode(err, CodeLockTimeout) }

// IsNotFound checks if error is CodeNotFound.
func IsNotFound(err error) bool { return IsCode(err, CodeNotFound) }
