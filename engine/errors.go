/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error kinds in one place. Callers match with errors.Is (sentinels) or
  errors.As (structured types carrying context).

ERROR CATEGORIES:
  1. Validation errors - rule-violating input, rejected before any mutation
  2. Balance errors    - settlement exceeds a worker's accrued balance
  3. Not-found errors  - unknown event or worker id
  4. Consistency errors - a cross-entity write partially failed and could not
     be rolled back; surfaced distinctly so operators know manual
     reconciliation is needed

SEE ALSO:
  - coordinator.go: produces these errors
  - api/handlers.go: maps them to HTTP status codes
*/
package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all input validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientBalance is returned when a settlement amount exceeds the
	// worker's current accrued balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrEventNotFound is returned when a referenced event doesn't exist.
	ErrEventNotFound = errors.New("event not found")

	// ErrWorkerNotFound is returned when a referenced worker doesn't exist.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrConsistency is returned when an atomic cross-entity write partially
	// failed. The stores may disagree until manually reconciled.
	ErrConsistency = errors.New("stores inconsistent: partial write")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the field and rule that rejected the input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalidf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	WorkerID  WorkerID
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for worker %s: available %s, requested %s",
		e.WorkerID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// ConsistencyError records what was applied before the failure. Rollback was
// attempted and also failed, so the payload is for the operator's benefit.
type ConsistencyError struct {
	Op      string
	Applied []string
	Cause   error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: consistency failure after %d applied steps: %v",
		e.Op, len(e.Applied), e.Cause)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientBalance)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEventNotFound) || errors.Is(err, ErrWorkerNotFound)
}
