package folio_errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidationError is returned for bad input shape or range. Nothing has
// been mutated when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...interface{}) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

type InsufficientFundsError struct {
	Symbol    string
	Required  decimal.Decimal
	Available decimal.Decimal
	Shortfall decimal.Decimal
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient cash to buy %s: required %s, available %s, shortfall %s",
		e.Symbol,
		e.Required.StringFixed(2),
		e.Available.StringFixed(2),
		e.Shortfall.StringFixed(2),
	)
}

type OverAllocationError struct {
	TotalWeight decimal.Decimal
	MaxAllowed  decimal.Decimal
}

func (e OverAllocationError) Error() string {
	return fmt.Sprintf("total weight %s%% exceeds maximum %s%%", e.TotalWeight.String(), e.MaxAllowed.String())
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// TransientStorageError wraps storage failures that are worth retrying
// (dropped connections, serialization failures, deadlocks).
type TransientStorageError struct {
	Op  string
	Err error
}

func (e TransientStorageError) Error() string {
	return fmt.Sprintf("transient storage failure during %s: %v", e.Op, e.Err)
}

func (e TransientStorageError) Unwrap() error { return e.Err }

// PriceUnavailableError is never fatal for valuation. Callers log it and
// fall back to the holding's buy price.
type PriceUnavailableError struct {
	Symbol string
	Err    error
}

func (e PriceUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("no price available for %s", e.Symbol)
	}
	return fmt.Sprintf("no price available for %s: %v", e.Symbol, e.Err)
}

func (e PriceUnavailableError) Unwrap() error { return e.Err }

// ConflictError means another writer bumped the portfolio version between
// our read and our write.
type ConflictError struct {
	PortfolioID     uuid.UUID
	ExpectedVersion int64
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("portfolio %s was modified concurrently (expected version %d)", e.PortfolioID.String(), e.ExpectedVersion)
}

func IsTransient(err error) bool {
	return errors.As(err, &TransientStorageError{})
}

func IsConflict(err error) bool {
	return errors.As(err, &ConflictError{})
}

func IsNotFound(err error) bool {
	return errors.As(err, &NotFoundError{})
}
