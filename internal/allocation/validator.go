package allocation

import (
	"fmt"
	"strings"

	folio_errors "modelfolio/internal"
	"modelfolio/internal/domain"

	"github.com/shopspring/decimal"
)

type WeightValidation struct {
	Valid           bool
	TotalWeight     decimal.Decimal
	MaxAllowed      decimal.Decimal
	RemainingWeight decimal.Decimal
	ActiveCount     int
	SoldCount       int
	Errors          []string
	Warnings        []string

	overAllocated bool
}

// ValidateWeights checks that active holdings never claim more than 100%
// of capital. Sold holdings are ignored apart from a warning when they
// still carry weight.
func ValidateWeights(holdings []domain.Holding) WeightValidation {
	out := WeightValidation{
		TotalWeight: decimal.Zero,
		MaxAllowed:  maxWeight,
		Errors:      []string{},
		Warnings:    []string{},
	}

	for _, h := range holdings {
		if !h.IsActive() {
			out.SoldCount++
			if !h.Weight.IsZero() {
				out.Warnings = append(out.Warnings, fmt.Sprintf("sold holding %s still has weight %s%%", h.Symbol, h.Weight.String()))
			}
			continue
		}
		out.ActiveCount++
		if h.Weight.IsNegative() {
			out.Errors = append(out.Errors, fmt.Sprintf("holding %s has negative weight %s%%", h.Symbol, h.Weight.String()))
		}
		out.TotalWeight = out.TotalWeight.Add(h.Weight)
	}

	if out.TotalWeight.GreaterThan(maxWeight) {
		out.overAllocated = true
		out.Errors = append(out.Errors, fmt.Sprintf("total weight %s%% exceeds %s%%", out.TotalWeight.String(), maxWeight.String()))
	}
	out.RemainingWeight = maxWeight.Sub(out.TotalWeight)
	out.Valid = len(out.Errors) == 0

	return out
}

// Err turns a failed validation into the error a write should be rejected
// with. Over-allocation wins over the other findings.
func (v WeightValidation) Err() error {
	if v.Valid {
		return nil
	}
	if v.overAllocated {
		return folio_errors.OverAllocationError{
			TotalWeight: v.TotalWeight,
			MaxAllowed:  v.MaxAllowed,
		}
	}
	return folio_errors.ValidationError{
		Field:   "weight",
		Message: strings.Join(v.Errors, "; "),
	}
}
