package allocation

import (
	folio_errors "modelfolio/internal"
	"modelfolio/internal/domain"

	"github.com/shopspring/decimal"
)

// ToleranceFraction is how much of one share's price we accept as
// overspend to avoid leaving that share's worth of cash idle.
var ToleranceFraction = decimal.NewFromFloat(0.10)

var maxWeight = domain.Hundred

type Allocation struct {
	Quantity               int64
	AllocatedAmount        decimal.Decimal
	ActualInvestmentAmount decimal.Decimal
	LeftoverAmount         decimal.Decimal
	AccurateWeight         decimal.Decimal
}

// Allocate turns a target weight into a whole number of shares. It is pure,
// the same inputs always give the same allocation, which is what lets us
// recompute a stored holding to check it wasn't tampered with.
func Allocate(weightPercent, buyPrice, totalInvestment decimal.Decimal) (*Allocation, error) {
	if !weightPercent.IsPositive() || weightPercent.GreaterThan(maxWeight) {
		return nil, folio_errors.NewValidationError("weight", "must be in (0, 100], received %s", weightPercent.String())
	}
	if !buyPrice.IsPositive() {
		return nil, folio_errors.NewValidationError("buyPrice", "must be greater than 0, received %s", buyPrice.String())
	}
	if !totalInvestment.IsPositive() {
		return nil, folio_errors.NewValidationError("totalInvestment", "must be greater than 0, received %s", totalInvestment.String())
	}

	allocated := weightPercent.Div(domain.Hundred).Mul(totalInvestment)
	quantity := allocated.Div(buyPrice).Floor()
	leftover := allocated.Sub(quantity.Mul(buyPrice))

	// one more share costs (price - leftover) beyond the slice. take it if
	// that's within tolerance; leftover goes negative
	gap := buyPrice.Sub(leftover)
	if gap.LessThanOrEqual(ToleranceFraction.Mul(buyPrice)) {
		quantity = quantity.Add(decimal.NewFromInt(1))
		leftover = allocated.Sub(quantity.Mul(buyPrice))
	}

	actual := quantity.Mul(buyPrice)
	accurateWeight := actual.Div(totalInvestment).Mul(domain.Hundred)

	return &Allocation{
		Quantity:               quantity.IntPart(),
		AllocatedAmount:        allocated,
		ActualInvestmentAmount: actual,
		LeftoverAmount:         leftover,
		AccurateWeight:         accurateWeight,
	}, nil
}

// MaxOverspend is the most the tolerance rule can push a single holding
// past its allocated slice.
func MaxOverspend(buyPrice decimal.Decimal) decimal.Decimal {
	return ToleranceFraction.Mul(buyPrice)
}

// Verify recomputes the allocation for a stored holding and reports
// whether its quantity matches what the allocator would produce.
func Verify(h domain.Holding, totalInvestment decimal.Decimal) (bool, *Allocation, error) {
	a, err := Allocate(h.Weight, h.BuyPrice, totalInvestment)
	if err != nil {
		return false, nil, err
	}
	return a.Quantity == h.Quantity, a, nil
}
