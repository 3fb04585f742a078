package portfolio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	folio_errors "modelfolio/internal"
	"modelfolio/internal/allocation"
	"modelfolio/internal/domain"
	"modelfolio/internal/trade"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateInput struct {
	Name          string
	MinInvestment decimal.Decimal
	CompareWith   *string
	Holdings      []HoldingInput
}

// Outcome is the result of applying a command. Portfolio is a new value,
// the one passed to Apply is never touched.
type Outcome struct {
	Portfolio   *domain.Portfolio
	Action      Action
	Regime      Regime
	Buy         *trade.BuyResult
	Sell        *trade.SellResult
	Allocations map[string]allocation.Allocation
	Validation  allocation.WeightValidation
}

// New allocates a fresh portfolio from its initial holdings.
func New(in CreateInput, now time.Time) (*Outcome, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, folio_errors.NewValidationError("name", "name is required")
	}
	if !in.MinInvestment.IsPositive() {
		return nil, folio_errors.NewValidationError("minInvestment", "must be greater than 0, received %s", in.MinInvestment.String())
	}

	p := domain.Portfolio{
		PortfolioID:   uuid.New(),
		Name:          strings.TrimSpace(in.Name),
		MinInvestment: in.MinInvestment,
		CompareWith:   in.CompareWith,
		Holdings:      []domain.Holding{},
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return Apply(&p, Allocate{Action: Action_Add, Holdings: in.Holdings}, now)
}

// Apply runs a command against a copy of p. Nothing is returned unless
// every invariant holds on the result, so the caller can persist
// Outcome.Portfolio as is.
func Apply(p *domain.Portfolio, cmd Command, now time.Time) (*Outcome, error) {
	cp := p.DeepCopy()
	out := &Outcome{
		Portfolio: &cp,
		Action:    cmd.GetAction(),
		Regime:    cmd.GetAction().Regime(),
	}

	switch c := cmd.(type) {
	case Allocate:
		allocations, err := applyAllocate(&cp, c, now)
		if err != nil {
			return nil, err
		}
		out.Allocations = allocations
		ReconcileAllocationCash(&cp)
	case Transact:
		switch {
		case c.Action == Action_Buy && c.Buy != nil:
			result, err := trade.ProcessBuy(&cp, *c.Buy, now)
			if err != nil {
				return nil, err
			}
			out.Buy = result
		case c.Action == Action_Sell && c.Sell != nil:
			result, err := trade.ProcessSell(&cp, *c.Sell, now)
			if err != nil {
				return nil, err
			}
			out.Sell = result
		default:
			return nil, folio_errors.NewValidationError("action", "%s command is missing its order", c.Action)
		}
	default:
		return nil, fmt.Errorf("unknown command type %T", cmd)
	}

	out.Validation = allocation.ValidateWeights(cp.Holdings)
	if err := out.Validation.Err(); err != nil {
		return nil, err
	}
	if out.Regime == Regime_Allocate {
		if err := checkAllocationCost(cp); err != nil {
			return nil, err
		}
	}
	if err := CheckInvariants(cp); err != nil {
		return nil, err
	}

	cp.RefreshCurrentValue()
	cp.UpdatedAt = now

	return out, nil
}

// ReconcileAllocationCash rederives cash as whatever capital the active
// holdings didn't use. Any stored value is discarded.
func ReconcileAllocationCash(p *domain.Portfolio) {
	cash := p.MinInvestment.Sub(p.CostAtBuy())
	if cash.IsNegative() {
		cash = decimal.Zero
	}
	p.CashBalance = cash
}

// allocation built holdings may overspend their slice by the tolerance
// rule, so the ceiling is capital plus that slack per holding
func checkAllocationCost(p domain.Portfolio) error {
	cost := p.CostAtBuy()
	limit := p.MinInvestment
	for _, h := range p.ActiveHoldings() {
		limit = limit.Add(allocation.MaxOverspend(h.BuyPrice))
	}
	if cost.GreaterThan(limit) {
		return folio_errors.NewValidationError(
			"holdings",
			"holdings cost %s exceeds minimum investment %s",
			cost.StringFixed(2),
			p.MinInvestment.StringFixed(2),
		)
	}
	return nil
}

// CheckInvariants is the last gate before a portfolio is persisted.
func CheckInvariants(p domain.Portfolio) error {
	if p.CashBalance.IsNegative() {
		return fmt.Errorf("portfolio %s has negative cash %s", p.PortfolioID, p.CashBalance.String())
	}
	seen := map[string]struct{}{}
	for _, h := range p.Holdings {
		if _, ok := seen[h.Symbol]; ok {
			return fmt.Errorf("portfolio %s holds %s twice", p.PortfolioID, h.Symbol)
		}
		seen[h.Symbol] = struct{}{}
		if err := h.CheckInvariants(); err != nil {
			return err
		}
	}
	return nil
}

func applyAllocate(p *domain.Portfolio, c Allocate, now time.Time) (map[string]allocation.Allocation, error) {
	if c.Action == Action_Delete {
		return nil, deleteHoldings(p, c.Symbols)
	}

	inputs, err := normalizeInputs(c.Holdings)
	if err != nil {
		return nil, err
	}

	allocations := map[string]allocation.Allocation{}
	place := func(in HoldingInput, existing *domain.Holding) (domain.Holding, error) {
		h, a, err := allocateHolding(in, existing, p.MinInvestment, now)
		if err != nil {
			return domain.Holding{}, err
		}
		allocations[h.Symbol] = *a
		return h, nil
	}

	switch c.Action {
	case Action_Add:
		for _, in := range inputs {
			idx := p.FindHolding(in.Symbol)
			if idx >= 0 && p.Holdings[idx].IsActive() {
				return nil, folio_errors.NewValidationError("holdings", "%s is already held, use update", in.Symbol)
			}
			var existing *domain.Holding
			if idx >= 0 {
				existing = &p.Holdings[idx]
			}
			h, err := place(in, existing)
			if err != nil {
				return nil, err
			}
			if idx >= 0 {
				p.Holdings[idx] = h
			} else {
				p.Holdings = append(p.Holdings, h)
			}
		}

	case Action_Replace:
		next := []domain.Holding{}
		inbound := map[string]struct{}{}
		for _, in := range inputs {
			inbound[in.Symbol] = struct{}{}
			var existing *domain.Holding
			if idx := p.FindHolding(in.Symbol); idx >= 0 {
				existing = &p.Holdings[idx]
			}
			h, err := place(in, existing)
			if err != nil {
				return nil, err
			}
			next = append(next, h)
		}
		// sold positions stay for their realized P&L and ledger
		for _, h := range p.Holdings {
			if _, ok := inbound[h.Symbol]; !ok && !h.IsActive() {
				next = append(next, h)
			}
		}
		p.Holdings = next

	default:
		for _, in := range inputs {
			idx := p.FindHolding(in.Symbol)
			var existing *domain.Holding
			if idx >= 0 {
				existing = &p.Holdings[idx]
			}
			h, err := place(in, existing)
			if err != nil {
				return nil, err
			}
			if idx >= 0 {
				p.Holdings[idx] = h
			} else {
				p.Holdings = append(p.Holdings, h)
			}
		}
	}

	return allocations, nil
}

func normalizeInputs(inputs []HoldingInput) ([]HoldingInput, error) {
	out := make([]HoldingInput, 0, len(inputs))
	seen := map[string]struct{}{}
	for _, in := range inputs {
		in.Symbol = strings.ToUpper(strings.TrimSpace(in.Symbol))
		if in.Symbol == "" {
			return nil, folio_errors.NewValidationError("symbol", "every holding needs a symbol")
		}
		if _, ok := seen[in.Symbol]; ok {
			return nil, folio_errors.NewValidationError("symbol", "%s appears more than once", in.Symbol)
		}
		seen[in.Symbol] = struct{}{}
		out = append(out, in)
	}
	return out, nil
}

func deleteHoldings(p *domain.Portfolio, symbols []string) error {
	drop := map[string]struct{}{}
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if p.FindHolding(s) < 0 {
			return folio_errors.NotFoundError{Entity: "holding", ID: s}
		}
		drop[s] = struct{}{}
	}
	kept := []domain.Holding{}
	for _, h := range p.Holdings {
		if _, ok := drop[h.Symbol]; !ok {
			kept = append(kept, h)
		}
	}
	p.Holdings = kept
	return nil
}

// allocateHolding sizes one holding from its weight. existing is the stored
// holding for the symbol, if any, and supplies whatever the input leaves out.
func allocateHolding(in HoldingInput, existing *domain.Holding, capital decimal.Decimal, now time.Time) (domain.Holding, *allocation.Allocation, error) {
	var weight, price decimal.Decimal
	switch {
	case in.Weight != nil:
		weight = *in.Weight
	case existing != nil && existing.IsActive():
		weight = existing.Weight
	default:
		return domain.Holding{}, nil, folio_errors.NewValidationError("weight", "weight is required for %s", in.Symbol)
	}
	switch {
	case in.BuyPrice != nil:
		price = *in.BuyPrice
	case existing != nil:
		price = existing.BuyPrice
	default:
		return domain.Holding{}, nil, folio_errors.NewValidationError("buyPrice", "buy price is required for %s", in.Symbol)
	}

	a, err := allocation.Allocate(weight, price, capital)
	if err != nil {
		var verr folio_errors.ValidationError
		if errors.As(err, &verr) {
			verr.Message = in.Symbol + ": " + verr.Message
			return domain.Holding{}, nil, verr
		}
		return domain.Holding{}, nil, err
	}
	if a.Quantity == 0 {
		return domain.Holding{}, nil, folio_errors.NewValidationError(
			"weight",
			"%s%% of %s does not buy a single share of %s at %s",
			weight.String(), capital.StringFixed(2), in.Symbol, price.String(),
		)
	}

	h := domain.Holding{
		Symbol:           in.Symbol,
		Sector:           in.Sector,
		BuyPrice:         price,
		OriginalBuyPrice: price,
		CurrentPrice:     price,
		Quantity:         a.Quantity,
		Weight:           weight,
		RealizedPnL:      decimal.Zero,
		Status:           domain.HoldingStatus_FreshBuy,
		PriceHistory:     []domain.PriceHistoryEntry{},
		LastUpdated:      now,
	}

	delta := a.Quantity
	if existing != nil {
		prev := existing.DeepCopy()
		h.OriginalBuyPrice = prev.OriginalBuyPrice
		h.RealizedPnL = prev.RealizedPnL
		h.PriceHistory = prev.PriceHistory
		if prev.CurrentPrice.IsPositive() {
			h.CurrentPrice = prev.CurrentPrice
		}
		if h.Sector == "" {
			h.Sector = prev.Sector
		}
		if prev.IsActive() {
			delta = a.Quantity - prev.Quantity
			switch {
			case delta > 0:
				h.Status = domain.HoldingStatus_AddonBuy
			default:
				h.Status = domain.HoldingStatus_Hold
			}
		}
	}
	if in.CurrentPrice != nil && in.CurrentPrice.IsPositive() {
		h.CurrentPrice = *in.CurrentPrice
	}

	if delta != 0 {
		action := domain.PriceHistoryAction_Buy
		if delta < 0 {
			action = domain.PriceHistoryAction_PartialSell
		}
		h.AppendHistory(domain.PriceHistoryEntry{
			Date:     now,
			Price:    price,
			Quantity: delta,
			Action:   action,
		})
	}
	h.Revalue()

	return h, a, nil
}
