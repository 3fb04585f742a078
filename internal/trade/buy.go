package trade

import (
	"strings"
	"time"

	folio_errors "modelfolio/internal"
	"modelfolio/internal/domain"

	"github.com/shopspring/decimal"
)

type BuyOrder struct {
	Symbol   string
	Sector   string
	Price    decimal.Decimal
	Quantity int64
	// CurrentPrice is the market price to mark the holding at after the
	// buy. Zero means the purchase price.
	CurrentPrice decimal.Decimal
	// Weight overrides the holding's target weight. When nil a new holding
	// gets the weight its cost represents of the portfolio's capital and an
	// existing one keeps its weight.
	Weight *decimal.Decimal
	// Date stamps the ledger entry. Zero means now.
	Date time.Time
}

type BuyResult struct {
	Symbol           string
	IsNewHolding     bool
	PriceRefreshOnly bool
	QuantityBought   int64
	AmountSpent      decimal.Decimal
	PreviousBuyPrice decimal.Decimal
	NewBuyPrice      decimal.Decimal
	CashBalance      decimal.Decimal
	Holding          domain.Holding
}

func validateBuyOrder(o BuyOrder) error {
	if strings.TrimSpace(o.Symbol) == "" {
		return folio_errors.NewValidationError("symbol", "symbol is required")
	}
	if !o.Price.IsPositive() {
		return folio_errors.NewValidationError("price", "buy price must be greater than 0 for %s, received %s", o.Symbol, o.Price.String())
	}
	if o.Quantity < 0 {
		return folio_errors.NewValidationError("quantity", "quantity must not be negative for %s, received %d", o.Symbol, o.Quantity)
	}
	if o.CurrentPrice.IsNegative() {
		return folio_errors.NewValidationError("currentPrice", "current price must not be negative for %s", o.Symbol)
	}
	if o.Weight != nil && (o.Weight.IsNegative() || o.Weight.GreaterThan(domain.Hundred)) {
		return folio_errors.NewValidationError("weight", "weight must be in [0, 100] for %s, received %s", o.Symbol, o.Weight.String())
	}
	return nil
}

// CheckCash fails with the shortfall when the portfolio can't pay for
// quantity shares at price.
func CheckCash(symbol string, available, price decimal.Decimal, quantity int64) error {
	required := price.Mul(decimal.NewFromInt(quantity))
	if available.LessThan(required) {
		return folio_errors.InsufficientFundsError{
			Symbol:    symbol,
			Required:  required,
			Available: available,
			Shortfall: required.Sub(available),
		}
	}
	return nil
}

// WeightedAverage is the new basis after adding newQty shares at newPrice
// to existingQty shares held at existingPrice.
func WeightedAverage(existingQty int64, existingPrice decimal.Decimal, newQty int64, newPrice decimal.Decimal) decimal.Decimal {
	totalQty := existingQty + newQty
	if totalQty == 0 {
		return existingPrice
	}
	existingCost := existingPrice.Mul(decimal.NewFromInt(existingQty))
	newCost := newPrice.Mul(decimal.NewFromInt(newQty))
	return existingCost.Add(newCost).Div(decimal.NewFromInt(totalQty))
}

// ProcessBuy merges a purchase into the portfolio: a new holding for an
// unseen symbol, a weighted-average top up for an active one. Every check
// runs before anything on p is touched.
func ProcessBuy(p *domain.Portfolio, o BuyOrder, now time.Time) (*BuyResult, error) {
	o.Symbol = strings.ToUpper(strings.TrimSpace(o.Symbol))
	if err := validateBuyOrder(o); err != nil {
		return nil, err
	}
	if o.Date.IsZero() {
		o.Date = now
	}
	marketPrice := o.CurrentPrice
	if marketPrice.IsZero() {
		marketPrice = o.Price
	}

	idx := p.FindHolding(o.Symbol)

	if o.Quantity == 0 {
		if idx < 0 || !p.Holdings[idx].IsActive() {
			return nil, folio_errors.NewValidationError("quantity", "quantity must be greater than 0 to open a position in %s", o.Symbol)
		}
		h := &p.Holdings[idx]
		h.CurrentPrice = marketPrice
		h.LastUpdated = o.Date
		h.Revalue()
		return &BuyResult{
			Symbol:           o.Symbol,
			PriceRefreshOnly: true,
			AmountSpent:      decimal.Zero,
			PreviousBuyPrice: h.BuyPrice,
			NewBuyPrice:      h.BuyPrice,
			CashBalance:      p.CashBalance,
			Holding:          h.DeepCopy(),
		}, nil
	}

	if err := CheckCash(o.Symbol, p.CashBalance, o.Price, o.Quantity); err != nil {
		return nil, err
	}

	spend := o.Price.Mul(decimal.NewFromInt(o.Quantity))
	weight := impliedWeight(p, o, spend)
	entry := domain.PriceHistoryEntry{
		Date:     o.Date,
		Price:    o.Price,
		Quantity: o.Quantity,
		Action:   domain.PriceHistoryAction_Buy,
	}

	result := &BuyResult{
		Symbol:         o.Symbol,
		QuantityBought: o.Quantity,
		AmountSpent:    spend,
	}

	if idx < 0 {
		h := domain.Holding{
			Symbol:           o.Symbol,
			Sector:           o.Sector,
			BuyPrice:         o.Price,
			OriginalBuyPrice: o.Price,
			CurrentPrice:     marketPrice,
			Quantity:         o.Quantity,
			Weight:           weight,
			RealizedPnL:      decimal.Zero,
			Status:           domain.HoldingStatus_FreshBuy,
			LastUpdated:      o.Date,
		}
		h.AppendHistory(entry)
		h.Revalue()
		p.Holdings = append(p.Holdings, h)
		idx = len(p.Holdings) - 1

		result.IsNewHolding = true
		result.PreviousBuyPrice = decimal.Zero
	} else {
		h := &p.Holdings[idx]
		result.PreviousBuyPrice = h.BuyPrice
		if h.IsActive() {
			h.BuyPrice = WeightedAverage(h.Quantity, h.BuyPrice, o.Quantity, o.Price)
			h.Status = domain.HoldingStatus_AddonBuy
			if o.Weight != nil {
				h.Weight = *o.Weight
			}
		} else {
			// reopening a sold position. nothing is held so the basis is
			// just the new price; the ledger and realized P&L carry over
			h.BuyPrice = o.Price
			h.Status = domain.HoldingStatus_FreshBuy
			h.Weight = weight
			result.IsNewHolding = true
		}
		if o.Sector != "" {
			h.Sector = o.Sector
		}
		h.Quantity += o.Quantity
		h.CurrentPrice = marketPrice
		h.LastUpdated = o.Date
		h.AppendHistory(entry)
		h.Revalue()
	}

	p.CashBalance = p.CashBalance.Sub(spend)

	result.NewBuyPrice = p.Holdings[idx].BuyPrice
	result.CashBalance = p.CashBalance
	result.Holding = p.Holdings[idx].DeepCopy()

	return result, nil
}

// impliedWeight is the order's weight, or else the share of current
// capital the spend represents. Capital never counts below MinInvestment
// and grows with realized profits held as cash. The implied weight is
// capped at what the other active holdings leave free.
func impliedWeight(p *domain.Portfolio, o BuyOrder, spend decimal.Decimal) decimal.Decimal {
	if o.Weight != nil {
		return *o.Weight
	}
	capital := decimal.Max(p.MinInvestment, p.CashBalance.Add(p.CostAtBuy()))
	w, ok := domain.PercentOf(spend, capital)
	if !ok {
		return decimal.Zero
	}

	free := domain.Hundred
	for _, h := range p.ActiveHoldings() {
		if h.Symbol != o.Symbol {
			free = free.Sub(h.Weight)
		}
	}
	if free.IsNegative() {
		free = decimal.Zero
	}
	return decimal.Min(w.Round(2), free)
}
