package metrics

import (
	"modelfolio/internal/domain"

	"github.com/shopspring/decimal"
)

type PriceKind string

const (
	PriceKind_Closing PriceKind = "closing"
	PriceKind_Current PriceKind = "current"
	PriceKind_Buy     PriceKind = "buy"
)

type HoldingValuation struct {
	Symbol   string
	Quantity int64
	Price    decimal.Decimal
	Kind     PriceKind
	Value    decimal.Decimal
}

type Valuation struct {
	PortfolioValue    decimal.Decimal
	CashRemaining     decimal.Decimal
	HoldingsValue     decimal.Decimal
	UsedClosingPrices bool
	Holdings          []HoldingValuation
	// FellBack lists symbols valued at their buy price.
	FellBack []string
}

// PriceForValuation picks the price a holding is valued at. A closing
// price wins when asked for, then the current price, and the buy price
// covers a symbol the price source had nothing for.
func PriceForValuation(h domain.Holding, q *domain.Quote, useClosing bool) (decimal.Decimal, PriceKind) {
	if q != nil {
		if useClosing && q.ClosingPrice != nil && q.ClosingPrice.IsPositive() {
			return *q.ClosingPrice, PriceKind_Closing
		}
		if q.CurrentPrice.IsPositive() {
			return q.CurrentPrice, PriceKind_Current
		}
	}
	return h.BuyPrice, PriceKind_Buy
}

// NetValue is cash + Σ quantity * price over active holdings. quotes is
// keyed by symbol; a missing entry means the price source had no quote.
func NetValue(p domain.Portfolio, quotes map[string]domain.Quote, useClosing bool) Valuation {
	out := Valuation{
		CashRemaining:     p.CashBalance,
		HoldingsValue:     decimal.Zero,
		UsedClosingPrices: useClosing,
		Holdings:          []HoldingValuation{},
		FellBack:          []string{},
	}

	for _, h := range p.ActiveHoldings() {
		var q *domain.Quote
		if quote, ok := quotes[h.Symbol]; ok {
			q = &quote
		}
		price, kind := PriceForValuation(h, q, useClosing)
		if kind == PriceKind_Buy {
			out.FellBack = append(out.FellBack, h.Symbol)
		}
		value := price.Mul(decimal.NewFromInt(h.Quantity))
		out.HoldingsValue = out.HoldingsValue.Add(value)
		out.Holdings = append(out.Holdings, HoldingValuation{
			Symbol:   h.Symbol,
			Quantity: h.Quantity,
			Price:    price,
			Kind:     kind,
			Value:    value,
		})
	}
	out.PortfolioValue = p.CashBalance.Add(out.HoldingsValue)

	return out
}
