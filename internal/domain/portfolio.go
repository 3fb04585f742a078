package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Portfolio struct {
	PortfolioID   uuid.UUID
	Name          string
	MinInvestment decimal.Decimal
	// CashBalance is only ever written by the server. Anything a client
	// sends for it is dropped at the api boundary.
	CashBalance  decimal.Decimal
	Holdings     []Holding
	CurrentValue decimal.Decimal
	CompareWith  *string
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p Portfolio) DeepCopy() Portfolio {
	out := p
	out.Holdings = make([]Holding, len(p.Holdings))
	for i, h := range p.Holdings {
		out.Holdings[i] = h.DeepCopy()
	}
	if p.CompareWith != nil {
		c := *p.CompareWith
		out.CompareWith = &c
	}
	return out
}

func (p Portfolio) ActiveHoldings() []Holding {
	out := []Holding{}
	for _, h := range p.Holdings {
		if h.IsActive() {
			out = append(out, h)
		}
	}
	return out
}

func (p Portfolio) ActiveSymbols() []string {
	out := []string{}
	for _, h := range p.Holdings {
		if h.IsActive() {
			out = append(out, h.Symbol)
		}
	}
	return out
}

// FindHolding returns the index of the holding for symbol, or -1.
func (p Portfolio) FindHolding(symbol string) int {
	for i, h := range p.Holdings {
		if h.Symbol == symbol {
			return i
		}
	}
	return -1
}

// CostAtBuy is Σ buyPrice*quantity over active holdings.
func (p Portfolio) CostAtBuy() decimal.Decimal {
	total := decimal.Zero
	for _, h := range p.Holdings {
		if h.IsActive() {
			total = total.Add(h.BuyPrice.Mul(decimal.NewFromInt(h.Quantity)))
		}
	}
	return total
}

// MarketValue is cash plus every active holding at its last known price.
// A holding that has never been priced is carried at its buy price.
func (p Portfolio) MarketValue() decimal.Decimal {
	total := p.CashBalance
	for _, h := range p.Holdings {
		if !h.IsActive() {
			continue
		}
		total = total.Add(h.MarkPrice().Mul(decimal.NewFromInt(h.Quantity)))
	}
	return total
}

// RefreshCurrentValue memoizes MarketValue onto CurrentValue. It is the
// only place CurrentValue gets written outside of the daily valuation.
func (p *Portfolio) RefreshCurrentValue() {
	p.CurrentValue = p.MarketValue()
}

func (p Portfolio) RealizedPnL() decimal.Decimal {
	total := decimal.Zero
	for _, h := range p.Holdings {
		total = total.Add(h.RealizedPnL)
	}
	return total
}
