package trade

import (
	"strings"
	"time"

	folio_errors "modelfolio/internal"
	"modelfolio/internal/domain"

	"github.com/shopspring/decimal"
)

type SaleType string

const (
	SaleType_Partial  SaleType = "partial"
	SaleType_Complete SaleType = "complete"
)

func ParseSaleType(s string) (SaleType, error) {
	switch SaleType(strings.ToLower(strings.TrimSpace(s))) {
	case "", SaleType_Partial:
		return SaleType_Partial, nil
	case SaleType_Complete:
		return SaleType_Complete, nil
	}
	return "", folio_errors.NewValidationError("saleType", "must be partial or complete, received %q", s)
}

type SellOrder struct {
	Symbol   string
	Quantity int64
	// Price is the current market price the shares go for.
	Price    decimal.Decimal
	SaleType SaleType
	Date     time.Time
}

type SellResult struct {
	Symbol            string
	SaleType          SaleType
	QuantitySold      int64
	SaleValue         decimal.Decimal
	CostBasis         decimal.Decimal
	ProfitLoss        decimal.Decimal
	ProfitLossPercent decimal.Decimal
	CashBalance       decimal.Decimal
	RemainingQuantity int64
	Holding           domain.Holding
}

// ProcessSell liquidates some or all of a holding at the market price.
//
// The full sale value goes to cash whatever the cost basis was. Profit or
// loss is booked to the holding's realized P&L and nowhere else, so a
// losing sale still credits everything it fetched.
func ProcessSell(p *domain.Portfolio, o SellOrder, now time.Time) (*SellResult, error) {
	o.Symbol = strings.ToUpper(strings.TrimSpace(o.Symbol))
	if o.Symbol == "" {
		return nil, folio_errors.NewValidationError("symbol", "symbol is required")
	}
	if o.SaleType == "" {
		o.SaleType = SaleType_Partial
	}
	if o.SaleType != SaleType_Partial && o.SaleType != SaleType_Complete {
		return nil, folio_errors.NewValidationError("saleType", "must be partial or complete, received %q", o.SaleType)
	}
	if !o.Price.IsPositive() {
		return nil, folio_errors.NewValidationError("price", "current market price must be greater than 0 for %s, received %s", o.Symbol, o.Price.String())
	}

	idx := p.FindHolding(o.Symbol)
	if idx < 0 {
		return nil, folio_errors.NotFoundError{Entity: "holding", ID: o.Symbol}
	}
	h := &p.Holdings[idx]
	if !h.IsActive() {
		return nil, folio_errors.NewValidationError("symbol", "holding %s has already been sold", o.Symbol)
	}

	qty := o.Quantity
	if o.SaleType == SaleType_Complete {
		// the requested quantity is ignored unless it can't be right
		if qty < 0 || qty > h.Quantity {
			return nil, folio_errors.NewValidationError("quantity", "complete sale of %s asked for %d shares, %d held", o.Symbol, qty, h.Quantity)
		}
		qty = h.Quantity
	} else {
		if qty <= 0 {
			return nil, folio_errors.NewValidationError("quantity", "quantity to sell must be greater than 0 for %s", o.Symbol)
		}
		if qty > h.Quantity {
			return nil, folio_errors.NewValidationError("quantity", "cannot sell %d shares of %s, only %d held", qty, o.Symbol, h.Quantity)
		}
		if qty == h.Quantity {
			o.SaleType = SaleType_Complete
		}
	}
	if o.Date.IsZero() {
		o.Date = now
	}

	qtyDec := decimal.NewFromInt(qty)
	saleValue := qtyDec.Mul(o.Price)
	costBasis := qtyDec.Mul(h.BuyPrice)
	profitLoss := saleValue.Sub(costBasis)
	profitLossPercent, ok := domain.PercentOf(profitLoss, costBasis)
	if !ok {
		profitLossPercent = decimal.Zero
	}

	h.RealizedPnL = h.RealizedPnL.Add(profitLoss)
	h.Quantity -= qty
	h.CurrentPrice = o.Price
	h.LastUpdated = o.Date

	action := domain.PriceHistoryAction_PartialSell
	if o.SaleType == SaleType_Complete {
		action = domain.PriceHistoryAction_CompleteSell
		h.Status = domain.HoldingStatus_Sell
		h.Weight = decimal.Zero
	} else {
		h.Status = domain.HoldingStatus_Hold
	}
	h.AppendHistory(domain.PriceHistoryEntry{
		Date:     o.Date,
		Price:    o.Price,
		Quantity: -qty,
		Action:   action,
	})
	h.Revalue()

	p.CashBalance = p.CashBalance.Add(saleValue)

	return &SellResult{
		Symbol:            o.Symbol,
		SaleType:          o.SaleType,
		QuantitySold:      qty,
		SaleValue:         saleValue,
		CostBasis:         costBasis,
		ProfitLoss:        profitLoss,
		ProfitLossPercent: profitLossPercent.Round(2),
		CashBalance:       p.CashBalance,
		RemainingQuantity: h.Quantity,
		Holding:           h.DeepCopy(),
	}, nil
}
