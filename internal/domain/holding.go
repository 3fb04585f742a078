package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type HoldingStatus string

const (
	HoldingStatus_FreshBuy HoldingStatus = "Fresh-Buy"
	HoldingStatus_Hold     HoldingStatus = "Hold"
	HoldingStatus_AddonBuy HoldingStatus = "addon-buy"
	HoldingStatus_Sell     HoldingStatus = "Sell"
)

func (s HoldingStatus) String() string { return string(s) }

func ParseHoldingStatus(s string) (HoldingStatus, error) {
	switch HoldingStatus(s) {
	case HoldingStatus_FreshBuy, HoldingStatus_Hold, HoldingStatus_AddonBuy, HoldingStatus_Sell:
		return HoldingStatus(s), nil
	}
	return "", fmt.Errorf("unknown holding status %q", s)
}

type PriceHistoryAction string

const (
	PriceHistoryAction_Buy          PriceHistoryAction = "buy"
	PriceHistoryAction_PartialSell  PriceHistoryAction = "partial_sell"
	PriceHistoryAction_CompleteSell PriceHistoryAction = "complete_sell"
)

// PriceHistoryEntry is one row of a holding's append-only trade ledger.
// Quantity is signed: sells are negative.
type PriceHistoryEntry struct {
	Date     time.Time          `json:"date"`
	Price    decimal.Decimal    `json:"price"`
	Quantity int64              `json:"quantity"`
	Action   PriceHistoryAction `json:"action"`
}

type Holding struct {
	Symbol           string
	Sector           string
	BuyPrice         decimal.Decimal
	OriginalBuyPrice decimal.Decimal
	CurrentPrice     decimal.Decimal
	Quantity         int64
	Weight           decimal.Decimal
	// InvestmentValueAtBuy is also exposed as minimumInvestmentValueStock.
	InvestmentValueAtBuy    decimal.Decimal
	InvestmentValueAtMarket decimal.Decimal
	UnrealizedPnL           decimal.Decimal
	RealizedPnL             decimal.Decimal
	Status                  HoldingStatus
	PriceHistory            []PriceHistoryEntry
	LastUpdated             time.Time
}

func (h Holding) DeepCopy() Holding {
	out := h
	out.PriceHistory = make([]PriceHistoryEntry, len(h.PriceHistory))
	copy(out.PriceHistory, h.PriceHistory)
	return out
}

func (h Holding) IsActive() bool {
	return h.Status != HoldingStatus_Sell
}

// MarkPrice is the price the holding is carried at: the last market price
// if one is known, otherwise the cost basis.
func (h Holding) MarkPrice() decimal.Decimal {
	if h.CurrentPrice.IsPositive() {
		return h.CurrentPrice
	}
	return h.BuyPrice
}

// Revalue recomputes the derived value fields from quantity, basis and the
// current market price.
func (h *Holding) Revalue() {
	qty := decimal.NewFromInt(h.Quantity)
	h.InvestmentValueAtBuy = h.BuyPrice.Mul(qty)
	h.InvestmentValueAtMarket = h.MarkPrice().Mul(qty)
	h.UnrealizedPnL = h.InvestmentValueAtMarket.Sub(h.InvestmentValueAtBuy)
}

func (h *Holding) AppendHistory(e PriceHistoryEntry) {
	h.PriceHistory = append(h.PriceHistory, e)
}

// CheckInvariants enforces quantity == 0 <=> status == Sell. Leftover
// weight on a sold holding is only a warning, see allocation.ValidateWeights.
func (h Holding) CheckInvariants() error {
	if h.Quantity < 0 {
		return fmt.Errorf("holding %s has negative quantity %d", h.Symbol, h.Quantity)
	}
	if (h.Quantity == 0) != (h.Status == HoldingStatus_Sell) {
		return fmt.Errorf("holding %s has quantity %d with status %s", h.Symbol, h.Quantity, h.Status)
	}
	return nil
}
