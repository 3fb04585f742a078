package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// HoldingInput is all a client may say about a holding. Quantity, cash and
// values are derived on the server, so there are no fields for them.
type HoldingInput struct {
	Symbol       string           `json:"symbol"`
	Sector       string           `json:"sector"`
	Weight       *decimal.Decimal `json:"weight"`
	BuyPrice     *decimal.Decimal `json:"buyPrice"`
	CurrentPrice *decimal.Decimal `json:"currentPrice"`
}

type CreatePortfolioRequest struct {
	Name          string          `json:"name"`
	MinInvestment decimal.Decimal `json:"minInvestment"`
	CompareWith   *string         `json:"compareWith"`
	Holdings      []HoldingInput  `json:"holdings"`
}

type BuyRequest struct {
	Symbol       string           `json:"symbol"`
	Sector       string           `json:"sector"`
	Price        decimal.Decimal  `json:"price"`
	Quantity     int64            `json:"quantity"`
	CurrentPrice *decimal.Decimal `json:"currentPrice"`
	Weight       *decimal.Decimal `json:"weight"`
}

type SellRequest struct {
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	// SaleType is partial or complete, partial when empty.
	SaleType string `json:"saleType"`
}

// UpdatePortfolioRequest carries one command. Action is add, delete,
// replace, update, buy or sell; empty means update.
type UpdatePortfolioRequest struct {
	Action   string         `json:"action"`
	Holdings []HoldingInput `json:"holdings"`
	Symbols  []string       `json:"symbols"`
	Buy      *BuyRequest    `json:"buy"`
	Sell     *SellRequest   `json:"sell"`
}

type PriceHistoryEntry struct {
	Date     time.Time `json:"date"`
	Price    float64   `json:"price"`
	Quantity int64     `json:"quantity"`
	Action   string    `json:"action"`
}

type Holding struct {
	Symbol                      string              `json:"symbol"`
	Sector                      string              `json:"sector"`
	BuyPrice                    float64             `json:"buyPrice"`
	OriginalBuyPrice            float64             `json:"originalBuyPrice"`
	CurrentPrice                float64             `json:"currentPrice"`
	Quantity                    int64               `json:"quantity"`
	Weight                      float64             `json:"weight"`
	MinimumInvestmentValueStock float64             `json:"minimumInvestmentValueStock"`
	InvestmentValueAtMarket     float64             `json:"investmentValueAtMarket"`
	UnrealizedPnL               float64             `json:"unrealizedPnL"`
	RealizedPnL                 float64             `json:"realizedPnL"`
	Status                      string              `json:"status"`
	// AllocatedQuantity is what the allocator gives for the holding's
	// weight and basis today. Trades move Quantity away from it.
	AllocatedQuantity *int64              `json:"allocatedQuantity,omitempty"`
	PriceHistory      []PriceHistoryEntry `json:"priceHistory"`
	LastUpdated       time.Time           `json:"lastUpdated"`
}

type Portfolio struct {
	PortfolioID   string    `json:"portfolioId"`
	Name          string    `json:"name"`
	MinInvestment float64   `json:"minInvestment"`
	CashBalance   float64   `json:"cashBalance"`
	CurrentValue  float64   `json:"currentValue"`
	RealizedPnL   float64   `json:"realizedPnL"`
	CompareWith   *string   `json:"compareWith,omitempty"`
	Version       int64     `json:"version"`
	Holdings      []Holding `json:"holdings"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type WeightValidation struct {
	TotalWeight     float64  `json:"totalWeight"`
	RemainingWeight float64  `json:"remainingWeight"`
	ActiveCount     int      `json:"activeCount"`
	SoldCount       int      `json:"soldCount"`
	Warnings        []string `json:"warnings"`
}

type BuyResult struct {
	Symbol           string  `json:"symbol"`
	IsNewHolding     bool    `json:"isNewHolding"`
	PriceRefreshOnly bool    `json:"priceRefreshOnly"`
	QuantityBought   int64   `json:"quantityBought"`
	AmountSpent      float64 `json:"amountSpent"`
	PreviousBuyPrice float64 `json:"previousBuyPrice"`
	NewBuyPrice      float64 `json:"newBuyPrice"`
	CashBalance      float64 `json:"cashBalance"`
}

type SellResult struct {
	Symbol            string  `json:"symbol"`
	SaleType          string  `json:"saleType"`
	QuantitySold      int64   `json:"quantitySold"`
	SaleValue         float64 `json:"saleValue"`
	CostBasis         float64 `json:"costBasis"`
	ProfitLoss        float64 `json:"profitLoss"`
	ProfitLossPercent float64 `json:"profitLossPercent"`
	CashBalance       float64 `json:"cashBalance"`
	RemainingQuantity int64   `json:"remainingQuantity"`
}

type PortfolioResponse struct {
	Portfolio  Portfolio         `json:"portfolio"`
	Action     string            `json:"action,omitempty"`
	Validation *WeightValidation `json:"validation,omitempty"`
	Buy        *BuyResult        `json:"buy,omitempty"`
	Sell       *SellResult       `json:"sell,omitempty"`
}

type ListPortfoliosResponse struct {
	Portfolios []Portfolio `json:"portfolios"`
}

type HistoryPoint struct {
	Date                   time.Time `json:"date"`
	Value                  float64   `json:"value"`
	Cash                   float64   `json:"cash"`
	Change                 *float64  `json:"change,omitempty"`
	ChangePercent          *float64  `json:"changePercent,omitempty"`
	ChangeFromStart        *float64  `json:"changeFromStart,omitempty"`
	ChangeFromStartPercent *float64  `json:"changeFromStartPercent,omitempty"`
}

type HistorySummary struct {
	High               float64  `json:"high"`
	Low                float64  `json:"low"`
	Average            float64  `json:"average"`
	TotalReturn        float64  `json:"totalReturn"`
	TotalReturnPercent *float64 `json:"totalReturnPercent,omitempty"`
}

type GetHistoryResponse struct {
	PortfolioID string          `json:"portfolioId"`
	Period      string          `json:"period"`
	DataPoints  int             `json:"dataPoints"`
	Data        []HistoryPoint  `json:"data"`
	Summary     *HistorySummary `json:"summary,omitempty"`
}

type LogValueRequest struct {
	UseClosingPrices bool `json:"useClosingPrices"`
}

type PriceLog struct {
	PriceLogID        string    `json:"priceLogId"`
	PortfolioID       string    `json:"portfolioId"`
	Date              time.Time `json:"date"`
	DateOnly          string    `json:"dateOnly"`
	PortfolioValue    float64   `json:"portfolioValue"`
	CashRemaining     float64   `json:"cashRemaining"`
	UpdateCount       int32     `json:"updateCount"`
	UsedClosingPrices bool      `json:"usedClosingPrices"`
}

// ValuationResult is one line of a batch valuation run.
type ValuationResult struct {
	Portfolio   string   `json:"portfolio"`
	PortfolioID string   `json:"portfolioId"`
	Status      string   `json:"status"`
	Value       *float64 `json:"value,omitempty"`
	Error       *string  `json:"error,omitempty"`
}

type DedupResponse struct {
	Groups  int   `json:"groups"`
	Deleted int64 `json:"deleted"`
}
