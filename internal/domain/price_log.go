package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceLog is the one-per-portfolio-per-day valuation row. DateOnly is the
// idempotence key together with PortfolioID; Date is when it was last
// written.
type PriceLog struct {
	PriceLogID        uuid.UUID
	PortfolioID       uuid.UUID
	Date              time.Time
	DateOnly          time.Time
	PortfolioValue    decimal.Decimal
	CashRemaining     decimal.Decimal
	UpdateCount       int32
	UsedClosingPrices bool
	CreatedAt         time.Time
}

// DateOnly truncates t to its calendar day in loc. The result is midnight
// UTC so it compares equal regardless of where it was computed.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
