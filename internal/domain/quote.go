package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is what a price source knows about a symbol. ClosingPrice is only
// set once the trading day it belongs to is over.
type Quote struct {
	Symbol       string
	CurrentPrice decimal.Decimal
	ClosingPrice *decimal.Decimal
	AsOf         time.Time
}
