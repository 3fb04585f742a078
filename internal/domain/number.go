package domain

import (
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// weights and percentages are carried as decimals in 0-100 units
// everywhere in the engine. fractions only show up transiently
// inside a calculation.

var Hundred = decimal.NewFromInt(100)

// PercentOf returns part/whole*100, or false when whole is zero.
func PercentOf(part, whole decimal.Decimal) (decimal.Decimal, bool) {
	if whole.IsZero() {
		return decimal.Zero, false
	}
	return part.Div(whole).Mul(Hundred), true
}

type DecimalSeries []decimal.Decimal

func (ds DecimalSeries) ToStatsData() stats.Float64Data {
	out := make(stats.Float64Data, len(ds))
	for i, d := range ds {
		out[i] = d.InexactFloat64()
	}
	return out
}
