package metrics

import (
	"fmt"

	"modelfolio/internal/domain"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// Downsample thins a date-ordered log series to roughly one row per
// interval. The first row is always kept, then every row at least one
// interval after the last kept one, and the final row is kept even when
// it lands inside the previous interval. Intervals of a single unit keep
// everything.
func Downsample(logs []domain.PriceLog, cfg domain.PeriodConfig) []domain.PriceLog {
	interval, thin := cfg.Interval()
	if !thin || len(logs) <= 2 {
		out := make([]domain.PriceLog, len(logs))
		copy(out, logs)
		return out
	}

	out := []domain.PriceLog{logs[0]}
	lastKept := 0
	for i := 1; i < len(logs); i++ {
		if logs[i].Date.Sub(logs[lastKept].Date) >= interval {
			out = append(out, logs[i])
			lastKept = i
		}
	}
	if lastKept != len(logs)-1 {
		out = append(out, logs[len(logs)-1])
	}

	return out
}

// HistoryPoints turns kept rows into chart points. Change is against the
// previous point; with a baseline, ChangeFromStart is against the first.
func HistoryPoints(logs []domain.PriceLog, withBaseline bool) []domain.HistoryPoint {
	out := make([]domain.HistoryPoint, 0, len(logs))
	for i, l := range logs {
		pt := domain.HistoryPoint{
			Date:  l.Date,
			Value: l.PortfolioValue,
			Cash:  l.CashRemaining,
		}
		if i > 0 {
			pt.Change, pt.ChangePercent = delta(l.PortfolioValue, logs[i-1].PortfolioValue)
		}
		if withBaseline {
			pt.ChangeFromStart, pt.ChangeFromStartPercent = delta(l.PortfolioValue, logs[0].PortfolioValue)
		}
		out = append(out, pt)
	}
	return out
}

func delta(value, from decimal.Decimal) (*decimal.Decimal, *decimal.Decimal) {
	change := value.Sub(from)
	pct, ok := domain.PercentOf(change, from)
	if !ok {
		return &change, nil
	}
	pct = pct.Round(2)
	return &change, &pct
}

// Summarize returns high, low and mean of the point values plus the
// return from first to last. Nil for an empty series.
func Summarize(points []domain.HistoryPoint) (*domain.HistorySummary, error) {
	if len(points) == 0 {
		return nil, nil
	}
	values := domain.DecimalSeries{}
	for _, p := range points {
		values = append(values, p.Value)
	}
	data := values.ToStatsData()

	high, err := stats.Max(data)
	if err != nil {
		return nil, fmt.Errorf("failed to compute high: %w", err)
	}
	low, err := stats.Min(data)
	if err != nil {
		return nil, fmt.Errorf("failed to compute low: %w", err)
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return nil, fmt.Errorf("failed to compute average: %w", err)
	}

	first := points[0].Value
	last := points[len(points)-1].Value
	total := last.Sub(first)
	out := &domain.HistorySummary{
		High:        decimal.NewFromFloat(high).Round(2),
		Low:         decimal.NewFromFloat(low).Round(2),
		Average:     decimal.NewFromFloat(mean).Round(2),
		TotalReturn: total,
	}
	if pct, ok := domain.PercentOf(total, first); ok {
		pct = pct.Round(2)
		out.TotalReturnPercent = &pct
	}

	return out, nil
}
