package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type HistoryPeriod string

const (
	HistoryPeriod_Day        HistoryPeriod = "1d"
	HistoryPeriod_Week       HistoryPeriod = "1w"
	HistoryPeriod_Month      HistoryPeriod = "1m"
	HistoryPeriod_Quarter    HistoryPeriod = "3m"
	HistoryPeriod_HalfYear   HistoryPeriod = "6m"
	HistoryPeriod_Year       HistoryPeriod = "1y"
	HistoryPeriod_All        HistoryPeriod = "all"
	DefaultHistoryPeriod                   = HistoryPeriod_Month
	allHistoryPeriodsJoined                = "1d,1w,1m,3m,6m,1y,all"
)

// PeriodConfig is the lookback window and the minimum spacing between
// retained points. Days == 0 means no lower bound. Only one of
// IntervalHours or IntervalDays is set.
type PeriodConfig struct {
	Days          int
	IntervalHours int
	IntervalDays  int
}

var periodConfigs = map[HistoryPeriod]PeriodConfig{
	HistoryPeriod_Day:      {Days: 1, IntervalHours: 1},
	HistoryPeriod_Week:     {Days: 7, IntervalDays: 1},
	HistoryPeriod_Month:    {Days: 30, IntervalDays: 1},
	HistoryPeriod_Quarter:  {Days: 90, IntervalDays: 3},
	HistoryPeriod_HalfYear: {Days: 180, IntervalDays: 7},
	HistoryPeriod_Year:     {Days: 365, IntervalDays: 14},
	HistoryPeriod_All:      {Days: 0, IntervalDays: 30},
}

func ParseHistoryPeriod(s string) (HistoryPeriod, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultHistoryPeriod, nil
	}
	p := HistoryPeriod(s)
	if _, ok := periodConfigs[p]; !ok {
		return "", fmt.Errorf("unknown history period %q, expected one of %s", s, allHistoryPeriodsJoined)
	}
	return p, nil
}

func (p HistoryPeriod) Config() PeriodConfig {
	return periodConfigs[p]
}

// Interval returns the downsampling interval and whether it spans more
// than one unit. A one-unit interval keeps every row.
func (c PeriodConfig) Interval() (time.Duration, bool) {
	if c.IntervalDays > 0 {
		return time.Duration(c.IntervalDays) * 24 * time.Hour, c.IntervalDays > 1
	}
	if c.IntervalHours > 0 {
		return time.Duration(c.IntervalHours) * time.Hour, c.IntervalHours > 1
	}
	return 0, false
}

// WindowStart returns the first calendar day inside the window ending at
// now, or nil for an unbounded window.
func (c PeriodConfig) WindowStart(now time.Time, loc *time.Location) *time.Time {
	if c.Days == 0 {
		return nil
	}
	start := DateOnly(now, loc).AddDate(0, 0, -c.Days)
	return &start
}

type HistoryPoint struct {
	Date                   time.Time
	Value                  decimal.Decimal
	Cash                   decimal.Decimal
	Change                 *decimal.Decimal
	ChangePercent          *decimal.Decimal
	ChangeFromStart        *decimal.Decimal
	ChangeFromStartPercent *decimal.Decimal
}

type HistorySummary struct {
	High               decimal.Decimal
	Low                decimal.Decimal
	Average            decimal.Decimal
	TotalReturn        decimal.Decimal
	TotalReturnPercent *decimal.Decimal
}

type History struct {
	PortfolioID string
	Period      HistoryPeriod
	Points      []HistoryPoint
	Summary     *HistorySummary
}
