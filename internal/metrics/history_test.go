package metrics

import (
	"testing"
	"time"

	"modelfolio/internal/domain"

	"github.com/stretchr/testify/require"
)

func dailyLogs(start time.Time, values ...float64) []domain.PriceLog {
	out := []domain.PriceLog{}
	for i, v := range values {
		d := start.AddDate(0, 0, i)
		out = append(out, domain.PriceLog{
			Date:           d,
			DateOnly:       domain.DateOnly(d, time.UTC),
			PortfolioValue: dec(v),
			CashRemaining:  dec(10),
		})
	}
	return out
}

func TestDownsample(t *testing.T) {
	start := time.Date(2024, 1, 1, 15, 45, 0, 0, time.UTC)

	t.Run("single unit interval keeps every row", func(t *testing.T) {
		logs := dailyLogs(start, 1, 2, 3, 4, 5)
		out := Downsample(logs, domain.HistoryPeriod_Month.Config())
		require.Len(t, out, 5)
	})

	t.Run("weekly keeps first, every seventh day and the last", func(t *testing.T) {
		values := make([]float64, 20)
		for i := range values {
			values[i] = float64(100 + i)
		}
		logs := dailyLogs(start, values...)
		out := Downsample(logs, domain.HistoryPeriod_HalfYear.Config())

		dates := []int{}
		for _, l := range out {
			dates = append(dates, l.Date.Day())
		}
		// kept on day 1, 8, 15 and the forced last row on day 20
		require.Equal(t, []int{1, 8, 15, 20}, dates)
		require.Equal(t, logs[0], out[0])
		require.Equal(t, logs[len(logs)-1], out[len(out)-1])
	})

	t.Run("gaps in the series", func(t *testing.T) {
		logs := []domain.PriceLog{
			{Date: start},
			{Date: start.AddDate(0, 0, 1)},
			{Date: start.AddDate(0, 0, 5)},
			{Date: start.AddDate(0, 0, 6)},
			{Date: start.AddDate(0, 0, 7)},
		}
		out := Downsample(logs, domain.HistoryPeriod_Quarter.Config())
		require.Len(t, out, 3)
		require.Equal(t, start.AddDate(0, 0, 5), out[1].Date)
		require.Equal(t, start.AddDate(0, 0, 7), out[2].Date)
	})

	t.Run("first and last always retained", func(t *testing.T) {
		for _, period := range []domain.HistoryPeriod{
			domain.HistoryPeriod_Day,
			domain.HistoryPeriod_Quarter,
			domain.HistoryPeriod_Year,
			domain.HistoryPeriod_All,
		} {
			for n := 1; n < 70; n += 7 {
				values := make([]float64, n)
				logs := dailyLogs(start, values...)
				out := Downsample(logs, period.Config())
				require.NotEmpty(t, out)
				require.Equal(t, logs[0].Date, out[0].Date, period)
				require.Equal(t, logs[n-1].Date, out[len(out)-1].Date, period)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		require.Empty(t, Downsample(nil, domain.HistoryPeriod_Year.Config()))
	})
}

func TestHistoryPoints(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	logs := dailyLogs(start, 1000, 1100, 990)

	points := HistoryPoints(logs, true)
	require.Len(t, points, 3)

	require.Nil(t, points[0].Change)
	require.NotNil(t, points[0].ChangeFromStart)
	require.True(t, points[0].ChangeFromStart.IsZero())

	require.Equal(t, 100.0, points[1].Change.InexactFloat64())
	require.Equal(t, 10.0, points[1].ChangePercent.InexactFloat64())

	require.Equal(t, -110.0, points[2].Change.InexactFloat64())
	require.Equal(t, -10.0, points[2].ChangePercent.InexactFloat64())
	require.Equal(t, -10.0, points[2].ChangeFromStart.InexactFloat64())
	require.Equal(t, -1.0, points[2].ChangeFromStartPercent.InexactFloat64())

	plain := HistoryPoints(logs, false)
	require.Nil(t, plain[2].ChangeFromStart)
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(nil)
	require.NoError(t, err)
	require.Nil(t, s)

	points := HistoryPoints(dailyLogs(time.Now(), 1000, 1200, 800, 1100), false)
	s, err = Summarize(points)
	require.NoError(t, err)
	require.Equal(t, 1200.0, s.High.InexactFloat64())
	require.Equal(t, 800.0, s.Low.InexactFloat64())
	require.Equal(t, 1025.0, s.Average.InexactFloat64())
	require.Equal(t, 100.0, s.TotalReturn.InexactFloat64())
	require.Equal(t, 10.0, s.TotalReturnPercent.InexactFloat64())
}
