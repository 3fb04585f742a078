package allocation

import (
	"errors"
	"testing"

	folio_errors "modelfolio/internal"
	"modelfolio/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestAllocate(t *testing.T) {
	t.Run("half of capital at 500", func(t *testing.T) {
		a, err := Allocate(dec(50), dec(500), dec(100000))
		require.NoError(t, err)
		require.Equal(t, int64(100), a.Quantity)
		require.True(t, a.ActualInvestmentAmount.Equal(dec(50000)), a.ActualInvestmentAmount.String())
		require.Equal(t, 50.0, a.AccurateWeight.InexactFloat64())
		require.True(t, a.LeftoverAmount.IsZero())
	})

	t.Run("rounds up within tolerance", func(t *testing.T) {
		// 99.5% of 1000 = 995 allocated
		a, err := Allocate(dec(99.5), dec(100), dec(1000))
		require.NoError(t, err)
		require.True(t, a.AllocatedAmount.Equal(dec(995)))
		require.Equal(t, int64(10), a.Quantity)
		require.True(t, a.LeftoverAmount.Equal(dec(-5)), a.LeftoverAmount.String())
		require.True(t, a.ActualInvestmentAmount.Equal(dec(1000)))
		require.Equal(t, 100.0, a.AccurateWeight.InexactFloat64())
	})

	t.Run("no round up outside tolerance", func(t *testing.T) {
		// 950 allocated, 9 shares, 50 left, gap 50 > 10
		a, err := Allocate(dec(95), dec(100), dec(1000))
		require.NoError(t, err)
		require.Equal(t, int64(9), a.Quantity)
		require.True(t, a.LeftoverAmount.Equal(dec(50)))
		require.Equal(t, 90.0, a.AccurateWeight.InexactFloat64())
	})

	t.Run("exact fit is not bumped", func(t *testing.T) {
		a, err := Allocate(dec(10), dec(100), dec(10000))
		require.NoError(t, err)
		require.Equal(t, int64(10), a.Quantity)
		require.True(t, a.LeftoverAmount.IsZero())
	})

	t.Run("slice smaller than one share", func(t *testing.T) {
		// 95 allocated for a 100 share: gap 5 is within tolerance
		a, err := Allocate(dec(9.5), dec(100), dec(1000))
		require.NoError(t, err)
		require.Equal(t, int64(1), a.Quantity)

		// 50 allocated: stays at zero
		a, err = Allocate(dec(5), dec(100), dec(1000))
		require.NoError(t, err)
		require.Equal(t, int64(0), a.Quantity)
		require.True(t, a.ActualInvestmentAmount.IsZero())
	})

	t.Run("rejects out of range input", func(t *testing.T) {
		cases := []struct {
			name                 string
			weight, price, total decimal.Decimal
			field                string
		}{
			{"zero weight", dec(0), dec(10), dec(1000), "weight"},
			{"negative weight", dec(-1), dec(10), dec(1000), "weight"},
			{"weight over 100", dec(100.01), dec(10), dec(1000), "weight"},
			{"zero price", dec(10), dec(0), dec(1000), "buyPrice"},
			{"negative total", dec(10), dec(10), dec(-5), "totalInvestment"},
		}
		for _, c := range cases {
			_, err := Allocate(c.weight, c.price, c.total)
			require.Error(t, err, c.name)
			var verr folio_errors.ValidationError
			require.True(t, errors.As(err, &verr), c.name)
			require.Equal(t, c.field, verr.Field, c.name)
		}
	})
}

func TestAllocate_properties(t *testing.T) {
	weights := []float64{0.5, 1, 3.33, 12.5, 25, 33.3333, 50, 66.6, 99.9, 100}
	prices := []float64{0.35, 1, 7.77, 99.99, 100, 512.5, 1999, 25000}
	totals := []float64{1000, 12345.67, 100000, 500000}

	for _, w := range weights {
		for _, p := range prices {
			for _, total := range totals {
				a, err := Allocate(dec(w), dec(p), dec(total))
				require.NoError(t, err)
				require.GreaterOrEqual(t, a.Quantity, int64(0))

				limit := a.AllocatedAmount.Add(ToleranceFraction.Mul(dec(p)))
				require.True(
					t,
					a.ActualInvestmentAmount.LessThanOrEqual(limit),
					"w=%v p=%v total=%v actual=%s limit=%s", w, p, total, a.ActualInvestmentAmount, limit,
				)

				again, err := Allocate(dec(w), dec(p), dec(total))
				require.NoError(t, err)
				require.Equal(t, a.Quantity, again.Quantity)
				require.True(t, a.ActualInvestmentAmount.Equal(again.ActualInvestmentAmount))
				require.True(t, a.AccurateWeight.Equal(again.AccurateWeight))
			}
		}
	}
}

func TestVerify(t *testing.T) {
	h := domain.Holding{
		Symbol:   "TCS",
		Weight:   dec(50),
		BuyPrice: dec(500),
		Quantity: 100,
		Status:   domain.HoldingStatus_FreshBuy,
	}
	ok, _, err := Verify(h, dec(100000))
	require.NoError(t, err)
	require.True(t, ok)

	h.Quantity = 140
	ok, a, err := Verify(h, dec(100000))
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, int64(100), a.Quantity)
}
