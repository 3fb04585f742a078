package allocation

import (
	"errors"
	"testing"

	folio_errors "modelfolio/internal"
	"modelfolio/internal/domain"

	"github.com/stretchr/testify/require"
)

func holding(symbol string, weight float64, status domain.HoldingStatus) domain.Holding {
	qty := int64(10)
	if status == domain.HoldingStatus_Sell {
		qty = 0
	}
	return domain.Holding{
		Symbol:   symbol,
		Weight:   dec(weight),
		Status:   status,
		Quantity: qty,
	}
}

func TestValidateWeights(t *testing.T) {
	t.Run("within budget", func(t *testing.T) {
		v := ValidateWeights([]domain.Holding{
			holding("INFY", 40, domain.HoldingStatus_FreshBuy),
			holding("TCS", 35, domain.HoldingStatus_Hold),
		})
		require.True(t, v.Valid)
		require.NoError(t, v.Err())
		require.Equal(t, 75.0, v.TotalWeight.InexactFloat64())
		require.Equal(t, 25.0, v.RemainingWeight.InexactFloat64())
		require.Equal(t, 2, v.ActiveCount)
	})

	t.Run("exactly 100 is allowed", func(t *testing.T) {
		v := ValidateWeights([]domain.Holding{
			holding("INFY", 60, domain.HoldingStatus_FreshBuy),
			holding("TCS", 40, domain.HoldingStatus_AddonBuy),
		})
		require.True(t, v.Valid)
		require.True(t, v.RemainingWeight.IsZero())
	})

	t.Run("over allocation", func(t *testing.T) {
		v := ValidateWeights([]domain.Holding{
			holding("INFY", 60, domain.HoldingStatus_FreshBuy),
			holding("TCS", 45, domain.HoldingStatus_FreshBuy),
		})
		require.False(t, v.Valid)
		require.Equal(t, -5.0, v.RemainingWeight.InexactFloat64())

		err := v.Err()
		require.Error(t, err)
		var overErr folio_errors.OverAllocationError
		require.True(t, errors.As(err, &overErr))
		require.Equal(t, 105.0, overErr.TotalWeight.InexactFloat64())
	})

	t.Run("sold holdings do not count", func(t *testing.T) {
		v := ValidateWeights([]domain.Holding{
			holding("INFY", 90, domain.HoldingStatus_FreshBuy),
			holding("TCS", 30, domain.HoldingStatus_Sell),
		})
		require.True(t, v.Valid)
		require.Equal(t, 1, v.SoldCount)
		require.Len(t, v.Warnings, 1)
		require.Contains(t, v.Warnings[0], "TCS")
	})

	t.Run("negative weight", func(t *testing.T) {
		v := ValidateWeights([]domain.Holding{
			holding("INFY", 20, domain.HoldingStatus_FreshBuy),
			holding("TCS", -5, domain.HoldingStatus_Hold),
		})
		require.False(t, v.Valid)
		var verr folio_errors.ValidationError
		require.True(t, errors.As(v.Err(), &verr))
		require.Contains(t, verr.Message, "TCS")
	})

	t.Run("empty portfolio", func(t *testing.T) {
		v := ValidateWeights(nil)
		require.True(t, v.Valid)
		require.Equal(t, 100.0, v.RemainingWeight.InexactFloat64())
	})
}
