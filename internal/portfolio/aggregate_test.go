package portfolio

import (
	"errors"
	"testing"
	"time"

	folio_errors "modelfolio/internal"
	"modelfolio/internal/domain"
	"modelfolio/internal/trade"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func decPtr(f float64) *decimal.Decimal {
	d := dec(f)
	return &d
}

func input(symbol string, weight, price float64) HoldingInput {
	return HoldingInput{
		Symbol:   symbol,
		Weight:   decPtr(weight),
		BuyPrice: decPtr(price),
	}
}

func mustCreate(t *testing.T, holdings ...HoldingInput) *domain.Portfolio {
	t.Helper()
	out, err := New(CreateInput{
		Name:          "Growth",
		MinInvestment: dec(100000),
		Holdings:      holdings,
	}, now)
	require.NoError(t, err)
	return out.Portfolio
}

func TestNew(t *testing.T) {
	t.Run("allocates from weights", func(t *testing.T) {
		out, err := New(CreateInput{
			Name:          "Growth",
			MinInvestment: dec(100000),
			Holdings: []HoldingInput{
				input("tcs", 50, 500),
				input("INFY", 30, 1450),
			},
		}, now)
		require.NoError(t, err)
		p := out.Portfolio

		require.Len(t, p.Holdings, 2)
		tcs := p.Holdings[p.FindHolding("TCS")]
		require.Equal(t, int64(100), tcs.Quantity)
		require.True(t, tcs.InvestmentValueAtBuy.Equal(dec(50000)))
		require.Equal(t, domain.HoldingStatus_FreshBuy, tcs.Status)
		require.Len(t, tcs.PriceHistory, 1)
		require.Equal(t, 50.0, out.Allocations["TCS"].AccurateWeight.InexactFloat64())

		// 30000 / 1450 = 20.68, the 21st share needs 450 more: no bump
		infy := p.Holdings[p.FindHolding("INFY")]
		require.Equal(t, int64(20), infy.Quantity)

		// 100000 - 50000 - 29000
		require.True(t, p.CashBalance.Equal(dec(21000)), p.CashBalance.String())
		require.True(t, p.CurrentValue.Equal(dec(100000)))
		require.Equal(t, int64(1), p.Version)
		require.True(t, out.Validation.RemainingWeight.Equal(dec(20)))
	})

	t.Run("cash plus cost equals capital", func(t *testing.T) {
		p := mustCreate(t, input("A", 33.3, 71.5), input("B", 33.3, 12.2), input("C", 20, 999))
		total := p.CashBalance.Add(p.CostAtBuy())
		require.True(t, total.Equal(p.MinInvestment), total.String())
	})

	t.Run("over allocated weights are rejected", func(t *testing.T) {
		_, err := New(CreateInput{
			Name:          "Greedy",
			MinInvestment: dec(100000),
			Holdings:      []HoldingInput{input("A", 70, 100), input("B", 40, 100)},
		}, now)
		var overErr folio_errors.OverAllocationError
		require.True(t, errors.As(err, &overErr), err)
	})

	t.Run("bad input", func(t *testing.T) {
		_, err := New(CreateInput{Name: "", MinInvestment: dec(100)}, now)
		require.Error(t, err)
		_, err = New(CreateInput{Name: "x", MinInvestment: dec(0)}, now)
		require.Error(t, err)
		_, err = New(CreateInput{
			Name:          "x",
			MinInvestment: dec(1000),
			Holdings:      []HoldingInput{{Symbol: "A", Weight: decPtr(10)}},
		}, now)
		var verr folio_errors.ValidationError
		require.True(t, errors.As(err, &verr))
		require.Equal(t, "buyPrice", verr.Field)
	})

	t.Run("weight too small for one share", func(t *testing.T) {
		_, err := New(CreateInput{
			Name:          "x",
			MinInvestment: dec(1000),
			Holdings:      []HoldingInput{input("MRF", 1, 100000)},
		}, now)
		var verr folio_errors.ValidationError
		require.True(t, errors.As(err, &verr))
		require.Equal(t, "weight", verr.Field)
	})
}

func TestApply_allocate(t *testing.T) {
	t.Run("update merge keeps the stored basis", func(t *testing.T) {
		p := mustCreate(t, input("TCS", 50, 500))
		p.CashBalance = dec(999999) // tampered, must be ignored

		cmd, err := NewCommand("", CommandInput{Holdings: []HoldingInput{
			{Symbol: "TCS", Weight: decPtr(60)},
			input("HDFC", 20, 1000),
		}})
		require.NoError(t, err)

		out, err := Apply(p, cmd, now)
		require.NoError(t, err)
		require.Equal(t, Regime_Allocate, out.Regime)
		np := out.Portfolio

		tcs := np.Holdings[np.FindHolding("TCS")]
		require.True(t, tcs.BuyPrice.Equal(dec(500)))
		require.Equal(t, int64(120), tcs.Quantity)
		require.Equal(t, domain.HoldingStatus_AddonBuy, tcs.Status)
		require.Len(t, tcs.PriceHistory, 2)
		require.Equal(t, int64(20), tcs.PriceHistory[1].Quantity)

		hdfc := np.Holdings[np.FindHolding("HDFC")]
		require.Equal(t, int64(20), hdfc.Quantity)

		require.True(t, np.CashBalance.Equal(dec(20000)), np.CashBalance.String())
		// input untouched
		require.True(t, p.CashBalance.Equal(dec(999999)))
		require.Len(t, p.Holdings, 1)
	})

	t.Run("add rejects an active symbol", func(t *testing.T) {
		p := mustCreate(t, input("TCS", 50, 500))
		_, err := Apply(p, Allocate{Action: Action_Add, Holdings: []HoldingInput{input("TCS", 10, 500)}}, now)
		require.Error(t, err)
	})

	t.Run("replace drops active holdings not in the new set", func(t *testing.T) {
		p := mustCreate(t, input("TCS", 50, 500), input("INFY", 20, 1000))
		p.Holdings[1].Quantity = 0
		p.Holdings[1].Status = domain.HoldingStatus_Sell
		p.Holdings[1].Weight = decimal.Zero
		p.Holdings = append(p.Holdings, domain.Holding{
			Symbol: "WIPRO", BuyPrice: dec(400), Quantity: 10, Weight: dec(4), Status: domain.HoldingStatus_Hold,
		})

		out, err := Apply(p, Allocate{Action: Action_Replace, Holdings: []HoldingInput{input("RELIANCE", 40, 2500)}}, now)
		require.NoError(t, err)

		symbols := []string{}
		for _, h := range out.Portfolio.Holdings {
			symbols = append(symbols, h.Symbol)
		}
		require.Equal(t, []string{"RELIANCE", "INFY"}, symbols)
		require.Equal(t, []string{"RELIANCE"}, out.Portfolio.ActiveSymbols())
		require.True(t, out.Portfolio.CashBalance.Equal(dec(60000)))
	})

	t.Run("delete", func(t *testing.T) {
		p := mustCreate(t, input("TCS", 50, 500), input("INFY", 20, 1000))
		cmd, err := NewCommand("delete", CommandInput{Symbols: []string{"infy"}})
		require.NoError(t, err)

		out, err := Apply(p, cmd, now)
		require.NoError(t, err)
		require.Equal(t, []string{"TCS"}, out.Portfolio.ActiveSymbols())
		require.True(t, out.Portfolio.CashBalance.Equal(dec(50000)))

		_, err = Apply(p, Allocate{Action: Action_Delete, Symbols: []string{"NOPE"}}, now)
		require.True(t, folio_errors.IsNotFound(err))
	})

	t.Run("duplicate symbols", func(t *testing.T) {
		p := mustCreate(t)
		_, err := Apply(p, Allocate{Action: Action_Update, Holdings: []HoldingInput{input("A", 10, 10), input("a", 10, 10)}}, now)
		require.Error(t, err)
	})
}

func TestApply_transact(t *testing.T) {
	t.Run("buy uses wallet cash", func(t *testing.T) {
		p := mustCreate(t, input("TCS", 50, 500))

		cmd, err := NewCommand("buy", CommandInput{Buy: &trade.BuyOrder{Symbol: "TCS", Price: dec(600), Quantity: 10}})
		require.NoError(t, err)
		out, err := Apply(p, cmd, now)
		require.NoError(t, err)
		require.Equal(t, Regime_Transact, out.Regime)
		require.NotNil(t, out.Buy)

		np := out.Portfolio
		require.True(t, np.CashBalance.Equal(dec(44000)))
		require.Equal(t, int64(110), np.Holdings[0].Quantity)
		require.True(t, np.CurrentValue.Equal(dec(44000).Add(dec(600).Mul(decimal.NewFromInt(110)))), np.CurrentValue.String())
	})

	t.Run("sell credits cash above capital", func(t *testing.T) {
		p := mustCreate(t, input("TCS", 100, 500))
		require.True(t, p.CashBalance.IsZero())

		out, err := Apply(p, Transact{Action: Action_Sell, Sell: &trade.SellOrder{Symbol: "TCS", Price: dec(800), SaleType: trade.SaleType_Complete}}, now)
		require.NoError(t, err)
		require.True(t, out.Portfolio.CashBalance.Equal(dec(160000)))
		require.True(t, out.Portfolio.CashBalance.GreaterThan(out.Portfolio.MinInvestment))
	})

	t.Run("profits from a sale can be redeployed", func(t *testing.T) {
		p := mustCreate(t, input("TCS", 100, 500))
		sold, err := Apply(p, Transact{Action: Action_Sell, Sell: &trade.SellOrder{Symbol: "TCS", Price: dec(1000), SaleType: trade.SaleType_Complete}}, now)
		require.NoError(t, err)
		require.True(t, sold.Portfolio.CashBalance.Equal(dec(200000)))

		out, err := Apply(sold.Portfolio, Transact{Action: Action_Buy, Buy: &trade.BuyOrder{Symbol: "INFY", Price: dec(1000), Quantity: 150}}, now)
		require.NoError(t, err)
		require.True(t, out.Portfolio.CashBalance.Equal(dec(50000)))
		require.True(t, out.Validation.TotalWeight.Equal(dec(75)), out.Validation.TotalWeight.String())
	})

	t.Run("failed buy leaves the input portfolio unchanged", func(t *testing.T) {
		p := mustCreate(t, input("TCS", 50, 500))
		before := p.DeepCopy()

		_, err := Apply(p, Transact{Action: Action_Buy, Buy: &trade.BuyOrder{Symbol: "TCS", Price: dec(500), Quantity: 1000}}, now)
		var fundsErr folio_errors.InsufficientFundsError
		require.True(t, errors.As(err, &fundsErr))
		require.True(t, fundsErr.Shortfall.Equal(dec(450000)))

		if diff := cmp.Diff(before.ActiveSymbols(), p.ActiveSymbols()); diff != "" {
			t.Fatalf("holdings changed (-before +after):\n%s", diff)
		}
		require.True(t, before.CashBalance.Equal(p.CashBalance))
		require.Equal(t, before.Holdings[0].Quantity, p.Holdings[0].Quantity)
	})
}

func TestNewCommand(t *testing.T) {
	cases := []struct {
		action  string
		in      CommandInput
		want    Regime
		wantErr bool
	}{
		{"", CommandInput{Holdings: []HoldingInput{input("A", 1, 1)}}, Regime_Allocate, false},
		{"ADD", CommandInput{Holdings: []HoldingInput{input("A", 1, 1)}}, Regime_Allocate, false},
		{"replace", CommandInput{}, Regime_Allocate, false},
		{"delete", CommandInput{}, "", true},
		{"buy", CommandInput{Buy: &trade.BuyOrder{}}, Regime_Transact, false},
		{"buy", CommandInput{}, "", true},
		{"sell", CommandInput{Sell: &trade.SellOrder{}}, Regime_Transact, false},
		{"transfer", CommandInput{}, "", true},
	}
	for _, c := range cases {
		cmd, err := NewCommand(c.action, c.in)
		if c.wantErr {
			require.Error(t, err, c.action)
			continue
		}
		require.NoError(t, err, c.action)
		require.Equal(t, c.want, cmd.GetAction().Regime(), c.action)
		switch cmd.(type) {
		case Allocate:
			require.Equal(t, Regime_Allocate, c.want)
		case Transact:
			require.Equal(t, Regime_Transact, c.want)
		}
	}
}
