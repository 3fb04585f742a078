package main

import (
	"bytes"
	"context"
	"flag"
	"testing"

	api_types "modelfolio/api-types"
	"modelfolio/internal/app"
	"modelfolio/internal/domain"
	"modelfolio/internal/prices"
	"modelfolio/internal/util"

	"github.com/golang/mock/gomock"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*app.App, string) {
	ctrl := gomock.NewController(t)
	src := prices.NewMockPriceSource(ctrl)
	src.EXPECT().GetPrice(gomock.Any(), "TCS").Return(&domain.Quote{Symbol: "TCS", CurrentPrice: decimal.NewFromInt(550)}, nil).AnyTimes()

	a, err := app.Build(context.Background(), &util.Config{
		Storage:              util.StorageMemory,
		Timezone:             "UTC",
		DisplayCurrency:      "USD",
		ValuationConcurrency: 1,
		StorageRetryAttempts: 1,
	}, zerolog.Nop(), src)
	require.NoError(t, err)

	weight, price := decimal.NewFromInt(50), decimal.NewFromInt(500)
	created, err := a.Resolver.CreatePortfolio(context.Background(), api_types.CreatePortfolioRequest{
		Name:          "Growth",
		MinInvestment: decimal.NewFromInt(100000),
		Holdings:      []api_types.HoldingInput{{Symbol: "TCS", Weight: &weight, BuyPrice: &price}},
	})
	require.NoError(t, err)
	return a, created.Portfolio.PortfolioID
}

func run(t *testing.T, cmd subcommands.Command, a *app.App, args ...string) subcommands.ExitStatus {
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	require.NoError(t, f.Parse(args))
	return cmd.Execute(context.Background(), f, a)
}

func TestCommands(t *testing.T) {
	a, id := newTestApp(t)
	out := &bytes.Buffer{}

	require.Equal(t, subcommands.ExitSuccess, run(t, &listCmd{out: out}, a))
	require.Contains(t, out.String(), "Growth")
	require.Contains(t, out.String(), "$50,000.00")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &valueCmd{out: out}, a, id))
	// 50000 cash + 100 * 550
	require.Contains(t, out.String(), "$105,000.00 (update 1)")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &valueCmd{out: out}, a, "-closing"))
	require.Contains(t, out.String(), "success")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &historyCmd{out: out}, a, "-p", "1w", id))
	require.Contains(t, out.String(), "$105,000.00")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &showCmd{out: out}, a, id))
	require.Contains(t, out.String(), "TCS")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &dedupCmd{out: out}, a))
	require.Contains(t, out.String(), "0 rows deleted")

	require.Equal(t, subcommands.ExitUsageError, run(t, &showCmd{out: out}, a))
	require.Equal(t, subcommands.ExitFailure, run(t, &historyCmd{out: out}, a, "-p", "2w", id))
}
