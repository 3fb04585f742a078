package app

import (
	"context"
	"testing"

	api_types "modelfolio/api-types"
	"modelfolio/internal/domain"
	"modelfolio/internal/prices"
	"modelfolio/internal/util"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *util.Config {
	return &util.Config{
		Storage:               util.StorageMemory,
		Timezone:              "UTC",
		ValuationCron:         "0 45 15 * * MON-FRI",
		DedupCron:             "0 0 3 * * SUN",
		ValuationConcurrency:  2,
		StorageRetryAttempts:  2,
		AlphaVantageRateLimit: 5,
	}
}

func TestBuild_memory(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	src := prices.NewMockPriceSource(ctrl)
	src.EXPECT().GetPrice(gomock.Any(), "INFY").Return(&domain.Quote{Symbol: "INFY", CurrentPrice: decimal.NewFromInt(1500)}, nil)

	a, err := Build(ctx, memoryConfig(), zerolog.Nop(), src)
	require.NoError(t, err)
	defer a.Close()
	a.PrepareStorage(ctx)

	weight, price := decimal.NewFromInt(30), decimal.NewFromInt(1450)
	created, err := a.Resolver.CreatePortfolio(ctx, api_types.CreatePortfolioRequest{
		Name:          "Value",
		MinInvestment: decimal.NewFromInt(100000),
		Holdings:      []api_types.HoldingInput{{Symbol: "INFY", Weight: &weight, BuyPrice: &price}},
	})
	require.NoError(t, err)

	logged, err := a.Resolver.LogValue(ctx, created.Portfolio.PortfolioID, api_types.LogValueRequest{})
	require.NoError(t, err)
	// 71000 cash + 20 * 1500
	require.Equal(t, 101000.0, logged.PortfolioValue)

	s, err := a.NewScheduler()
	require.NoError(t, err)
	require.Len(t, s.Entries(), 2)
}

func TestBuild_defaultPriceChain(t *testing.T) {
	cfg := memoryConfig()
	cfg.RedisURL = "redis://localhost:6379/0"
	a, err := Build(context.Background(), cfg, zerolog.Nop(), nil)
	require.NoError(t, err)
	a.Close()

	cfg.RedisURL = "not a url"
	_, err = Build(context.Background(), cfg, zerolog.Nop(), nil)
	require.Error(t, err)
}

func TestNewScheduler_badCron(t *testing.T) {
	cfg := memoryConfig()
	cfg.ValuationCron = "whenever"
	a, err := Build(context.Background(), cfg, zerolog.Nop(), prices.NewMockPriceSource(gomock.NewController(t)))
	require.NoError(t, err)
	_, err = a.NewScheduler()
	require.ErrorContains(t, err, "VALUATION_CRON")
}
