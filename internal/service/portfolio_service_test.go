package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	folio_errors "modelfolio/internal"
	db "modelfolio/internal/db/query"
	"modelfolio/internal/portfolio"
	"modelfolio/internal/repository"
	"modelfolio/internal/trade"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestPortfolioService(repo repository.PortfolioRepository) portfolioServiceHandler {
	return portfolioServiceHandler{
		Transactor:          db.NoopTransactor{},
		PortfolioRepository: repo,
		MaxConflictRetries:  DefaultMaxConflictRetries,
		Now:                 fixedClock(testNow),
		Log:                 zerolog.Nop(),
	}
}

func TestPortfolioService_Create(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryPortfolioRepository()
	svc := newTestPortfolioService(repo)

	out, err := svc.Create(ctx, portfolio.CreateInput{
		Name:          "Growth",
		MinInvestment: dec(100000),
		Holdings:      []portfolio.HoldingInput{holdingInput("TCS", 50, 500)},
	})
	require.NoError(t, err)

	stored, err := svc.Get(ctx, out.Portfolio.PortfolioID)
	require.NoError(t, err)
	require.Equal(t, []string{"TCS"}, stored.ActiveSymbols())
	require.True(t, stored.CashBalance.Equal(dec(50000)))

	_, err = svc.Create(ctx, portfolio.CreateInput{Name: "Bad", MinInvestment: dec(0)})
	var verr folio_errors.ValidationError
	require.True(t, errors.As(err, &verr))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestPortfolioService_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and bumps the version", func(t *testing.T) {
		repo := repository.NewMemoryPortfolioRepository()
		svc := newTestPortfolioService(repo)
		p := seedPortfolio(t, repo, "Growth", holdingInput("TCS", 50, 500))

		out, err := svc.Apply(ctx, p.PortfolioID, portfolio.Transact{
			Action: portfolio.Action_Buy,
			Buy:    &trade.BuyOrder{Symbol: "TCS", Price: dec(600), Quantity: 10},
		})
		require.NoError(t, err)
		require.Equal(t, int64(2), out.Portfolio.Version)

		stored, err := repo.Get(ctx, p.PortfolioID)
		require.NoError(t, err)
		require.Equal(t, int64(110), stored.Holdings[0].Quantity)
		require.True(t, stored.CashBalance.Equal(dec(44000)))
	})

	t.Run("rejected commands write nothing", func(t *testing.T) {
		repo := repository.NewMemoryPortfolioRepository()
		svc := newTestPortfolioService(repo)
		p := seedPortfolio(t, repo, "Growth", holdingInput("TCS", 50, 500))

		_, err := svc.Apply(ctx, p.PortfolioID, portfolio.Transact{
			Action: portfolio.Action_Buy,
			Buy:    &trade.BuyOrder{Symbol: "TCS", Price: dec(600), Quantity: 1000},
		})
		var fundsErr folio_errors.InsufficientFundsError
		require.True(t, errors.As(err, &fundsErr))

		stored, err := repo.Get(ctx, p.PortfolioID)
		require.NoError(t, err)
		require.Equal(t, int64(1), stored.Version)
		require.Equal(t, int64(100), stored.Holdings[0].Quantity)

		_, err = svc.Apply(ctx, uuid.New(), portfolio.Allocate{Action: portfolio.Action_Replace})
		require.True(t, folio_errors.IsNotFound(err))
	})

	t.Run("concurrent buys are all applied", func(t *testing.T) {
		repo := repository.NewMemoryPortfolioRepository()
		svc := newTestPortfolioService(repo)
		p := seedPortfolio(t, repo, "Growth", holdingInput("TCS", 50, 500))

		const buyers = 5
		var wg sync.WaitGroup
		errs := make([]error, buyers)
		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.Apply(ctx, p.PortfolioID, portfolio.Transact{
					Action: portfolio.Action_Buy,
					Buy:    &trade.BuyOrder{Symbol: "TCS", Price: dec(500), Quantity: 10},
				})
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		stored, err := repo.Get(ctx, p.PortfolioID)
		require.NoError(t, err)
		require.Equal(t, int64(150), stored.Holdings[0].Quantity)
		require.True(t, stored.CashBalance.Equal(dec(25000)))
		require.Equal(t, int64(1+buyers), stored.Version)
	})

	t.Run("gives up after bounded conflicts", func(t *testing.T) {
		mem := repository.NewMemoryPortfolioRepository()
		p := seedPortfolio(t, mem, "Growth", holdingInput("TCS", 50, 500))
		svc := newTestPortfolioService(conflictingPortfolioRepository{mem})
		svc.MaxConflictRetries = 2

		_, err := svc.Apply(ctx, p.PortfolioID, portfolio.Transact{
			Action: portfolio.Action_Buy,
			Buy:    &trade.BuyOrder{Symbol: "TCS", Price: dec(500), Quantity: 1},
		})
		require.True(t, folio_errors.IsConflict(err))
	})
}
