package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	folio_errors "modelfolio/internal"
	db "modelfolio/internal/db/query"
	"modelfolio/internal/domain"
	"modelfolio/internal/portfolio"
	"modelfolio/internal/prices"
	"modelfolio/internal/repository"
	"modelfolio/internal/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func decPtr(f float64) *decimal.Decimal {
	d := dec(f)
	return &d
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seedPortfolio(t *testing.T, repo repository.PortfolioRepository, name string, holdings ...portfolio.HoldingInput) domain.Portfolio {
	t.Helper()
	out, err := portfolio.New(portfolio.CreateInput{
		Name:          name,
		MinInvestment: dec(100000),
		Holdings:      holdings,
	}, testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Add(context.Background(), *out.Portfolio))
	return *out.Portfolio
}

func holdingInput(symbol string, weight, price float64) portfolio.HoldingInput {
	return portfolio.HoldingInput{Symbol: symbol, Weight: decPtr(weight), BuyPrice: decPtr(price)}
}

func newTestValuationService(
	portfolios repository.PortfolioRepository,
	logs repository.PriceLogRepository,
	source prices.PriceSource,
	now time.Time,
) valuationServiceHandler {
	return valuationServiceHandler{
		Transactor:          db.NoopTransactor{},
		PortfolioRepository: portfolios,
		PriceLogRepository:  logs,
		PriceSource:         source,
		Config: ValuationConfig{
			Concurrency:  4,
			StorageRetry: util.RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond},
			Location:     time.UTC,
		},
		Now: fixedClock(now),
		Log: zerolog.Nop(),
	}
}

// flakyPriceLogRepository fails upserts with err for the first failures
// calls, or forever for the portfolios in failFor.
type flakyPriceLogRepository struct {
	repository.PriceLogRepository
	mu       sync.Mutex
	err      error
	failures int
	failFor  map[uuid.UUID]bool
	calls    int
}

func (r *flakyPriceLogRepository) Upsert(ctx context.Context, l domain.PriceLog) (*domain.PriceLog, error) {
	r.mu.Lock()
	r.calls++
	fail := r.failFor[l.PortfolioID] || r.calls <= r.failures
	r.mu.Unlock()
	if fail {
		return nil, r.err
	}
	return r.PriceLogRepository.Upsert(ctx, l)
}

func transientErr() error {
	return folio_errors.TransientStorageError{Op: "upsert price log", Err: errors.New("connection reset")}
}

// conflictingPortfolioRepository bumps the stored version behind the
// caller's back before every update.
type conflictingPortfolioRepository struct {
	*repository.MemoryPortfolioRepository
}

func (r conflictingPortfolioRepository) Update(ctx context.Context, p domain.Portfolio, expectedVersion int64) (*domain.Portfolio, error) {
	current, err := r.MemoryPortfolioRepository.Get(ctx, p.PortfolioID)
	if err != nil {
		return nil, err
	}
	if _, err := r.MemoryPortfolioRepository.Update(ctx, *current, current.Version); err != nil {
		return nil, err
	}
	return r.MemoryPortfolioRepository.Update(ctx, p, expectedVersion)
}
