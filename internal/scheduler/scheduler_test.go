package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"modelfolio/internal/domain"
	"modelfolio/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubValuation struct {
	results    []service.ValuationResult
	err        error
	dedup      *service.DedupReport
	useClosing []bool
}

func (s *stubValuation) LogPortfolio(ctx context.Context, portfolioID uuid.UUID, useClosingPrices bool) (*domain.PriceLog, error) {
	return nil, errors.New("not used")
}

func (s *stubValuation) LogAll(ctx context.Context, useClosingPrices bool) ([]service.ValuationResult, error) {
	s.useClosing = append(s.useClosing, useClosingPrices)
	return s.results, s.err
}

func (s *stubValuation) Deduplicate(ctx context.Context) (*service.DedupReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.dedup, nil
}

func TestDailyValuationJob(t *testing.T) {
	value := decimal.NewFromInt(1000)

	t.Run("all logged", func(t *testing.T) {
		stub := &stubValuation{results: []service.ValuationResult{
			{PortfolioID: uuid.New(), Status: service.ValuationStatus_Success, Value: &value},
		}}
		job := NewDailyValuationJob(stub, true, zerolog.Nop())
		require.NoError(t, job.Run())
		require.Equal(t, []bool{true}, stub.useClosing)
		require.Equal(t, "daily_valuation", job.Name())
	})

	t.Run("partial failure is reported", func(t *testing.T) {
		stub := &stubValuation{results: []service.ValuationResult{
			{PortfolioID: uuid.New(), Status: service.ValuationStatus_Success, Value: &value},
			{PortfolioID: uuid.New(), Status: service.ValuationStatus_Failed, Error: errors.New("boom")},
		}}
		err := NewDailyValuationJob(stub, false, zerolog.Nop()).Run()
		require.EqualError(t, err, "1 of 2 portfolios failed to log")
	})

	t.Run("batch error", func(t *testing.T) {
		stub := &stubValuation{err: errors.New("db down")}
		require.Error(t, NewDailyValuationJob(stub, false, zerolog.Nop()).Run())
	})
}

func TestDedupJob(t *testing.T) {
	stub := &stubValuation{dedup: &service.DedupReport{Groups: 1, Deleted: 2}}
	require.NoError(t, NewDedupJob(stub, zerolog.Nop()).Run())

	stub.err = errors.New("index build failed")
	require.Error(t, NewDedupJob(stub, zerolog.Nop()).Run())
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(time.FixedZone("IST", 5*60*60+30*60), zerolog.Nop())

	require.NoError(t, s.AddJob("0 45 15 * * MON-FRI", NewDedupJob(&stubValuation{}, zerolog.Nop())))
	require.Error(t, s.AddJob("not a schedule", NewDedupJob(&stubValuation{}, zerolog.Nop())))
	require.Len(t, s.Entries(), 1)
}
