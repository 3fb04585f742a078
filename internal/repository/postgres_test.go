package repository

import (
	"context"
	"testing"
	"time"

	folio_errors "modelfolio/internal"
	db "modelfolio/internal/db/query"
	"modelfolio/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func TestPortfolioRepository_postgres(t *testing.T) {
	dbConn := db.NewTest(t)
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx, dbConn))

	tx, err := dbConn.BeginTx(ctx, nil)
	require.NoError(t, err)
	db.RollbackAfterTest(t, tx)
	ctx = db.ContextWithTx(ctx, tx)

	repo := NewPortfolioRepository(dbConn)
	p := samplePortfolio()
	require.NoError(t, repo.Add(ctx, p))

	got, err := repo.Get(ctx, p.PortfolioID)
	require.NoError(t, err)
	require.Equal(
		t,
		"",
		cmp.Diff(
			p,
			*got,
			cmpopts.EquateApproxTime(time.Millisecond),
		),
	)

	p.CashBalance = dec(10)
	p.Holdings[0].Quantity = 120
	updated, err := repo.Update(ctx, p, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.Version)

	_, err = repo.Update(ctx, p, 1)
	require.True(t, folio_errors.IsConflict(err))

	got, err = repo.Get(ctx, p.PortfolioID)
	require.NoError(t, err)
	require.Equal(t, int64(120), got.Holdings[0].Quantity)
	require.True(t, got.CashBalance.Equal(dec(10)))
}

func TestPriceLogRepository_postgres(t *testing.T) {
	dbConn := db.NewTest(t)
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx, dbConn))

	tx, err := dbConn.BeginTx(ctx, nil)
	require.NoError(t, err)
	db.RollbackAfterTest(t, tx)
	ctx = db.ContextWithTx(ctx, tx)

	portfolios := NewPortfolioRepository(dbConn)
	p := samplePortfolio()
	require.NoError(t, portfolios.Add(ctx, p))

	repo := NewPriceLogRepository(dbConn)
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	for i, value := range []float64{1000, 1100} {
		out, err := repo.Upsert(ctx, domain.PriceLog{
			PortfolioID:    p.PortfolioID,
			Date:           day.Add(time.Duration(16+i) * time.Hour),
			DateOnly:       day,
			PortfolioValue: dec(value),
			CashRemaining:  dec(10),
		})
		require.NoError(t, err)
		require.Equal(t, int32(i+1), out.UpdateCount)
	}

	logs, err := repo.List(ctx, p.PortfolioID, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.True(t, logs[0].PortfolioValue.Equal(dec(1100)))
	require.True(t, logs[0].DateOnly.Equal(day))
}
