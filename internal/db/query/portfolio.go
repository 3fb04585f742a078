package db

import (
	"context"
	"time"

	"modelfolio/internal/db/models/postgres/public/model"
	"modelfolio/internal/db/models/postgres/public/table"

	"github.com/go-jet/jet/v2/postgres"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func InsertPortfolio(ctx context.Context, exec Executor, m model.Portfolio) error {
	t := table.Portfolio
	stmt := t.INSERT(t.AllColumns).
		MODEL(m)

	if _, err := stmt.ExecContext(ctx, exec); err != nil {
		return ClassifyError("insert portfolio", err)
	}
	return nil
}

// GetPortfolio returns qrm.ErrNoRows, wrapped, when id is unknown.
func GetPortfolio(ctx context.Context, exec Executor, id uuid.UUID) (*model.Portfolio, error) {
	t := table.Portfolio
	query := t.SELECT(t.AllColumns).
		WHERE(t.PortfolioID.EQ(postgres.UUID(id)))

	result := model.Portfolio{}
	if err := query.QueryContext(ctx, exec, &result); err != nil {
		return nil, ClassifyError("get portfolio", err)
	}
	return &result, nil
}

func ListPortfolios(ctx context.Context, exec Executor) ([]model.Portfolio, error) {
	t := table.Portfolio
	query := t.SELECT(t.AllColumns).
		ORDER_BY(t.CreatedAt.ASC())

	result := []model.Portfolio{}
	if err := query.QueryContext(ctx, exec, &result); err != nil {
		return nil, ClassifyError("list portfolios", err)
	}
	return result, nil
}

// UpdatePortfolioVersioned writes m only if the stored version is still
// expectedVersion, and bumps it. It reports whether a row was written.
func UpdatePortfolioVersioned(ctx context.Context, exec Executor, m model.Portfolio, expectedVersion int64) (bool, error) {
	t := table.Portfolio
	m.Version = expectedVersion + 1
	stmt := t.UPDATE(
		t.Name,
		t.CashBalance,
		t.CurrentValue,
		t.CompareWith,
		t.Version,
		t.UpdatedAt,
	).
		MODEL(m).
		WHERE(postgres.AND(
			t.PortfolioID.EQ(postgres.UUID(m.PortfolioID)),
			t.Version.EQ(postgres.Int(expectedVersion)),
		))

	res, err := stmt.ExecContext(ctx, exec)
	if err != nil {
		return false, ClassifyError("update portfolio", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, ClassifyError("update portfolio", err)
	}
	return n == 1, nil
}

// UpdatePortfolioCurrentValue refreshes the cached value without touching
// the version: it is derived data and must not conflict with trades.
func UpdatePortfolioCurrentValue(ctx context.Context, exec Executor, id uuid.UUID, value decimal.Decimal, at time.Time) (bool, error) {
	t := table.Portfolio
	stmt := t.UPDATE(t.CurrentValue, t.UpdatedAt).
		SET(postgres.Float(value.InexactFloat64()), postgres.TimestampzT(at)).
		WHERE(t.PortfolioID.EQ(postgres.UUID(id)))

	res, err := stmt.ExecContext(ctx, exec)
	if err != nil {
		return false, ClassifyError("update portfolio current value", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, ClassifyError("update portfolio current value", err)
	}
	return n == 1, nil
}

func ListHoldings(ctx context.Context, exec Executor, portfolioIDs []uuid.UUID) ([]model.Holding, error) {
	if len(portfolioIDs) == 0 {
		return []model.Holding{}, nil
	}
	t := table.Holding
	ids := []postgres.Expression{}
	for _, id := range portfolioIDs {
		ids = append(ids, postgres.UUID(id))
	}
	query := t.SELECT(t.AllColumns).
		WHERE(t.PortfolioID.IN(ids...)).
		ORDER_BY(t.PortfolioID.ASC(), t.Position.ASC())

	result := []model.Holding{}
	if err := query.QueryContext(ctx, exec, &result); err != nil {
		return nil, ClassifyError("list holdings", err)
	}
	return result, nil
}

// ReplaceHoldings swaps the stored holdings of a portfolio for the given
// set. Callers run it in the same transaction as the versioned update.
func ReplaceHoldings(ctx context.Context, exec Executor, portfolioID uuid.UUID, holdings []model.Holding) error {
	t := table.Holding
	del := t.DELETE().
		WHERE(t.PortfolioID.EQ(postgres.UUID(portfolioID)))
	if _, err := del.ExecContext(ctx, exec); err != nil {
		return ClassifyError("delete holdings", err)
	}
	if len(holdings) == 0 {
		return nil
	}

	ins := t.INSERT(t.AllColumns).
		MODELS(holdings)
	if _, err := ins.ExecContext(ctx, exec); err != nil {
		return ClassifyError("insert holdings", err)
	}
	return nil
}
