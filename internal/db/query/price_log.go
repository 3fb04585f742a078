package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"modelfolio/internal/db/models/postgres/public/model"
	. "modelfolio/internal/db/models/postgres/public/table"

	. "github.com/go-jet/jet/v2/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UpsertPriceLog writes the day's valuation for a portfolio. An existing
// row for the same (portfolio_id, date_only) is overwritten in place and
// its update_count bumped, so a day never holds more than one row.
func UpsertPriceLog(ctx context.Context, exec Executor, m model.PriceLog) (*model.PriceLog, error) {
	t := PriceLog
	stmt := t.INSERT(t.AllColumns).
		MODEL(m).
		ON_CONFLICT(t.PortfolioID, t.DateOnly).
		DO_UPDATE(SET(
			t.Date.SET(t.EXCLUDED.Date),
			t.PortfolioValue.SET(t.EXCLUDED.PortfolioValue),
			t.CashRemaining.SET(t.EXCLUDED.CashRemaining),
			t.UsedClosingPrices.SET(t.EXCLUDED.UsedClosingPrices),
			t.UpdateCount.SET(t.UpdateCount.ADD(Int(1))),
		)).
		RETURNING(t.AllColumns)

	// a failed statement poisons the surrounding transaction, so the
	// attempt runs under a savepoint when there is one
	tx, inTx := exec.(*sql.Tx)
	var savepoint string
	if inTx {
		name, err := AddSavepoint(ctx, tx)
		if err != nil {
			return nil, ClassifyError("upsert price log", err)
		}
		savepoint = name
	}

	result := model.PriceLog{}
	err := stmt.QueryContext(ctx, exec, &result)
	if inTx {
		if err := RollbackWithError(ctx, tx, savepoint, err); err != nil && !isMissingConflictTarget(err) {
			return nil, ClassifyError("upsert price log", err)
		}
		if err == nil {
			if err := ReleaseSavepoint(ctx, savepoint, tx); err != nil {
				return nil, ClassifyError("upsert price log", err)
			}
		}
	}
	if isMissingConflictTarget(err) {
		// unique index not built yet, see EnsurePriceLogUniqueIndex
		return upsertPriceLogByLookup(ctx, exec, m)
	}
	if err != nil {
		return nil, ClassifyError("upsert price log", err)
	}
	return &result, nil
}

func upsertPriceLogByLookup(ctx context.Context, exec Executor, m model.PriceLog) (*model.PriceLog, error) {
	t := PriceLog
	update := t.UPDATE(t.Date, t.PortfolioValue, t.CashRemaining, t.UsedClosingPrices, t.UpdateCount).
		SET(
			t.Date.SET(TimestampzT(m.Date)),
			t.PortfolioValue.SET(Float(m.PortfolioValue.InexactFloat64())),
			t.CashRemaining.SET(Float(m.CashRemaining.InexactFloat64())),
			t.UsedClosingPrices.SET(Bool(m.UsedClosingPrices)),
			t.UpdateCount.SET(t.UpdateCount.ADD(Int(1))),
		).
		WHERE(t.PriceLogID.IN(
			t.SELECT(t.PriceLogID).
				WHERE(AND(
					t.PortfolioID.EQ(UUID(m.PortfolioID)),
					t.DateOnly.EQ(DateT(m.DateOnly)),
				)).
				ORDER_BY(t.UpdateCount.DESC(), t.Date.DESC()).
				LIMIT(1),
		)).
		RETURNING(t.AllColumns)

	updated := []model.PriceLog{}
	if err := update.QueryContext(ctx, exec, &updated); err != nil {
		return nil, ClassifyError("update price log", err)
	}
	if len(updated) > 0 {
		return &updated[0], nil
	}

	insert := t.INSERT(t.AllColumns).
		MODEL(m).
		RETURNING(t.AllColumns)
	result := model.PriceLog{}
	if err := insert.QueryContext(ctx, exec, &result); err != nil {
		return nil, ClassifyError("insert price log", err)
	}
	return &result, nil
}

func isMissingConflictTarget(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42P10"
}

// ListPriceLogs returns a portfolio's rows in date order. A nil from
// starts at the first row ever written.
func ListPriceLogs(ctx context.Context, exec Executor, portfolioID uuid.UUID, from *time.Time) ([]model.PriceLog, error) {
	t := PriceLog
	whereExp := []BoolExpression{
		t.PortfolioID.EQ(UUID(portfolioID)),
	}
	if from != nil {
		whereExp = append(whereExp, t.DateOnly.GT_EQ(DateT(*from)))
	}

	query := t.SELECT(t.AllColumns).
		WHERE(AND(whereExp...)).
		ORDER_BY(t.Date.ASC())

	result := []model.PriceLog{}
	if err := query.QueryContext(ctx, exec, &result); err != nil {
		return nil, ClassifyError("list price logs", err)
	}
	return result, nil
}

// ListDuplicatePriceLogs returns every row that shares its
// (portfolio_id, date_only) with at least one other row.
func ListDuplicatePriceLogs(ctx context.Context, exec Executor) ([]model.PriceLog, error) {
	t := PriceLog
	other := PriceLog.AS("other")
	query := t.SELECT(t.AllColumns).
		WHERE(EXISTS(
			other.SELECT(other.PriceLogID).
				WHERE(AND(
					other.PortfolioID.EQ(t.PortfolioID),
					other.DateOnly.EQ(t.DateOnly),
					other.PriceLogID.NOT_EQ(t.PriceLogID),
				)),
		)).
		ORDER_BY(t.PortfolioID.ASC(), t.DateOnly.ASC(), t.Date.ASC())

	result := []model.PriceLog{}
	if err := query.QueryContext(ctx, exec, &result); err != nil {
		return nil, ClassifyError("list duplicate price logs", err)
	}
	return result, nil
}

func DeletePriceLogs(ctx context.Context, exec Executor, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	t := PriceLog
	idExp := []Expression{}
	for _, id := range ids {
		idExp = append(idExp, UUID(id))
	}

	res, err := t.DELETE().
		WHERE(t.PriceLogID.IN(idExp...)).
		ExecContext(ctx, exec)
	if err != nil {
		return 0, ClassifyError("delete price logs", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, ClassifyError("delete price logs", err)
	}
	return n, nil
}
