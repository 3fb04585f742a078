package repository

import (
	"context"
	"database/sql"
	"time"

	db "modelfolio/internal/db/query"
	"modelfolio/internal/db/models/postgres/public/model"
	"modelfolio/internal/domain"

	"github.com/google/uuid"
)

type PriceLogRepository interface {
	// Upsert writes l as the only row for (PortfolioID, DateOnly). A
	// second write the same day overwrites the values and bumps
	// UpdateCount.
	Upsert(ctx context.Context, l domain.PriceLog) (*domain.PriceLog, error)
	List(ctx context.Context, portfolioID uuid.UUID, from *time.Time) ([]domain.PriceLog, error)
	ListDuplicates(ctx context.Context) ([]domain.PriceLog, error)
	Delete(ctx context.Context, priceLogIDs []uuid.UUID) (int64, error)
	// EnsureUniqueIndex fails while duplicate rows remain.
	EnsureUniqueIndex(ctx context.Context) error
}

type priceLogRepositoryHandler struct {
	Db *sql.DB
}

func NewPriceLogRepository(dbConn *sql.DB) PriceLogRepository {
	return priceLogRepositoryHandler{Db: dbConn}
}

func (h priceLogRepositoryHandler) Upsert(ctx context.Context, l domain.PriceLog) (*domain.PriceLog, error) {
	m := priceLogToDb(l)
	if m.PriceLogID == uuid.Nil {
		m.PriceLogID = uuid.New()
	}
	m.UpdateCount = 1
	result, err := db.UpsertPriceLog(ctx, db.Conn(ctx, h.Db), m)
	if err != nil {
		return nil, err
	}
	out := priceLogFromDb(*result)
	return &out, nil
}

func (h priceLogRepositoryHandler) List(ctx context.Context, portfolioID uuid.UUID, from *time.Time) ([]domain.PriceLog, error) {
	result, err := db.ListPriceLogs(ctx, db.Conn(ctx, h.Db), portfolioID, from)
	if err != nil {
		return nil, err
	}
	return priceLogsFromDb(result), nil
}

func (h priceLogRepositoryHandler) ListDuplicates(ctx context.Context) ([]domain.PriceLog, error) {
	result, err := db.ListDuplicatePriceLogs(ctx, db.Conn(ctx, h.Db))
	if err != nil {
		return nil, err
	}
	return priceLogsFromDb(result), nil
}

func (h priceLogRepositoryHandler) Delete(ctx context.Context, priceLogIDs []uuid.UUID) (int64, error) {
	return db.DeletePriceLogs(ctx, db.Conn(ctx, h.Db), priceLogIDs)
}

func (h priceLogRepositoryHandler) EnsureUniqueIndex(ctx context.Context) error {
	return db.EnsurePriceLogUniqueIndex(ctx, db.Conn(ctx, h.Db))
}

func priceLogToDb(l domain.PriceLog) model.PriceLog {
	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = l.Date
	}
	return model.PriceLog{
		PriceLogID:        l.PriceLogID,
		PortfolioID:       l.PortfolioID,
		Date:              l.Date,
		DateOnly:          l.DateOnly,
		PortfolioValue:    l.PortfolioValue,
		CashRemaining:     l.CashRemaining,
		UpdateCount:       l.UpdateCount,
		UsedClosingPrices: l.UsedClosingPrices,
		CreatedAt:         createdAt,
	}
}

func priceLogFromDb(m model.PriceLog) domain.PriceLog {
	return domain.PriceLog{
		PriceLogID:        m.PriceLogID,
		PortfolioID:       m.PortfolioID,
		Date:              m.Date,
		DateOnly:          domain.DateOnly(m.DateOnly, time.UTC),
		PortfolioValue:    m.PortfolioValue,
		CashRemaining:     m.CashRemaining,
		UpdateCount:       m.UpdateCount,
		UsedClosingPrices: m.UsedClosingPrices,
		CreatedAt:         m.CreatedAt,
	}
}

func priceLogsFromDb(models []model.PriceLog) []domain.PriceLog {
	out := make([]domain.PriceLog, len(models))
	for i, m := range models {
		out[i] = priceLogFromDb(m)
	}
	return out
}
