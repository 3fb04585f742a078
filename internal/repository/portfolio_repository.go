package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	folio_errors "modelfolio/internal"
	db "modelfolio/internal/db/query"
	"modelfolio/internal/db/models/postgres/public/model"
	"modelfolio/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PortfolioRepository interface {
	Add(ctx context.Context, p domain.Portfolio) error
	Get(ctx context.Context, portfolioID uuid.UUID) (*domain.Portfolio, error)
	List(ctx context.Context) ([]domain.Portfolio, error)
	// Update persists p if the stored version still equals
	// expectedVersion and returns it with the bumped version. Otherwise
	// it returns ConflictError and writes nothing.
	Update(ctx context.Context, p domain.Portfolio, expectedVersion int64) (*domain.Portfolio, error)
	// UpdateCurrentValue writes the memoized value only. It never bumps the
	// version.
	UpdateCurrentValue(ctx context.Context, portfolioID uuid.UUID, value decimal.Decimal, at time.Time) error
}

type portfolioRepositoryHandler struct {
	Db *sql.DB
}

func NewPortfolioRepository(dbConn *sql.DB) PortfolioRepository {
	return portfolioRepositoryHandler{Db: dbConn}
}

func (h portfolioRepositoryHandler) Add(ctx context.Context, p domain.Portfolio) error {
	exec := db.Conn(ctx, h.Db)
	if err := db.InsertPortfolio(ctx, exec, portfolioToDb(p)); err != nil {
		return err
	}
	holdings, err := holdingsToDb(p.PortfolioID, p.Holdings)
	if err != nil {
		return err
	}
	return db.ReplaceHoldings(ctx, exec, p.PortfolioID, holdings)
}

func (h portfolioRepositoryHandler) Get(ctx context.Context, portfolioID uuid.UUID) (*domain.Portfolio, error) {
	exec := db.Conn(ctx, h.Db)
	m, err := db.GetPortfolio(ctx, exec, portfolioID)
	if db.IsNoRows(err) {
		return nil, folio_errors.NotFoundError{Entity: "portfolio", ID: portfolioID.String()}
	}
	if err != nil {
		return nil, err
	}

	holdings, err := db.ListHoldings(ctx, exec, []uuid.UUID{portfolioID})
	if err != nil {
		return nil, err
	}
	out, err := portfolioFromDb(*m, holdings)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h portfolioRepositoryHandler) List(ctx context.Context) ([]domain.Portfolio, error) {
	exec := db.Conn(ctx, h.Db)
	models, err := db.ListPortfolios(ctx, exec)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(models))
	for i, m := range models {
		ids[i] = m.PortfolioID
	}
	holdings, err := db.ListHoldings(ctx, exec, ids)
	if err != nil {
		return nil, err
	}
	byPortfolio := map[uuid.UUID][]model.Holding{}
	for _, hm := range holdings {
		byPortfolio[hm.PortfolioID] = append(byPortfolio[hm.PortfolioID], hm)
	}

	out := make([]domain.Portfolio, 0, len(models))
	for _, m := range models {
		p, err := portfolioFromDb(m, byPortfolio[m.PortfolioID])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (h portfolioRepositoryHandler) Update(ctx context.Context, p domain.Portfolio, expectedVersion int64) (*domain.Portfolio, error) {
	exec := db.Conn(ctx, h.Db)
	ok, err := db.UpdatePortfolioVersioned(ctx, exec, portfolioToDb(p), expectedVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := db.GetPortfolio(ctx, exec, p.PortfolioID); db.IsNoRows(err) {
			return nil, folio_errors.NotFoundError{Entity: "portfolio", ID: p.PortfolioID.String()}
		}
		return nil, folio_errors.ConflictError{PortfolioID: p.PortfolioID, ExpectedVersion: expectedVersion}
	}

	holdings, err := holdingsToDb(p.PortfolioID, p.Holdings)
	if err != nil {
		return nil, err
	}
	if err := db.ReplaceHoldings(ctx, exec, p.PortfolioID, holdings); err != nil {
		return nil, err
	}

	out := p.DeepCopy()
	out.Version = expectedVersion + 1
	return &out, nil
}

func (h portfolioRepositoryHandler) UpdateCurrentValue(ctx context.Context, portfolioID uuid.UUID, value decimal.Decimal, at time.Time) error {
	ok, err := db.UpdatePortfolioCurrentValue(ctx, db.Conn(ctx, h.Db), portfolioID, value, at)
	if err != nil {
		return err
	}
	if !ok {
		return folio_errors.NotFoundError{Entity: "portfolio", ID: portfolioID.String()}
	}
	return nil
}

func portfolioToDb(p domain.Portfolio) model.Portfolio {
	return model.Portfolio{
		PortfolioID:   p.PortfolioID,
		Name:          p.Name,
		MinInvestment: p.MinInvestment,
		CashBalance:   p.CashBalance,
		CurrentValue:  p.CurrentValue,
		CompareWith:   p.CompareWith,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func portfolioFromDb(m model.Portfolio, holdings []model.Holding) (domain.Portfolio, error) {
	p := domain.Portfolio{
		PortfolioID:   m.PortfolioID,
		Name:          m.Name,
		MinInvestment: m.MinInvestment,
		CashBalance:   m.CashBalance,
		CurrentValue:  m.CurrentValue,
		CompareWith:   m.CompareWith,
		Version:       m.Version,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		Holdings:      make([]domain.Holding, 0, len(holdings)),
	}
	for _, hm := range holdings {
		h, err := holdingFromDb(hm)
		if err != nil {
			return domain.Portfolio{}, err
		}
		p.Holdings = append(p.Holdings, h)
	}
	return p, nil
}

// holdings are rewritten wholesale on every update; Position keeps the
// caller's ordering stable across reads
func holdingsToDb(portfolioID uuid.UUID, holdings []domain.Holding) ([]model.Holding, error) {
	out := make([]model.Holding, 0, len(holdings))
	for i, h := range holdings {
		history := h.PriceHistory
		if history == nil {
			history = []domain.PriceHistoryEntry{}
		}
		historyJson, err := json.Marshal(history)
		if err != nil {
			return nil, fmt.Errorf("failed to encode price history for %s: %w", h.Symbol, err)
		}
		out = append(out, model.Holding{
			HoldingID:               uuid.New(),
			PortfolioID:             portfolioID,
			Position:                int32(i),
			Symbol:                  h.Symbol,
			Sector:                  h.Sector,
			BuyPrice:                h.BuyPrice,
			OriginalBuyPrice:        h.OriginalBuyPrice,
			CurrentPrice:            h.CurrentPrice,
			Quantity:                h.Quantity,
			Weight:                  h.Weight,
			InvestmentValueAtBuy:    h.InvestmentValueAtBuy,
			InvestmentValueAtMarket: h.InvestmentValueAtMarket,
			UnrealizedPnl:           h.UnrealizedPnL,
			RealizedPnl:             h.RealizedPnL,
			Status:                  h.Status.String(),
			PriceHistory:            string(historyJson),
			LastUpdated:             h.LastUpdated,
		})
	}
	return out, nil
}

func holdingFromDb(m model.Holding) (domain.Holding, error) {
	status, err := domain.ParseHoldingStatus(m.Status)
	if err != nil {
		return domain.Holding{}, err
	}
	history := []domain.PriceHistoryEntry{}
	if m.PriceHistory != "" {
		if err := json.Unmarshal([]byte(m.PriceHistory), &history); err != nil {
			return domain.Holding{}, fmt.Errorf("failed to decode price history for %s: %w", m.Symbol, err)
		}
	}
	return domain.Holding{
		Symbol:                  m.Symbol,
		Sector:                  m.Sector,
		BuyPrice:                m.BuyPrice,
		OriginalBuyPrice:        m.OriginalBuyPrice,
		CurrentPrice:            m.CurrentPrice,
		Quantity:                m.Quantity,
		Weight:                  m.Weight,
		InvestmentValueAtBuy:    m.InvestmentValueAtBuy,
		InvestmentValueAtMarket: m.InvestmentValueAtMarket,
		UnrealizedPnL:           m.UnrealizedPnl,
		RealizedPnL:             m.RealizedPnl,
		Status:                  status,
		PriceHistory:            history,
		LastUpdated:             m.LastUpdated,
	}, nil
}
