package service

import (
	"context"
	"time"

	"modelfolio/internal/domain"
	"modelfolio/internal/metrics"
	"modelfolio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type HistoryOptions struct {
	// IncludeBaseline adds the change against the first point in the
	// window to every point.
	IncludeBaseline bool
}

type HistoryService interface {
	GetHistory(ctx context.Context, portfolioID uuid.UUID, period domain.HistoryPeriod, opts HistoryOptions) (*domain.History, error)
}

type historyServiceHandler struct {
	PortfolioRepository repository.PortfolioRepository
	PriceLogRepository  repository.PriceLogRepository
	Location            *time.Location
	Now                 func() time.Time
	Log                 zerolog.Logger
}

func NewHistoryService(
	portfolioRepository repository.PortfolioRepository,
	priceLogRepository repository.PriceLogRepository,
	location *time.Location,
	log zerolog.Logger,
) HistoryService {
	if location == nil {
		location = time.UTC
	}
	return historyServiceHandler{
		PortfolioRepository: portfolioRepository,
		PriceLogRepository:  priceLogRepository,
		Location:            location,
		Now:                 time.Now,
		Log:                 log.With().Str("component", "history_service").Logger(),
	}
}

// GetHistory returns the downsampled value series of a portfolio. No rows
// in the window is an empty history, not an error.
func (h historyServiceHandler) GetHistory(ctx context.Context, portfolioID uuid.UUID, period domain.HistoryPeriod, opts HistoryOptions) (*domain.History, error) {
	if _, err := h.PortfolioRepository.Get(ctx, portfolioID); err != nil {
		return nil, err
	}

	cfg := period.Config()
	logs, err := h.PriceLogRepository.List(ctx, portfolioID, cfg.WindowStart(h.Now(), h.Location))
	if err != nil {
		return nil, err
	}

	kept := metrics.Downsample(logs, cfg)
	points := metrics.HistoryPoints(kept, opts.IncludeBaseline)
	summary, err := metrics.Summarize(points)
	if err != nil {
		return nil, err
	}

	h.Log.Debug().
		Str("portfolioId", portfolioID.String()).
		Str("period", string(period)).
		Int("rows", len(logs)).
		Int("points", len(points)).
		Msg("history read")

	return &domain.History{
		PortfolioID: portfolioID.String(),
		Period:      period,
		Points:      points,
		Summary:     summary,
	}, nil
}
