package service

import (
	"context"
	"errors"
	"time"

	folio_errors "modelfolio/internal"
	db "modelfolio/internal/db/query"
	"modelfolio/internal/domain"
	"modelfolio/internal/observ"
	"modelfolio/internal/portfolio"
	"modelfolio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultMaxConflictRetries = 5

type PortfolioService interface {
	Create(ctx context.Context, in portfolio.CreateInput) (*portfolio.Outcome, error)
	Get(ctx context.Context, portfolioID uuid.UUID) (*domain.Portfolio, error)
	List(ctx context.Context) ([]domain.Portfolio, error)
	// Apply runs cmd against the stored portfolio and persists the result.
	// A concurrent write is absorbed by reloading and re-applying.
	Apply(ctx context.Context, portfolioID uuid.UUID, cmd portfolio.Command) (*portfolio.Outcome, error)
}

type portfolioServiceHandler struct {
	Transactor          db.Transactor
	PortfolioRepository repository.PortfolioRepository
	MaxConflictRetries  int
	Now                 func() time.Time
	Log                 zerolog.Logger
}

func NewPortfolioService(
	transactor db.Transactor,
	portfolioRepository repository.PortfolioRepository,
	log zerolog.Logger,
) PortfolioService {
	return portfolioServiceHandler{
		Transactor:          transactor,
		PortfolioRepository: portfolioRepository,
		MaxConflictRetries:  DefaultMaxConflictRetries,
		Now:                 time.Now,
		Log:                 log.With().Str("component", "portfolio_service").Logger(),
	}
}

func (h portfolioServiceHandler) Create(ctx context.Context, in portfolio.CreateInput) (*portfolio.Outcome, error) {
	out, err := portfolio.New(in, h.Now().UTC())
	if err != nil {
		observ.CommandsTotal.WithLabelValues("create", outcomeLabel(err)).Inc()
		return nil, err
	}

	err = h.Transactor.WithinTx(ctx, func(ctx context.Context) error {
		return h.PortfolioRepository.Add(ctx, *out.Portfolio)
	})
	observ.CommandsTotal.WithLabelValues("create", outcomeLabel(err)).Inc()
	if err != nil {
		return nil, err
	}

	h.Log.Info().
		Str("portfolioId", out.Portfolio.PortfolioID.String()).
		Str("name", out.Portfolio.Name).
		Int("holdings", len(out.Portfolio.Holdings)).
		Str("cash", out.Portfolio.CashBalance.StringFixed(2)).
		Msg("portfolio created")
	return out, nil
}

func (h portfolioServiceHandler) Get(ctx context.Context, portfolioID uuid.UUID) (*domain.Portfolio, error) {
	return h.PortfolioRepository.Get(ctx, portfolioID)
}

func (h portfolioServiceHandler) List(ctx context.Context) ([]domain.Portfolio, error) {
	return h.PortfolioRepository.List(ctx)
}

func (h portfolioServiceHandler) Apply(ctx context.Context, portfolioID uuid.UUID, cmd portfolio.Command) (*portfolio.Outcome, error) {
	action := string(cmd.GetAction())
	for attempt := 0; ; attempt++ {
		var out *portfolio.Outcome
		err := h.Transactor.WithinTx(ctx, func(ctx context.Context) error {
			current, err := h.PortfolioRepository.Get(ctx, portfolioID)
			if err != nil {
				return err
			}
			result, err := portfolio.Apply(current, cmd, h.Now().UTC())
			if err != nil {
				return err
			}
			saved, err := h.PortfolioRepository.Update(ctx, *result.Portfolio, current.Version)
			if err != nil {
				return err
			}
			result.Portfolio = saved
			out = result
			return nil
		})

		if err == nil {
			observ.CommandsTotal.WithLabelValues(action, "ok").Inc()
			h.Log.Info().
				Str("portfolioId", portfolioID.String()).
				Str("action", action).
				Int64("version", out.Portfolio.Version).
				Str("cash", out.Portfolio.CashBalance.StringFixed(2)).
				Msg("command applied")
			return out, nil
		}
		if folio_errors.IsConflict(err) && attempt < h.MaxConflictRetries {
			observ.ConflictRetries.Inc()
			h.Log.Debug().Err(err).Str("portfolioId", portfolioID.String()).Int("attempt", attempt+1).Msg("version conflict, re-applying")
			continue
		}

		observ.CommandsTotal.WithLabelValues(action, outcomeLabel(err)).Inc()
		return nil, err
	}
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		validationErr folio_errors.ValidationError
		fundsErr      folio_errors.InsufficientFundsError
		overErr       folio_errors.OverAllocationError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &fundsErr), errors.As(err, &overErr), folio_errors.IsNotFound(err):
		return "rejected"
	case folio_errors.IsConflict(err):
		return "conflict"
	}
	return "error"
}
