package service

import (
	"context"
	"sort"
	"sync"
	"time"

	folio_errors "modelfolio/internal"
	db "modelfolio/internal/db/query"
	"modelfolio/internal/domain"
	"modelfolio/internal/metrics"
	"modelfolio/internal/observ"
	"modelfolio/internal/prices"
	"modelfolio/internal/repository"
	"modelfolio/internal/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type ValuationStatus string

const (
	ValuationStatus_Success ValuationStatus = "success"
	ValuationStatus_Failed  ValuationStatus = "failed"
)

// ValuationResult is one portfolio's line in a batch run. Value and
// PriceLog are set on success, Error on failure.
type ValuationResult struct {
	PortfolioID uuid.UUID
	Name        string
	Status      ValuationStatus
	Value       *decimal.Decimal
	PriceLog    *domain.PriceLog
	Error       error
}

type DedupReport struct {
	Groups  int
	Deleted int64
	Kept    []uuid.UUID
}

type ValuationService interface {
	// LogPortfolio values one portfolio and upserts today's price log.
	LogPortfolio(ctx context.Context, portfolioID uuid.UUID, useClosingPrices bool) (*domain.PriceLog, error)
	// LogAll values every portfolio. A failing portfolio is reported in
	// its result and never stops the others.
	LogAll(ctx context.Context, useClosingPrices bool) ([]ValuationResult, error)
	// Deduplicate collapses rows sharing (portfolio, day) to one and then
	// makes sure the unique index exists.
	Deduplicate(ctx context.Context) (*DedupReport, error)
}

type ValuationConfig struct {
	Concurrency  int
	StorageRetry util.RetryPolicy
	Location     *time.Location
}

type valuationServiceHandler struct {
	Transactor          db.Transactor
	PortfolioRepository repository.PortfolioRepository
	PriceLogRepository  repository.PriceLogRepository
	PriceSource         prices.PriceSource
	Config              ValuationConfig
	Now                 func() time.Time
	Log                 zerolog.Logger
}

func NewValuationService(
	transactor db.Transactor,
	portfolioRepository repository.PortfolioRepository,
	priceLogRepository repository.PriceLogRepository,
	priceSource prices.PriceSource,
	cfg ValuationConfig,
	log zerolog.Logger,
) ValuationService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return valuationServiceHandler{
		Transactor:          transactor,
		PortfolioRepository: portfolioRepository,
		PriceLogRepository:  priceLogRepository,
		PriceSource:         priceSource,
		Config:              cfg,
		Now:                 time.Now,
		Log:                 log.With().Str("component", "valuation_service").Logger(),
	}
}

func (h valuationServiceHandler) LogPortfolio(ctx context.Context, portfolioID uuid.UUID, useClosingPrices bool) (*domain.PriceLog, error) {
	var p *domain.Portfolio
	err := h.withStorageRetry(ctx, "get portfolio", func() error {
		var err error
		p, err = h.PortfolioRepository.Get(ctx, portfolioID)
		return err
	})
	if err != nil {
		return nil, err
	}

	quotes, err := h.fetchQuotes(ctx, util.NewSet(p.ActiveSymbols()...))
	if err != nil {
		return nil, err
	}
	return h.logWithQuotes(ctx, *p, quotes, useClosingPrices)
}

func (h valuationServiceHandler) LogAll(ctx context.Context, useClosingPrices bool) ([]ValuationResult, error) {
	var portfolios []domain.Portfolio
	err := h.withStorageRetry(ctx, "list portfolios", func() error {
		var err error
		portfolios, err = h.PortfolioRepository.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	// one lookup per symbol for the whole run
	symbols := util.NewSet()
	for _, p := range portfolios {
		for _, s := range p.ActiveSymbols() {
			symbols.Add(s)
		}
	}
	quotes, err := h.fetchQuotes(ctx, symbols)
	if err != nil {
		return nil, err
	}

	results := make([]ValuationResult, len(portfolios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.Config.Concurrency)
	for i, p := range portfolios {
		i, p := i, p
		g.Go(func() error {
			results[i] = ValuationResult{
				PortfolioID: p.PortfolioID,
				Name:        p.Name,
			}
			log, err := h.logWithQuotes(gctx, p, quotes, useClosingPrices)
			if err != nil {
				results[i].Status = ValuationStatus_Failed
				results[i].Error = err
				h.Log.Error().Err(err).Str("portfolioId", p.PortfolioID.String()).Msg("failed to log portfolio value")
				return nil
			}
			value := log.PortfolioValue
			results[i].Status = ValuationStatus_Success
			results[i].Value = &value
			results[i].PriceLog = log
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Status == ValuationStatus_Failed {
			failed++
		}
	}
	h.Log.Info().
		Int("portfolios", len(results)).
		Int("failed", failed).
		Bool("closing", useClosingPrices).
		Msg("valuation run complete")

	return results, nil
}

func (h valuationServiceHandler) logWithQuotes(
	ctx context.Context,
	p domain.Portfolio,
	quotes map[string]domain.Quote,
	useClosingPrices bool,
) (log *domain.PriceLog, err error) {
	start := time.Now()
	defer func() {
		observ.ValuationDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			observ.ValuationsTotal.WithLabelValues(string(ValuationStatus_Failed)).Inc()
		} else {
			observ.ValuationsTotal.WithLabelValues(string(ValuationStatus_Success)).Inc()
		}
	}()

	valuation := metrics.NetValue(p, quotes, useClosingPrices)
	for _, symbol := range valuation.FellBack {
		observ.PriceFallbacks.Inc()
		h.Log.Warn().
			Str("portfolioId", p.PortfolioID.String()).
			Str("symbol", symbol).
			Msg("no quote, valuing at buy price")
	}

	now := h.Now()
	entry := domain.PriceLog{
		PortfolioID:       p.PortfolioID,
		Date:              now.UTC(),
		DateOnly:          domain.DateOnly(now, h.Config.Location),
		PortfolioValue:    valuation.PortfolioValue,
		CashRemaining:     valuation.CashRemaining,
		UsedClosingPrices: valuation.UsedClosingPrices,
		CreatedAt:         now.UTC(),
	}
	err = h.withStorageRetry(ctx, "upsert price log", func() error {
		var err error
		log, err = h.PriceLogRepository.Upsert(ctx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	// the log row is the record; the cached value is best effort
	err = h.withStorageRetry(ctx, "update current value", func() error {
		return h.PortfolioRepository.UpdateCurrentValue(ctx, p.PortfolioID, valuation.PortfolioValue, now.UTC())
	})
	if err != nil {
		h.Log.Warn().Err(err).Str("portfolioId", p.PortfolioID.String()).Msg("failed to write back current value")
	}

	h.Log.Debug().
		Str("portfolioId", p.PortfolioID.String()).
		Str("value", log.PortfolioValue.StringFixed(2)).
		Int32("updateCount", log.UpdateCount).
		Msg("price log written")
	return log, nil
}

// fetchQuotes looks every symbol up once. A symbol the source can't price
// is left out of the map and later valued at its buy price.
func (h valuationServiceHandler) fetchQuotes(ctx context.Context, symbols *util.Set) (map[string]domain.Quote, error) {
	out := map[string]domain.Quote{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.Config.Concurrency)
	for _, symbol := range symbols.List() {
		symbol := symbol
		g.Go(func() error {
			q, err := h.PriceSource.GetPrice(gctx, symbol)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				h.Log.Warn().Err(err).Str("symbol", symbol).Msg("price unavailable")
				return nil
			}
			mu.Lock()
			out[symbol] = *q
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (h valuationServiceHandler) Deduplicate(ctx context.Context) (*DedupReport, error) {
	report := &DedupReport{Kept: []uuid.UUID{}}
	err := h.withStorageRetry(ctx, "deduplicate price logs", func() error {
		return h.Transactor.WithinTx(ctx, func(ctx context.Context) error {
			dups, err := h.PriceLogRepository.ListDuplicates(ctx)
			if err != nil {
				return err
			}
			keep, drop := SelectDuplicates(dups)

			ids := make([]uuid.UUID, len(drop))
			for i, l := range drop {
				ids[i] = l.PriceLogID
			}
			deleted, err := h.PriceLogRepository.Delete(ctx, ids)
			if err != nil {
				return err
			}
			if err := h.PriceLogRepository.EnsureUniqueIndex(ctx); err != nil {
				return err
			}

			report.Groups = len(keep)
			report.Deleted = deleted
			report.Kept = report.Kept[:0]
			for _, l := range keep {
				report.Kept = append(report.Kept, l.PriceLogID)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	observ.DedupDeleted.Add(float64(report.Deleted))
	if report.Deleted > 0 {
		h.Log.Warn().Int("groups", report.Groups).Int64("deleted", report.Deleted).Msg("removed duplicate price logs")
	} else {
		h.Log.Info().Msg("no duplicate price logs")
	}
	return report, nil
}

// SelectDuplicates splits rows into one keeper per (portfolio, day) and
// the rest. The keeper has the highest UpdateCount, then the latest Date.
// Groups of one are ignored.
func SelectDuplicates(logs []domain.PriceLog) (keep []domain.PriceLog, drop []domain.PriceLog) {
	type groupKey struct {
		portfolioID uuid.UUID
		day         string
	}
	groups := map[groupKey][]domain.PriceLog{}
	order := []groupKey{}
	for _, l := range logs {
		k := groupKey{l.PortfolioID, l.DateOnly.Format(time.DateOnly)}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], l)
	}

	keep = []domain.PriceLog{}
	drop = []domain.PriceLog{}
	for _, k := range order {
		rows := groups[k]
		if len(rows) < 2 {
			continue
		}
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].UpdateCount != rows[j].UpdateCount {
				return rows[i].UpdateCount > rows[j].UpdateCount
			}
			return rows[i].Date.After(rows[j].Date)
		})
		keep = append(keep, rows[0])
		drop = append(drop, rows[1:]...)
	}
	return keep, drop
}

func (h valuationServiceHandler) withStorageRetry(ctx context.Context, op string, fn func() error) error {
	return util.Retry(
		ctx,
		h.Config.StorageRetry,
		folio_errors.IsTransient,
		fn,
		func(err error, attempt int, wait time.Duration) {
			observ.StorageRetries.WithLabelValues(op).Inc()
			h.Log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("wait", wait).Msg("transient storage failure, retrying")
		},
	)
}
