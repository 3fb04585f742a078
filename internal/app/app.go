// Package app wires config into repositories, services and the resolver.
// Every binary under cmd builds its dependencies through it.
package app

import (
	"context"
	"database/sql"
	"fmt"

	db "modelfolio/internal/db/query"
	"modelfolio/internal/prices"
	"modelfolio/internal/repository"
	"modelfolio/internal/resolver"
	"modelfolio/internal/scheduler"
	"modelfolio/internal/service"
	"modelfolio/internal/util"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type App struct {
	Config *util.Config
	Log    zerolog.Logger

	PortfolioService service.PortfolioService
	ValuationService service.ValuationService
	HistoryService   service.HistoryService
	Resolver         resolver.Resolver

	dbConn *sql.DB
	rdb    *redis.Client
}

// Build opens storage, migrates it when it is postgres and wires the
// services. With a price source override the Alpha Vantage chain is
// skipped.
func Build(ctx context.Context, cfg *util.Config, log zerolog.Logger, priceSource prices.PriceSource) (*App, error) {
	a := &App{Config: cfg, Log: log}

	var (
		transactor db.Transactor
		portfolios repository.PortfolioRepository
		logs       repository.PriceLogRepository
	)
	switch cfg.Storage {
	case util.StorageMemory:
		log.Warn().Msg("using in-memory storage, nothing will survive a restart")
		transactor = db.NoopTransactor{}
		portfolios = repository.NewMemoryPortfolioRepository()
		logs = repository.NewMemoryPriceLogRepository()
	default:
		dbConn, err := db.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := dbConn.PingContext(ctx); err != nil {
			dbConn.Close()
			return nil, fmt.Errorf("failed to reach database: %w", err)
		}
		if err := db.Migrate(ctx, dbConn); err != nil {
			dbConn.Close()
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
		a.dbConn = dbConn
		transactor = db.NewTransactor(dbConn)
		portfolios = repository.NewPortfolioRepository(dbConn)
		logs = repository.NewPriceLogRepository(dbConn)
	}

	if priceSource == nil {
		src, err := a.buildPriceSource()
		if err != nil {
			a.Close()
			return nil, err
		}
		priceSource = src
	}

	a.PortfolioService = service.NewPortfolioService(transactor, portfolios, log)
	a.ValuationService = service.NewValuationService(transactor, portfolios, logs, priceSource, service.ValuationConfig{
		Concurrency:  cfg.ValuationConcurrency,
		StorageRetry: cfg.StorageRetry(),
		Location:     cfg.Location(),
	}, log)
	a.HistoryService = service.NewHistoryService(portfolios, logs, cfg.Location(), log)
	a.Resolver = resolver.NewResolver(a.PortfolioService, a.ValuationService, a.HistoryService)

	return a, nil
}

func (a *App) buildPriceSource() (prices.PriceSource, error) {
	cfg := a.Config
	if cfg.AlphaVantageKey == "" {
		a.Log.Warn().Msg("no ALPHA_VANTAGE_KEY set, valuations will fall back to buy prices")
	}

	var src prices.PriceSource = prices.NewAlphaVantageClient(
		cfg.AlphaVantageKey,
		prices.WithRateLimit(cfg.AlphaVantageRateLimit),
		prices.WithMarketLocation(cfg.Location()),
		prices.WithLogger(a.Log),
	)
	src = prices.NewRetryingSource(src, cfg.PriceRetry(), a.Log)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		a.rdb = redis.NewClient(opts)
		src = prices.NewCachedSource(src, a.rdb, cfg.QuoteCacheTTL, a.Log)
	}
	return src, nil
}

// PrepareStorage collapses duplicate price logs left by older writers and
// creates the unique index. Upserts work without it, only slower.
func (a *App) PrepareStorage(ctx context.Context) {
	report, err := a.ValuationService.Deduplicate(ctx)
	if err != nil {
		a.Log.Warn().Err(err).Msg("startup dedup failed, continuing without the unique index")
		return
	}
	if report.Deleted > 0 {
		a.Log.Info().Int("groups", report.Groups).Int64("deleted", report.Deleted).Msg("removed duplicate price logs")
	}
}

// NewScheduler registers the daily valuation and weekly dedup jobs.
func (a *App) NewScheduler() (*scheduler.Scheduler, error) {
	s := scheduler.New(a.Config.Location(), a.Log)
	if err := s.AddJob(a.Config.ValuationCron, scheduler.NewDailyValuationJob(a.ValuationService, true, a.Log)); err != nil {
		return nil, fmt.Errorf("invalid VALUATION_CRON %q: %w", a.Config.ValuationCron, err)
	}
	if err := s.AddJob(a.Config.DedupCron, scheduler.NewDedupJob(a.ValuationService, a.Log)); err != nil {
		return nil, fmt.Errorf("invalid DEDUP_CRON %q: %w", a.Config.DedupCron, err)
	}
	return s, nil
}

func (a *App) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("failed to close redis")
		}
	}
	if a.dbConn != nil {
		if err := a.dbConn.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("failed to close database")
		}
	}
}
