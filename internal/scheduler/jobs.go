package scheduler

import (
	"context"
	"fmt"
	"time"

	"modelfolio/internal/service"

	"github.com/rs/zerolog"
)

const defaultJobTimeout = 30 * time.Minute

// DailyValuationJob logs every portfolio's value. Run after the close it
// values at closing prices; a second firing the same day only bumps the
// day's update count.
type DailyValuationJob struct {
	valuation        service.ValuationService
	useClosingPrices bool
	timeout          time.Duration
	log              zerolog.Logger
}

func NewDailyValuationJob(valuation service.ValuationService, useClosingPrices bool, log zerolog.Logger) *DailyValuationJob {
	return &DailyValuationJob{
		valuation:        valuation,
		useClosingPrices: useClosingPrices,
		timeout:          defaultJobTimeout,
		log:              log.With().Str("job", "daily_valuation").Logger(),
	}
}

func (j *DailyValuationJob) Name() string {
	return "daily_valuation"
}

// Run fails when the batch could not start or when any portfolio failed.
// Failed portfolios never stop the rest from being logged.
func (j *DailyValuationJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	results, err := j.valuation.LogAll(ctx, j.useClosingPrices)
	if err != nil {
		return fmt.Errorf("failed to run valuation: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r.Status == service.ValuationStatus_Failed {
			failed++
			j.log.Warn().Err(r.Error).Str("portfolioId", r.PortfolioID.String()).Str("name", r.Name).Msg("portfolio not logged")
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d portfolios failed to log", failed, len(results))
	}
	return nil
}

// DedupJob sweeps duplicate price log rows left by older writers.
type DedupJob struct {
	valuation service.ValuationService
	timeout   time.Duration
	log       zerolog.Logger
}

func NewDedupJob(valuation service.ValuationService, log zerolog.Logger) *DedupJob {
	return &DedupJob{
		valuation: valuation,
		timeout:   defaultJobTimeout,
		log:       log.With().Str("job", "dedup").Logger(),
	}
}

func (j *DedupJob) Name() string {
	return "dedup"
}

func (j *DedupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	report, err := j.valuation.Deduplicate(ctx)
	if err != nil {
		return fmt.Errorf("failed to deduplicate price logs: %w", err)
	}
	j.log.Info().Int("groups", report.Groups).Int64("deleted", report.Deleted).Msg("dedup sweep done")
	return nil
}
