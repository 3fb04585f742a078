package prices

import (
	"context"
	"errors"
	"time"

	folio_errors "modelfolio/internal"
	"modelfolio/internal/domain"
	"modelfolio/internal/util"

	"github.com/rs/zerolog"
)

// RetryingSource retries a price source a bounded number of times. Only
// PriceUnavailableError is retried; an unknown symbol fails at once.
type RetryingSource struct {
	next   PriceSource
	policy util.RetryPolicy
	log    zerolog.Logger
}

func NewRetryingSource(next PriceSource, policy util.RetryPolicy, log zerolog.Logger) *RetryingSource {
	return &RetryingSource{
		next:   next,
		policy: policy,
		log:    log,
	}
}

func (s *RetryingSource) GetPrice(ctx context.Context, symbol string) (*domain.Quote, error) {
	var quote *domain.Quote
	err := util.Retry(
		ctx,
		s.policy,
		isPriceRetryable,
		func() error {
			q, err := s.next.GetPrice(ctx, symbol)
			if err != nil {
				return err
			}
			quote = q
			return nil
		},
		func(err error, attempt int, wait time.Duration) {
			s.log.Warn().Err(err).Str("symbol", symbol).Int("attempt", attempt).Dur("wait", wait).Msg("price lookup failed, retrying")
		},
	)
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func isPriceRetryable(err error) bool {
	var unavailable folio_errors.PriceUnavailableError
	return errors.As(err, &unavailable)
}
