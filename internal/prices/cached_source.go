package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"modelfolio/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CachedSource puts a redis read-through cache in front of a price source.
// Redis being down only costs the cache: every failure there falls through
// to the wrapped source.
type CachedSource struct {
	next PriceSource
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

func NewCachedSource(next PriceSource, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedSource {
	return &CachedSource{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log,
	}
}

func (s *CachedSource) GetPrice(ctx context.Context, symbol string) (*domain.Quote, error) {
	data, err := s.rdb.Get(ctx, quoteKey(symbol)).Bytes()
	if err == nil {
		var q domain.Quote
		if json.Unmarshal(data, &q) == nil {
			return &q, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("quote cache read failed")
	}

	q, err := s.next.GetPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(q); err == nil {
		if err := s.rdb.Set(ctx, quoteKey(symbol), data, s.ttl).Err(); err != nil {
			s.log.Debug().Err(err).Str("symbol", symbol).Msg("quote cache write failed")
		}
	}
	return q, nil
}

func quoteKey(symbol string) string { return fmt.Sprintf("quote:%s", symbol) }
