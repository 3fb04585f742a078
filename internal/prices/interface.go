package prices

import (
	"context"

	"modelfolio/internal/domain"
)

//go:generate mockgen -source=interface.go -destination=mock_price_source.go -package=prices

// PriceSource supplies quotes. It returns NotFoundError for an unknown
// symbol and PriceUnavailableError when the source couldn't answer.
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (*domain.Quote, error)
}
