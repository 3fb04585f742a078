package resolver

import (
	"context"
	"strings"

	api_types "modelfolio/api-types"
	folio_errors "modelfolio/internal"
	"modelfolio/internal/service"

	"github.com/google/uuid"
)

type Resolver interface {
	// portfolio endpoints
	CreatePortfolio(ctx context.Context, req api_types.CreatePortfolioRequest) (*api_types.PortfolioResponse, error)
	GetPortfolio(ctx context.Context, portfolioID string) (*api_types.PortfolioResponse, error)
	ListPortfolios(ctx context.Context) (*api_types.ListPortfoliosResponse, error)
	UpdatePortfolio(ctx context.Context, portfolioID string, req api_types.UpdatePortfolioRequest) (*api_types.PortfolioResponse, error)

	// valuation endpoints
	GetHistory(ctx context.Context, portfolioID string, period string, baseline bool) (*api_types.GetHistoryResponse, error)
	LogValue(ctx context.Context, portfolioID string, req api_types.LogValueRequest) (*api_types.PriceLog, error)
	LogAllValues(ctx context.Context, req api_types.LogValueRequest) ([]api_types.ValuationResult, error)
	Deduplicate(ctx context.Context) (*api_types.DedupResponse, error)
}

type resolverHandler struct {
	PortfolioService service.PortfolioService
	ValuationService service.ValuationService
	HistoryService   service.HistoryService
}

func NewResolver(
	portfolioService service.PortfolioService,
	valuationService service.ValuationService,
	historyService service.HistoryService,
) Resolver {
	return resolverHandler{
		PortfolioService: portfolioService,
		ValuationService: valuationService,
		HistoryService:   historyService,
	}
}

func parsePortfolioID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, folio_errors.NewValidationError("portfolioId", "%q is not a valid id", s)
	}
	return id, nil
}
