package resolver

import (
	"context"
	"time"

	api_types "modelfolio/api-types"
	folio_errors "modelfolio/internal"
	"modelfolio/internal/domain"
	"modelfolio/internal/service"
	"modelfolio/internal/util"

	"github.com/shopspring/decimal"
)

func (r resolverHandler) GetHistory(ctx context.Context, portfolioID string, period string, baseline bool) (*api_types.GetHistoryResponse, error) {
	id, err := parsePortfolioID(portfolioID)
	if err != nil {
		return nil, err
	}
	p, err := domain.ParseHistoryPeriod(period)
	if err != nil {
		return nil, folio_errors.NewValidationError("period", "%s", err.Error())
	}

	history, err := r.HistoryService.GetHistory(ctx, id, p, service.HistoryOptions{IncludeBaseline: baseline})
	if err != nil {
		return nil, err
	}

	data := make([]api_types.HistoryPoint, 0, len(history.Points))
	for _, pt := range history.Points {
		data = append(data, api_types.HistoryPoint{
			Date:                   pt.Date,
			Value:                  pt.Value.InexactFloat64(),
			Cash:                   pt.Cash.InexactFloat64(),
			Change:                 floatPtr(pt.Change),
			ChangePercent:          floatPtr(pt.ChangePercent),
			ChangeFromStart:        floatPtr(pt.ChangeFromStart),
			ChangeFromStartPercent: floatPtr(pt.ChangeFromStartPercent),
		})
	}

	out := &api_types.GetHistoryResponse{
		PortfolioID: history.PortfolioID,
		Period:      string(history.Period),
		DataPoints:  len(data),
		Data:        data,
	}
	if s := history.Summary; s != nil {
		out.Summary = &api_types.HistorySummary{
			High:               s.High.InexactFloat64(),
			Low:                s.Low.InexactFloat64(),
			Average:            s.Average.InexactFloat64(),
			TotalReturn:        s.TotalReturn.InexactFloat64(),
			TotalReturnPercent: floatPtr(s.TotalReturnPercent),
		}
	}
	return out, nil
}

func (r resolverHandler) LogValue(ctx context.Context, portfolioID string, req api_types.LogValueRequest) (*api_types.PriceLog, error) {
	id, err := parsePortfolioID(portfolioID)
	if err != nil {
		return nil, err
	}
	l, err := r.ValuationService.LogPortfolio(ctx, id, req.UseClosingPrices)
	if err != nil {
		return nil, err
	}
	out := priceLogToApi(*l)
	return &out, nil
}

func (r resolverHandler) LogAllValues(ctx context.Context, req api_types.LogValueRequest) ([]api_types.ValuationResult, error) {
	results, err := r.ValuationService.LogAll(ctx, req.UseClosingPrices)
	if err != nil {
		return nil, err
	}
	out := make([]api_types.ValuationResult, 0, len(results))
	for _, res := range results {
		item := api_types.ValuationResult{
			Portfolio:   res.Name,
			PortfolioID: res.PortfolioID.String(),
			Status:      string(res.Status),
			Value:       floatPtr(res.Value),
		}
		if res.Error != nil {
			item.Error = util.StringPtr(res.Error.Error())
		}
		out = append(out, item)
	}
	return out, nil
}

func (r resolverHandler) Deduplicate(ctx context.Context) (*api_types.DedupResponse, error) {
	report, err := r.ValuationService.Deduplicate(ctx)
	if err != nil {
		return nil, err
	}
	return &api_types.DedupResponse{
		Groups:  report.Groups,
		Deleted: report.Deleted,
	}, nil
}

func priceLogToApi(l domain.PriceLog) api_types.PriceLog {
	return api_types.PriceLog{
		PriceLogID:        l.PriceLogID.String(),
		PortfolioID:       l.PortfolioID.String(),
		Date:              l.Date,
		DateOnly:          l.DateOnly.Format(time.DateOnly),
		PortfolioValue:    l.PortfolioValue.InexactFloat64(),
		CashRemaining:     l.CashRemaining.InexactFloat64(),
		UpdateCount:       l.UpdateCount,
		UsedClosingPrices: l.UsedClosingPrices,
	}
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
