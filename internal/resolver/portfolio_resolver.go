package resolver

import (
	"context"

	api_types "modelfolio/api-types"
	"modelfolio/internal/allocation"
	"modelfolio/internal/domain"
	"modelfolio/internal/portfolio"
	"modelfolio/internal/trade"

	"github.com/shopspring/decimal"
)

func (r resolverHandler) CreatePortfolio(ctx context.Context, req api_types.CreatePortfolioRequest) (*api_types.PortfolioResponse, error) {
	out, err := r.PortfolioService.Create(ctx, portfolio.CreateInput{
		Name:          req.Name,
		MinInvestment: req.MinInvestment,
		CompareWith:   req.CompareWith,
		Holdings:      holdingInputsToDomain(req.Holdings),
	})
	if err != nil {
		return nil, err
	}
	return outcomeToApi(out), nil
}

func (r resolverHandler) GetPortfolio(ctx context.Context, portfolioID string) (*api_types.PortfolioResponse, error) {
	id, err := parsePortfolioID(portfolioID)
	if err != nil {
		return nil, err
	}
	p, err := r.PortfolioService.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &api_types.PortfolioResponse{
		Portfolio: portfolioToApi(*p),
	}, nil
}

func (r resolverHandler) ListPortfolios(ctx context.Context) (*api_types.ListPortfoliosResponse, error) {
	portfolios, err := r.PortfolioService.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]api_types.Portfolio, 0, len(portfolios))
	for _, p := range portfolios {
		out = append(out, portfolioToApi(p))
	}
	return &api_types.ListPortfoliosResponse{Portfolios: out}, nil
}

func (r resolverHandler) UpdatePortfolio(ctx context.Context, portfolioID string, req api_types.UpdatePortfolioRequest) (*api_types.PortfolioResponse, error) {
	id, err := parsePortfolioID(portfolioID)
	if err != nil {
		return nil, err
	}
	cmd, err := commandFromApi(req)
	if err != nil {
		return nil, err
	}
	out, err := r.PortfolioService.Apply(ctx, id, cmd)
	if err != nil {
		return nil, err
	}
	return outcomeToApi(out), nil
}

func commandFromApi(req api_types.UpdatePortfolioRequest) (portfolio.Command, error) {
	in := portfolio.CommandInput{
		Holdings: holdingInputsToDomain(req.Holdings),
		Symbols:  req.Symbols,
	}
	if req.Buy != nil {
		in.Buy = &trade.BuyOrder{
			Symbol:   req.Buy.Symbol,
			Sector:   req.Buy.Sector,
			Price:    req.Buy.Price,
			Quantity: req.Buy.Quantity,
			Weight:   req.Buy.Weight,
		}
		if req.Buy.CurrentPrice != nil {
			in.Buy.CurrentPrice = *req.Buy.CurrentPrice
		}
	}
	if req.Sell != nil {
		saleType, err := trade.ParseSaleType(req.Sell.SaleType)
		if err != nil {
			return nil, err
		}
		in.Sell = &trade.SellOrder{
			Symbol:   req.Sell.Symbol,
			Quantity: req.Sell.Quantity,
			Price:    req.Sell.Price,
			SaleType: saleType,
		}
	}
	return portfolio.NewCommand(req.Action, in)
}

func holdingInputsToDomain(in []api_types.HoldingInput) []portfolio.HoldingInput {
	out := make([]portfolio.HoldingInput, 0, len(in))
	for _, h := range in {
		out = append(out, portfolio.HoldingInput{
			Symbol:       h.Symbol,
			Sector:       h.Sector,
			Weight:       h.Weight,
			BuyPrice:     h.BuyPrice,
			CurrentPrice: h.CurrentPrice,
		})
	}
	return out
}

func outcomeToApi(out *portfolio.Outcome) *api_types.PortfolioResponse {
	resp := &api_types.PortfolioResponse{
		Portfolio: portfolioToApi(*out.Portfolio),
		Action:    string(out.Action),
		Validation: &api_types.WeightValidation{
			TotalWeight:     out.Validation.TotalWeight.InexactFloat64(),
			RemainingWeight: out.Validation.RemainingWeight.InexactFloat64(),
			ActiveCount:     out.Validation.ActiveCount,
			SoldCount:       out.Validation.SoldCount,
			Warnings:        out.Validation.Warnings,
		},
	}
	if b := out.Buy; b != nil {
		resp.Buy = &api_types.BuyResult{
			Symbol:           b.Symbol,
			IsNewHolding:     b.IsNewHolding,
			PriceRefreshOnly: b.PriceRefreshOnly,
			QuantityBought:   b.QuantityBought,
			AmountSpent:      b.AmountSpent.InexactFloat64(),
			PreviousBuyPrice: b.PreviousBuyPrice.InexactFloat64(),
			NewBuyPrice:      b.NewBuyPrice.InexactFloat64(),
			CashBalance:      b.CashBalance.InexactFloat64(),
		}
	}
	if s := out.Sell; s != nil {
		resp.Sell = &api_types.SellResult{
			Symbol:            s.Symbol,
			SaleType:          string(s.SaleType),
			QuantitySold:      s.QuantitySold,
			SaleValue:         s.SaleValue.InexactFloat64(),
			CostBasis:         s.CostBasis.InexactFloat64(),
			ProfitLoss:        s.ProfitLoss.InexactFloat64(),
			ProfitLossPercent: s.ProfitLossPercent.InexactFloat64(),
			CashBalance:       s.CashBalance.InexactFloat64(),
			RemainingQuantity: s.RemainingQuantity,
		}
	}
	return resp
}

func portfolioToApi(p domain.Portfolio) api_types.Portfolio {
	holdings := make([]api_types.Holding, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		holdings = append(holdings, holdingToApi(h, p.MinInvestment))
	}
	return api_types.Portfolio{
		PortfolioID:   p.PortfolioID.String(),
		Name:          p.Name,
		MinInvestment: p.MinInvestment.InexactFloat64(),
		CashBalance:   p.CashBalance.InexactFloat64(),
		CurrentValue:  p.CurrentValue.InexactFloat64(),
		RealizedPnL:   p.RealizedPnL().InexactFloat64(),
		CompareWith:   p.CompareWith,
		Version:       p.Version,
		Holdings:      holdings,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func holdingToApi(h domain.Holding, capital decimal.Decimal) api_types.Holding {
	history := make([]api_types.PriceHistoryEntry, 0, len(h.PriceHistory))
	for _, e := range h.PriceHistory {
		history = append(history, api_types.PriceHistoryEntry{
			Date:     e.Date,
			Price:    e.Price.InexactFloat64(),
			Quantity: e.Quantity,
			Action:   string(e.Action),
		})
	}
	out := api_types.Holding{
		Symbol:                      h.Symbol,
		Sector:                      h.Sector,
		BuyPrice:                    h.BuyPrice.InexactFloat64(),
		OriginalBuyPrice:            h.OriginalBuyPrice.InexactFloat64(),
		CurrentPrice:                h.CurrentPrice.InexactFloat64(),
		Quantity:                    h.Quantity,
		Weight:                      h.Weight.InexactFloat64(),
		MinimumInvestmentValueStock: h.InvestmentValueAtBuy.InexactFloat64(),
		InvestmentValueAtMarket:     h.InvestmentValueAtMarket.InexactFloat64(),
		UnrealizedPnL:               h.UnrealizedPnL.InexactFloat64(),
		RealizedPnL:                 h.RealizedPnL.InexactFloat64(),
		Status:                      h.Status.String(),
		PriceHistory:                history,
		LastUpdated:                 h.LastUpdated,
	}
	if h.IsActive() {
		if _, a, err := allocation.Verify(h, capital); err == nil {
			out.AllocatedQuantity = &a.Quantity
		}
	}
	return out
}
