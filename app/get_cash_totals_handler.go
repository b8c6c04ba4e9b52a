package app

import (
	"context"
	"tradepost/domain"
)

type GetCashTotalsHandler struct {
	repository Repository
}

func NewGetCashTotalsHandler(repository Repository) *GetCashTotalsHandler {
	return &GetCashTotalsHandler{
		repository: repository,
	}
}

type GetCashTotalsRequest struct {
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`
}

type GetCashTotalsResponse struct {
	domain.CashTotals
}

func (h GetCashTotalsHandler) Handle(ctx context.Context, req *GetCashTotalsRequest) (*GetCashTotalsResponse, error) {
	r, err := domain.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, toHTTPError("cash_totals.show", err)
	}

	totals, err := h.repository.GetCashTotals(ctx, r)
	if err != nil {
		return nil, toHTTPError("cash_totals.show", err)
	}

	return &GetCashTotalsResponse{CashTotals: totals}, nil
}
