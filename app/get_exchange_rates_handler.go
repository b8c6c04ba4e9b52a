package app

import (
	"context"
	"time"
	"tradepost/domain"

	"github.com/shopspring/decimal"
)

// RateProvider hands out the current exchange rates. It never fails;
// pkg/rates.Cache falls back to the last known rates.
type RateProvider interface {
	GetRates(ctx context.Context) domain.ExchangeRateSnapshot
}

type GetExchangeRatesHandler struct {
	rates RateProvider
}

func NewGetExchangeRatesHandler(rates RateProvider) *GetExchangeRatesHandler {
	return &GetExchangeRatesHandler{
		rates: rates,
	}
}

type GetExchangeRatesRequest struct{}

type GetExchangeRatesResponse struct {
	USDToGBP  decimal.Decimal `json:"USD_TO_GBP"`
	EURToGBP  decimal.Decimal `json:"EUR_TO_GBP"`
	Rates     domain.Rates    `json:"rates"`
	FetchedAt *time.Time      `json:"fetchedAt"`
	Fallback  bool            `json:"fallback"`
}

func (h GetExchangeRatesHandler) Handle(ctx context.Context, req *GetExchangeRatesRequest) (*GetExchangeRatesResponse, error) {
	snapshot := h.rates.GetRates(ctx)

	res := &GetExchangeRatesResponse{
		USDToGBP: snapshot.Rates[domain.USDToGBP],
		EURToGBP: snapshot.Rates[domain.EURToGBP],
		Rates:    snapshot.Rates,
		Fallback: snapshot.Fallback,
	}
	if !snapshot.FetchedAt.IsZero() {
		res.FetchedAt = &snapshot.FetchedAt
	}

	return res, nil
}
