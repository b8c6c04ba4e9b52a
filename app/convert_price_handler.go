package app

import (
	"context"
	"strings"
	"tradepost/domain"

	"github.com/shopspring/decimal"
)

type ConvertPriceHandler struct {
	rates RateProvider
}

func NewConvertPriceHandler(rates RateProvider) *ConvertPriceHandler {
	return &ConvertPriceHandler{
		rates: rates,
	}
}

// ConvertPriceRequest prices an externally sourced amount, for example a
// market price quoted in USD, in the till currency.
type ConvertPriceRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"required,iso4217"`
}

type ConvertPriceResponse struct {
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Converted    decimal.Decimal `json:"converted"`
	BaseCurrency string          `json:"baseCurrency"`
	Fallback     bool            `json:"fallback"`
}

func (h ConvertPriceHandler) Handle(ctx context.Context, req *ConvertPriceRequest) (*ConvertPriceResponse, error) {
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := validateRequest("pricing.convert", req); err != nil {
		return nil, err
	}
	if req.Amount.IsNegative() {
		return nil, toHTTPError("pricing.convert", domain.NewValidationError("amount", "must not be negative"))
	}

	snapshot := h.rates.GetRates(ctx)
	converted, err := snapshot.Convert(req.Amount, req.Currency)
	if err != nil {
		return nil, toHTTPError("pricing.convert", err)
	}

	return &ConvertPriceResponse{
		Amount:       req.Amount,
		Currency:     req.Currency,
		Converted:    converted,
		BaseCurrency: domain.BaseCurrency,
		Fallback:     snapshot.Fallback,
	}, nil
}
