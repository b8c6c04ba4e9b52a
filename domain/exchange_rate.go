package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the currency the till is counted in.
const BaseCurrency = "GBP"

// CurrencyPair names a conversion factor, e.g. USD_TO_GBP.
type CurrencyPair string

const (
	USDToGBP CurrencyPair = "USD_TO_GBP"
	EURToGBP CurrencyPair = "EUR_TO_GBP"
)

func PairTo(from string) CurrencyPair {
	return CurrencyPair(from + "_TO_" + BaseCurrency)
}

type Rates map[CurrencyPair]decimal.Decimal

func (r Rates) Clone() Rates {
	out := make(Rates, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ExchangeRateSnapshot is what the rate cache hands out.
type ExchangeRateSnapshot struct {
	Rates     Rates     `json:"rates"`
	FetchedAt time.Time `json:"fetchedAt"`
	Fallback  bool      `json:"fallback"`
}

// Convert turns amount in currency from into the base currency.
func (s ExchangeRateSnapshot) Convert(amount decimal.Decimal, from string) (decimal.Decimal, error) {
	if from == BaseCurrency {
		return amount, nil
	}
	factor, ok := s.Rates[PairTo(from)]
	if !ok {
		return decimal.Zero, NewValidationError("currency", "no rate for "+from)
	}
	return amount.Mul(factor).Round(2), nil
}
