package rates

import (
	"fmt"
	"tradepost/domain"
	"tradepost/pkg/config"

	"github.com/shopspring/decimal"
)

// NewCacheFromConfig wires the HTTP source and fallback rates from cfg.
func NewCacheFromConfig(cfg *config.AppConfig) (*Cache, error) {
	usd, err := decimal.NewFromString(cfg.RatesFallbackUSDToGBP)
	if err != nil {
		return nil, fmt.Errorf("invalid RATES_FALLBACK_USD_TO_GBP: %w", err)
	}
	eur, err := decimal.NewFromString(cfg.RatesFallbackEURToGBP)
	if err != nil {
		return nil, fmt.Errorf("invalid RATES_FALLBACK_EUR_TO_GBP: %w", err)
	}

	source := NewHTTPSource(cfg.RatesURL, cfg.RatesTimeout,
		PairPath{Pair: domain.USDToGBP, Path: cfg.RatesUSDPath, Invert: cfg.RatesInvert},
		PairPath{Pair: domain.EURToGBP, Path: cfg.RatesEURPath, Invert: cfg.RatesInvert},
	)

	fallback := domain.Rates{
		domain.USDToGBP: usd,
		domain.EURToGBP: eur,
	}

	return NewCache(source, fallback, WithTTL(cfg.RatesTTL), WithTimeout(cfg.RatesTimeout)), nil
}
