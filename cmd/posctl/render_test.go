package main

import (
	"strings"
	"testing"
	"time"
	"tradepost/domain"

	"github.com/shopspring/decimal"
)

func TestStockAuditMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		drift []domain.StockDrift
		want  []string
	}{
		{
			name: "clean",
			want: []string{"All 3 items match the ledger."},
		},
		{
			name: "drifted",
			drift: []domain.StockDrift{{
				StockLedgerRow: domain.StockLedgerRow{ItemID: "mew-1", Name: "Mew | promo", Stock: 2, InitialStock: 1, Received: 1, Released: 1},
				ExpectedStock:  1,
			}},
			want: []string{"1 of 3 items have drifted.", `| mew-1 | Mew \| promo | 2 | 1 | 1 | 1 | 1 |`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := stockAuditMarkdown(3, tt.drift)
			for _, want := range tt.want {
				if !strings.Contains(md, want) {
					t.Errorf("markdown missing %q:\n%s", want, md)
				}
			}
		})
	}
}

func TestCashTotalsMarkdown(t *testing.T) {
	md := cashTotalsMarkdown("2026-03-01", "", domain.CashTotals{
		TotalCashIn:  decimal.RequireFromString("48"),
		TotalCashOut: decimal.RequireFromString("50.5"),
	})

	for _, want := range []string{"Range: 2026-03-01 to open", "| Cash in | 48.00 |", "| Net | -2.50 |"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestReconciliationsMarkdown(t *testing.T) {
	if md := reconciliationsMarkdown(nil); !strings.Contains(md, "No reconciliations saved.") {
		t.Errorf("empty list markdown = %q", md)
	}

	record := domain.NewReconciliation(
		time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
		decimal.RequireFromString("100"),
		decimal.RequireFromString("260"),
		domain.CashTotals{TotalCashIn: decimal.RequireFromString("250"), TotalCashOut: decimal.RequireFromString("90")},
		"end of\nday",
	)

	md := reconciliationsMarkdown([]domain.ReconciliationRecord{record})
	want := "| 2026-03-01 18:00 | 100.00 | 250.00 | 90.00 | 260.00 | 260.00 | 0.00 | end of day |"
	if !strings.Contains(md, want) {
		t.Errorf("markdown missing %q:\n%s", want, md)
	}
}

func TestRatesMarkdown(t *testing.T) {
	md := ratesMarkdown(domain.ExchangeRateSnapshot{
		Rates: domain.Rates{
			domain.USDToGBP: decimal.RequireFromString("0.79"),
			domain.EURToGBP: decimal.RequireFromString("0.85"),
		},
		Fallback: true,
	})

	eur := strings.Index(md, "| EUR_TO_GBP | 0.85 |")
	usd := strings.Index(md, "| USD_TO_GBP | 0.79 |")
	if eur < 0 || usd < 0 || eur > usd {
		t.Errorf("rates should be listed sorted by pair:\n%s", md)
	}
	if !strings.Contains(md, "fallback rates") {
		t.Errorf("fallback should be flagged:\n%s", md)
	}
}
