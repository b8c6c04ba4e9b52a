package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"tradepost/domain"

	"github.com/charmbracelet/glamour"
)

func printMarkdown(md string) {
	if *plain {
		fmt.Print(md)
		return
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Print(md)
		return
	}

	out, err := renderer.Render(md)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

func stockAuditMarkdown(checked int, drift []domain.StockDrift) string {
	var b strings.Builder

	fmt.Fprintln(&b, "# Stock audit")
	fmt.Fprintln(&b)
	if len(drift) == 0 {
		fmt.Fprintf(&b, "All %d items match the ledger.\n", checked)
		return b.String()
	}

	fmt.Fprintf(&b, "%d of %d items have drifted.\n\n", len(drift), checked)
	fmt.Fprintln(&b, "| Item | Name | Stock | Expected | Initial | In | Out |")
	fmt.Fprintln(&b, "|------|------|------:|---------:|--------:|---:|----:|")
	for _, d := range drift {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %d | %d |\n",
			cell(d.ItemID), cell(d.Name), d.Stock, d.ExpectedStock, d.InitialStock, d.Received, d.Released)
	}
	return b.String()
}

func cashTotalsMarkdown(start, end string, totals domain.CashTotals) string {
	var b strings.Builder

	fmt.Fprintln(&b, "# Cash totals")
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Range: %s to %s\n\n", orOpen(start), orOpen(end))
	fmt.Fprintln(&b, "| | GBP |")
	fmt.Fprintln(&b, "|---|---:|")
	fmt.Fprintf(&b, "| Cash in | %s |\n", totals.TotalCashIn.StringFixed(2))
	fmt.Fprintf(&b, "| Cash out | %s |\n", totals.TotalCashOut.StringFixed(2))
	fmt.Fprintf(&b, "| Net | %s |\n", totals.TotalCashIn.Sub(totals.TotalCashOut).StringFixed(2))
	return b.String()
}

func reconciliationsMarkdown(records []domain.ReconciliationRecord) string {
	var b strings.Builder

	fmt.Fprintln(&b, "# Reconciliations")
	fmt.Fprintln(&b)
	if len(records) == 0 {
		fmt.Fprintln(&b, "No reconciliations saved.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Date | Starting | In | Out | Expected | Counted | Discrepancy | Notes |")
	fmt.Fprintln(&b, "|------|---------:|---:|----:|---------:|--------:|------------:|-------|")
	for _, r := range records {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			r.Date.UTC().Format("2006-01-02 15:04"),
			r.StartingCash.StringFixed(2),
			r.TotalCashIn.StringFixed(2),
			r.TotalCashOut.StringFixed(2),
			r.ExpectedCash.StringFixed(2),
			r.ActualCash.StringFixed(2),
			r.Discrepancy.StringFixed(2),
			cell(r.Notes),
		)
	}
	return b.String()
}

func ratesMarkdown(snapshot domain.ExchangeRateSnapshot) string {
	var b strings.Builder

	fmt.Fprintln(&b, "# Exchange rates")
	fmt.Fprintln(&b)
	switch {
	case snapshot.Fallback:
		fmt.Fprintln(&b, "_Source unavailable, showing fallback rates._")
	case !snapshot.FetchedAt.IsZero():
		fmt.Fprintf(&b, "Fetched %s.\n", snapshot.FetchedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintln(&b)

	pairs := make([]string, 0, len(snapshot.Rates))
	for pair := range snapshot.Rates {
		pairs = append(pairs, string(pair))
	}
	sort.Strings(pairs)

	fmt.Fprintln(&b, "| Pair | Rate |")
	fmt.Fprintln(&b, "|------|-----:|")
	for _, pair := range pairs {
		fmt.Fprintf(&b, "| %s | %s |\n", pair, snapshot.Rates[domain.CurrencyPair(pair)].String())
	}
	return b.String()
}

// cell keeps free text from breaking a markdown table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func orOpen(bound string) string {
	if bound == "" {
		return "open"
	}
	return bound
}
