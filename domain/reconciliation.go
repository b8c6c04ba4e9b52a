package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CashTotals struct {
	TotalCashIn  decimal.Decimal `db:"total_cash_in" json:"totalCashIn"`
	TotalCashOut decimal.Decimal `db:"total_cash_out" json:"totalCashOut"`
}

// DateRange is an inclusive, optionally open-ended time window.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

func (r DateRange) Validate() error {
	if r.Start != nil && r.End != nil && r.End.Before(*r.Start) {
		return NewValidationError("endDate", "must not be before startDate")
	}
	return nil
}

// ParseDateBound reads a range bound given as YYYY-MM-DD or RFC3339. A bare
// date used as an upper bound covers the whole day. Empty input is an open
// bound.
func ParseDateBound(s string, upper bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}

	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, NewValidationError("date", "expected YYYY-MM-DD or RFC3339, got "+s)
	}
	if upper {
		d = d.Add(24*time.Hour - time.Nanosecond)
	}
	return &d, nil
}

// ParseDateRange reads the optional inclusive bounds of a ledger query.
func ParseDateRange(start, end string) (DateRange, error) {
	var (
		r   DateRange
		err error
	)
	if r.Start, err = ParseDateBound(start, false); err != nil {
		return r, NewValidationError("startDate", "expected YYYY-MM-DD or RFC3339, got "+start)
	}
	if r.End, err = ParseDateBound(end, true); err != nil {
		return r, NewValidationError("endDate", "expected YYYY-MM-DD or RFC3339, got "+end)
	}
	return r, r.Validate()
}

// ReconciliationRecord is an append-only cash count audit.
type ReconciliationRecord struct {
	ID           string          `db:"id" json:"id"`
	Date         time.Time       `db:"reconciled_at" json:"date"`
	StartingCash decimal.Decimal `db:"starting_cash" json:"startingCash"`
	TotalCashIn  decimal.Decimal `db:"total_cash_in" json:"totalCashIn"`
	TotalCashOut decimal.Decimal `db:"total_cash_out" json:"totalCashOut"`
	ExpectedCash decimal.Decimal `db:"expected_cash" json:"expectedCash"`
	ActualCash   decimal.Decimal `db:"actual_cash" json:"actualCash"`
	Discrepancy  decimal.Decimal `db:"discrepancy" json:"discrepancy"`
	Notes        string          `db:"notes" json:"notes"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}

// NewReconciliation computes expected cash and the discrepancy against the
// counted amount. A positive discrepancy means cash is missing from the till.
func NewReconciliation(date time.Time, startingCash, actualCash decimal.Decimal, totals CashTotals, notes string) ReconciliationRecord {
	expected := startingCash.Add(totals.TotalCashIn).Sub(totals.TotalCashOut)
	return ReconciliationRecord{
		Date:         date,
		StartingCash: startingCash,
		TotalCashIn:  totals.TotalCashIn,
		TotalCashOut: totals.TotalCashOut,
		ExpectedCash: expected,
		ActualCash:   actualCash,
		Discrepancy:  expected.Sub(actualCash),
		Notes:        notes,
	}
}

// SumCashTotals folds committed transactions inside r into totals.
func SumCashTotals(txs []Transaction, r DateRange) CashTotals {
	totals := CashTotals{TotalCashIn: decimal.Zero, TotalCashOut: decimal.Zero}
	for _, tx := range txs {
		if !r.Contains(tx.Timestamp) {
			continue
		}
		totals.TotalCashIn = totals.TotalCashIn.Add(tx.CashIn)
		totals.TotalCashOut = totals.TotalCashOut.Add(tx.CashOut)
	}
	return totals
}
