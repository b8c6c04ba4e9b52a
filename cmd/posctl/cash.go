package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"
	"tradepost/app"
	"tradepost/domain"
	"tradepost/pkg/httperror"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type totalsCmd struct {
	start string
	end   string
}

func (*totalsCmd) Name() string { return "totals" }
func (*totalsCmd) Synopsis() string { return "sum cash in and cash out over a date range" }
func (*totalsCmd) Usage() string {
	return `posctl totals [-s <start_date>] [-e <end_date>]

  Dates are YYYY-MM-DD or RFC3339 and inclusive. Omitted bounds are open.
`
}

func (c *totalsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "Start of the range.")
	f.StringVar(&c.end, "e", "", "End of the range.")
}

func (c *totalsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := domain.ParseDateRange(c.start, c.end)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	totals, err := store.GetCashTotals(ctx, r)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	printMarkdown(cashTotalsMarkdown(c.start, c.end, totals))
	return subcommands.ExitSuccess
}

type reconcileCmd struct {
	starting string
	actual   string
	notes    string
	start    string
	end      string
}

func (*reconcileCmd) Name() string { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "record a physical cash count against the ledger" }
func (*reconcileCmd) Usage() string {
	return `posctl reconcile -starting <amount> -actual <amount> [-notes <text>] [-s <start_date>] [-e <end_date>]

  Expected cash is the starting float plus cash in minus cash out over the
  range. The discrepancy is expected minus counted.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.starting, "starting", "0", "Cash in the till before trading.")
	f.StringVar(&c.actual, "actual", "", "Cash counted in the till.")
	f.StringVar(&c.notes, "notes", "", "Free text stored with the record.")
	f.StringVar(&c.start, "s", "", "Start of the ledger range.")
	f.StringVar(&c.end, "e", "", "End of the ledger range.")
}

func (c *reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	starting, err := decimal.NewFromString(c.starting)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing starting cash: %v\n", err)
		return subcommands.ExitUsageError
	}
	actual, err := decimal.NewFromString(c.actual)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing actual cash: %v\n", err)
		return subcommands.ExitUsageError
	}

	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	now := time.Now().UTC()
	res, err := app.NewSaveReconciliationHandler(store, nil).Handle(ctx, &app.SaveReconciliationRequest{
		Date:         &now,
		StartingCash: starting,
		ActualCash:   actual,
		Notes:        c.notes,
		StartDate:    c.start,
		EndDate:      c.end,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		return subcommands.ExitFailure
	}

	printMarkdown(reconciliationsMarkdown([]domain.ReconciliationRecord{res.Reconciliation}))
	return subcommands.ExitSuccess
}

type reconciliationsCmd struct {
	last int
}

func (*reconciliationsCmd) Name() string { return "reconciliations" }
func (*reconciliationsCmd) Synopsis() string { return "list saved reconciliations, newest first" }
func (*reconciliationsCmd) Usage() string {
	return `posctl reconciliations [-n <count>]
`
}

func (c *reconciliationsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.last, "n", 0, "Show only the n most recent records (0 shows all).")
}

func (c *reconciliationsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	records, err := store.GetReconciliations(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.last > 0 && len(records) > c.last {
		records = records[:c.last]
	}

	printMarkdown(reconciliationsMarkdown(records))
	return subcommands.ExitSuccess
}

// describe flattens a handler error for the terminal.
func describe(err error) string {
	var httpErr *httperror.Error
	if errors.As(err, &httpErr) {
		if httpErr.Details != nil {
			return fmt.Sprintf("%s (%s): %v", httpErr.Message, httpErr.Code, httpErr.Details)
		}
		return fmt.Sprintf("%s (%s)", httpErr.Message, httpErr.Code)
	}
	return err.Error()
}
