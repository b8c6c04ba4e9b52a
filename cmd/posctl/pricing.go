package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"tradepost/pkg/rates"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type ratesCmd struct {
	amount   string
	currency string
}

func (*ratesCmd) Name() string { return "rates" }
func (*ratesCmd) Synopsis() string { return "fetch exchange rates and optionally convert an amount" }
func (*ratesCmd) Usage() string {
	return `posctl rates [-convert <amount> -from <currency>]

  Prints the rates the till would use now, falling back to the configured
  rates when the source is unreachable.
`
}

func (c *ratesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "convert", "", "Amount to convert into GBP.")
	f.StringVar(&c.currency, "from", "USD", "Currency of the amount.")
}

func (c *ratesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cache, err := rates.NewCacheFromConfig(configFrom(ctx))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	snapshot := cache.GetRates(ctx)
	md := ratesMarkdown(snapshot)

	if c.amount != "" {
		amount, err := decimal.NewFromString(c.amount)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
			return subcommands.ExitUsageError
		}
		currency := strings.ToUpper(c.currency)
		converted, err := snapshot.Convert(amount, currency)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		md += fmt.Sprintf("\n%s %s = **%s GBP**\n", amount.StringFixed(2), currency, converted.StringFixed(2))
	}

	printMarkdown(md)
	return subcommands.ExitSuccess
}
