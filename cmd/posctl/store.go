package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"tradepost/domain"

	"github.com/google/subcommands"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or update the store schema" }
func (*migrateCmd) Usage() string {
	return `posctl migrate

  Creates the catalog, ledger and reconciliation tables of the store named
  by STORAGE_DRIVER. Safe to run repeatedly.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Println("schema is up to date")
	return subcommands.ExitSuccess
}

type auditStockCmd struct {
	strict bool
}

func (*auditStockCmd) Name() string { return "audit-stock" }
func (*auditStockCmd) Synopsis() string {
	return "replay the ledger and report items whose stock has drifted"
}
func (*auditStockCmd) Usage() string {
	return `posctl audit-stock [-strict]

  For every catalog item, compares the stored stock with the initial stock
  plus trade-ins minus sales and trade-outs recorded in the ledger.
`
}

func (c *auditStockCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.strict, "strict", false, "Exit with a failure status when any drift is found.")
}

func (c *auditStockCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	rows, err := store.StockLedger(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	drift := domain.AuditStock(rows)
	printMarkdown(stockAuditMarkdown(len(rows), drift))

	if c.strict && len(drift) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
