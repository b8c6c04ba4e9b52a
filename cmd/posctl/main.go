// Command posctl is the operator CLI for a tradepost store: schema
// migration, end of day cash reconciliation, stock audits and terminal
// token provisioning.
package main

import (
	"context"
	"flag"
	"os"
	"path"
	"tradepost/infra"
	"tradepost/pkg/config"
	"tradepost/pkg/logger"

	"github.com/google/subcommands"
)

var plain = flag.Bool("plain", false, "Print raw markdown instead of rendering it for the terminal")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&migrateCmd{}, "store")
	commander.Register(&auditStockCmd{}, "store")

	commander.Register(&totalsCmd{}, "cash")
	commander.Register(&reconcileCmd{}, "cash")
	commander.Register(&reconciliationsCmd{}, "cash")

	commander.Register(&ratesCmd{}, "pricing")

	commander.Register(&tokenCmd{}, "terminals")

	flag.Parse()

	appConfig := config.Read()
	flush := logger.Install(appConfig)
	defer flush()

	ctx := withConfig(context.Background(), appConfig)
	status := commander.Execute(ctx)
	flush()
	os.Exit(int(status))
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.AppConfig) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) *config.AppConfig {
	if cfg, ok := ctx.Value(configKey{}).(*config.AppConfig); ok {
		return cfg
	}
	return config.Read()
}

func openStore(ctx context.Context) (infra.Store, error) {
	return infra.OpenStore(*configFrom(ctx))
}
