package infra

import (
	"context"
	"fmt"
	"strings"
	"tradepost/app"
	"tradepost/infra/gormstore"
	"tradepost/infra/postgres"
	"tradepost/pkg/config"
)

// Store is a ledger store that can create its own schema.
type Store interface {
	app.Repository
	Migrate(ctx context.Context) error
}

// OpenStore connects to the store named by STORAGE_DRIVER.
func OpenStore(appConfig config.AppConfig) (Store, error) {
	switch strings.ToLower(appConfig.StorageDriver) {
	case "", "postgres":
		repo, err := postgres.NewPgRepository(appConfig.PostgresDSN())
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "sqlite":
		store, err := gormstore.OpenSQLite(appConfig.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "mysql":
		store, err := gormstore.OpenMySQL(appConfig.MySQLDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", appConfig.StorageDriver)
	}
}
