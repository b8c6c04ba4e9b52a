// Package gormstore keeps the ledger in a gorm database: sqlite for a single
// till or tests, mysql for a shared back office.
package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"tradepost/app"
	"tradepost/domain"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

var _ app.Repository = (*Store)(nil)

// sqliteDriver is go-sqlite3 with unicode_lower registered on every
// connection. The builtin LOWER only folds ASCII.
const sqliteDriver = "sqlite3_tradepost"

var registerSQLite sync.Once

func registerSQLiteDriver() {
	registerSQLite.Do(func() {
		sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("unicode_lower", strings.ToLower, true)
			},
		})
	})
}

// OpenSQLite opens (and migrates) a sqlite database at path; ":memory:"
// gives a private in-memory database.
func OpenSQLite(path string) (*Store, error) {
	registerSQLiteDriver()

	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: sqliteDriver, DSN: path}), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// sqlite has a single writer; one connection also keeps :memory: alive
	sqlDB.SetMaxOpenConns(1)

	return newStore(db)
}

func OpenMySQL(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newStore(db)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
}

func newStore(db *gorm.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&itemRecord{},
		&attributeRecord{},
		&transactionRecord{},
		&lineItemRecord{},
		&reconciliationRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx app.LedgerTx) error) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		return fn(&ledgerTx{db: tx, lock: s.lockClause()})
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return domain.Persistence(tx.Error)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return domain.Persistence(err)
	}
	return nil
}

// lowerFunc names the SQL function that lowercases text the way
// strings.ToLower does.
func (s *Store) lowerFunc() string {
	if s.db.Dialector.Name() == "sqlite" {
		return "unicode_lower"
	}
	return "LOWER"
}

// lockClause is SELECT ... FOR UPDATE where the dialect has it. sqlite
// serialises writers on its own.
func (s *Store) lockClause() []clause.Expression {
	if s.db.Dialector.Name() == "sqlite" {
		return nil
	}
	return []clause.Expression{clause.Locking{Strength: "UPDATE"}}
}

func findItem(tx *gorm.DB, lock []clause.Expression, id string) (itemRecord, error) {
	var rec itemRecord
	err := tx.Clauses(lock...).Where("id = ?", id).Take(&rec).Error
	return rec, notFoundOr(err, "item", id)
}

func notFoundOr(err error, kind, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFound(kind, id)
	default:
		return domain.Persistence(err)
	}
}
