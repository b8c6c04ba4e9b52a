package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"
	"tradepost/app"
	"tradepost/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

type PgRepository struct {
	db *sqlx.DB
}

var _ app.Repository = (*PgRepository)(nil)

func NewPgRepository(dsn string) (*PgRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	// Every till shares one database; keep the pool small per instance.
	db.SetMaxOpenConns(15)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return &PgRepository{db: db}, nil
}

func (r *PgRepository) Close() error {
	return r.db.Close()
}

// Migrate creates the schema when it is missing.
func (r *PgRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// GetPoolStats returns current connection pool statistics
func (r *PgRepository) GetPoolStats() map[string]any {
	stats := r.db.Stats()
	return map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

func (r *PgRepository) RunInTx(ctx context.Context, fn func(tx app.LedgerTx) error) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&ledgerTx{tx: tx})
	})
}

func (r *PgRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Persistence(fmt.Errorf("begin: %w", err))
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.Persistence(fmt.Errorf("commit: %w", err))
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
