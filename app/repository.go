package app

import (
	"context"
	"tradepost/app/item"
	"tradepost/domain"
)

// LedgerTx is the view of the store inside one commit. Every write made
// through it becomes durable together or not at all.
type LedgerTx interface {
	InsertTransaction(ctx context.Context, tx domain.Transaction) error
	InsertLineItem(ctx context.Context, line domain.LineItem) error
	// FindItem reads a catalog row and locks it for the rest of the unit.
	FindItem(ctx context.Context, id string) (domain.Item, error)
	ItemAttributes(ctx context.Context, itemID string) (domain.Attributes, error)
	// ReceiveItem catalogs a traded-in unit: a new row with stock 1, or one
	// more unit of an existing row. Attribute keys already present are kept.
	ReceiveItem(ctx context.Context, item domain.Item, attributes domain.Attributes) error
	// AdjustStock applies delta and fails with *domain.InsufficientStockError
	// rather than letting stock go negative.
	AdjustStock(ctx context.Context, itemID string, delta int) error
}

type Repository interface {
	item.Repository

	Close() error
	// RunInTx runs fn inside a single store transaction, committing when fn
	// returns nil and rolling back otherwise.
	RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error
	GetTransactions(ctx context.Context, page domain.Page) ([]domain.Transaction, int, error)
	GetCashTotals(ctx context.Context, r domain.DateRange) (domain.CashTotals, error)
	SaveReconciliation(ctx context.Context, record domain.ReconciliationRecord) error
	GetReconciliations(ctx context.Context) ([]domain.ReconciliationRecord, error)
	StockLedger(ctx context.Context) ([]domain.StockLedgerRow, error)
}
