package gormstore

import (
	"context"
	"time"
	"tradepost/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerTx struct {
	db   *gorm.DB
	lock []clause.Expression
}

func (l *ledgerTx) InsertTransaction(ctx context.Context, t domain.Transaction) error {
	rec := transactionRecord{
		ID:          t.ID,
		Type:        string(t.Type),
		CashIn:      t.CashIn,
		CashOut:     t.CashOut,
		CommittedAt: t.Timestamp,
	}
	if err := l.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Persistence(err)
	}
	return nil
}

func (l *ledgerTx) InsertLineItem(ctx context.Context, line domain.LineItem) error {
	rec := newLineItemRecord(line)
	if rec.Attributes == nil {
		rec.Attributes = domain.Attributes{}
	}
	if err := l.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Persistence(err)
	}
	return nil
}

func (l *ledgerTx) FindItem(ctx context.Context, id string) (domain.Item, error) {
	rec, err := findItem(l.db.WithContext(ctx), l.lock, id)
	if err != nil {
		return domain.Item{}, err
	}
	return rec.toDomain(), nil
}

func (l *ledgerTx) ItemAttributes(ctx context.Context, itemID string) (domain.Attributes, error) {
	return itemAttributes(l.db.WithContext(ctx), itemID)
}

func (l *ledgerTx) ReceiveItem(ctx context.Context, item domain.Item, attributes domain.Attributes) error {
	db := l.db.WithContext(ctx)
	rec := newItemRecord(item)

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"stock":      gorm.Expr("stock + ?", 1),
			"updated_at": item.UpdatedAt,
		}),
	}).Create(&rec).Error
	if err != nil {
		return domain.Persistence(err)
	}

	return insertMissingAttributes(db, item.ID, attributes, item.CreatedAt)
}

func (l *ledgerTx) AdjustStock(ctx context.Context, itemID string, delta int) error {
	db := l.db.WithContext(ctx)

	res := db.Model(&itemRecord{}).
		Where("id = ? AND stock + ? >= 0", itemID, delta).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return domain.Persistence(res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	rec, err := findItem(db, nil, itemID)
	if err != nil {
		return err
	}
	return &domain.InsufficientStockError{ItemID: itemID, Available: rec.Stock}
}

func (s *Store) GetTransactions(ctx context.Context, page domain.Page) ([]domain.Transaction, int, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&transactionRecord{}).Count(&total).Error; err != nil {
		return nil, 0, domain.Persistence(err)
	}

	var records []transactionRecord
	err := db.Preload("LineItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).
		Order("committed_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&records).Error
	if err != nil {
		return nil, 0, domain.Persistence(err)
	}

	txs := make([]domain.Transaction, 0, len(records))
	for _, rec := range records {
		txs = append(txs, rec.toDomain())
	}
	return txs, int(total), nil
}

// GetCashTotals sums in Go; sqlite would otherwise add the NUMERIC columns as
// floating point.
func (s *Store) GetCashTotals(ctx context.Context, r domain.DateRange) (domain.CashTotals, error) {
	db := s.db.WithContext(ctx).Model(&transactionRecord{}).Select("cash_in", "cash_out")
	if r.Start != nil {
		db = db.Where("committed_at >= ?", r.Start.UTC())
	}
	if r.End != nil {
		db = db.Where("committed_at <= ?", r.End.UTC())
	}

	var rows []struct {
		CashIn  decimal.Decimal
		CashOut decimal.Decimal
	}
	if err := db.Scan(&rows).Error; err != nil {
		return domain.CashTotals{}, domain.Persistence(err)
	}

	totals := domain.CashTotals{TotalCashIn: decimal.Zero, TotalCashOut: decimal.Zero}
	for _, row := range rows {
		totals.TotalCashIn = totals.TotalCashIn.Add(row.CashIn)
		totals.TotalCashOut = totals.TotalCashOut.Add(row.CashOut)
	}
	return totals, nil
}

func (s *Store) StockLedger(ctx context.Context) ([]domain.StockLedgerRow, error) {
	rows := make([]domain.StockLedgerRow, 0)
	err := s.db.WithContext(ctx).Raw(`
		SELECT i.id AS item_id, i.name AS name, i.stock AS stock, i.initial_stock AS initial_stock,
			COALESCE(SUM(CASE WHEN l.role = 'trade_in' THEN 1 ELSE 0 END), 0) AS received,
			COALESCE(SUM(CASE WHEN l.role IN ('sold', 'trade_out') THEN 1 ELSE 0 END), 0) AS released
		FROM items i
		LEFT JOIN transaction_line_items l ON l.item_id = i.id
		GROUP BY i.id, i.name, i.stock, i.initial_stock
		ORDER BY i.id`).Scan(&rows).Error
	if err != nil {
		return nil, domain.Persistence(err)
	}
	return rows, nil
}

func (s *Store) SaveReconciliation(ctx context.Context, record domain.ReconciliationRecord) error {
	rec := newReconciliationRecord(record)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Persistence(err)
	}
	return nil
}

func (s *Store) GetReconciliations(ctx context.Context) ([]domain.ReconciliationRecord, error) {
	var records []reconciliationRecord
	if err := s.db.WithContext(ctx).Order("reconciled_at DESC, created_at DESC").Find(&records).Error; err != nil {
		return nil, domain.Persistence(err)
	}

	out := make([]domain.ReconciliationRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toDomain())
	}
	return out, nil
}
