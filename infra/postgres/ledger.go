package postgres

import (
	"context"
	"tradepost/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ledgerTx is the commit view over one database transaction.
type ledgerTx struct {
	tx *sqlx.Tx
}

func (l *ledgerTx) InsertTransaction(ctx context.Context, t domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, type, cash_in, cash_out, committed_at)
		VALUES (:id, :type, :cash_in, :cash_out, :committed_at)`

	if _, err := l.tx.NamedExecContext(ctx, query, t); err != nil {
		return domain.Persistence(err)
	}
	return nil
}

func (l *ledgerTx) InsertLineItem(ctx context.Context, line domain.LineItem) error {
	query := `
		INSERT INTO transaction_line_items (
			transaction_id, position, item_id, name, role,
			trade_value, negotiated_price, original_price,
			image_url, condition_grade, type, attributes
		) VALUES (
			:transaction_id, :position, :item_id, :name, :role,
			:trade_value, :negotiated_price, :original_price,
			:image_url, :condition_grade, :type, :attributes
		)`

	if _, err := l.tx.NamedExecContext(ctx, query, line); err != nil {
		return domain.Persistence(err)
	}
	return nil
}

func (l *ledgerTx) FindItem(ctx context.Context, id string) (domain.Item, error) {
	return lockItem(ctx, l.tx, id)
}

func (l *ledgerTx) ItemAttributes(ctx context.Context, itemID string) (domain.Attributes, error) {
	return itemAttributes(ctx, l.tx, itemID)
}

func (l *ledgerTx) ReceiveItem(ctx context.Context, item domain.Item, attributes domain.Attributes) error {
	query := `
		INSERT INTO items (
			id, type, name, price, stock, initial_stock,
			image_url, condition_grade, created_at, updated_at
		) VALUES (
			:id, :type, :name, :price, :stock, :initial_stock,
			:image_url, :condition_grade, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE
		SET stock = items.stock + 1, updated_at = EXCLUDED.updated_at`

	if _, err := l.tx.NamedExecContext(ctx, query, item); err != nil {
		return domain.Persistence(err)
	}
	return insertMissingAttributes(ctx, l.tx, item.ID, attributes, item.CreatedAt)
}

func (l *ledgerTx) AdjustStock(ctx context.Context, itemID string, delta int) error {
	res, err := l.tx.ExecContext(ctx,
		`UPDATE items SET stock = stock + $2, updated_at = now() WHERE id = $1 AND stock + $2 >= 0`,
		itemID, delta,
	)
	if err != nil {
		return domain.Persistence(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return domain.Persistence(err)
	}
	if n == 1 {
		return nil
	}

	var available int
	if err := l.tx.GetContext(ctx, &available, `SELECT stock FROM items WHERE id = $1`, itemID); err != nil {
		return notFoundOr(err, "item", itemID)
	}
	return &domain.InsufficientStockError{ItemID: itemID, Available: available}
}

func (r *PgRepository) GetTransactions(ctx context.Context, page domain.Page) ([]domain.Transaction, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM transactions`); err != nil {
		return nil, 0, domain.Persistence(err)
	}

	txs := make([]domain.Transaction, 0)
	query := `
		SELECT id, type, cash_in, cash_out, committed_at
		FROM transactions
		ORDER BY committed_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &txs, query, page.Limit, page.Offset()); err != nil {
		return nil, 0, domain.Persistence(err)
	}
	if len(txs) == 0 {
		return txs, total, nil
	}

	ids := make([]string, len(txs))
	for n, t := range txs {
		ids[n] = t.ID
	}

	lines := make([]domain.LineItem, 0)
	lineQuery := `
		SELECT transaction_id, position, item_id, name, role,
			trade_value, negotiated_price, original_price,
			image_url, condition_grade, type, attributes
		FROM transaction_line_items
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, position`
	if err := r.db.SelectContext(ctx, &lines, lineQuery, pq.Array(ids)); err != nil {
		return nil, 0, domain.Persistence(err)
	}

	byTx := make(map[string][]domain.LineItem, len(txs))
	for _, l := range lines {
		byTx[l.TransactionID] = append(byTx[l.TransactionID], l)
	}
	for n := range txs {
		txs[n].LineItems = byTx[txs[n].ID]
	}

	return txs, total, nil
}

func (r *PgRepository) GetCashTotals(ctx context.Context, dr domain.DateRange) (domain.CashTotals, error) {
	var totals domain.CashTotals
	query := `
		SELECT COALESCE(SUM(cash_in), 0) AS total_cash_in,
			COALESCE(SUM(cash_out), 0) AS total_cash_out
		FROM transactions
		WHERE ($1::timestamptz IS NULL OR committed_at >= $1)
		AND ($2::timestamptz IS NULL OR committed_at <= $2)`

	if err := r.db.GetContext(ctx, &totals, query, dr.Start, dr.End); err != nil {
		return totals, domain.Persistence(err)
	}
	return totals, nil
}

func (r *PgRepository) StockLedger(ctx context.Context) ([]domain.StockLedgerRow, error) {
	rows := make([]domain.StockLedgerRow, 0)
	query := `
		SELECT i.id AS item_id, i.name, i.stock, i.initial_stock,
			COALESCE(SUM(CASE WHEN l.role = 'trade_in' THEN 1 ELSE 0 END), 0) AS received,
			COALESCE(SUM(CASE WHEN l.role IN ('sold', 'trade_out') THEN 1 ELSE 0 END), 0) AS released
		FROM items i
		LEFT JOIN transaction_line_items l ON l.item_id = i.id
		GROUP BY i.id, i.name, i.stock, i.initial_stock
		ORDER BY i.id`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, domain.Persistence(err)
	}
	return rows, nil
}
