package postgres

import (
	"context"
	"tradepost/domain"
)

func (r *PgRepository) SaveReconciliation(ctx context.Context, record domain.ReconciliationRecord) error {
	query := `
		INSERT INTO reconciliations (
			id, reconciled_at, starting_cash, total_cash_in, total_cash_out,
			expected_cash, actual_cash, discrepancy, notes, created_at
		) VALUES (
			:id, :reconciled_at, :starting_cash, :total_cash_in, :total_cash_out,
			:expected_cash, :actual_cash, :discrepancy, :notes, :created_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return domain.Persistence(err)
	}
	return nil
}

func (r *PgRepository) GetReconciliations(ctx context.Context) ([]domain.ReconciliationRecord, error) {
	records := make([]domain.ReconciliationRecord, 0)
	query := `
		SELECT id, reconciled_at, starting_cash, total_cash_in, total_cash_out,
			expected_cash, actual_cash, discrepancy, notes, created_at
		FROM reconciliations
		ORDER BY reconciled_at DESC, created_at DESC`

	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, domain.Persistence(err)
	}
	return records, nil
}
