package domain

// StockLedgerRow is the per-item input to a stock audit: what the catalog
// says and what the ledger recorded.
type StockLedgerRow struct {
	ItemID       string `db:"item_id" json:"itemId"`
	Name         string `db:"name" json:"name"`
	Stock        int    `db:"stock" json:"stock"`
	InitialStock int    `db:"initial_stock" json:"initialStock"`
	Received     int    `db:"received" json:"received"`
	Released     int    `db:"released" json:"released"`
}

func (r StockLedgerRow) Expected() int {
	return r.InitialStock + r.Received - r.Released
}

type StockDrift struct {
	StockLedgerRow
	ExpectedStock int `json:"expectedStock"`
}

// AuditStock returns every row whose stock differs from a replay of the
// ledger.
func AuditStock(rows []StockLedgerRow) []StockDrift {
	drift := make([]StockDrift, 0)
	for _, r := range rows {
		if r.Stock != r.Expected() {
			drift = append(drift, StockDrift{StockLedgerRow: r, ExpectedStock: r.Expected()})
		}
	}
	return drift
}
