package app

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
	"tradepost/domain"

	"github.com/shopspring/decimal"
)

type memState struct {
	items map[string]domain.Item
	attrs map[string]domain.Attributes
	txs   []domain.Transaction
	lines []domain.LineItem
	recs  []domain.ReconciliationRecord
}

func (s memState) clone() memState {
	out := memState{
		items: maps.Clone(s.items),
		attrs: make(map[string]domain.Attributes, len(s.attrs)),
		txs:   slices.Clone(s.txs),
		lines: slices.Clone(s.lines),
		recs:  slices.Clone(s.recs),
	}
	for k, v := range s.attrs {
		out.attrs[k] = v.Clone()
	}
	return out
}

// memRepository keeps everything in memory. RunInTx works on a copy of the
// state and swaps it in only on success; failOn makes the named LedgerTx
// step fail.
type memRepository struct {
	mu      sync.Mutex
	state   memState
	failOn  string
	failErr error
	units   int
}

func newMemRepository() *memRepository {
	return &memRepository{
		state: memState{
			items: make(map[string]domain.Item),
			attrs: make(map[string]domain.Attributes),
		},
	}
}

func (r *memRepository) seed(item domain.Item, attrs domain.Attributes) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.InitialStock = item.Stock
	r.state.items[item.ID] = item
	r.state.attrs[item.ID] = attrs.Clone()
}

func (r *memRepository) stock(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.items[id].Stock
}

func (r *memRepository) counts() (txs, lines int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.state.txs), len(r.state.lines)
}

func (r *memRepository) Close() error { return nil }

func (r *memRepository) RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units++

	work := &memTx{repo: r, state: r.state.clone()}
	if err := fn(work); err != nil {
		return err
	}
	r.state = work.state
	return nil
}

type memTx struct {
	repo  *memRepository
	state memState
}

func (t *memTx) fail(step string) error {
	if t.repo.failOn == step {
		return t.repo.failErr
	}
	return nil
}

func (t *memTx) InsertTransaction(ctx context.Context, tx domain.Transaction) error {
	if err := t.fail("InsertTransaction"); err != nil {
		return err
	}
	t.state.txs = append(t.state.txs, tx)
	return nil
}

func (t *memTx) InsertLineItem(ctx context.Context, line domain.LineItem) error {
	if err := t.fail("InsertLineItem"); err != nil {
		return err
	}
	line.Attributes = line.Attributes.Clone()
	t.state.lines = append(t.state.lines, line)
	return nil
}

func (t *memTx) FindItem(ctx context.Context, id string) (domain.Item, error) {
	item, ok := t.state.items[id]
	if !ok {
		return domain.Item{}, domain.NotFound("item", id)
	}
	return item, nil
}

func (t *memTx) ItemAttributes(ctx context.Context, itemID string) (domain.Attributes, error) {
	return t.state.attrs[itemID].Clone(), nil
}

func (t *memTx) ReceiveItem(ctx context.Context, item domain.Item, attributes domain.Attributes) error {
	if err := t.fail("ReceiveItem"); err != nil {
		return err
	}
	if existing, ok := t.state.items[item.ID]; ok {
		existing.Stock++
		t.state.items[item.ID] = existing
	} else {
		t.state.items[item.ID] = item
	}

	bag := t.state.attrs[item.ID]
	if bag == nil {
		bag = domain.Attributes{}
	}
	for k, v := range attributes {
		if _, taken := bag[k]; !taken {
			bag[k] = v
		}
	}
	t.state.attrs[item.ID] = bag
	return nil
}

func (t *memTx) AdjustStock(ctx context.Context, itemID string, delta int) error {
	if err := t.fail("AdjustStock"); err != nil {
		return err
	}
	item, ok := t.state.items[itemID]
	if !ok {
		return domain.NotFound("item", itemID)
	}
	if item.Stock+delta < 0 {
		return &domain.InsufficientStockError{ItemID: itemID, Available: item.Stock}
	}
	item.Stock += delta
	t.state.items[itemID] = item
	return nil
}

func (r *memRepository) AddItem(ctx context.Context, item domain.Item, attributes domain.Attributes, check func(itemType string) error) (domain.Item, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.state.items[item.ID]; ok {
		return existing, false, nil
	}
	if check != nil {
		if err := check(item.Type); err != nil {
			return domain.Item{}, false, err
		}
	}
	r.state.items[item.ID] = item
	r.state.attrs[item.ID] = attributes.Clone()
	return item, true, nil
}

func (r *memRepository) GetItem(ctx context.Context, id string) (domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.state.items[id]
	if !ok {
		return domain.Item{}, domain.NotFound("item", id)
	}
	return item, nil
}

func (r *memRepository) UpdateItem(ctx context.Context, id, name string, price decimal.Decimal, condition *string) (domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.state.items[id]
	if !ok {
		return domain.Item{}, domain.NotFound("item", id)
	}
	item.Name, item.Price, item.Condition = name, price, condition
	r.state.items[id] = item
	return item, nil
}

func (r *memRepository) SetItemImage(ctx context.Context, id, imageURL string) (domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.state.items[id]
	if !ok {
		return domain.Item{}, domain.NotFound("item", id)
	}
	item.ImageURL = &imageURL
	r.state.items[id] = item
	return item, nil
}

func (r *memRepository) GetItemAttributes(ctx context.Context, itemID string) (domain.Attributes, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.attrs[itemID].Clone(), nil
}

func (r *memRepository) ReplaceItemAttributes(ctx context.Context, itemID string, attributes domain.Attributes) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.attrs[itemID] = attributes.Clone()
	return nil
}

func (r *memRepository) QueryInventory(ctx context.Context, query domain.InventoryQuery) ([]domain.InventoryItem, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.InventoryItem
	for id, item := range r.state.items {
		if strings.Contains(strings.ToLower(item.Name), strings.ToLower(query.Search)) {
			out = append(out, domain.InventoryItem{Item: item, Attributes: r.state.attrs[id].Clone()})
		}
	}
	return out, len(out), nil
}

func (r *memRepository) GetTransactions(ctx context.Context, page domain.Page) ([]domain.Transaction, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txs := slices.Clone(r.state.txs)
	slices.SortFunc(txs, func(a, b domain.Transaction) int { return strings.Compare(b.ID, a.ID) })
	for i := range txs {
		for _, l := range r.state.lines {
			if l.TransactionID == txs[i].ID {
				txs[i].LineItems = append(txs[i].LineItems, l)
			}
		}
	}

	start := min(page.Offset(), len(txs))
	end := min(start+page.Limit, len(txs))
	return txs[start:end], len(txs), nil
}

func (r *memRepository) GetCashTotals(ctx context.Context, dr domain.DateRange) (domain.CashTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.SumCashTotals(r.state.txs, dr), nil
}

func (r *memRepository) SaveReconciliation(ctx context.Context, record domain.ReconciliationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.recs = append(r.state.recs, record)
	return nil
}

func (r *memRepository) GetReconciliations(ctx context.Context) ([]domain.ReconciliationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs := slices.Clone(r.state.recs)
	slices.SortStableFunc(recs, func(a, b domain.ReconciliationRecord) int { return b.Date.Compare(a.Date) })
	return recs, nil
}

func (r *memRepository) StockLedger(ctx context.Context) ([]domain.StockLedgerRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]domain.StockLedgerRow, 0, len(r.state.items))
	for _, id := range slices.Sorted(maps.Keys(r.state.items)) {
		item := r.state.items[id]
		row := domain.StockLedgerRow{ItemID: id, Name: item.Name, Stock: item.Stock, InitialStock: item.InitialStock}
		for _, l := range r.state.lines {
			if l.ItemID != id {
				continue
			}
			if l.Role == domain.RoleTradeIn {
				row.Received++
			} else {
				row.Released++
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type stubRates struct {
	snapshot domain.ExchangeRateSnapshot
}

func (s stubRates) GetRates(ctx context.Context) domain.ExchangeRateSnapshot {
	return s.snapshot
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
