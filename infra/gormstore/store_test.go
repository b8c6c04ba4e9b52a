package gormstore

import (
	"context"
	"errors"
	"testing"
	"time"
	"tradepost/app"
	"tradepost/domain"

	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() unexpected error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func addItem(t *testing.T, s *Store, id, name string, stock int, attrs domain.Attributes) {
	t.Helper()
	now := time.Now().UTC()
	_, _, err := s.AddItem(context.Background(), domain.Item{
		ID: id, Type: "misc", Name: name, Price: dec("1.00"),
		Stock: stock, InitialStock: stock, CreatedAt: now, UpdatedAt: now,
	}, attrs, nil)
	if err != nil {
		t.Fatalf("AddItem(%s) unexpected error = %v", id, err)
	}
}

func TestAddItemIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	first, created, err := s.AddItem(ctx, domain.Item{ID: "c1", Type: "misc", Name: "First", Price: dec("5"), Stock: 2, InitialStock: 2, CreatedAt: now, UpdatedAt: now},
		domain.Attributes{"rarity": "rare"}, nil)
	if err != nil || !created {
		t.Fatalf("AddItem() = %v, %v, want created", created, err)
	}
	if first.Stock != 2 {
		t.Errorf("stock = %d, want 2", first.Stock)
	}

	again, created, err := s.AddItem(ctx, domain.Item{ID: "c1", Type: "misc", Name: "Second", Price: dec("9"), Stock: 7, CreatedAt: now, UpdatedAt: now},
		domain.Attributes{"rarity": "common", "set": "base"}, nil)
	if err != nil {
		t.Fatalf("AddItem() unexpected error = %v", err)
	}
	if created || again.Name != "First" || again.Stock != 2 {
		t.Errorf("re-add = %+v created=%v, want the original row", again, created)
	}

	attrs, _ := s.GetItemAttributes(ctx, "c1")
	if len(attrs) != 2 || attrs["rarity"] != "rare" || attrs["set"] != "base" {
		t.Errorf("attributes = %v, want rarity kept and set added", attrs)
	}
}

func TestAddItemChecksStoredType(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	schemas := domain.DefaultSchemas()
	now := time.Now().UTC()

	card := domain.Item{ID: "p1", Type: "pokemon_tcg", Name: "Pikachu", Price: dec("2"), Stock: 1, InitialStock: 1, CreatedAt: now, UpdatedAt: now}
	if _, _, err := s.AddItem(ctx, card, domain.Attributes{"rarity": "rare"}, nil); err != nil {
		t.Fatalf("AddItem() unexpected error = %v", err)
	}

	var checked string
	attrs := domain.Attributes{"platform": "n64"}
	relabelled := card
	relabelled.Type = "misc"
	_, _, err := s.AddItem(ctx, relabelled, attrs, func(itemType string) error {
		checked = itemType
		return schemas.Validate(itemType, attrs)
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("AddItem() error = %v, want ErrValidation", err)
	}
	if checked != "pokemon_tcg" {
		t.Errorf("checked type = %q, want pokemon_tcg", checked)
	}

	stored, _ := s.GetItemAttributes(ctx, "p1")
	if len(stored) != 1 || stored["rarity"] != "rare" {
		t.Errorf("attributes = %v, want only rarity", stored)
	}
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addItem(t, s, "g1", "Zelda", 3, nil)

	grade := "CIB"
	item, err := s.UpdateItem(ctx, "g1", "Zelda OoT", dec("45.00"), &grade)
	if err != nil {
		t.Fatalf("UpdateItem() unexpected error = %v", err)
	}
	if item.Name != "Zelda OoT" || !item.Price.Equal(dec("45")) || item.Condition == nil || *item.Condition != "CIB" || item.Stock != 3 {
		t.Errorf("item = %+v", item)
	}

	if _, err := s.UpdateItem(ctx, "missing", "x", dec("1"), nil); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateItem(missing) error = %v, want ErrNotFound", err)
	}

	item, err = s.SetItemImage(ctx, "g1", "https://cdn.test/g1.png")
	if err != nil || item.ImageURL == nil || *item.ImageURL != "https://cdn.test/g1.png" {
		t.Errorf("SetItemImage() = %+v, %v", item, err)
	}
}

func TestReplaceItemAttributes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addItem(t, s, "c1", "Card", 1, domain.Attributes{"old": "x", "a": "0"})

	for range 2 {
		if err := s.ReplaceItemAttributes(ctx, "c1", domain.Attributes{"a": "1"}); err != nil {
			t.Fatalf("ReplaceItemAttributes() unexpected error = %v", err)
		}
	}

	attrs, _ := s.GetItemAttributes(ctx, "c1")
	if len(attrs) != 1 || attrs["a"] != "1" {
		t.Errorf("attributes = %v, want exactly a=1", attrs)
	}

	if err := s.ReplaceItemAttributes(ctx, "c1", nil); err != nil {
		t.Fatalf("ReplaceItemAttributes(nil) unexpected error = %v", err)
	}
	if attrs, _ := s.GetItemAttributes(ctx, "c1"); len(attrs) != 0 {
		t.Errorf("attributes = %v, want none", attrs)
	}

	if err := s.ReplaceItemAttributes(ctx, "ghost", domain.Attributes{"a": "1"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ReplaceItemAttributes(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestQueryInventory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addItem(t, s, "1", "Pikachu", 1, domain.Attributes{"set": "Base"})
	addItem(t, s, "2", "Bulbasaur", 0, nil)
	addItem(t, s, "3", "Mew", 2, domain.Attributes{"set": "Wizards Pikachu Promo"})
	addItem(t, s, "4", "100% Rare_Card", 1, nil)

	testCases := []struct {
		name      string
		query     domain.InventoryQuery
		wantIDs   []string
		wantTotal int
	}{
		{"everything by name", domain.InventoryQuery{Page: 1, Limit: 10}, []string{"4", "2", "3", "1"}, 4},
		{"case-insensitive name or attribute", domain.InventoryQuery{Search: "pIkA", Page: 1, Limit: 10}, []string{"3", "1"}, 2},
		{"in stock only", domain.InventoryQuery{OnlyInStock: true, Page: 1, Limit: 10}, []string{"4", "3", "1"}, 3},
		{"pagination keeps the total", domain.InventoryQuery{Page: 2, Limit: 3}, []string{"1"}, 4},
		{"wildcards are literal", domain.InventoryQuery{Search: "0%", Page: 1, Limit: 10}, []string{"4"}, 1},
		{"underscore is literal", domain.InventoryQuery{Search: "e_c", Page: 1, Limit: 10}, []string{"4"}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			items, total, err := s.QueryInventory(ctx, tc.query)
			if err != nil {
				t.Fatalf("QueryInventory() unexpected error = %v", err)
			}
			if total != tc.wantTotal {
				t.Errorf("total = %d, want %d", total, tc.wantTotal)
			}
			if len(items) != len(tc.wantIDs) {
				t.Fatalf("got %d items, want %d", len(items), len(tc.wantIDs))
			}
			for i, id := range tc.wantIDs {
				if items[i].ID != id {
					t.Errorf("items[%d] = %s, want %s", i, items[i].ID, id)
				}
			}
		})
	}

	items, _, _ := s.QueryInventory(ctx, domain.InventoryQuery{Search: "mew", Page: 1, Limit: 1})
	if items[0].Attributes["set"] != "Wizards Pikachu Promo" {
		t.Errorf("attributes = %v, want the set collapsed into the map", items[0].Attributes)
	}

	if _, _, err := s.QueryInventory(ctx, domain.InventoryQuery{Page: 0, Limit: 10}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("page 0 error = %v, want ErrValidation", err)
	}
}

func TestQueryInventoryFoldsNonASCIICase(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addItem(t, s, "e1", "Évoli Holo", 1, nil)
	addItem(t, s, "g1", "Mario Kart", 1, domain.Attributes{"edition": "ÜBER"})

	testCases := []struct {
		search string
		wantID string
	}{
		{"Évoli", "e1"},
		{"évoli", "e1"},
		{"ÉVOLI", "e1"},
		{"über", "g1"},
		{"ÜBER", "g1"},
	}

	for _, tc := range testCases {
		t.Run(tc.search, func(t *testing.T) {
			items, total, err := s.QueryInventory(ctx, domain.InventoryQuery{Search: tc.search, Page: 1, Limit: 10})
			if err != nil {
				t.Fatalf("QueryInventory() unexpected error = %v", err)
			}
			if total != 1 || len(items) != 1 || items[0].ID != tc.wantID {
				t.Errorf("QueryInventory(%q) = %d items (total %d), want only %s", tc.search, len(items), total, tc.wantID)
			}
		})
	}
}

func TestLedgerCommitThroughStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addItem(t, s, "shelf", "Shelf copy", 1, domain.Attributes{"rarity": "rare"})

	ledger := app.NewLedger(s, domain.DefaultSchemas())

	tx, err := ledger.Commit(ctx, domain.NewDraft(domain.TransactionTrade,
		domain.LineItemInput{ItemID: "incoming", Name: "Incoming", Type: "misc", Role: domain.RoleTradeIn, TradeValue: decp("40.00"), OriginalPrice: dec("60.00"), Attributes: domain.Attributes{"set": "jungle"}},
		domain.LineItemInput{ItemID: "shelf", Name: "Shelf copy", Type: "misc", Role: domain.RoleTradeOut, OriginalPrice: dec("55.00")},
	))
	if err != nil {
		t.Fatalf("Commit() unexpected error = %v", err)
	}
	if !tx.CashIn.Equal(dec("15")) || !tx.CashOut.IsZero() {
		t.Errorf("cash = %s / %s, want 15 / 0", tx.CashIn, tx.CashOut)
	}

	shelf, _ := s.GetItem(ctx, "shelf")
	incoming, _ := s.GetItem(ctx, "incoming")
	if shelf.Stock != 0 || incoming.Stock != 1 {
		t.Errorf("stock = shelf %d incoming %d, want 0 and 1", shelf.Stock, incoming.Stock)
	}

	// the shelf copy is gone now; selling it again must leave no trace
	_, err = ledger.Commit(ctx, domain.NewDraft(domain.TransactionSell,
		domain.LineItemInput{ItemID: "incoming", Name: "Incoming", Type: "misc", Role: domain.RoleSold, OriginalPrice: dec("60.00")},
		domain.LineItemInput{ItemID: "shelf", Name: "Shelf copy", Type: "misc", Role: domain.RoleSold, OriginalPrice: dec("55.00")},
	))
	var se *domain.InsufficientStockError
	if !errors.As(err, &se) || se.ItemID != "shelf" {
		t.Fatalf("Commit() error = %v, want InsufficientStockError for shelf", err)
	}
	incoming, _ = s.GetItem(ctx, "incoming")
	if incoming.Stock != 1 {
		t.Errorf("incoming stock = %d after rollback, want 1", incoming.Stock)
	}

	txs, total, err := s.GetTransactions(ctx, domain.Page{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("GetTransactions() unexpected error = %v", err)
	}
	if total != 1 || len(txs) != 1 || len(txs[0].LineItems) != 2 {
		t.Fatalf("transactions = %+v, want the single trade with two lines", txs)
	}

	in, out := txs[0].LineItems[0], txs[0].LineItems[1]
	if in.Role != domain.RoleTradeIn || in.TradeValue == nil || in.NegotiatedPrice != nil || in.Attributes["set"] != "jungle" {
		t.Errorf("trade-in line = %+v", in)
	}
	if out.Role != domain.RoleTradeOut || out.TradeValue != nil || out.NegotiatedPrice == nil || !out.NegotiatedPrice.Equal(dec("55")) {
		t.Errorf("trade-out line = %+v", out)
	}
	if out.Attributes["rarity"] != "rare" {
		t.Errorf("trade-out snapshot = %v, want catalog attributes", out.Attributes)
	}

	drift, err := s.StockLedger(ctx)
	if err != nil {
		t.Fatalf("StockLedger() unexpected error = %v", err)
	}
	if got := domain.AuditStock(drift); len(got) != 0 {
		t.Errorf("AuditStock() = %+v, want no drift", got)
	}
}

func TestLedgerTradeInChecksStoredType(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()
	card := domain.Item{ID: "p1", Type: "pokemon_tcg", Name: "Pikachu", Price: dec("2"), Stock: 1, InitialStock: 1, CreatedAt: now, UpdatedAt: now}
	if _, _, err := s.AddItem(ctx, card, domain.Attributes{"rarity": "rare"}, nil); err != nil {
		t.Fatalf("AddItem() unexpected error = %v", err)
	}

	_, err := app.NewLedger(s, domain.DefaultSchemas()).Commit(ctx, domain.NewDraft(domain.TransactionBuy,
		domain.LineItemInput{ItemID: "p1", Name: "Pikachu", Type: "misc", Role: domain.RoleTradeIn, TradeValue: decp("1.00"), OriginalPrice: dec("2.00"), Attributes: domain.Attributes{"platform": "n64"}},
	))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Commit() error = %v, want ErrValidation", err)
	}

	item, _ := s.GetItem(ctx, "p1")
	attrs, _ := s.GetItemAttributes(ctx, "p1")
	if item.Stock != 1 || len(attrs) != 1 {
		t.Errorf("item = stock %d attributes %v, want untouched", item.Stock, attrs)
	}
}

func TestRunInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addItem(t, s, "a", "A", 1, nil)

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(tx app.LedgerTx) error {
		if err := tx.InsertTransaction(ctx, domain.Transaction{ID: "t1", Type: domain.TransactionSell, CashIn: dec("1"), CashOut: dec("0"), Timestamp: time.Now().UTC()}); err != nil {
			return err
		}
		if err := tx.AdjustStock(ctx, "a", -1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx() error = %v, want boom", err)
	}

	if _, total, _ := s.GetTransactions(ctx, domain.Page{Page: 1, Limit: 10}); total != 0 {
		t.Errorf("transactions = %d after rollback, want 0", total)
	}
	if item, _ := s.GetItem(ctx, "a"); item.Stock != 1 {
		t.Errorf("stock = %d after rollback, want 1", item.Stock)
	}
}

func TestGetCashTotals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := s.RunInTx(ctx, func(tx app.LedgerTx) error {
		for _, entry := range []domain.Transaction{
			{ID: "1", Type: domain.TransactionSell, CashIn: dec("25.50"), CashOut: dec("0"), Timestamp: day},
			{ID: "2", Type: domain.TransactionBuy, CashIn: dec("0"), CashOut: dec("10.25"), Timestamp: day.Add(8 * time.Hour)},
			{ID: "3", Type: domain.TransactionSell, CashIn: dec("100"), CashOut: dec("0"), Timestamp: day.AddDate(0, 0, 1)},
		} {
			if err := tx.InsertTransaction(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx() unexpected error = %v", err)
	}

	r, _ := domain.ParseDateRange("2026-03-01", "2026-03-01")
	totals, err := s.GetCashTotals(ctx, r)
	if err != nil {
		t.Fatalf("GetCashTotals() unexpected error = %v", err)
	}
	if !totals.TotalCashIn.Equal(dec("25.50")) || !totals.TotalCashOut.Equal(dec("10.25")) {
		t.Errorf("totals = %s / %s, want 25.50 / 10.25", totals.TotalCashIn, totals.TotalCashOut)
	}

	all, _ := s.GetCashTotals(ctx, domain.DateRange{})
	if !all.TotalCashIn.Equal(dec("125.50")) {
		t.Errorf("unbounded cash in = %s, want 125.50", all.TotalCashIn)
	}
}

func TestReconciliationsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	for i, offset := range []int{0, 2, 1} {
		rec := domain.NewReconciliation(base.AddDate(0, 0, offset), dec("100"), dec("90"), domain.CashTotals{TotalCashIn: dec("0"), TotalCashOut: dec("0")}, "")
		rec.ID = string(rune('a' + i))
		rec.CreatedAt = base
		if err := s.SaveReconciliation(ctx, rec); err != nil {
			t.Fatalf("SaveReconciliation() unexpected error = %v", err)
		}
	}

	recs, err := s.GetReconciliations(ctx)
	if err != nil {
		t.Fatalf("GetReconciliations() unexpected error = %v", err)
	}
	got := []string{recs[0].ID, recs[1].ID, recs[2].ID}
	if got[0] != "b" || got[1] != "c" || got[2] != "a" {
		t.Errorf("order = %v, want [b c a]", got)
	}
	if !recs[0].Discrepancy.Equal(dec("10")) {
		t.Errorf("discrepancy = %s, want 10", recs[0].Discrepancy)
	}
}
