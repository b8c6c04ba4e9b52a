package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
	"tradepost/app"
	"tradepost/domain"

	"github.com/shopspring/decimal"
)

func TestLikePattern(t *testing.T) {
	testCases := []struct {
		search string
		want   string
	}{
		{"", "%%"},
		{"Pika", "%pika%"},
		{"100%", "%100!%%"},
		{"a_b", "%a!_b%"},
		{"wow!", "%wow!!%"},
	}

	for _, tc := range testCases {
		if got := likePattern(tc.search); got != tc.want {
			t.Errorf("likePattern(%q) = %q, want %q", tc.search, got, tc.want)
		}
	}
}

func TestPrefixed(t *testing.T) {
	if got := prefixed("i.", "id, name"); got != "i.id, i.name" {
		t.Errorf("prefixed() = %q", got)
	}
}

// TestRepositoryAgainstPostgres runs when TEST_POSTGRES_DSN points at a
// scratch database.
func TestRepositoryAgainstPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	r, err := NewPgRepository(dsn)
	if err != nil {
		t.Fatalf("NewPgRepository() unexpected error = %v", err)
	}
	defer r.Close()

	if err := r.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() unexpected error = %v", err)
	}

	id := "pg-test-" + time.Now().UTC().Format("20060102150405.000000000")
	now := time.Now().UTC()
	item := domain.Item{ID: id, Type: "misc", Name: "Probe", Price: decimal.NewFromInt(3), Stock: 1, InitialStock: 1, CreatedAt: now, UpdatedAt: now}

	if _, created, err := r.AddItem(ctx, item, domain.Attributes{"a": "1"}, nil); err != nil || !created {
		t.Fatalf("AddItem() = %v, %v", created, err)
	}
	if _, created, err := r.AddItem(ctx, item, domain.Attributes{"a": "2", "b": "3"}, nil); err != nil || created {
		t.Fatalf("AddItem() again = %v, %v", created, err)
	}

	attrs, err := r.GetItemAttributes(ctx, id)
	if err != nil || attrs["a"] != "1" || attrs["b"] != "3" {
		t.Errorf("attributes = %v, %v", attrs, err)
	}

	err = r.RunInTx(ctx, func(tx app.LedgerTx) error {
		if err := tx.AdjustStock(ctx, id, -1); err != nil {
			return err
		}
		return tx.AdjustStock(ctx, id, -1)
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("RunInTx() error = %v, want ErrInsufficientStock", err)
	}

	got, err := r.GetItem(ctx, id)
	if err != nil || got.Stock != 1 {
		t.Errorf("stock after rollback = %d, %v, want 1", got.Stock, err)
	}
}
