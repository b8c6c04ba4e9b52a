package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultStock is the number of units a catalog entry starts with when the
// caller does not say otherwise. Every trade-in is one unit.
const DefaultStock = 1

type Item struct {
	ID        string          `db:"id" json:"id"`
	Type      string          `db:"type" json:"type"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Stock     int             `db:"stock" json:"stock"`
	ImageURL  *string         `db:"image_url" json:"imageUrl"`
	Condition *string         `db:"condition_grade" json:"condition"`

	// InitialStock is the stock an item was created with outside the
	// ledger. Items born from a trade-in start at zero here because the
	// trade-in line itself accounts for their unit.
	InitialStock int `db:"initial_stock" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// InventoryItem is an Item together with its attribute bag, collapsed into a
// key to value map.
type InventoryItem struct {
	Item
	Attributes Attributes `json:"attributes"`
}

type InventoryQuery struct {
	Search      string
	OnlyInStock bool
	Page        int
	Limit       int
}

func (q InventoryQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

func (q InventoryQuery) Validate() error {
	if q.Page < 1 {
		return NewValidationError("page", "must be at least 1")
	}
	if q.Limit < 1 {
		return NewValidationError("limit", "must be positive")
	}
	return nil
}

// ItemFromTradeIn builds the catalog entry a trade-in line turns into.
func ItemFromTradeIn(line LineItemInput, now time.Time) Item {
	return Item{
		ID:           line.ItemID,
		Type:         line.Type,
		Name:         line.Name,
		Price:        line.OriginalPrice,
		Stock:        DefaultStock,
		ImageURL:     line.ImageURL,
		Condition:    line.Condition,
		InitialStock: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
