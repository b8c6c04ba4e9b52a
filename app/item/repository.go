package item

import (
	"context"
	"tradepost/domain"

	"github.com/shopspring/decimal"
)

// Repository is the catalog and attribute store. Stock is only ever written
// by AddItem (initial units) and by the ledger's unit of work.
type Repository interface {
	// AddItem inserts item and its attributes as one unit. When the id is
	// already catalogued nothing is overwritten and created is false. check,
	// when set, runs inside the unit with the stored item type before any
	// attribute is written; its error aborts the unit.
	AddItem(ctx context.Context, item domain.Item, attributes domain.Attributes, check func(itemType string) error) (stored domain.Item, created bool, err error)
	GetItem(ctx context.Context, id string) (domain.Item, error)
	UpdateItem(ctx context.Context, id, name string, price decimal.Decimal, condition *string) (domain.Item, error)
	SetItemImage(ctx context.Context, id, imageURL string) (domain.Item, error)
	GetItemAttributes(ctx context.Context, itemID string) (domain.Attributes, error)
	// ReplaceItemAttributes deletes every attribute of the item and inserts
	// attributes in a single transaction.
	ReplaceItemAttributes(ctx context.Context, itemID string, attributes domain.Attributes) error
	QueryInventory(ctx context.Context, query domain.InventoryQuery) ([]domain.InventoryItem, int, error)
}
