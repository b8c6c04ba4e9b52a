package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionBuy   TransactionType = "buy"
	TransactionSell  TransactionType = "sell"
	TransactionTrade TransactionType = "trade"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionBuy, TransactionSell, TransactionTrade:
		return true
	}
	return false
}

type Role string

const (
	RoleTradeIn  Role = "trade_in"
	RoleSold     Role = "sold"
	RoleTradeOut Role = "trade_out"
)

func (r Role) Valid() bool {
	switch r {
	case RoleTradeIn, RoleSold, RoleTradeOut:
		return true
	}
	return false
}

// Outgoing reports whether the role takes a unit out of inventory.
func (r Role) Outgoing() bool {
	return r == RoleSold || r == RoleTradeOut
}

// Transaction is a committed ledger entry. It is never updated or deleted.
type Transaction struct {
	ID        string          `db:"id" json:"id"`
	Type      TransactionType `db:"type" json:"type"`
	CashIn    decimal.Decimal `db:"cash_in" json:"cashIn"`
	CashOut   decimal.Decimal `db:"cash_out" json:"cashOut"`
	Timestamp time.Time       `db:"committed_at" json:"timestamp"`

	LineItems []LineItem `db:"-" json:"lineItems"`
}

// LineItem is one item's participation in a committed transaction. Every
// field is a snapshot taken at commit time.
type LineItem struct {
	TransactionID   string           `db:"transaction_id" json:"transactionId"`
	Position        int              `db:"position" json:"position"`
	ItemID          string           `db:"item_id" json:"itemId"`
	Name            string           `db:"name" json:"name"`
	Role            Role             `db:"role" json:"role"`
	TradeValue      *decimal.Decimal `db:"trade_value" json:"tradeValue"`
	NegotiatedPrice *decimal.Decimal `db:"negotiated_price" json:"negotiatedPrice"`
	OriginalPrice   decimal.Decimal  `db:"original_price" json:"originalPrice"`
	ImageURL        *string          `db:"image_url" json:"imageUrl"`
	Condition       *string          `db:"condition_grade" json:"condition"`
	Type            string           `db:"type" json:"type"`
	Attributes      Attributes       `db:"attributes" json:"attributes"`
}

// LineItemInput is a line as assembled by a caller before commit.
type LineItemInput struct {
	ItemID          string           `json:"itemId" validate:"required,max=128"`
	Name            string           `json:"name" validate:"required,max=256"`
	Type            string           `json:"type" validate:"required,max=64"`
	Role            Role             `json:"role" validate:"required,oneof=trade_in sold trade_out"`
	TradeValue      *decimal.Decimal `json:"tradeValue,omitempty"`
	NegotiatedPrice *decimal.Decimal `json:"negotiatedPrice,omitempty"`
	OriginalPrice   decimal.Decimal  `json:"originalPrice"`
	ImageURL        *string          `json:"imageUrl,omitempty"`
	Condition       *string          `json:"condition,omitempty"`
	Attributes      Attributes       `json:"attributes,omitempty"`
}

// SalePrice is the amount an outgoing line is valued at.
func (l LineItemInput) SalePrice() decimal.Decimal {
	if l.NegotiatedPrice != nil {
		return *l.NegotiatedPrice
	}
	return l.OriginalPrice
}

// Snapshot turns the input into the stored line for position pos. The role
// decides which price field is kept: trade-ins carry a trade value, outgoing
// lines carry the price actually charged.
func (l LineItemInput) Snapshot(transactionID string, pos int) LineItem {
	line := LineItem{
		TransactionID: transactionID,
		Position:      pos,
		ItemID:        l.ItemID,
		Name:          l.Name,
		Role:          l.Role,
		OriginalPrice: l.OriginalPrice,
		ImageURL:      l.ImageURL,
		Condition:     l.Condition,
		Type:          l.Type,
		Attributes:    l.Attributes.Clone(),
	}

	if l.Role == RoleTradeIn {
		v := decimal.Zero
		if l.TradeValue != nil {
			v = *l.TradeValue
		}
		line.TradeValue = &v
	} else {
		p := l.SalePrice()
		line.NegotiatedPrice = &p
	}

	return line
}

// StampFromCatalog overwrites the snapshot's presentation fields with the
// current catalog values, keeping the submitted value where the catalog has
// none.
func (l *LineItem) StampFromCatalog(item Item, attrs Attributes) {
	if item.ImageURL != nil && *item.ImageURL != "" {
		l.ImageURL = item.ImageURL
	}
	if item.Condition != nil && *item.Condition != "" {
		l.Condition = item.Condition
	}
	if item.Type != "" {
		l.Type = item.Type
	}
	if len(attrs) > 0 {
		l.Attributes = attrs.Clone()
	}
}

type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}
