package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Domain constants
const (
	ServiceName    = "tradepost"
	LedgerDomain   = "ledger"
	LedgerExchange = "tradepost.ledger"
)

// Event names
const (
	ItemCreatedEvent            = "item.created"
	ItemUpdatedEvent            = "item.updated"
	ItemAttributesReplacedEvent = "item.attributes.replaced"
	ItemImageUploadedEvent      = "item.image.uploaded"
	TransactionCommittedEvent   = "transaction.committed"
	ReconciliationSavedEvent    = "reconciliation.saved"
)

// Event versions
const (
	EventVersionV1 = "v1"
)

type ItemPayload struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Condition *string         `json:"condition"`
	ImageURL  *string         `json:"imageUrl"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type ItemAttributesReplacedPayload struct {
	ItemID     string            `json:"itemId"`
	Attributes map[string]string `json:"attributes"`
	ReplacedAt time.Time         `json:"replacedAt"`
}

type LineItemPayload struct {
	ItemID          string            `json:"itemId"`
	Name            string            `json:"name"`
	Role            string            `json:"role"`
	Type            string            `json:"type"`
	TradeValue      *decimal.Decimal  `json:"tradeValue,omitempty"`
	NegotiatedPrice *decimal.Decimal  `json:"negotiatedPrice,omitempty"`
	OriginalPrice   decimal.Decimal   `json:"originalPrice"`
	Condition       *string           `json:"condition,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty"`
}

// TransactionCommittedPayload is published once a ledger commit is durable.
type TransactionCommittedPayload struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	CashIn     decimal.Decimal   `json:"cashIn"`
	CashOut    decimal.Decimal   `json:"cashOut"`
	Timestamp  time.Time         `json:"timestamp"`
	TerminalID string            `json:"terminalId,omitempty"`
	LineItems  []LineItemPayload `json:"lineItems"`
}

type ReconciliationSavedPayload struct {
	ID           string          `json:"id"`
	Date         time.Time       `json:"date"`
	ExpectedCash decimal.Decimal `json:"expectedCash"`
	ActualCash   decimal.Decimal `json:"actualCash"`
	Discrepancy  decimal.Decimal `json:"discrepancy"`
}
