package gormstore

import (
	"time"
	"tradepost/domain"

	"github.com/shopspring/decimal"
)

type itemRecord struct {
	ID             string          `gorm:"primaryKey;size:128"`
	Type           string          `gorm:"size:64;not null"`
	Name           string          `gorm:"size:256;not null;index"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock          int             `gorm:"not null;check:chk_items_stock,stock >= 0"`
	InitialStock   int             `gorm:"not null"`
	ImageURL       *string         `gorm:"size:1024"`
	ConditionGrade *string         `gorm:"size:64"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Attributes []attributeRecord `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

func (itemRecord) TableName() string { return "items" }

func newItemRecord(i domain.Item) itemRecord {
	return itemRecord{
		ID:             i.ID,
		Type:           i.Type,
		Name:           i.Name,
		Price:          i.Price,
		Stock:          i.Stock,
		InitialStock:   i.InitialStock,
		ImageURL:       i.ImageURL,
		ConditionGrade: i.Condition,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

func (r itemRecord) toDomain() domain.Item {
	return domain.Item{
		ID:           r.ID,
		Type:         r.Type,
		Name:         r.Name,
		Price:        r.Price,
		Stock:        r.Stock,
		ImageURL:     r.ImageURL,
		Condition:    r.ConditionGrade,
		InitialStock: r.InitialStock,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type attributeRecord struct {
	ItemID    string `gorm:"primaryKey;size:128"`
	Key       string `gorm:"column:attr_key;primaryKey;size:64"`
	Value     string `gorm:"size:512;not null"`
	CreatedAt time.Time
}

func (attributeRecord) TableName() string { return "item_attributes" }

func attributesFromRecords(records []attributeRecord) domain.Attributes {
	attrs := make(domain.Attributes, len(records))
	for _, r := range records {
		attrs[r.Key] = r.Value
	}
	return attrs
}

type transactionRecord struct {
	ID          string          `gorm:"primaryKey;size:64"`
	Type        string          `gorm:"size:16;not null"`
	CashIn      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CashOut     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CommittedAt time.Time       `gorm:"not null;index"`

	LineItems []lineItemRecord `gorm:"foreignKey:TransactionID"`
}

func (transactionRecord) TableName() string { return "transactions" }

func (r transactionRecord) toDomain() domain.Transaction {
	tx := domain.Transaction{
		ID:        r.ID,
		Type:      domain.TransactionType(r.Type),
		CashIn:    r.CashIn,
		CashOut:   r.CashOut,
		Timestamp: r.CommittedAt.UTC(),
		LineItems: make([]domain.LineItem, 0, len(r.LineItems)),
	}
	for _, l := range r.LineItems {
		tx.LineItems = append(tx.LineItems, l.toDomain())
	}
	return tx
}

type lineItemRecord struct {
	TransactionID   string            `gorm:"primaryKey;size:64"`
	Position        int               `gorm:"primaryKey;autoIncrement:false"`
	ItemID          string            `gorm:"size:128;not null;index"`
	Name            string            `gorm:"size:256;not null"`
	Role            string            `gorm:"size:16;not null"`
	TradeValue      *decimal.Decimal  `gorm:"type:decimal(12,2)"`
	NegotiatedPrice *decimal.Decimal  `gorm:"type:decimal(12,2)"`
	OriginalPrice   decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	ImageURL        *string           `gorm:"size:1024"`
	ConditionGrade  *string           `gorm:"size:64"`
	Type            string            `gorm:"size:64;not null"`
	Attributes      domain.Attributes `gorm:"type:text;not null"`
}

func (lineItemRecord) TableName() string { return "transaction_line_items" }

func newLineItemRecord(l domain.LineItem) lineItemRecord {
	return lineItemRecord{
		TransactionID:   l.TransactionID,
		Position:        l.Position,
		ItemID:          l.ItemID,
		Name:            l.Name,
		Role:            string(l.Role),
		TradeValue:      l.TradeValue,
		NegotiatedPrice: l.NegotiatedPrice,
		OriginalPrice:   l.OriginalPrice,
		ImageURL:        l.ImageURL,
		ConditionGrade:  l.Condition,
		Type:            l.Type,
		Attributes:      l.Attributes,
	}
}

func (r lineItemRecord) toDomain() domain.LineItem {
	return domain.LineItem{
		TransactionID:   r.TransactionID,
		Position:        r.Position,
		ItemID:          r.ItemID,
		Name:            r.Name,
		Role:            domain.Role(r.Role),
		TradeValue:      r.TradeValue,
		NegotiatedPrice: r.NegotiatedPrice,
		OriginalPrice:   r.OriginalPrice,
		ImageURL:        r.ImageURL,
		Condition:       r.ConditionGrade,
		Type:            r.Type,
		Attributes:      r.Attributes,
	}
}

type reconciliationRecord struct {
	ID           string          `gorm:"primaryKey;size:64"`
	ReconciledAt time.Time       `gorm:"not null;index"`
	StartingCash decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalCashIn  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalCashOut decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ExpectedCash decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ActualCash   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discrepancy  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notes        string          `gorm:"type:text"`
	CreatedAt    time.Time
}

func (reconciliationRecord) TableName() string { return "reconciliations" }

func newReconciliationRecord(r domain.ReconciliationRecord) reconciliationRecord {
	return reconciliationRecord{
		ID:           r.ID,
		ReconciledAt: r.Date,
		StartingCash: r.StartingCash,
		TotalCashIn:  r.TotalCashIn,
		TotalCashOut: r.TotalCashOut,
		ExpectedCash: r.ExpectedCash,
		ActualCash:   r.ActualCash,
		Discrepancy:  r.Discrepancy,
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt,
	}
}

func (r reconciliationRecord) toDomain() domain.ReconciliationRecord {
	return domain.ReconciliationRecord{
		ID:           r.ID,
		Date:         r.ReconciledAt.UTC(),
		StartingCash: r.StartingCash,
		TotalCashIn:  r.TotalCashIn,
		TotalCashOut: r.TotalCashOut,
		ExpectedCash: r.ExpectedCash,
		ActualCash:   r.ActualCash,
		Discrepancy:  r.Discrepancy,
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}
