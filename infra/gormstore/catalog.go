package gormstore

import (
	"context"
	"errors"
	"strings"
	"time"
	"tradepost/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) AddItem(ctx context.Context, item domain.Item, attributes domain.Attributes, check func(itemType string) error) (domain.Item, bool, error) {
	var (
		stored  domain.Item
		created bool
	)

	err := s.inTx(ctx, func(tx *gorm.DB) error {
		existing, err := findItem(tx, s.lockClause(), item.ID)
		switch {
		case err == nil:
			stored = existing.toDomain()
		case errors.Is(err, domain.ErrNotFound):
			rec := newItemRecord(item)
			if err := tx.Create(&rec).Error; err != nil {
				if !errors.Is(err, gorm.ErrDuplicatedKey) {
					return domain.Persistence(err)
				}
				// lost the race against another till
				existing, err := findItem(tx, s.lockClause(), item.ID)
				if err != nil {
					return err
				}
				stored = existing.toDomain()
			} else {
				stored, created = rec.toDomain(), true
			}
		default:
			return err
		}

		if check != nil {
			if err := check(stored.Type); err != nil {
				return err
			}
		}
		return insertMissingAttributes(tx, item.ID, attributes, item.CreatedAt)
	})
	if err != nil {
		return domain.Item{}, false, err
	}

	return stored, created, nil
}

// insertMissingAttributes adds the keys the item does not have yet and
// leaves the rest alone.
func insertMissingAttributes(tx *gorm.DB, itemID string, attributes domain.Attributes, now time.Time) error {
	rows := attributes.Rows(itemID, now)
	if len(rows) == 0 {
		return nil
	}

	records := make([]attributeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, attributeRecord{ItemID: row.ItemID, Key: row.Key, Value: row.Value, CreatedAt: row.CreatedAt})
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}, {Name: "attr_key"}},
		DoNothing: true,
	}).Create(&records).Error
	if err != nil {
		return domain.Persistence(err)
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, id string) (domain.Item, error) {
	rec, err := findItem(s.db.WithContext(ctx), nil, id)
	if err != nil {
		return domain.Item{}, err
	}
	return rec.toDomain(), nil
}

func (s *Store) UpdateItem(ctx context.Context, id, name string, price decimal.Decimal, condition *string) (domain.Item, error) {
	return s.updateItem(ctx, id, map[string]any{
		"name":            name,
		"price":           price,
		"condition_grade": condition,
	})
}

func (s *Store) SetItemImage(ctx context.Context, id, imageURL string) (domain.Item, error) {
	return s.updateItem(ctx, id, map[string]any{"image_url": imageURL})
}

func (s *Store) updateItem(ctx context.Context, id string, fields map[string]any) (domain.Item, error) {
	var updated itemRecord

	err := s.inTx(ctx, func(tx *gorm.DB) error {
		rec, err := findItem(tx, s.lockClause(), id)
		if err != nil {
			return err
		}

		fields["updated_at"] = time.Now().UTC()
		if err := tx.Model(&rec).Updates(fields).Error; err != nil {
			return domain.Persistence(err)
		}

		updated, err = findItem(tx, nil, id)
		return err
	})
	if err != nil {
		return domain.Item{}, err
	}

	return updated.toDomain(), nil
}

func (s *Store) GetItemAttributes(ctx context.Context, itemID string) (domain.Attributes, error) {
	return itemAttributes(s.db.WithContext(ctx), itemID)
}

func itemAttributes(tx *gorm.DB, itemID string) (domain.Attributes, error) {
	var records []attributeRecord
	if err := tx.Where("item_id = ?", itemID).Order("attr_key").Find(&records).Error; err != nil {
		return nil, domain.Persistence(err)
	}
	return attributesFromRecords(records), nil
}

func (s *Store) ReplaceItemAttributes(ctx context.Context, itemID string, attributes domain.Attributes) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		if _, err := findItem(tx, s.lockClause(), itemID); err != nil {
			return err
		}

		if err := tx.Where("item_id = ?", itemID).Delete(&attributeRecord{}).Error; err != nil {
			return domain.Persistence(err)
		}

		rows := attributes.Rows(itemID, time.Now().UTC())
		if len(rows) == 0 {
			return nil
		}

		records := make([]attributeRecord, 0, len(rows))
		for _, row := range rows {
			records = append(records, attributeRecord{ItemID: row.ItemID, Key: row.Key, Value: row.Value, CreatedAt: row.CreatedAt})
		}
		if err := tx.Create(&records).Error; err != nil {
			return domain.Persistence(err)
		}
		return nil
	})
}

func (s *Store) QueryInventory(ctx context.Context, query domain.InventoryQuery) ([]domain.InventoryItem, int, error) {
	if err := query.Validate(); err != nil {
		return nil, 0, err
	}

	pattern := likePattern(query.Search)
	lower := s.lowerFunc()
	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where(
			"("+lower+"(name) LIKE ? ESCAPE '!' OR EXISTS (SELECT 1 FROM item_attributes a WHERE a.item_id = items.id AND "+lower+"(a.value) LIKE ? ESCAPE '!'))",
			pattern, pattern,
		)
		if query.OnlyInStock {
			db = db.Where("stock > 0")
		}
		return db
	}

	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&itemRecord{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, domain.Persistence(err)
	}

	var records []itemRecord
	err := db.Scopes(filter).
		Preload("Attributes").
		Order("name ASC, id ASC").
		Limit(query.Limit).
		Offset(query.Offset()).
		Find(&records).Error
	if err != nil {
		return nil, 0, domain.Persistence(err)
	}

	items := make([]domain.InventoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, domain.InventoryItem{Item: rec.toDomain(), Attributes: attributesFromRecords(rec.Attributes)})
	}

	return items, int(total), nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}
