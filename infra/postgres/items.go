package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"tradepost/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const itemColumns = `id, type, name, price, stock, initial_stock, image_url, condition_grade, created_at, updated_at`

func (r *PgRepository) AddItem(ctx context.Context, item domain.Item, attributes domain.Attributes, check func(itemType string) error) (domain.Item, bool, error) {
	var (
		stored  domain.Item
		created bool
	)

	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		stored, created, err = insertItem(ctx, tx, item)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(stored.Type); err != nil {
				return err
			}
		}
		return insertMissingAttributes(ctx, tx, stored.ID, attributes, item.CreatedAt)
	})
	if err != nil {
		return domain.Item{}, false, err
	}

	return stored, created, nil
}

// insertItem inserts item unless its id is taken, in which case the stored
// row is returned untouched. Either way the row is locked for the caller's
// transaction.
func insertItem(ctx context.Context, tx *sqlx.Tx, item domain.Item) (domain.Item, bool, error) {
	existing, err := lockItem(ctx, tx, item.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Item{}, false, err
	}

	if _, err := tx.ExecContext(ctx, `SAVEPOINT add_item`); err != nil {
		return domain.Item{}, false, domain.Persistence(err)
	}

	query := `
		INSERT INTO items (
			id, type, name, price, stock, initial_stock,
			image_url, condition_grade, created_at, updated_at
		) VALUES (
			:id, :type, :name, :price, :stock, :initial_stock,
			:image_url, :condition_grade, :created_at, :updated_at
		)`

	if _, err := tx.NamedExecContext(ctx, query, item); err != nil {
		if !isUniqueViolation(err) {
			return domain.Item{}, false, domain.Persistence(err)
		}
		// another till added the same id in the meantime
		if _, err := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT add_item`); err != nil {
			return domain.Item{}, false, domain.Persistence(err)
		}
		existing, err := lockItem(ctx, tx, item.ID)
		return existing, false, err
	}

	return item, true, nil
}

// insertMissingAttributes adds every key the item does not have yet and
// leaves existing keys as they are. The item row must be locked.
func insertMissingAttributes(ctx context.Context, tx *sqlx.Tx, itemID string, attributes domain.Attributes, now time.Time) error {
	query := `
		INSERT INTO item_attributes (item_id, attr_key, value, created_at)
		SELECT $1::text, $2::text, $3::text, $4::timestamptz
		WHERE NOT EXISTS (
			SELECT 1 FROM item_attributes WHERE item_id = $1 AND attr_key = $2
		)`

	for _, row := range attributes.Rows(itemID, now) {
		if _, err := tx.ExecContext(ctx, query, row.ItemID, row.Key, row.Value, row.CreatedAt); err != nil {
			return domain.Persistence(err)
		}
	}
	return nil
}

func lockItem(ctx context.Context, tx *sqlx.Tx, id string) (domain.Item, error) {
	var i domain.Item
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 FOR UPDATE`

	if err := tx.GetContext(ctx, &i, query, id); err != nil {
		return i, notFoundOr(err, "item", id)
	}
	return i, nil
}

func (r *PgRepository) GetItem(ctx context.Context, id string) (domain.Item, error) {
	var i domain.Item
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	if err := r.db.GetContext(ctx, &i, query, id); err != nil {
		return i, notFoundOr(err, "item", id)
	}
	return i, nil
}

func (r *PgRepository) UpdateItem(ctx context.Context, id, name string, price decimal.Decimal, condition *string) (domain.Item, error) {
	var i domain.Item
	query := `
		UPDATE items
		SET name = $2, price = $3, condition_grade = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + itemColumns

	if err := r.db.GetContext(ctx, &i, query, id, name, price, condition); err != nil {
		return i, notFoundOr(err, "item", id)
	}
	return i, nil
}

func (r *PgRepository) SetItemImage(ctx context.Context, id, imageURL string) (domain.Item, error) {
	var i domain.Item
	query := `UPDATE items SET image_url = $2, updated_at = now() WHERE id = $1 RETURNING ` + itemColumns

	if err := r.db.GetContext(ctx, &i, query, id, imageURL); err != nil {
		return i, notFoundOr(err, "item", id)
	}
	return i, nil
}

func (r *PgRepository) GetItemAttributes(ctx context.Context, itemID string) (domain.Attributes, error) {
	return itemAttributes(ctx, r.db, itemID)
}

func itemAttributes(ctx context.Context, q sqlx.QueryerContext, itemID string) (domain.Attributes, error) {
	rows := make([]domain.ItemAttribute, 0)
	query := `SELECT item_id, attr_key, value, created_at FROM item_attributes WHERE item_id = $1 ORDER BY attr_key`

	if err := sqlx.SelectContext(ctx, q, &rows, query, itemID); err != nil {
		return nil, domain.Persistence(err)
	}
	return domain.AttributesFromRows(rows), nil
}

func (r *PgRepository) ReplaceItemAttributes(ctx context.Context, itemID string, attributes domain.Attributes) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := lockItem(ctx, tx, itemID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM item_attributes WHERE item_id = $1`, itemID); err != nil {
			return domain.Persistence(err)
		}

		rows := attributes.Rows(itemID, time.Now().UTC())
		if len(rows) == 0 {
			return nil
		}

		query := `INSERT INTO item_attributes (item_id, attr_key, value, created_at) VALUES (:item_id, :attr_key, :value, :created_at)`
		if _, err := tx.NamedExecContext(ctx, query, rows); err != nil {
			return domain.Persistence(err)
		}
		return nil
	})
}

func (r *PgRepository) QueryInventory(ctx context.Context, query domain.InventoryQuery) ([]domain.InventoryItem, int, error) {
	if err := query.Validate(); err != nil {
		return nil, 0, err
	}

	// substring match on the name or any attribute value; a sequential scan
	// over item_attributes, fine for a single shop's catalog
	where := `
		WHERE (LOWER(i.name) LIKE $1 ESCAPE '!'
			OR EXISTS (
				SELECT 1 FROM item_attributes a
				WHERE a.item_id = i.id AND LOWER(a.value) LIKE $1 ESCAPE '!'
			))
		AND (NOT $2::boolean OR i.stock > 0)`
	pattern := likePattern(query.Search)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM items i`+where, pattern, query.OnlyInStock); err != nil {
		return nil, 0, domain.Persistence(err)
	}

	items := make([]domain.Item, 0)
	page := `SELECT ` + prefixed("i.", itemColumns) + ` FROM items i` + where + ` ORDER BY i.name ASC, i.id ASC LIMIT $3 OFFSET $4`
	if err := r.db.SelectContext(ctx, &items, page, pattern, query.OnlyInStock, query.Limit, query.Offset()); err != nil {
		return nil, 0, domain.Persistence(err)
	}

	result := make([]domain.InventoryItem, 0, len(items))
	if len(items) == 0 {
		return result, total, nil
	}

	ids := make([]string, len(items))
	for n, it := range items {
		ids[n] = it.ID
	}

	rows := make([]domain.ItemAttribute, 0)
	attrQuery := `SELECT item_id, attr_key, value, created_at FROM item_attributes WHERE item_id = ANY($1)`
	if err := r.db.SelectContext(ctx, &rows, attrQuery, pq.Array(ids)); err != nil {
		return nil, 0, domain.Persistence(err)
	}

	byItem := make(map[string]domain.Attributes, len(items))
	for _, row := range rows {
		if byItem[row.ItemID] == nil {
			byItem[row.ItemID] = domain.Attributes{}
		}
		byItem[row.ItemID][row.Key] = row.Value
	}

	for _, it := range items {
		attrs := byItem[it.ID]
		if attrs == nil {
			attrs = domain.Attributes{}
		}
		result = append(result, domain.InventoryItem{Item: it, Attributes: attrs})
	}

	return result, total, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ", ")
	for n, p := range parts {
		parts[n] = prefix + p
	}
	return strings.Join(parts, ", ")
}

func notFoundOr(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(kind, id)
	}
	return domain.Persistence(err)
}
