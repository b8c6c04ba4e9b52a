package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

type ItemAttribute struct {
	ItemID    string    `json:"item_id" db:"item_id"`
	Key       string    `json:"key" db:"attr_key"`
	Value     string    `json:"value" db:"value"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Attributes is the key to value view of an item's attribute rows. It is also
// the frozen snapshot stored on each transaction line and is persisted as a
// flat JSON object there.
type Attributes map[string]string

func (a Attributes) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

func (a Attributes) Clone() Attributes {
	if a == nil {
		return Attributes{}
	}
	return maps.Clone(a)
}

// Rows expands the map into attribute rows for itemID in key order.
func (a Attributes) Rows(itemID string, now time.Time) []ItemAttribute {
	rows := make([]ItemAttribute, 0, len(a))
	for _, k := range a.Keys() {
		rows = append(rows, ItemAttribute{ItemID: itemID, Key: k, Value: a[k], CreatedAt: now})
	}
	return rows
}

func AttributesFromRows(rows []ItemAttribute) Attributes {
	attrs := make(Attributes, len(rows))
	for _, r := range rows {
		attrs[r.Key] = r.Value
	}
	return attrs
}

func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Attributes) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*a = Attributes{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("attributes: unsupported source type %T", src)
	}

	m := make(map[string]string)
	if len(b) > 0 {
		if err := json.Unmarshal(b, &m); err != nil {
			return fmt.Errorf("attributes: %w", err)
		}
	}
	*a = m
	return nil
}
