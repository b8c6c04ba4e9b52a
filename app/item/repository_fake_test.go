package item

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
	"tradepost/domain"

	"github.com/shopspring/decimal"
)

type fakeRepository struct {
	mu       sync.Mutex
	items    map[string]domain.Item
	attrs    map[string]domain.Attributes
	writeErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		items: make(map[string]domain.Item),
		attrs: make(map[string]domain.Attributes),
	}
}

func (r *fakeRepository) AddItem(ctx context.Context, item domain.Item, attributes domain.Attributes, check func(itemType string) error) (domain.Item, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return domain.Item{}, false, domain.Persistence(r.writeErr)
	}

	existing, ok := r.items[item.ID]
	if !ok {
		existing = item
	}
	if check != nil {
		if err := check(existing.Type); err != nil {
			return domain.Item{}, false, err
		}
	}
	if !ok {
		r.items[item.ID] = item
	}

	bag := r.attrs[item.ID]
	if bag == nil {
		bag = domain.Attributes{}
	}
	for k, v := range attributes {
		if _, taken := bag[k]; !taken {
			bag[k] = v
		}
	}
	r.attrs[item.ID] = bag

	return existing, !ok, nil
}

func (r *fakeRepository) GetItem(ctx context.Context, id string) (domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return domain.Item{}, domain.NotFound("item", id)
	}
	return item, nil
}

func (r *fakeRepository) UpdateItem(ctx context.Context, id, name string, price decimal.Decimal, condition *string) (domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return domain.Item{}, domain.NotFound("item", id)
	}
	item.Name, item.Price, item.Condition = name, price, condition
	item.UpdatedAt = time.Now().UTC()
	r.items[id] = item
	return item, nil
}

func (r *fakeRepository) SetItemImage(ctx context.Context, id, imageURL string) (domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return domain.Item{}, domain.Persistence(r.writeErr)
	}
	item, ok := r.items[id]
	if !ok {
		return domain.Item{}, domain.NotFound("item", id)
	}
	item.ImageURL = &imageURL
	r.items[id] = item
	return item, nil
}

func (r *fakeRepository) GetItemAttributes(ctx context.Context, itemID string) (domain.Attributes, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attrs[itemID].Clone(), nil
}

func (r *fakeRepository) ReplaceItemAttributes(ctx context.Context, itemID string, attributes domain.Attributes) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return domain.Persistence(r.writeErr)
	}
	if _, ok := r.items[itemID]; !ok {
		return domain.NotFound("item", itemID)
	}
	r.attrs[itemID] = attributes.Clone()
	return nil
}

func (r *fakeRepository) QueryInventory(ctx context.Context, query domain.InventoryQuery) ([]domain.InventoryItem, int, error) {
	if err := query.Validate(); err != nil {
		return nil, 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	needle := strings.ToLower(query.Search)
	matches := make([]domain.InventoryItem, 0)
	for id, item := range r.items {
		if query.OnlyInStock && item.Stock <= 0 {
			continue
		}
		hit := strings.Contains(strings.ToLower(item.Name), needle)
		for _, v := range r.attrs[id] {
			hit = hit || strings.Contains(strings.ToLower(v), needle)
		}
		if hit {
			matches = append(matches, domain.InventoryItem{Item: item, Attributes: r.attrs[id].Clone()})
		}
	}
	slices.SortFunc(matches, func(a, b domain.InventoryItem) int { return strings.Compare(a.Name, b.Name) })

	total := len(matches)
	start := min(query.Offset(), total)
	end := min(start+query.Limit, total)
	return matches[start:end], total, nil
}

type fakeObjectStore struct {
	objects   map[string][]byte
	uploadErr error
}

func (s *fakeObjectStore) Upload(key string, data []byte) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[key] = data
	return nil
}

func (s *fakeObjectStore) Delete(key string) error {
	delete(s.objects, key)
	return nil
}

func (s *fakeObjectStore) URL(key string) string {
	return "https://cdn.test/" + key
}

var errDiskFull = errors.New("disk full")
