package item

import (
	"context"
	"errors"
	"time"
	"tradepost/domain"
	"tradepost/pkg/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateItemHandler struct {
	repository     Repository
	schemas        *domain.SchemaRegistry
	eventPublisher events.Publisher
}

type CreateItemRequest struct {
	ID         string            `json:"id" validate:"omitempty,max=128"`
	Type       string            `json:"type" validate:"required,max=64"`
	Name       string            `json:"name" validate:"required,max=256"`
	Price      decimal.Decimal   `json:"price"`
	Stock      *int              `json:"stock,omitempty" validate:"omitempty,min=0"`
	ImageURL   *string           `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Condition  *string           `json:"condition,omitempty" validate:"omitempty,max=64"`
	Attributes domain.Attributes `json:"attributes,omitempty"`
}

type CreateItemResponse struct {
	Item    domain.InventoryItem `json:"item"`
	Created bool                 `json:"created"`
}

func NewCreateItemHandler(repository Repository, schemas *domain.SchemaRegistry, eventPublisher events.Publisher) *CreateItemHandler {
	return &CreateItemHandler{
		repository:     repository,
		schemas:        schemas,
		eventPublisher: eventPublisher,
	}
}

func (h CreateItemHandler) Handle(ctx context.Context, req *CreateItemRequest) (*CreateItemResponse, error) {
	if err := validateRequest("item.create", req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, toHTTPError("item.create", domain.NewValidationError("price", "must not be negative"))
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	stock := domain.DefaultStock
	if req.Stock != nil {
		stock = *req.Stock
	}

	now := time.Now().UTC()
	item := domain.Item{
		ID:           id,
		Type:         req.Type,
		Name:         req.Name,
		Price:        req.Price,
		Stock:        stock,
		ImageURL:     req.ImageURL,
		Condition:    req.Condition,
		InitialStock: stock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	check := func(itemType string) error {
		return h.schemas.Validate(itemType, req.Attributes)
	}

	stored, created, err := h.repository.AddItem(ctx, item, req.Attributes, check)
	if err != nil {
		if !errors.Is(err, domain.ErrValidation) {
			zap.L().Error("Failed to add item", zap.String("itemId", id), zap.Error(err))
		}
		return nil, toHTTPError("item.create", err)
	}

	attrs, err := h.repository.GetItemAttributes(ctx, stored.ID)
	if err != nil {
		return nil, toHTTPError("item.create", err)
	}

	if created {
		events.Emit(ctx, h.eventPublisher, events.ItemCreatedEvent, itemPayload(stored), eventHeaders(ctx))
	} else {
		zap.L().Info("Item already catalogued, add ignored", zap.String("itemId", stored.ID))
	}

	return &CreateItemResponse{
		Item:    domain.InventoryItem{Item: stored, Attributes: attrs},
		Created: created,
	}, nil
}
