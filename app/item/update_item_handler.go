package item

import (
	"context"
	"tradepost/domain"
	"tradepost/pkg/events"

	"github.com/shopspring/decimal"
)

type UpdateItemHandler struct {
	repository     Repository
	eventPublisher events.Publisher
}

func NewUpdateItemHandler(repository Repository, eventPublisher events.Publisher) *UpdateItemHandler {
	return &UpdateItemHandler{
		repository:     repository,
		eventPublisher: eventPublisher,
	}
}

// UpdateItemRequest replaces the three mutable catalog fields. Stock is not
// one of them.
type UpdateItemRequest struct {
	ItemID    string          `params:"itemId" validate:"required"`
	Name      string          `json:"name" validate:"required,max=256"`
	Price     decimal.Decimal `json:"price"`
	Condition *string         `json:"condition" validate:"omitempty,max=64"`
}

type UpdateItemResponse struct {
	Item domain.Item `json:"item"`
}

func (h UpdateItemHandler) Handle(ctx context.Context, req *UpdateItemRequest) (*UpdateItemResponse, error) {
	if err := validateRequest("item.update", req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, toHTTPError("item.update", domain.NewValidationError("price", "must not be negative"))
	}

	item, err := h.repository.UpdateItem(ctx, req.ItemID, req.Name, req.Price, req.Condition)
	if err != nil {
		return nil, toHTTPError("item.update", err)
	}

	events.Emit(ctx, h.eventPublisher, events.ItemUpdatedEvent, itemPayload(item), eventHeaders(ctx))

	return &UpdateItemResponse{
		Item: item,
	}, nil
}
