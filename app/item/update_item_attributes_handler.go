package item

import (
	"context"
	"time"
	"tradepost/domain"
	"tradepost/pkg/events"

	"go.uber.org/zap"
)

type UpdateItemAttributesHandler struct {
	repository     Repository
	schemas        *domain.SchemaRegistry
	eventPublisher events.Publisher
}

func NewUpdateItemAttributesHandler(repository Repository, schemas *domain.SchemaRegistry, eventPublisher events.Publisher) *UpdateItemAttributesHandler {
	return &UpdateItemAttributesHandler{
		repository:     repository,
		schemas:        schemas,
		eventPublisher: eventPublisher,
	}
}

type UpdateItemAttributesRequest struct {
	ItemID     string            `params:"itemId" validate:"required"`
	Attributes domain.Attributes `json:"attributes"`
}

type UpdateItemAttributesResponse struct {
	ItemID     string            `json:"itemId"`
	Attributes domain.Attributes `json:"attributes"`
}

// Handle replaces the whole attribute bag. The item type picks the schema
// the new bag is checked against.
func (h UpdateItemAttributesHandler) Handle(ctx context.Context, req *UpdateItemAttributesRequest) (*UpdateItemAttributesResponse, error) {
	if err := validateRequest("item.attributes.update", req); err != nil {
		return nil, err
	}

	item, err := h.repository.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, toHTTPError("item.attributes.update", err)
	}

	attrs := req.Attributes.Clone()
	if err := h.schemas.Validate(item.Type, attrs); err != nil {
		return nil, toHTTPError("item.attributes.update", err)
	}

	if err := h.repository.ReplaceItemAttributes(ctx, req.ItemID, attrs); err != nil {
		zap.L().Error("Failed to replace item attributes", zap.String("itemId", req.ItemID), zap.Error(err))
		return nil, toHTTPError("item.attributes.update", err)
	}

	events.Emit(ctx, h.eventPublisher, events.ItemAttributesReplacedEvent, events.ItemAttributesReplacedPayload{
		ItemID:     req.ItemID,
		Attributes: attrs,
		ReplacedAt: time.Now().UTC(),
	}, eventHeaders(ctx))

	return &UpdateItemAttributesResponse{
		ItemID:     req.ItemID,
		Attributes: attrs,
	}, nil
}
