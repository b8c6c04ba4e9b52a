package item

import (
	"context"
	"tradepost/domain"
)

type GetItemHandler struct {
	repository Repository
}

func NewGetItemHandler(repository Repository) *GetItemHandler {
	return &GetItemHandler{
		repository: repository,
	}
}

type GetItemRequest struct {
	ItemID string `params:"itemId"`
}

type GetItemResponse struct {
	Item domain.InventoryItem `json:"item"`
}

func (h GetItemHandler) Handle(ctx context.Context, req *GetItemRequest) (*GetItemResponse, error) {
	item, err := h.repository.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, toHTTPError("item.show", err)
	}

	attrs, err := h.repository.GetItemAttributes(ctx, req.ItemID)
	if err != nil {
		return nil, toHTTPError("item.show", err)
	}

	return &GetItemResponse{
		Item: domain.InventoryItem{Item: item, Attributes: attrs},
	}, nil
}
