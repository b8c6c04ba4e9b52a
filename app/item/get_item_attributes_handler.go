package item

import (
	"context"
	"tradepost/domain"
)

type GetItemAttributesHandler struct {
	repository Repository
}

func NewGetItemAttributesHandler(repository Repository) *GetItemAttributesHandler {
	return &GetItemAttributesHandler{
		repository: repository,
	}
}

type GetItemAttributesRequest struct {
	ItemID string `params:"itemId"`
}

type GetItemAttributesResponse struct {
	ItemID     string            `json:"itemId"`
	Attributes domain.Attributes `json:"attributes"`
}

func (h GetItemAttributesHandler) Handle(ctx context.Context, req *GetItemAttributesRequest) (*GetItemAttributesResponse, error) {
	// an unknown item is a 404, not an empty bag
	if _, err := h.repository.GetItem(ctx, req.ItemID); err != nil {
		return nil, toHTTPError("item.attributes.show", err)
	}

	attrs, err := h.repository.GetItemAttributes(ctx, req.ItemID)
	if err != nil {
		return nil, toHTTPError("item.attributes.show", err)
	}

	return &GetItemAttributesResponse{
		ItemID:     req.ItemID,
		Attributes: attrs,
	}, nil
}
