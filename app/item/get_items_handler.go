package item

import (
	"context"
	"tradepost/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

type GetItemsHandler struct {
	repository Repository
}

func NewGetItemsHandler(repository Repository) *GetItemsHandler {
	return &GetItemsHandler{
		repository: repository,
	}
}

type GetItemsRequest struct {
	Search  string `query:"search" validate:"max=256"`
	InStock bool   `query:"inStock"`
	Page    int    `query:"page" validate:"min=0"`
	Limit   int    `query:"limit" validate:"min=0,max=200"`
}

type GetItemsResponse struct {
	Items []domain.InventoryItem `json:"items"`
	Total int                    `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

func (h GetItemsHandler) Handle(ctx context.Context, req *GetItemsRequest) (*GetItemsResponse, error) {
	if err := validateRequest("item.list", req); err != nil {
		return nil, err
	}

	query := domain.InventoryQuery{
		Search:      req.Search,
		OnlyInStock: req.InStock,
		Page:        req.Page,
		Limit:       req.Limit,
	}
	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = defaultPageSize
	}
	query.Limit = min(query.Limit, maxPageSize)

	items, total, err := h.repository.QueryInventory(ctx, query)
	if err != nil {
		return nil, toHTTPError("item.list", err)
	}

	return &GetItemsResponse{
		Items: items,
		Total: total,
		Page:  query.Page,
		Limit: query.Limit,
	}, nil
}
