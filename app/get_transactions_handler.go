package app

import (
	"context"
	"tradepost/domain"
)

const (
	defaultTransactionPageSize = 50
	maxTransactionPageSize     = 200
)

type GetTransactionsHandler struct {
	repository Repository
}

func NewGetTransactionsHandler(repository Repository) *GetTransactionsHandler {
	return &GetTransactionsHandler{
		repository: repository,
	}
}

type GetTransactionsRequest struct {
	Page  int `query:"page" validate:"min=0"`
	Limit int `query:"limit" validate:"min=0,max=200"`
}

type GetTransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Total        int                  `json:"total"`
	Page         int                  `json:"page"`
	Limit        int                  `json:"limit"`
}

// Handle lists committed transactions newest first with their line items.
func (h GetTransactionsHandler) Handle(ctx context.Context, req *GetTransactionsRequest) (*GetTransactionsResponse, error) {
	if err := validateRequest("transaction.list", req); err != nil {
		return nil, err
	}

	page := domain.Page{Page: req.Page, Limit: req.Limit}
	if page.Page == 0 {
		page.Page = 1
	}
	if page.Limit == 0 {
		page.Limit = defaultTransactionPageSize
	}
	page.Limit = min(page.Limit, maxTransactionPageSize)

	txs, total, err := h.repository.GetTransactions(ctx, page)
	if err != nil {
		return nil, toHTTPError("transaction.list", err)
	}

	return &GetTransactionsResponse{
		Transactions: txs,
		Total:        total,
		Page:         page.Page,
		Limit:        page.Limit,
	}, nil
}
