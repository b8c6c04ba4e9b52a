package app

import (
	"context"
	"tradepost/domain"
)

type GetReconciliationsHandler struct {
	repository Repository
}

func NewGetReconciliationsHandler(repository Repository) *GetReconciliationsHandler {
	return &GetReconciliationsHandler{
		repository: repository,
	}
}

type GetReconciliationsRequest struct{}

type GetReconciliationsResponse struct {
	Reconciliations []domain.ReconciliationRecord `json:"reconciliations"`
}

func (h GetReconciliationsHandler) Handle(ctx context.Context, req *GetReconciliationsRequest) (*GetReconciliationsResponse, error) {
	records, err := h.repository.GetReconciliations(ctx)
	if err != nil {
		return nil, toHTTPError("reconciliation.list", err)
	}

	return &GetReconciliationsResponse{
		Reconciliations: records,
	}, nil
}
