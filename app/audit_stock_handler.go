package app

import (
	"context"
	"tradepost/domain"

	"go.uber.org/zap"
)

type AuditStockHandler struct {
	repository Repository
}

func NewAuditStockHandler(repository Repository) *AuditStockHandler {
	return &AuditStockHandler{
		repository: repository,
	}
}

type AuditStockRequest struct{}

type AuditStockResponse struct {
	Checked int                 `json:"checked"`
	Drift   []domain.StockDrift `json:"drift"`
}

// Handle replays the ledger against the catalog and reports every item whose
// stock does not match.
func (h AuditStockHandler) Handle(ctx context.Context, req *AuditStockRequest) (*AuditStockResponse, error) {
	rows, err := h.repository.StockLedger(ctx)
	if err != nil {
		return nil, toHTTPError("audit.stock", err)
	}

	drift := domain.AuditStock(rows)
	if len(drift) > 0 {
		zap.L().Warn("Stock drift detected", zap.Int("items", len(drift)))
	}

	return &AuditStockResponse{
		Checked: len(rows),
		Drift:   drift,
	}, nil
}
