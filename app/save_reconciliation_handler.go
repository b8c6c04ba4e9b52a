package app

import (
	"context"
	"time"
	"tradepost/domain"
	"tradepost/pkg/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SaveReconciliationHandler struct {
	repository     Repository
	eventPublisher events.Publisher
}

func NewSaveReconciliationHandler(repository Repository, eventPublisher events.Publisher) *SaveReconciliationHandler {
	return &SaveReconciliationHandler{
		repository:     repository,
		eventPublisher: eventPublisher,
	}
}

// SaveReconciliationRequest is a physical cash count. The ledger totals are
// never taken from the caller; StartDate and EndDate pick the ledger window
// and default to the whole ledger.
type SaveReconciliationRequest struct {
	Date         *time.Time      `json:"date,omitempty"`
	StartingCash decimal.Decimal `json:"startingCash"`
	ActualCash   decimal.Decimal `json:"actualCash"`
	Notes        string          `json:"notes" validate:"max=2048"`
	StartDate    string          `json:"startDate,omitempty"`
	EndDate      string          `json:"endDate,omitempty"`
}

type SaveReconciliationResponse struct {
	Reconciliation domain.ReconciliationRecord `json:"reconciliation"`
}

func (h SaveReconciliationHandler) Handle(ctx context.Context, req *SaveReconciliationRequest) (*SaveReconciliationResponse, error) {
	if err := validateRequest("reconciliation.save", req); err != nil {
		return nil, err
	}
	if req.StartingCash.IsNegative() {
		return nil, toHTTPError("reconciliation.save", domain.NewValidationError("startingCash", "must not be negative"))
	}
	if req.ActualCash.IsNegative() {
		return nil, toHTTPError("reconciliation.save", domain.NewValidationError("actualCash", "must not be negative"))
	}

	r, err := domain.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, toHTTPError("reconciliation.save", err)
	}

	totals, err := h.repository.GetCashTotals(ctx, r)
	if err != nil {
		return nil, toHTTPError("reconciliation.save", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	date := now
	if req.Date != nil {
		date = req.Date.UTC()
	}

	record := domain.NewReconciliation(date, req.StartingCash, req.ActualCash, totals, req.Notes)
	record.ID = uuid.NewString()
	record.CreatedAt = now

	if err := h.repository.SaveReconciliation(ctx, record); err != nil {
		zap.L().Error("Failed to save reconciliation", zap.Error(err))
		return nil, toHTTPError("reconciliation.save", err)
	}

	if !record.Discrepancy.IsZero() {
		zap.L().Warn("Cash discrepancy recorded",
			zap.String("reconciliationId", record.ID),
			zap.String("expected", record.ExpectedCash.StringFixed(2)),
			zap.String("actual", record.ActualCash.StringFixed(2)),
			zap.String("discrepancy", record.Discrepancy.StringFixed(2)),
		)
	}

	events.Emit(ctx, h.eventPublisher, events.ReconciliationSavedEvent, events.ReconciliationSavedPayload{
		ID:           record.ID,
		Date:         record.Date,
		ExpectedCash: record.ExpectedCash,
		ActualCash:   record.ActualCash,
		Discrepancy:  record.Discrepancy,
	}, eventHeaders(ctx))

	return &SaveReconciliationResponse{
		Reconciliation: record,
	}, nil
}
