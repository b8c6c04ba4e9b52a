package app

import (
	"context"
	"time"
	"tradepost/domain"
	"tradepost/internal/middleware"
	"tradepost/pkg/events"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RecordTransactionHandler struct {
	ledger         *Ledger
	eventPublisher events.Publisher
}

func NewRecordTransactionHandler(ledger *Ledger, eventPublisher events.Publisher) *RecordTransactionHandler {
	return &RecordTransactionHandler{
		ledger:         ledger,
		eventPublisher: eventPublisher,
	}
}

type RecordTransactionRequest struct {
	Type      domain.TransactionType `json:"type" validate:"required,oneof=buy sell trade"`
	LineItems []domain.LineItemInput `json:"lineItems" validate:"required,min=1,dive"`
}

type RecordTransactionResponse struct {
	ID        string                 `json:"id"`
	Type      domain.TransactionType `json:"type"`
	CashIn    decimal.Decimal        `json:"cashIn"`
	CashOut   decimal.Decimal        `json:"cashOut"`
	Timestamp time.Time              `json:"timestamp"`
}

func (h RecordTransactionHandler) Handle(ctx context.Context, req *RecordTransactionRequest) (*RecordTransactionResponse, error) {
	if err := validateRequest("transaction.record", req); err != nil {
		return nil, err
	}

	terminalID := middleware.TerminalFromContext(ctx)

	tx, err := h.ledger.Commit(ctx, domain.NewDraft(req.Type, req.LineItems...))
	if err != nil {
		zap.L().Warn("Transaction commit failed",
			zap.String("type", string(req.Type)),
			zap.String("terminalId", terminalID),
			zap.Int("lineItems", len(req.LineItems)),
			zap.Error(err),
		)
		return nil, toHTTPError("transaction.record", err)
	}

	zap.L().Info("Transaction committed",
		zap.String("transactionId", tx.ID),
		zap.String("type", string(tx.Type)),
		zap.String("terminalId", terminalID),
		zap.String("cashIn", tx.CashIn.StringFixed(2)),
		zap.String("cashOut", tx.CashOut.StringFixed(2)),
	)

	events.Emit(ctx, h.eventPublisher, events.TransactionCommittedEvent, committedPayload(tx, terminalID), eventHeaders(ctx))

	return &RecordTransactionResponse{
		ID:        tx.ID,
		Type:      tx.Type,
		CashIn:    tx.CashIn,
		CashOut:   tx.CashOut,
		Timestamp: tx.Timestamp,
	}, nil
}

func committedPayload(tx domain.Transaction, terminalID string) events.TransactionCommittedPayload {
	lines := make([]events.LineItemPayload, 0, len(tx.LineItems))
	for _, l := range tx.LineItems {
		lines = append(lines, events.LineItemPayload{
			ItemID:          l.ItemID,
			Name:            l.Name,
			Role:            string(l.Role),
			Type:            l.Type,
			TradeValue:      l.TradeValue,
			NegotiatedPrice: l.NegotiatedPrice,
			OriginalPrice:   l.OriginalPrice,
			Condition:       l.Condition,
			Attributes:      l.Attributes,
		})
	}

	return events.TransactionCommittedPayload{
		ID:         tx.ID,
		Type:       string(tx.Type),
		CashIn:     tx.CashIn,
		CashOut:    tx.CashOut,
		Timestamp:  tx.Timestamp,
		TerminalID: terminalID,
		LineItems:  lines,
	}
}
