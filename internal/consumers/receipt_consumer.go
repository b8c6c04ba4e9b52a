package consumers

import (
	"context"
	"fmt"
	"strings"
	"tradepost/pkg/events"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceiptStore is the object storage receipts are archived into.
type ReceiptStore interface {
	Upload(key string, data []byte) error
}

// ReceiptEventHandler archives a plain-text receipt for every committed
// transaction. Uploads overwrite by key, so redelivery is harmless.
type ReceiptEventHandler struct {
	store ReceiptStore
}

func NewReceiptEventHandler(store ReceiptStore) *ReceiptEventHandler {
	return &ReceiptEventHandler{store: store}
}

func ReceiptKey(transactionID string) string {
	return "receipts/" + transactionID + ".txt"
}

func (h *ReceiptEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	zap.L().Info("Ledger event received",
		zap.String("event", event.Event),
		zap.String("version", event.Version),
		zap.String("traceId", event.TraceID),
	)

	switch event.Event {
	case events.TransactionCommittedEvent:
		return h.handleTransactionCommitted(ctx, event)
	default:
		zap.L().Warn("Unhandled ledger event type", zap.String("event", event.Event))
		return nil
	}
}

func (h *ReceiptEventHandler) handleTransactionCommitted(ctx context.Context, event *events.Event) error {
	var payload events.TransactionCommittedPayload
	if err := event.DecodePayload(&payload); err != nil {
		return err
	}
	if payload.ID == "" {
		return fmt.Errorf("%w - transaction id missing", events.ErrMalformedPayload)
	}
	if payload.TerminalID == "" {
		payload.TerminalID = event.TerminalID
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	key := ReceiptKey(payload.ID)
	if err := h.store.Upload(key, []byte(RenderReceipt(payload))); err != nil {
		return fmt.Errorf("failed to archive receipt %s: %w", payload.ID, err)
	}

	zap.L().Info("Receipt archived",
		zap.String("transactionId", payload.ID),
		zap.String("key", key),
		zap.String("traceId", event.TraceID),
	)
	return nil
}

// RenderReceipt formats a committed transaction for the till printer and
// the archive. Amounts are shown in GBP.
func RenderReceipt(tx events.TransactionCommittedPayload) string {
	var b strings.Builder

	fmt.Fprintln(&b, "TRADEPOST RECEIPT")
	fmt.Fprintf(&b, "Transaction: %s\n", tx.ID)
	fmt.Fprintf(&b, "Type:        %s\n", tx.Type)
	fmt.Fprintf(&b, "Date:        %s\n", tx.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"))
	if tx.TerminalID != "" {
		fmt.Fprintf(&b, "Terminal:    %s\n", tx.TerminalID)
	}
	fmt.Fprintln(&b)

	for _, line := range tx.LineItems {
		direction := "OUT"
		if line.Role == "trade_in" {
			direction = "IN "
		}
		fmt.Fprintf(&b, "%s %-32s %10s  %s\n", direction, truncate(line.Name, 32), gbp(linePrice(line)), line.Role)
	}

	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Cash in:  %s\n", gbp(tx.CashIn))
	fmt.Fprintf(&b, "Cash out: %s\n", gbp(tx.CashOut))
	fmt.Fprintf(&b, "Net:      %s\n", gbp(tx.CashIn.Sub(tx.CashOut)))

	return b.String()
}

func linePrice(line events.LineItemPayload) decimal.Decimal {
	switch {
	case line.Role == "trade_in" && line.TradeValue != nil:
		return *line.TradeValue
	case line.NegotiatedPrice != nil:
		return *line.NegotiatedPrice
	default:
		return line.OriginalPrice
	}
}

func gbp(amount decimal.Decimal) string {
	pence := amount.Shift(2).Round(0).IntPart()
	return money.New(pence, money.GBP).Display()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
