package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Emit publishes a v1 event for a change that is already durable. Failures
// are logged and swallowed; a nil publisher disables publishing.
func Emit(ctx context.Context, publisher Publisher, eventName string, payload any, headers Headers) {
	if publisher == nil {
		return
	}

	event, err := NewEvent(eventName, EventVersionV1, payload, headers)
	if err != nil {
		zap.L().Error("Failed to build event", zap.String("event", eventName), zap.Error(err))
		return
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := publisher.Publish(publishCtx, LedgerExchange, event, headers); err != nil {
		zap.L().Error("Failed to publish event",
			zap.String("event", eventName),
			zap.String("traceId", headers.TraceID),
			zap.Error(err),
		)
	}
}
