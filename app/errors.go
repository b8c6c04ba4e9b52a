package app

import (
	"context"
	"errors"
	"tradepost/domain"
	"tradepost/internal/middleware"
	"tradepost/pkg/events"
	"tradepost/pkg/httperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateRequest(op string, req any) error {
	if err := validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return httperror.BadRequest(
				op+".validation_failed",
				"Validation failed for the request",
				ve.Error(),
			)
		}

		return httperror.InternalServerError(
			op+".validation_error",
			"An unexpected validation error occurred",
			nil,
		)
	}
	return nil
}

// toHTTPError maps a domain failure onto a response for the operation op,
// e.g. "transaction.record".
func toHTTPError(op string, err error) error {
	var (
		ve *domain.ValidationError
		se *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &ve):
		return httperror.BadRequest(op+".validation_failed", ve.Error(), map[string]string{"field": ve.Field, "reason": ve.Reason})
	case errors.As(err, &se):
		return httperror.Conflict(op+".insufficient_stock", se.Error(), map[string]any{"itemId": se.ItemID, "available": se.Available})
	case errors.Is(err, domain.ErrNotFound):
		return httperror.NotFound(op+".not_found", err.Error(), nil)
	case errors.Is(err, domain.ErrExternalService):
		return httperror.ServiceUnavailable(op+".unavailable", "An upstream service is unavailable", nil)
	default:
		return httperror.InternalServerError(op+".failed", "An error occurred while accessing the ledger", nil)
	}
}

func eventHeaders(ctx context.Context) events.Headers {
	return events.NewHeaders(events.ServiceName, middleware.TerminalFromContext(ctx))
}
