package item

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

// validateRequest runs the struct tags of req for the operation op.
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

// toHTTPError maps a catalog failure onto a response for the operation op,
// e.g. "item.update".
func toHTTPError(op string, err error) error {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return httperror.BadRequest(op+".validation_failed", ve.Error(), map[string]string{"field": ve.Field, "reason": ve.Reason})
	case errors.Is(err, domain.ErrNotFound):
		return httperror.NotFound(op+".not_found", "Item not found", nil)
	default:
		return httperror.InternalServerError(op+".failed", "An error occurred while accessing the catalog", nil)
	}
}

func eventHeaders(ctx context.Context) events.Headers {
	return events.NewHeaders(events.ServiceName, middleware.TerminalFromContext(ctx))
}

func itemPayload(item domain.Item) events.ItemPayload {
	return events.ItemPayload{
		ID:        item.ID,
		Type:      item.Type,
		Name:      item.Name,
		Price:     item.Price,
		Stock:     item.Stock,
		Condition: item.Condition,
		ImageURL:  item.ImageURL,
		UpdatedAt: item.UpdatedAt,
	}
}
