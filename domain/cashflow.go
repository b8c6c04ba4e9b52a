package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type CashFlow struct {
	CashIn  decimal.Decimal `json:"cashIn"`
	CashOut decimal.Decimal `json:"cashOut"`
}

// ValidateLines checks that the set of lines is a well formed transaction of
// type t: buys only take items in, sells only sell, trades mix trade-ins and
// trade-outs.
func ValidateLines(t TransactionType, lines []LineItemInput) error {
	if !t.Valid() {
		return NewValidationError("type", fmt.Sprintf("unknown transaction type %q", t))
	}
	if len(lines) == 0 {
		return NewValidationError("lineItems", "at least one line item is required")
	}

	for i, l := range lines {
		field := fmt.Sprintf("lineItems[%d]", i)

		if !l.Role.Valid() {
			return NewValidationError(field+".role", fmt.Sprintf("unknown role %q", l.Role))
		}
		if !roleAllowed(t, l.Role) {
			return NewValidationError(field+".role", fmt.Sprintf("role %s is not allowed in a %s", l.Role, t))
		}
		if l.ItemID == "" {
			return NewValidationError(field+".itemId", "is required")
		}
		if l.OriginalPrice.IsNegative() {
			return NewValidationError(field+".originalPrice", "must not be negative")
		}

		switch {
		case l.Role == RoleTradeIn:
			if l.TradeValue == nil {
				return NewValidationError(field+".tradeValue", "is required for trade_in")
			}
			if l.TradeValue.IsNegative() {
				return NewValidationError(field+".tradeValue", "must not be negative")
			}
			if l.NegotiatedPrice != nil {
				return NewValidationError(field+".negotiatedPrice", "must be empty for trade_in")
			}
		default:
			if l.TradeValue != nil {
				return NewValidationError(field+".tradeValue", "must be empty for "+string(l.Role))
			}
			if l.NegotiatedPrice != nil && l.NegotiatedPrice.IsNegative() {
				return NewValidationError(field+".negotiatedPrice", "must not be negative")
			}
		}
	}

	return nil
}

func roleAllowed(t TransactionType, r Role) bool {
	switch t {
	case TransactionBuy:
		return r == RoleTradeIn
	case TransactionSell:
		return r == RoleSold
	case TransactionTrade:
		return r == RoleTradeIn || r == RoleTradeOut
	}
	return false
}

// DeriveCashFlow computes the till movement of a transaction from its lines.
// It is a pure function of its input and validates it first.
func DeriveCashFlow(t TransactionType, lines []LineItemInput) (CashFlow, error) {
	if err := ValidateLines(t, lines); err != nil {
		return CashFlow{}, err
	}

	tradeIn := decimal.Zero
	outgoing := decimal.Zero
	for _, l := range lines {
		if l.Role == RoleTradeIn {
			tradeIn = tradeIn.Add(*l.TradeValue)
		} else {
			outgoing = outgoing.Add(l.SalePrice())
		}
	}

	switch t {
	case TransactionBuy:
		return CashFlow{CashIn: decimal.Zero, CashOut: tradeIn}, nil
	case TransactionSell:
		return CashFlow{CashIn: outgoing, CashOut: decimal.Zero}, nil
	default:
		diff := outgoing.Sub(tradeIn)
		if diff.IsPositive() {
			return CashFlow{CashIn: diff, CashOut: decimal.Zero}, nil
		}
		return CashFlow{CashIn: decimal.Zero, CashOut: diff.Neg()}, nil
	}
}
