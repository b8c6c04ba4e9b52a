package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func tradeIn(id, value string) LineItemInput {
	return LineItemInput{ItemID: id, Name: id, Type: "pokemon_tcg", Role: RoleTradeIn, TradeValue: decp(value), OriginalPrice: dec(value)}
}

func outgoing(role Role, id, price string) LineItemInput {
	return LineItemInput{ItemID: id, Name: id, Type: "pokemon_tcg", Role: role, OriginalPrice: dec(price)}
}

func TestDeriveCashFlow(t *testing.T) {
	negotiated := outgoing(RoleSold, "b", "15.00")
	negotiated.NegotiatedPrice = decp("18.00")

	testCases := []struct {
		name        string
		txType      TransactionType
		lines       []LineItemInput
		wantCashIn  string
		wantCashOut string
	}{
		{
			name:        "buy pays out the trade values",
			txType:      TransactionBuy,
			lines:       []LineItemInput{tradeIn("a", "10.00"), tradeIn("b", "25.50")},
			wantCashIn:  "0",
			wantCashOut: "35.50",
		},
		{
			name:        "sell uses the negotiated price when present",
			txType:      TransactionSell,
			lines:       []LineItemInput{outgoing(RoleSold, "a", "20.00"), negotiated},
			wantCashIn:  "38.00",
			wantCashOut: "0",
		},
		{
			name:        "trade where the customer tops up",
			txType:      TransactionTrade,
			lines:       []LineItemInput{tradeIn("a", "40.00"), outgoing(RoleTradeOut, "b", "55.00")},
			wantCashIn:  "15.00",
			wantCashOut: "0",
		},
		{
			name:        "trade where the shop pays the difference",
			txType:      TransactionTrade,
			lines:       []LineItemInput{outgoing(RoleTradeOut, "b", "40.00"), tradeIn("a", "55.00")},
			wantCashIn:  "0",
			wantCashOut: "15.00",
		},
		{
			name:        "even trade moves no cash",
			txType:      TransactionTrade,
			lines:       []LineItemInput{tradeIn("a", "30.00"), outgoing(RoleTradeOut, "b", "30.00")},
			wantCashIn:  "0",
			wantCashOut: "0",
		},
		{
			name:        "trade with only trade-ins",
			txType:      TransactionTrade,
			lines:       []LineItemInput{tradeIn("a", "12.00")},
			wantCashIn:  "0",
			wantCashOut: "12.00",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DeriveCashFlow(tc.txType, tc.lines)
			if err != nil {
				t.Fatalf("DeriveCashFlow() unexpected error = %v", err)
			}
			if !got.CashIn.Equal(dec(tc.wantCashIn)) {
				t.Errorf("cash in = %s, want %s", got.CashIn, tc.wantCashIn)
			}
			if !got.CashOut.Equal(dec(tc.wantCashOut)) {
				t.Errorf("cash out = %s, want %s", got.CashOut, tc.wantCashOut)
			}
		})
	}
}

func TestDeriveCashFlow_SellWithOneOverride(t *testing.T) {
	overridden := outgoing(RoleSold, "a", "20.00")
	overridden.NegotiatedPrice = decp("18.00")

	got, err := DeriveCashFlow(TransactionSell, []LineItemInput{overridden, outgoing(RoleSold, "b", "15.00")})
	if err != nil {
		t.Fatalf("DeriveCashFlow() unexpected error = %v", err)
	}
	if !got.CashIn.Equal(dec("33.00")) || !got.CashOut.IsZero() {
		t.Errorf("got cash in %s / out %s, want 33.00 / 0", got.CashIn, got.CashOut)
	}
}

func TestValidateLines(t *testing.T) {
	withNegotiated := tradeIn("a", "5")
	withNegotiated.NegotiatedPrice = decp("5")

	withTradeValue := outgoing(RoleSold, "a", "5")
	withTradeValue.TradeValue = decp("5")

	missingValue := tradeIn("a", "5")
	missingValue.TradeValue = nil

	testCases := []struct {
		name   string
		txType TransactionType
		lines  []LineItemInput
	}{
		{"empty", TransactionSell, nil},
		{"unknown type", TransactionType("refund"), []LineItemInput{outgoing(RoleSold, "a", "1")}},
		{"sold inside a buy", TransactionBuy, []LineItemInput{tradeIn("a", "1"), outgoing(RoleSold, "b", "1")}},
		{"trade-in inside a sell", TransactionSell, []LineItemInput{tradeIn("a", "1")}},
		{"sold inside a trade", TransactionTrade, []LineItemInput{tradeIn("a", "1"), outgoing(RoleSold, "b", "1")}},
		{"trade-out inside a sell", TransactionSell, []LineItemInput{outgoing(RoleTradeOut, "a", "1")}},
		{"unknown role", TransactionTrade, []LineItemInput{outgoing(Role("gift"), "a", "1")}},
		{"missing trade value", TransactionBuy, []LineItemInput{missingValue}},
		{"negotiated price on a trade-in", TransactionBuy, []LineItemInput{withNegotiated}},
		{"trade value on a sold line", TransactionSell, []LineItemInput{withTradeValue}},
		{"negative price", TransactionSell, []LineItemInput{outgoing(RoleSold, "a", "-1")}},
		{"missing item id", TransactionSell, []LineItemInput{outgoing(RoleSold, "", "1")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateLines(tc.txType, tc.lines)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("ValidateLines() error = %v, want ErrValidation", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("ValidateLines() error = %T, want *ValidationError", err)
			}
		})
	}
}

func TestSnapshotKeepsOnlyTheRolePrice(t *testing.T) {
	in := tradeIn("a", "7.50").Snapshot("tx", 0)
	if in.TradeValue == nil || !in.TradeValue.Equal(dec("7.50")) {
		t.Errorf("trade-in trade value = %v, want 7.50", in.TradeValue)
	}
	if in.NegotiatedPrice != nil {
		t.Errorf("trade-in negotiated price = %v, want nil", in.NegotiatedPrice)
	}

	out := outgoing(RoleTradeOut, "b", "9.00").Snapshot("tx", 1)
	if out.TradeValue != nil {
		t.Errorf("trade-out trade value = %v, want nil", out.TradeValue)
	}
	if out.NegotiatedPrice == nil || !out.NegotiatedPrice.Equal(dec("9.00")) {
		t.Errorf("trade-out negotiated price = %v, want 9.00", out.NegotiatedPrice)
	}
}

func TestSnapshotAttributesAreFrozen(t *testing.T) {
	line := tradeIn("a", "1")
	line.Attributes = Attributes{"rarity": "rare"}

	snap := line.Snapshot("tx", 0)
	line.Attributes["rarity"] = "common"

	if snap.Attributes["rarity"] != "rare" {
		t.Errorf("snapshot rarity = %q, want %q", snap.Attributes["rarity"], "rare")
	}
}
