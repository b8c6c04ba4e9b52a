package domain

import "fmt"

// Draft is an uncommitted transaction: the line items a terminal has
// assembled so far. It is owned by one caller, is freely mutable, and only
// becomes a Transaction when the ledger commits it.
type Draft struct {
	Type  TransactionType
	lines []LineItemInput
}

func NewDraft(t TransactionType, lines ...LineItemInput) *Draft {
	d := &Draft{Type: t}
	d.lines = append(d.lines, lines...)
	return d
}

func (d *Draft) Add(line LineItemInput) {
	d.lines = append(d.lines, line)
}

// Remove drops the line at index i.
func (d *Draft) Remove(i int) error {
	if i < 0 || i >= len(d.lines) {
		return fmt.Errorf("draft has no line %d: %w", i, ErrNotFound)
	}
	d.lines = append(d.lines[:i], d.lines[i+1:]...)
	return nil
}

func (d *Draft) Clear() {
	d.lines = nil
}

func (d *Draft) Len() int {
	return len(d.lines)
}

// Lines returns a copy of the current lines.
func (d *Draft) Lines() []LineItemInput {
	out := make([]LineItemInput, len(d.lines))
	copy(out, d.lines)
	return out
}

func (d *Draft) Validate() error {
	return ValidateLines(d.Type, d.lines)
}

// CashFlow previews what committing the draft would move through the till.
func (d *Draft) CashFlow() (CashFlow, error) {
	return DeriveCashFlow(d.Type, d.lines)
}

// TradeIns returns the trade-in lines with their original positions.
func (d *Draft) TradeIns() []PositionedLine {
	return d.positioned(func(r Role) bool { return r == RoleTradeIn })
}

// Outgoing returns the sold and trade-out lines with their original positions.
func (d *Draft) Outgoing() []PositionedLine {
	return d.positioned(Role.Outgoing)
}

type PositionedLine struct {
	Position int
	Line     LineItemInput
}

func (d *Draft) positioned(keep func(Role) bool) []PositionedLine {
	var out []PositionedLine
	for i, l := range d.lines {
		if keep(l.Role) {
			out = append(out, PositionedLine{Position: i, Line: l})
		}
	}
	return out
}
