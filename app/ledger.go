package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"tradepost/domain"

	"github.com/google/uuid"
)

// commitTimeout bounds a commit once it has started; callers going away do
// not interrupt it.
const commitTimeout = 15 * time.Second

// Ledger commits drafts. It is the only code path that writes stock after an
// item has been created.
type Ledger struct {
	repository Repository
	schemas    *domain.SchemaRegistry
	now        func() time.Time
	newID      func() (uuid.UUID, error)
}

func NewLedger(repository Repository, schemas *domain.SchemaRegistry) *Ledger {
	return &Ledger{
		repository: repository,
		schemas:    schemas,
		now:        time.Now,
		newID:      uuid.NewV7,
	}
}

// Commit validates the draft, derives its cash flow and persists the header,
// every line and every stock change as one unit. On error nothing is stored.
func (l *Ledger) Commit(ctx context.Context, draft *domain.Draft) (domain.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return domain.Transaction{}, err
	}

	tradeIns := draft.TradeIns()

	flow, err := draft.CashFlow()
	if err != nil {
		return domain.Transaction{}, err
	}

	id, err := l.newID()
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to generate transaction id: %w", err)
	}

	now := l.now().UTC().Truncate(time.Microsecond)
	tx := domain.Transaction{
		ID:        id.String(),
		Type:      draft.Type,
		CashIn:    flow.CashIn,
		CashOut:   flow.CashOut,
		Timestamp: now,
	}

	// outgoing rows are locked in item id order
	outgoing := draft.Outgoing()
	slices.SortStableFunc(outgoing, func(a, b domain.PositionedLine) int {
		return strings.Compare(a.Line.ItemID, b.Line.ItemID)
	})

	lines := make([]domain.LineItem, draft.Len())

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	err = l.repository.RunInTx(ctx, func(store LedgerTx) error {
		if err := store.InsertTransaction(ctx, tx); err != nil {
			return err
		}

		for _, pl := range tradeIns {
			if err := l.checkTradeIn(ctx, store, pl.Line); err != nil {
				return err
			}

			line := pl.Line.Snapshot(tx.ID, pl.Position)
			if err := store.InsertLineItem(ctx, line); err != nil {
				return err
			}
			if err := store.ReceiveItem(ctx, domain.ItemFromTradeIn(pl.Line, now), pl.Line.Attributes); err != nil {
				return err
			}
			lines[pl.Position] = line
		}

		for _, pl := range outgoing {
			line := pl.Line.Snapshot(tx.ID, pl.Position)

			current, err := store.FindItem(ctx, line.ItemID)
			if err != nil {
				return err
			}
			attrs, err := store.ItemAttributes(ctx, line.ItemID)
			if err != nil {
				return err
			}
			line.StampFromCatalog(current, attrs)

			if err := store.InsertLineItem(ctx, line); err != nil {
				return err
			}
			if err := store.AdjustStock(ctx, line.ItemID, -1); err != nil {
				return err
			}
			lines[pl.Position] = line
		}

		return nil
	})
	if err != nil {
		return domain.Transaction{}, classify(err)
	}

	tx.LineItems = lines
	return tx, nil
}

// checkTradeIn validates the line's attributes against the type the catalog
// holds for its id, falling back to the submitted type for new items.
func (l *Ledger) checkTradeIn(ctx context.Context, store LedgerTx, line domain.LineItemInput) error {
	itemType := line.Type
	current, err := store.FindItem(ctx, line.ItemID)
	switch {
	case err == nil:
		itemType = current.Type
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}
	return l.schemas.Validate(itemType, line.Attributes)
}

// classify leaves domain failures as they are and marks anything else as a
// store failure.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrPersistence):
		return err
	}
	return domain.Persistence(err)
}
