package events

import (
	"context"
	"errors"
	"testing"
)

type recordingPublisher struct {
	exchange string
	events   []*Event
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange string, event *Event, headers Headers) error {
	p.exchange = exchange
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func TestEmit(t *testing.T) {
	p := &recordingPublisher{}
	Emit(context.Background(), p, ItemCreatedEvent, ItemPayload{ID: "card-1"}, NewHeaders("tradepost", ""))

	if len(p.events) != 1 || p.exchange != LedgerExchange {
		t.Fatalf("published %d events to %q, want 1 to %q", len(p.events), p.exchange, LedgerExchange)
	}
	if p.events[0].GetRoutingKey() != "item.created.v1" {
		t.Errorf("routing key = %q, want item.created.v1", p.events[0].GetRoutingKey())
	}

	// failures are swallowed
	failing := &recordingPublisher{err: errors.New("broker down")}
	Emit(context.Background(), failing, ItemCreatedEvent, ItemPayload{}, Headers{})

	// nil publisher is a no-op
	Emit(context.Background(), nil, ItemCreatedEvent, ItemPayload{}, Headers{})
}
