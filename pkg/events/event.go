package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrMalformedPayload marks an event that can never be processed.
var ErrMalformedPayload = errors.New("malformed payload")

type Event struct {
	Event         string          `json:"event"`   // e.g., "transaction.committed"
	Version       string          `json:"version"` // e.g., "v1"
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
	TraceID       string          `json:"traceId"`
	CorrelationID string          `json:"correlationId"`
	TerminalID    string          `json:"terminalId,omitempty"`
}

type Headers struct {
	TraceID       string
	CorrelationID string
	Service       string
	TerminalID    string
}

func NewHeaders(service, terminalID string) Headers {
	return Headers{
		TraceID:       GenerateTraceID(),
		CorrelationID: GenerateCorrelationID(),
		Service:       service,
		TerminalID:    terminalID,
	}
}

func NewEvent(eventName, version string, payload any, headers Headers) (*Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", eventName, err)
	}

	return &Event{
		Event:         eventName,
		Version:       version,
		Timestamp:     time.Now().UTC(),
		Payload:       body,
		TraceID:       headers.TraceID,
		CorrelationID: headers.CorrelationID,
		TerminalID:    headers.TerminalID,
	}, nil
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// DecodePayload unmarshals the payload into out.
func (e *Event) DecodePayload(out any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%w - %s has no payload", ErrMalformedPayload, e.Event)
	}
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return fmt.Errorf("%w - %s: %w", ErrMalformedPayload, e.Event, err)
	}
	return nil
}

func (e *Event) GetRoutingKey() string {
	return e.Event + "." + e.Version
}

func GenerateTraceID() string {
	return uuid.New().String()
}

func GenerateCorrelationID() string {
	return uuid.New().String()
}
