// Package notify fans out property change events to live listeners.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Event types.
const (
	PropertyCreated = "property:created"
	PropertyUpdated = "property:updated"
	PropertyDeleted = "property:deleted"
)

// Event is a change notification. Data is the JSON encoding of the changed
// document, or {"id": ...} for deletions.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewEvent encodes v as the event payload.
func NewEvent(typ string, v any) (Event, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Event{}, fmt.Errorf("encoding %s event: %w", typ, err)
	}
	return Event{Type: typ, Data: data}, nil
}

// DecodeEvent parses an event received from another replica.
func DecodeEvent(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}
	if e.Type == "" {
		return Event{}, errors.New("decoding event: missing type")
	}
	return e, nil
}

// Publisher delivers events. Implementations must not block on slow
// listeners.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }
