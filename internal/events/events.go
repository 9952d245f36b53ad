// Package events carries the engine's live event stream: listing lifecycle
// changes and run completions, fanned out to SSE subscribers.
package events

import (
	"encoding/json"
	"time"
)

// Event names published by the engine.
const (
	TypeListingCreated = "listing_created"
	TypeListingSold    = "listing_sold"
	TypeRunFinished    = "run_finished"
	TypePing           = "ping"
)

// Event is the wire envelope. Version bumps when a payload shape changes
// incompatibly; subscribers skip versions they don't know.
type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MakeEvent serializes one event. Payload marshalling failures degrade to a
// data-less envelope; the stream itself must never break.
func MakeEvent(reqID, typ string, v int, data any) string {
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
	}
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			e.Data = b
		}
	}
	b, _ := json.Marshal(e)
	return string(b)
}
