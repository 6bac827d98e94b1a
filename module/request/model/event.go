package model

import "time"

type EventKind string

const (
	EventCreated   EventKind = "created"
	EventResponded EventKind = "responded"
	EventStatus    EventKind = "status_changed"
	EventEdited    EventKind = "edited"
	EventDeleted   EventKind = "deleted"
)

// Event records one applied mutation. It feeds the cross-instance refresh
// channel and the audit stream; it is never read back as state.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	RequestID string    `json:"requestId"`
	Actor     string    `json:"actor"`
	Status    Status    `json:"status,omitempty"`
	Origin    string    `json:"origin"` // instance that applied it
	At        time.Time `json:"at"`
}
