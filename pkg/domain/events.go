package domain

import (
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventDispatch        EventType = "dispatch"
	EventQueryActivate   EventType = "query_activate"
	EventQueryTransition EventType = "query_transition"
	EventQueryDropped    EventType = "query_dropped"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// DispatchEvent is emitted after a message has been reduced and listeners notified.
type DispatchEvent struct {
	EventBase
	Seq      uint64      `json:"seq"`
	Tag      ActionTag   `json:"tag"`
	Previous ActionState `json:"previous"`
	Current  ActionState `json:"current"`
	// Handled is false when the reducer took the identity branch for an unknown tag.
	Handled bool `json:"handled"`
}

// QueryEvent describes a query binding activation or phase change.
type QueryEvent struct {
	EventBase
	ActivationID string        `json:"activation_id"`
	Collection   string        `json:"collection"`
	Phase        string        `json:"phase"`
	Elapsed      time.Duration `json:"elapsed,omitempty"`
	Err          error         `json:"-"`
}

// StoreHooks defines callbacks for ActionStore observability.
type StoreHooks struct {
	OnDispatch func(*DispatchEvent)
}

// QueryHooks defines callbacks for query binding observability.
type QueryHooks struct {
	OnActivate   func(*QueryEvent)
	OnTransition func(*QueryEvent)
	OnDropped    func(*QueryEvent)
}
