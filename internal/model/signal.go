package model

import "time"

// PollingState is the controller's fetch state.
type PollingState string

const (
	StateActive PollingState = "ACTIVE"
	StatePaused PollingState = "PAUSED"
)

// EventKind identifies what the controller is reporting.
type EventKind string

const (
	EventDataUpdated  EventKind = "DATA_UPDATED"
	EventRateLimited  EventKind = "RATE_LIMITED"
	EventFetchFailed  EventKind = "FETCH_FAILED"
	EventMarketClosed EventKind = "MARKET_CLOSED"
)

// Event is emitted by the polling controller to the presentation layer.
type Event struct {
	Kind   EventKind `json:"kind"`
	Symbol string    `json:"symbol"`
	At     time.Time `json:"at"`

	// DataUpdated
	Observations []Observation  `json:"observations,omitempty"` // full buffer after the update
	Added        []Observation  `json:"added,omitempty"`
	Backfill     bool           `json:"backfill,omitempty"`
	Quote        *QuoteSnapshot `json:"quote,omitempty"`
	Origin       time.Time      `json:"origin,omitempty"`

	// RateLimited
	ResumeAt time.Time `json:"resume_at,omitempty"`

	// FetchFailed
	Message string `json:"message,omitempty"`
}

// Status is a read view of the controller served by its owning loop.
type Status struct {
	Symbol       string         `json:"symbol"`
	State        PollingState   `json:"state"`
	Running      bool           `json:"running"`
	InFlight     bool           `json:"in_flight"`
	Origin       time.Time      `json:"origin"`
	ResumeAt     time.Time      `json:"resume_at,omitempty"`
	Latest       *QuoteSnapshot `json:"latest,omitempty"`
	LastNotice   *Event         `json:"last_notice,omitempty"`
	Observations []Observation  `json:"observations"`
}
