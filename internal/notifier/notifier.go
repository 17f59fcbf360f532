// Package notifier carries fire-and-forget display events out of the
// core.  Emission happens only after the state-changing transaction has
// committed; delivery failures are logged and swallowed and never roll
// back or retry the underlying state change.
package notifier

import (
	"context"
	"fmt"
	"time"
)

// Event kinds understood by display clients.
const (
	EventNewCase       = "new-case-created"
	EventQueueState    = "queue-state-changed"
	EventCaseCompleted = "case-fully-completed"
	EventStationState  = "station-state-changed"
	EventPatientCalled = "patient-called"
	EventScreenData    = "screen-data-changed"
	EventFavoritePrice = "favorite-price-changed"
)

// DisplayChannel is the shared channel every display client subscribes
// to.  Station-scoped events additionally go to StationChannel(id).
const DisplayChannel = "display"

// StationChannel names the pub/sub channel for one station's
// subscribers.
func StationChannel(stationID uint64) string {
	return fmt.Sprintf("station:%d", stationID)
}

// Event is the minimal payload a display client needs to refresh.  The
// Change tag qualifies queue-state-changed events (called, started,
// completed, moved, cancelled, reinstated, skipped).
type Event struct {
	Kind           string    `json:"kind"`
	Change         string    `json:"change,omitempty"`
	QueueID        uint64    `json:"queue_id,omitempty"`
	Number         int64     `json:"number,omitempty"`
	StationID      uint64    `json:"station_id,omitempty"`
	StationDisplay uint32    `json:"station_display,omitempty"`
	At             time.Time `json:"at"`
}

// Channels returns the pub/sub channels an event is delivered to.
// Patient-called goes to the shared display channel only, so a visitor
// is never announced twice.  Station-state changes additionally reach
// the station's own subscribers.
func (e Event) Channels() []string {
	if e.Kind == EventStationState && e.StationID != 0 {
		return []string{DisplayChannel, StationChannel(e.StationID)}
	}
	return []string{DisplayChannel}
}

// Notifier is the sink the core publishes into.  Implementations must
// be safe for concurrent use and must never return delivery failures
// into the calling workflow.
type Notifier interface {
	Publish(ctx context.Context, e Event)
}

// Nop discards every event.  Used when Redis is unavailable and in
// tests.
type Nop struct{}

// Publish implements Notifier.
func (Nop) Publish(context.Context, Event) {}
