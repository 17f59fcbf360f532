package model

import "time"

// History entry statuses.  WAITING -> CALLED -> IN_PROGRESS -> COMPLETED
// is the serving path; SKIPPED terminates an entry from WAITING or
// CALLED without serving it.
const (
	HistoryWaiting    = "WAITING"
	HistoryCalled     = "CALLED"
	HistoryInProgress = "IN_PROGRESS"
	HistoryCompleted  = "COMPLETED"
	HistorySkipped    = "SKIPPED"
)

// historyTransitions maps each target status to the statuses an entry
// may move from.  Any other move is rejected as an invalid state.
var historyTransitions = map[string][]string{
	HistoryCalled:     {HistoryWaiting},
	HistoryInProgress: {HistoryCalled},
	HistoryCompleted:  {HistoryInProgress},
	HistorySkipped:    {HistoryWaiting, HistoryCalled},
}

// CanTransition reports whether a history entry may move from one
// status to another.
func CanTransition(from, to string) bool {
	for _, s := range historyTransitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// HistoryEntry records one queue's passage through one station.  A
// queue holds exactly one entry per station it has touched and at most
// one entry in an open status (WAITING, CALLED, IN_PROGRESS) at a time.
// For a given station, at most one entry across all queues may be in
// CALLED or IN_PROGRESS – the station exclusivity invariant.
//
// Fields:
//  ID          – primary key identifier.
//  QueueID     – owning queue.
//  StationID   – station being visited.
//  Status      – entry status (see constants above).
//  CalledAt    – stamped on WAITING -> CALLED.
//  StartedAt   – stamped on CALLED -> IN_PROGRESS.
//  CompletedAt – stamped on IN_PROGRESS -> COMPLETED.
//  CalledBy    – operator who called the visitor, when known.
//  Notes       – free-text notes written at completion.
//  CreatedAt   – when the entry joined the station's queue.
type HistoryEntry struct {
	ID          uint64     // queue_history.id
	QueueID     uint64     // queue_history.queue_id
	StationID   uint64     // queue_history.station_id
	Status      string     // queue_history.status
	CalledAt    *time.Time // queue_history.called_at (nullable)
	StartedAt   *time.Time // queue_history.started_at (nullable)
	CompletedAt *time.Time // queue_history.completed_at (nullable)
	CalledBy    *string    // queue_history.called_by (nullable)
	Notes       *string    // queue_history.notes (nullable)
	CreatedAt   time.Time  // queue_history.created_at
}

// Open reports whether the entry still occupies a pipeline stage.
func (h *HistoryEntry) Open() bool {
	switch h.Status {
	case HistoryWaiting, HistoryCalled, HistoryInProgress:
		return true
	}
	return false
}
