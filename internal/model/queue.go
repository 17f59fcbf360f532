package model

import "time"

// Queue statuses.  A queue is ACTIVE from intake until it either
// completes its terminal station or is cancelled by an operator.
const (
	QueueActive    = "ACTIVE"
	QueueCompleted = "COMPLETED"
	QueueCancelled = "CANCELLED"
)

// Queue is one visit instance through the station pipeline.  It owns a
// unique number within the current numbering epoch, points at the
// station currently responsible for the visitor and tracks the overall
// status.  Higher Priority is served first at every station.
//
// Fields:
//  ID          – primary key identifier.
//  Number      – queue number issued by the sequence allocator.
//  PersonID    – owning person.
//  StationID   – current station.
//  Status      – overall status (ACTIVE, COMPLETED, CANCELLED).
//  Priority    – integer priority, higher serves first.
//  Notes       – free-text operator notes.
//  CreatedAt   – intake timestamp.
//  CompletedAt – set when the terminal station finishes.
type Queue struct {
	ID          uint64     // queues.id
	Number      int64      // queues.number
	PersonID    uint64     // queues.person_id
	StationID   uint64     // queues.station_id
	Status      string     // queues.status
	Priority    int        // queues.priority
	Notes       *string    // queues.notes (nullable)
	CreatedAt   time.Time  // queues.created_at
	CompletedAt *time.Time // queues.completed_at (nullable)
}
