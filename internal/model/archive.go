package model

import (
	"encoding/json"
	"time"
)

// Archive mirrors are structurally parallel to the live rows plus an
// ArchivedAt stamp.  They hold no foreign keys into the operational
// schema: every reference points at a locally generated archive id
// assigned during the run.

// ArchivedPerson mirrors a Person migrated into cold storage.  One row
// per distinct person per run; queues archived in the same run share it.
type ArchivedPerson struct {
	ID         uint64    // archived_persons.id
	FullName   string    // archived_persons.full_name
	Phone      *string   // archived_persons.phone (nullable)
	NationalID *string   // archived_persons.national_id (nullable)
	ArchivedAt time.Time // archived_persons.archived_at
}

// ArchivedQueue mirrors a terminal Queue.  StationName is denormalized
// because the live station row is not migrated.
type ArchivedQueue struct {
	ID          uint64     // archived_queues.id
	Number      int64      // archived_queues.number
	PersonID    uint64     // archived_queues.person_id (archive id)
	StationName string     // archived_queues.station_name
	Status      string     // archived_queues.status
	Priority    int        // archived_queues.priority
	Notes       *string    // archived_queues.notes (nullable)
	CreatedAt   time.Time  // archived_queues.created_at
	CompletedAt *time.Time // archived_queues.completed_at (nullable)
	ArchivedAt  time.Time  // archived_queues.archived_at
}

// ArchivedHistoryEntry mirrors one queue_history row.
type ArchivedHistoryEntry struct {
	ID          uint64     // archived_queue_history.id
	QueueID     uint64     // archived_queue_history.queue_id (archive id)
	StationName string     // archived_queue_history.station_name
	Status      string     // archived_queue_history.status
	CalledAt    *time.Time // archived_queue_history.called_at (nullable)
	StartedAt   *time.Time // archived_queue_history.started_at (nullable)
	CompletedAt *time.Time // archived_queue_history.completed_at (nullable)
	CalledBy    *string    // archived_queue_history.called_by (nullable)
	Notes       *string    // archived_queue_history.notes (nullable)
	CreatedAt   time.Time  // archived_queue_history.created_at
	ArchivedAt  time.Time  // archived_queue_history.archived_at
}

// ArchivedStageRecord mirrors one stage_records row.
type ArchivedStageRecord struct {
	ID         uint64          // archived_stage_records.id
	QueueID    uint64          // archived_stage_records.queue_id (archive id)
	Stage      string          // archived_stage_records.stage
	Payload    json.RawMessage // archived_stage_records.payload
	CreatedAt  time.Time       // archived_stage_records.created_at
	ArchivedAt time.Time       // archived_stage_records.archived_at
}

// ArchivedVisit mirrors one completed_visits snapshot.
type ArchivedVisit struct {
	ID          uint64          // archived_visits.id
	QueueID     uint64          // archived_visits.queue_id (archive id)
	QueueNumber int64           // archived_visits.queue_number
	PersonID    uint64          // archived_visits.person_id (archive id)
	TotalSecs   int64           // archived_visits.total_secs
	WaitingSecs int64           // archived_visits.waiting_secs
	ServiceSecs int64           // archived_visits.service_secs
	Stages      json.RawMessage // archived_visits.stages
	CreatedAt   time.Time       // archived_visits.created_at
	ArchivedAt  time.Time       // archived_visits.archived_at
}
