package model

import (
	"encoding/json"
	"time"
)

// CompletedVisit is the denormalized snapshot written once a queue
// finishes its terminal station.  It survives archival as the source of
// truth for aggregation after the live rows are deleted.
//
// Fields:
//  ID           – primary key identifier.
//  QueueID      – queue the snapshot was taken from.
//  QueueNumber  – number issued at intake, denormalized for search.
//  PersonID     – owning person.
//  TotalSecs    – completion minus intake, in seconds.
//  WaitingSecs  – time spent WAITING/CALLED summed over all entries.
//  ServiceSecs  – time spent IN_PROGRESS summed over all entries.
//  Stages       – per-stage capture payloads keyed by stage tag.
//  CreatedAt    – snapshot timestamp.
type CompletedVisit struct {
	ID          uint64          // completed_visits.id
	QueueID     uint64          // completed_visits.queue_id
	QueueNumber int64           // completed_visits.queue_number
	PersonID    uint64          // completed_visits.person_id
	TotalSecs   int64           // completed_visits.total_secs
	WaitingSecs int64           // completed_visits.waiting_secs
	ServiceSecs int64           // completed_visits.service_secs
	Stages      json.RawMessage // completed_visits.stages
	CreatedAt   time.Time       // completed_visits.created_at
}
