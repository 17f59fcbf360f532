// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// VisitCompletedEvent is published when a queue finishes its terminal
// station.  It carries enough information for downstream consumers to
// log or aggregate without querying the primary database.
type VisitCompletedEvent struct {
	QueueID     uint64 `json:"queue_id"`
	Number      int64  `json:"number"`
	PersonName  string `json:"person_name"`
	TotalSecs   int64  `json:"total_secs"`
	WaitingSecs int64  `json:"waiting_secs"`
	ServiceSecs int64  `json:"service_secs"`
	CompletedAt string `json:"completed_at"`
}
