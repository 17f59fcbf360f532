package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
)

// CompletedVisitRepo provides access to the completed_visits snapshots.
type CompletedVisitRepo struct{ *Store }

// NewCompletedVisitRepo returns a CompletedVisitRepo sharing the given store.
func NewCompletedVisitRepo(s *Store) *CompletedVisitRepo { return &CompletedVisitRepo{Store: s} }

// CreateTx inserts a snapshot and populates the generated ID.
func (r *CompletedVisitRepo) CreateTx(ctx context.Context, tx Tx, v *model.CompletedVisit) error {
	const q = `INSERT INTO completed_visits (queue_id, queue_number, person_id, total_secs, waiting_secs, service_secs, stages)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := mtx(tx).ExecContext(ctx, q, v.QueueID, v.QueueNumber, v.PersonID,
		v.TotalSecs, v.WaitingSecs, v.ServiceSecs, []byte(v.Stages))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

// GetByQueueTx fetches the snapshot for a queue, or nil when the queue
// never reached completion (e.g. it was cancelled).
func (r *CompletedVisitRepo) GetByQueueTx(ctx context.Context, tx Tx, queueID uint64) (*model.CompletedVisit, error) {
	const q = `SELECT id, queue_id, queue_number, person_id, total_secs, waiting_secs, service_secs, stages, created_at
	           FROM completed_visits WHERE queue_id = ?`
	var v model.CompletedVisit
	var stages []byte
	err := mtx(tx).QueryRowContext(ctx, q, queueID).Scan(&v.ID, &v.QueueID, &v.QueueNumber, &v.PersonID,
		&v.TotalSecs, &v.WaitingSecs, &v.ServiceSecs, &stages, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v.Stages = json.RawMessage(stages)
	return &v, nil
}
