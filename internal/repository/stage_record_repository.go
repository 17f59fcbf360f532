package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
)

// StageRecordRepo provides access to the per-stage capture documents
// keyed to a queue.  The core only needs existence, the tagged payload
// and migration; the form semantics live with the capturing clients.
type StageRecordRepo struct{ *Store }

// NewStageRecordRepo returns a StageRecordRepo sharing the given store.
func NewStageRecordRepo(s *Store) *StageRecordRepo { return &StageRecordRepo{Store: s} }

const stageCols = `id, queue_id, stage, payload, created_at, updated_at`

func scanStageRecord(row rowScanner) (*model.StageRecord, error) {
	var rec model.StageRecord
	var payload []byte
	if err := row.Scan(&rec.ID, &rec.QueueID, &rec.Stage, &payload, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Payload = json.RawMessage(payload)
	return &rec, nil
}

// Get fetches the record for one (queue, stage) pair.
func (r *StageRecordRepo) Get(ctx context.Context, queueID uint64, stage string) (*model.StageRecord, error) {
	rec, err := scanStageRecord(r.db.QueryRowContext(ctx,
		`SELECT `+stageCols+` FROM stage_records WHERE queue_id = ? AND stage = ?`, queueID, stage))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rec, err
}

// Create inserts a record.  The (queue_id, stage) pair carries a unique
// index; a duplicate insert is reported as ErrConflict.
func (r *StageRecordRepo) Create(ctx context.Context, rec *model.StageRecord) error {
	const q = `INSERT INTO stage_records (queue_id, stage, payload) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rec.QueueID, rec.Stage, []byte(rec.Payload))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// Update replaces the payload of an existing record.
func (r *StageRecordRepo) Update(ctx context.Context, rec *model.StageRecord) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stage_records SET payload = ? WHERE queue_id = ? AND stage = ?`,
		[]byte(rec.Payload), rec.QueueID, rec.Stage)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

// ListForQueueTx returns all stage records for a queue.  Used by the
// completion snapshot and the archive run.
func (r *StageRecordRepo) ListForQueueTx(ctx context.Context, tx Tx, queueID uint64) ([]model.StageRecord, error) {
	rows, err := mtx(tx).QueryContext(ctx,
		`SELECT `+stageCols+` FROM stage_records WHERE queue_id = ? ORDER BY id`, queueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.StageRecord, 0)
	for rows.Next() {
		rec, err := scanStageRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}
