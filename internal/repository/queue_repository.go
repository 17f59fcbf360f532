package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
)

// QueueRepo provides access to the queues table.  State transitions
// always run inside a transaction and lock the queue row first so the
// overall status can never be mutated twice concurrently.
type QueueRepo struct{ *Store }

// NewQueueRepo returns a QueueRepo sharing the given store.
func NewQueueRepo(s *Store) *QueueRepo { return &QueueRepo{Store: s} }

const queueCols = `id, number, person_id, station_id, status, priority, notes, created_at, completed_at`

func scanQueue(row rowScanner) (*model.Queue, error) {
	var q model.Queue
	var notes sql.NullString
	var completedAt sql.NullTime
	if err := row.Scan(&q.ID, &q.Number, &q.PersonID, &q.StationID, &q.Status, &q.Priority, &notes, &q.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	q.Notes = strOrNil(notes)
	if completedAt.Valid {
		t := completedAt.Time
		q.CompletedAt = &t
	}
	return &q, nil
}

// CreateTx inserts a queue and populates the generated ID.
func (r *QueueRepo) CreateTx(ctx context.Context, tx Tx, q *model.Queue) error {
	const stmt = `INSERT INTO queues (number, person_id, station_id, status, priority, notes) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := mtx(tx).ExecContext(ctx, stmt, q.Number, q.PersonID, q.StationID, q.Status, q.Priority, nullStr(q.Notes))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	q.ID = uint64(id)
	return nil
}

// GetByID fetches a queue by id.
func (r *QueueRepo) GetByID(ctx context.Context, id uint64) (*model.Queue, error) {
	q, err := scanQueue(r.db.QueryRowContext(ctx, `SELECT `+queueCols+` FROM queues WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return q, err
}

// GetForUpdateTx fetches a queue by id under a row lock.  Concurrent
// cancel/complete/archive operations on the same queue serialize here.
func (r *QueueRepo) GetForUpdateTx(ctx context.Context, tx Tx, id uint64) (*model.Queue, error) {
	q, err := scanQueue(mtx(tx).QueryRowContext(ctx,
		`SELECT `+queueCols+` FROM queues WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return q, err
}

// UpdateStatusTx sets the overall status and optional completion stamp.
func (r *QueueRepo) UpdateStatusTx(ctx context.Context, tx Tx, id uint64, status string, completedAt *time.Time) error {
	var ca sql.NullTime
	if completedAt != nil {
		ca = sql.NullTime{Time: completedAt.UTC(), Valid: true}
	}
	_, err := mtx(tx).ExecContext(ctx, `UPDATE queues SET status = ?, completed_at = ? WHERE id = ?`, status, ca, id)
	return err
}

// UpdateStationTx moves the queue's current station pointer.
func (r *QueueRepo) UpdateStationTx(ctx context.Context, tx Tx, id, stationID uint64) error {
	_, err := mtx(tx).ExecContext(ctx, `UPDATE queues SET station_id = ? WHERE id = ?`, stationID, id)
	return err
}

// UpdatePriorityTx changes the serving priority.
func (r *QueueRepo) UpdatePriorityTx(ctx context.Context, tx Tx, id uint64, priority int) error {
	_, err := mtx(tx).ExecContext(ctx, `UPDATE queues SET priority = ? WHERE id = ?`, priority, id)
	return err
}

// ListTerminalTx returns every COMPLETED or CANCELLED queue under row
// locks, so an archive run blocks concurrent workflow operations on the
// same queues until it commits.
func (r *QueueRepo) ListTerminalTx(ctx context.Context, tx Tx) ([]model.Queue, error) {
	rows, err := mtx(tx).QueryContext(ctx,
		`SELECT `+queueCols+` FROM queues WHERE status IN (?, ?) ORDER BY id FOR UPDATE`,
		model.QueueCompleted, model.QueueCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Queue, 0)
	for rows.Next() {
		q, err := scanQueue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

// QueueDetail is the display shape for a queue joined with its person
// and current station.  Returned by list and get endpoints.
type QueueDetail struct {
	ID          uint64     `json:"id"`
	Number      int64      `json:"number"`
	PersonName  string     `json:"person_name"`
	Phone       *string    `json:"phone,omitempty"`
	NationalID  *string    `json:"national_id,omitempty"`
	StationID   uint64     `json:"station_id"`
	StationName string     `json:"station_name"`
	Status      string     `json:"status"`
	Priority    int        `json:"priority"`
	Notes       *string    `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

const queueDetailQuery = `SELECT q.id, q.number, p.full_name, p.phone, p.national_id,
       s.id, s.name, q.status, q.priority, q.notes, q.created_at, q.completed_at
FROM queues q
JOIN persons p ON p.id = q.person_id
JOIN stations s ON s.id = q.station_id`

func scanQueueDetail(row rowScanner) (*QueueDetail, error) {
	var d QueueDetail
	var phone, nationalID, notes sql.NullString
	var completedAt sql.NullTime
	if err := row.Scan(&d.ID, &d.Number, &d.PersonName, &phone, &nationalID,
		&d.StationID, &d.StationName, &d.Status, &d.Priority, &notes, &d.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	d.Phone = strOrNil(phone)
	d.NationalID = strOrNil(nationalID)
	d.Notes = strOrNil(notes)
	if completedAt.Valid {
		t := completedAt.Time
		d.CompletedAt = &t
	}
	return &d, nil
}

// ListActive returns all ACTIVE queues with person and station details,
// oldest first.
func (r *QueueRepo) ListActive(ctx context.Context) ([]QueueDetail, error) {
	rows, err := r.db.QueryContext(ctx, queueDetailQuery+` WHERE q.status = ? ORDER BY q.created_at, q.id`, model.QueueActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]QueueDetail, 0)
	for rows.Next() {
		d, err := scanQueueDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// GetDetail returns one queue with person and station details.
func (r *QueueRepo) GetDetail(ctx context.Context, id uint64) (*QueueDetail, error) {
	d, err := scanQueueDetail(r.db.QueryRowContext(ctx, queueDetailQuery+` WHERE q.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return d, err
}
