package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
)

// HistoryRepo provides access to the queue_history table, the per
// (queue, station) state records the workflow engine operates on.  The
// selection and exclusivity queries take FOR UPDATE locks so the check
// and the subsequent write are atomic against concurrent calls on the
// same station.
type HistoryRepo struct{ *Store }

// NewHistoryRepo returns a HistoryRepo sharing the given store.
func NewHistoryRepo(s *Store) *HistoryRepo { return &HistoryRepo{Store: s} }

const historyCols = `id, queue_id, station_id, status, called_at, started_at, completed_at, called_by, notes, created_at`

func scanHistory(row rowScanner) (*model.HistoryEntry, error) {
	var h model.HistoryEntry
	var calledAt, startedAt, completedAt sql.NullTime
	var calledBy, notes sql.NullString
	if err := row.Scan(&h.ID, &h.QueueID, &h.StationID, &h.Status,
		&calledAt, &startedAt, &completedAt, &calledBy, &notes, &h.CreatedAt); err != nil {
		return nil, err
	}
	h.CalledAt = timeOrNil(calledAt)
	h.StartedAt = timeOrNil(startedAt)
	h.CompletedAt = timeOrNil(completedAt)
	h.CalledBy = strOrNil(calledBy)
	h.Notes = strOrNil(notes)
	return &h, nil
}

func timeOrNil(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// CreateTx inserts a history entry and populates the generated ID.
func (r *HistoryRepo) CreateTx(ctx context.Context, tx Tx, h *model.HistoryEntry) error {
	const q = `INSERT INTO queue_history (queue_id, station_id, status, called_at, started_at, completed_at, called_by, notes)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := mtx(tx).ExecContext(ctx, q, h.QueueID, h.StationID, h.Status,
		nullTimeOf(h.CalledAt), nullTimeOf(h.StartedAt), nullTimeOf(h.CompletedAt),
		nullStr(h.CalledBy), nullStr(h.Notes))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

func nullTimeOf(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// UpdateTx writes the entry's status, stamps, caller and notes back.
func (r *HistoryRepo) UpdateTx(ctx context.Context, tx Tx, h *model.HistoryEntry) error {
	const q = `UPDATE queue_history SET status = ?, called_at = ?, started_at = ?, completed_at = ?, called_by = ?, notes = ? WHERE id = ?`
	_, err := mtx(tx).ExecContext(ctx, q, h.Status,
		nullTimeOf(h.CalledAt), nullTimeOf(h.StartedAt), nullTimeOf(h.CompletedAt),
		nullStr(h.CalledBy), nullStr(h.Notes), h.ID)
	return err
}

// ActiveAtStationTx returns the station's entry in CALLED or
// IN_PROGRESS under a row lock, or nil when the station is free.  This
// is the exclusivity-invariant check.
func (r *HistoryRepo) ActiveAtStationTx(ctx context.Context, tx Tx, stationID uint64) (*model.HistoryEntry, error) {
	h, err := scanHistory(mtx(tx).QueryRowContext(ctx,
		`SELECT `+historyCols+` FROM queue_history WHERE station_id = ? AND status IN (?, ?) LIMIT 1 FOR UPDATE`,
		stationID, model.HistoryCalled, model.HistoryInProgress))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return h, err
}

// WaitingEntry pairs a WAITING history row with the owning queue's
// priority and number so the engine can order candidates.
type WaitingEntry struct {
	Entry      model.HistoryEntry
	Number     int64
	Priority   int
	PersonName string
}

// WaitingAtStationTx returns all WAITING entries at a station together
// with their queue priority and number, under row locks.  Ordering is
// left to the caller.
func (r *HistoryRepo) WaitingAtStationTx(ctx context.Context, tx Tx, stationID uint64) ([]WaitingEntry, error) {
	const q = `SELECT h.id, h.queue_id, h.station_id, h.status, h.called_at, h.started_at, h.completed_at, h.called_by, h.notes, h.created_at,
	                  q.number, q.priority, p.full_name
	           FROM queue_history h
	           JOIN queues q ON q.id = h.queue_id
	           JOIN persons p ON p.id = q.person_id
	           WHERE h.station_id = ? AND h.status = ? AND q.status = ?
	           FOR UPDATE`
	rows, err := mtx(tx).QueryContext(ctx, q, stationID, model.HistoryWaiting, model.QueueActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]WaitingEntry, 0)
	for rows.Next() {
		var w WaitingEntry
		var calledAt, startedAt, completedAt sql.NullTime
		var calledBy, notes sql.NullString
		if err := rows.Scan(&w.Entry.ID, &w.Entry.QueueID, &w.Entry.StationID, &w.Entry.Status,
			&calledAt, &startedAt, &completedAt, &calledBy, &notes, &w.Entry.CreatedAt,
			&w.Number, &w.Priority, &w.PersonName); err != nil {
			return nil, err
		}
		w.Entry.CalledAt = timeOrNil(calledAt)
		w.Entry.StartedAt = timeOrNil(startedAt)
		w.Entry.CompletedAt = timeOrNil(completedAt)
		w.Entry.CalledBy = strOrNil(calledBy)
		w.Entry.Notes = strOrNil(notes)
		out = append(out, w)
	}
	return out, rows.Err()
}

// LatestAtStationTx returns the most recent entry for a queue at a
// station under a row lock.  Start, complete and skip operate on it.
func (r *HistoryRepo) LatestAtStationTx(ctx context.Context, tx Tx, queueID, stationID uint64) (*model.HistoryEntry, error) {
	h, err := scanHistory(mtx(tx).QueryRowContext(ctx,
		`SELECT `+historyCols+` FROM queue_history WHERE queue_id = ? AND station_id = ? ORDER BY id DESC LIMIT 1 FOR UPDATE`,
		queueID, stationID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return h, err
}

// OpenForQueueTx returns the queue's single open entry (WAITING, CALLED
// or IN_PROGRESS) under a row lock, or nil when none exists.
func (r *HistoryRepo) OpenForQueueTx(ctx context.Context, tx Tx, queueID uint64) (*model.HistoryEntry, error) {
	h, err := scanHistory(mtx(tx).QueryRowContext(ctx,
		`SELECT `+historyCols+` FROM queue_history WHERE queue_id = ? AND status IN (?, ?, ?) LIMIT 1 FOR UPDATE`,
		queueID, model.HistoryWaiting, model.HistoryCalled, model.HistoryInProgress))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return h, err
}

// ListForQueueTx returns every entry for a queue, oldest first.  Used
// for the completion snapshot and the archive run.
func (r *HistoryRepo) ListForQueueTx(ctx context.Context, tx Tx, queueID uint64) ([]model.HistoryEntry, error) {
	rows, err := mtx(tx).QueryContext(ctx,
		`SELECT `+historyCols+` FROM queue_history WHERE queue_id = ? ORDER BY id`, queueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.HistoryEntry, 0)
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

// WaitingRow is the display shape for one waiting-list position.
type WaitingRow struct {
	QueueID     uint64    `json:"queue_id"`
	Number      int64     `json:"number"`
	PersonName  string    `json:"person_name"`
	Priority    int       `json:"priority"`
	EnteredAt   time.Time `json:"entered_at"`
	WaitMinutes int64     `json:"wait_minutes"`
}

// WaitingList returns the station's WAITING entries in serving order
// (priority descending, then FIFO) with the computed wait in minutes.
func (r *HistoryRepo) WaitingList(ctx context.Context, stationID uint64) ([]WaitingRow, error) {
	const q = `SELECT h.queue_id, q.number, p.full_name, q.priority, h.created_at
	           FROM queue_history h
	           JOIN queues q ON q.id = h.queue_id
	           JOIN persons p ON p.id = q.person_id
	           WHERE h.station_id = ? AND h.status = ? AND q.status = ?
	           ORDER BY q.priority DESC, h.created_at, h.id`
	rows, err := r.db.QueryContext(ctx, q, stationID, model.HistoryWaiting, model.QueueActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	now := time.Now().UTC()
	out := make([]WaitingRow, 0)
	for rows.Next() {
		var w WaitingRow
		if err := rows.Scan(&w.QueueID, &w.Number, &w.PersonName, &w.Priority, &w.EnteredAt); err != nil {
			return nil, err
		}
		w.WaitMinutes = int64(now.Sub(w.EnteredAt).Minutes())
		if w.WaitMinutes < 0 {
			w.WaitMinutes = 0
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ServedRow is the display shape for the entry currently being served.
type ServedRow struct {
	QueueID    uint64     `json:"queue_id"`
	Number     int64      `json:"number"`
	PersonName string     `json:"person_name"`
	Status     string     `json:"status"`
	CalledAt   *time.Time `json:"called_at,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	CalledBy   *string    `json:"called_by,omitempty"`
}

// CurrentServed returns the station's CALLED or IN_PROGRESS entry with
// queue and person details, or ErrNotFound when the station is idle.
func (r *HistoryRepo) CurrentServed(ctx context.Context, stationID uint64) (*ServedRow, error) {
	const q = `SELECT h.queue_id, q.number, p.full_name, h.status, h.called_at, h.started_at, h.called_by
	           FROM queue_history h
	           JOIN queues q ON q.id = h.queue_id
	           JOIN persons p ON p.id = q.person_id
	           WHERE h.station_id = ? AND h.status IN (?, ?)
	           LIMIT 1`
	var s ServedRow
	var calledAt, startedAt sql.NullTime
	var calledBy sql.NullString
	err := r.db.QueryRowContext(ctx, q, stationID, model.HistoryCalled, model.HistoryInProgress).
		Scan(&s.QueueID, &s.Number, &s.PersonName, &s.Status, &calledAt, &startedAt, &calledBy)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.CalledAt = timeOrNil(calledAt)
	s.StartedAt = timeOrNil(startedAt)
	s.CalledBy = strOrNil(calledBy)
	return &s, nil
}
