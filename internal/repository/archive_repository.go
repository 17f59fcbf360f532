package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
)

// ArchiveRepo provides access to the cold-storage mirror tables and the
// dependency-ordered deletes that follow a successful migration.  All
// mirror ids are generated locally by the archive schema; live ids are
// never reused.
type ArchiveRepo struct{ *Store }

// NewArchiveRepo returns an ArchiveRepo sharing the given store.
func NewArchiveRepo(s *Store) *ArchiveRepo { return &ArchiveRepo{Store: s} }

// InsertPersonTx mirrors a person and populates the archive id.
func (r *ArchiveRepo) InsertPersonTx(ctx context.Context, tx Tx, p *model.ArchivedPerson) error {
	const q = `INSERT INTO archived_persons (full_name, phone, national_id, archived_at) VALUES (?, ?, ?, ?)`
	res, err := mtx(tx).ExecContext(ctx, q, p.FullName, nullStr(p.Phone), nullStr(p.NationalID), p.ArchivedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// InsertQueueTx mirrors a queue and populates the archive id.
func (r *ArchiveRepo) InsertQueueTx(ctx context.Context, tx Tx, q *model.ArchivedQueue) error {
	const stmt = `INSERT INTO archived_queues (number, person_id, station_name, status, priority, notes, created_at, completed_at, archived_at)
	              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := mtx(tx).ExecContext(ctx, stmt, q.Number, q.PersonID, q.StationName, q.Status, q.Priority,
		nullStr(q.Notes), q.CreatedAt.UTC(), nullTimeOf(q.CompletedAt), q.ArchivedAt.UTC())
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

// InsertHistoryTx mirrors one history entry.
func (r *ArchiveRepo) InsertHistoryTx(ctx context.Context, tx Tx, h *model.ArchivedHistoryEntry) error {
	const q = `INSERT INTO archived_queue_history (queue_id, station_name, status, called_at, started_at, completed_at, called_by, notes, created_at, archived_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := mtx(tx).ExecContext(ctx, q, h.QueueID, h.StationName, h.Status,
		nullTimeOf(h.CalledAt), nullTimeOf(h.StartedAt), nullTimeOf(h.CompletedAt),
		nullStr(h.CalledBy), nullStr(h.Notes), h.CreatedAt.UTC(), h.ArchivedAt.UTC())
	return err
}

// InsertStageTx mirrors one stage record.
func (r *ArchiveRepo) InsertStageTx(ctx context.Context, tx Tx, s *model.ArchivedStageRecord) error {
	const q = `INSERT INTO archived_stage_records (queue_id, stage, payload, created_at, archived_at) VALUES (?, ?, ?, ?, ?)`
	_, err := mtx(tx).ExecContext(ctx, q, s.QueueID, s.Stage, []byte(s.Payload), s.CreatedAt.UTC(), s.ArchivedAt.UTC())
	return err
}

// InsertVisitTx mirrors one completed-visit snapshot.
func (r *ArchiveRepo) InsertVisitTx(ctx context.Context, tx Tx, v *model.ArchivedVisit) error {
	const q = `INSERT INTO archived_visits (queue_id, queue_number, person_id, total_secs, waiting_secs, service_secs, stages, created_at, archived_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := mtx(tx).ExecContext(ctx, q, v.QueueID, v.QueueNumber, v.PersonID,
		v.TotalSecs, v.WaitingSecs, v.ServiceSecs, []byte(v.Stages), v.CreatedAt.UTC(), v.ArchivedAt.UTC())
	return err
}

// DeleteQueueDataTx removes a migrated queue and its children from the
// live schema, children before parent to respect referential
// constraints.
func (r *ArchiveRepo) DeleteQueueDataTx(ctx context.Context, tx Tx, queueID uint64) error {
	t := mtx(tx)
	for _, stmt := range []string{
		`DELETE FROM queue_history WHERE queue_id = ?`,
		`DELETE FROM stage_records WHERE queue_id = ?`,
		`DELETE FROM completed_visits WHERE queue_id = ?`,
		`DELETE FROM queues WHERE id = ?`,
	} {
		if _, err := t.ExecContext(ctx, stmt, queueID); err != nil {
			return err
		}
	}
	return nil
}

// DeletePersonIfUnreferencedTx removes a person once no live queue
// references them anymore.  Persons still owning an ACTIVE queue stay.
func (r *ArchiveRepo) DeletePersonIfUnreferencedTx(ctx context.Context, tx Tx, personID uint64) error {
	const q = `DELETE FROM persons WHERE id = ? AND NOT EXISTS (SELECT 1 FROM queues WHERE person_id = ?)`
	_, err := mtx(tx).ExecContext(ctx, q, personID, personID)
	return err
}

// ArchivedQueueDetail is the display shape for one archived queue.
type ArchivedQueueDetail struct {
	ID          uint64     `json:"id"`
	Number      int64      `json:"number"`
	PersonName  string     `json:"person_name"`
	Phone       *string    `json:"phone,omitempty"`
	NationalID  *string    `json:"national_id,omitempty"`
	StationName string     `json:"station_name"`
	Status      string     `json:"status"`
	Priority    int        `json:"priority"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ArchivedAt  time.Time  `json:"archived_at"`
}

// ArchiveFilter narrows the archived-queue listing.  Zero values mean
// "no filter"; Search matches queue number, person name, phone and
// national id.
type ArchiveFilter struct {
	From   *time.Time
	To     *time.Time
	Status string
	Search string
	Limit  int
	Offset int
}

// List returns archived queues matching the filter, newest first, plus
// the total match count for pagination.
func (r *ArchiveRepo) List(ctx context.Context, f ArchiveFilter) ([]ArchivedQueueDetail, int, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 8)
	if f.From != nil {
		where = append(where, "aq.archived_at >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "aq.archived_at < ?")
		args = append(args, f.To.UTC())
	}
	if f.Status != "" {
		where = append(where, "aq.status = ?")
		args = append(args, f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		where = append(where, "(CAST(aq.number AS CHAR) LIKE ? OR ap.full_name LIKE ? OR ap.phone LIKE ? OR ap.national_id LIKE ?)")
		args = append(args, like, like, like, like)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQ := `SELECT COUNT(*) FROM archived_queues aq JOIN archived_persons ap ON ap.id = aq.person_id` + cond
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	q := `SELECT aq.id, aq.number, ap.full_name, ap.phone, ap.national_id, aq.station_name,
	             aq.status, aq.priority, aq.created_at, aq.completed_at, aq.archived_at
	      FROM archived_queues aq
	      JOIN archived_persons ap ON ap.id = aq.person_id` + cond + `
	      ORDER BY aq.archived_at DESC, aq.id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]ArchivedQueueDetail, 0, limit)
	for rows.Next() {
		var d ArchivedQueueDetail
		var phone, nationalID sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&d.ID, &d.Number, &d.PersonName, &phone, &nationalID, &d.StationName,
			&d.Status, &d.Priority, &d.CreatedAt, &completedAt, &d.ArchivedAt); err != nil {
			return nil, 0, err
		}
		d.Phone = strOrNil(phone)
		d.NationalID = strOrNil(nationalID)
		d.CompletedAt = timeOrNil(completedAt)
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// ArchiveStats aggregates the mirror tables for the statistics
// endpoint.
type ArchiveStats struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	AvgTotalSec int64          `json:"avg_total_secs"`
}

// Stats returns totals by status and the average visit duration across
// archived snapshots.
func (r *ArchiveRepo) Stats(ctx context.Context) (*ArchiveStats, error) {
	stats := &ArchiveStats{ByStatus: make(map[string]int)}
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM archived_queues GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, `SELECT AVG(total_secs) FROM archived_visits`).Scan(&avg); err != nil {
		return nil, err
	}
	if avg.Valid {
		stats.AvgTotalSec = int64(avg.Float64)
	}
	return stats, nil
}
