package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
)

// StationRepo provides CRUD access to the stations table plus the two
// ordering queries routing depends on.  Station order is strict: the
// sort_order column carries a unique index and inactive stations are
// invisible to both ordering queries.
type StationRepo struct{ *Store }

// NewStationRepo returns a StationRepo sharing the given store.
func NewStationRepo(s *Store) *StationRepo { return &StationRepo{Store: s} }

const stationCols = `id, name, display_number, sort_order, is_active, created_at, updated_at`

func scanStation(row rowScanner) (*model.Station, error) {
	var st model.Station
	if err := row.Scan(&st.ID, &st.Name, &st.DisplayNumber, &st.SortOrder, &st.IsActive, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

// List returns all stations ordered by sort_order, including inactive
// ones so configuration screens can re-enable them.
func (r *StationRepo) List(ctx context.Context) ([]model.Station, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+stationCols+` FROM stations ORDER BY sort_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Station, 0)
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

// GetByID fetches a station by id.
func (r *StationRepo) GetByID(ctx context.Context, id uint64) (*model.Station, error) {
	st, err := scanStation(r.db.QueryRowContext(ctx, `SELECT `+stationCols+` FROM stations WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return st, err
}

// Create inserts a station.  A duplicate sort_order trips the unique
// index and is reported as ErrConflict.
func (r *StationRepo) Create(ctx context.Context, st *model.Station) error {
	const q = `INSERT INTO stations (name, display_number, sort_order, is_active) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, st.Name, st.DisplayNumber, st.SortOrder, st.IsActive)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	st.ID = uint64(id)
	return nil
}

// Update mutates the mutable station attributes (name, display number,
// order, active flag).  Station identity is immutable once created.
func (r *StationRepo) Update(ctx context.Context, st *model.Station) error {
	const q = `UPDATE stations SET name = ?, display_number = ?, sort_order = ?, is_active = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, st.Name, st.DisplayNumber, st.SortOrder, st.IsActive, st.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

// Delete removes a station unless any ACTIVE queue still references
// it, in which case ErrConflict is returned and nothing changes.
func (r *StationRepo) Delete(ctx context.Context, id uint64) error {
	n, err := r.ActiveQueueCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM stations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return err
}

// ActiveQueueCount counts ACTIVE queues currently routed to a station.
func (r *StationRepo) ActiveQueueCount(ctx context.Context, stationID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queues WHERE station_id = ? AND status = ?`,
		stationID, model.QueueActive).Scan(&n)
	return n, err
}

// FirstActive returns the lowest-order active station, the intake
// point.  ErrNotFound means no active station exists at all.
func (r *StationRepo) FirstActive(ctx context.Context) (*model.Station, error) {
	st, err := scanStation(r.db.QueryRowContext(ctx,
		`SELECT `+stationCols+` FROM stations WHERE is_active = 1 ORDER BY sort_order LIMIT 1`))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return st, err
}

// NextActiveAfter returns the lowest-order active station whose order
// exceeds the given one, or ErrNotFound when the given order belongs to
// the terminal station.
func (r *StationRepo) NextActiveAfter(ctx context.Context, order uint32) (*model.Station, error) {
	st, err := scanStation(r.db.QueryRowContext(ctx,
		`SELECT `+stationCols+` FROM stations WHERE is_active = 1 AND sort_order > ? ORDER BY sort_order LIMIT 1`, order))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return st, err
}
