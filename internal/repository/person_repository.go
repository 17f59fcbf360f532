package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
)

// PersonRepo provides access to the persons table.  People are looked
// up by phone or national id at intake so repeat visitors keep a single
// identity row across visits.
type PersonRepo struct{ *Store }

// NewPersonRepo returns a PersonRepo sharing the given store.
func NewPersonRepo(s *Store) *PersonRepo { return &PersonRepo{Store: s} }

// FindByIdentityTx looks up a person by phone or national id inside the
// given transaction.  Either argument may be nil; when both are nil the
// lookup fails with ErrNotFound so intake falls through to creation.
func (r *PersonRepo) FindByIdentityTx(ctx context.Context, tx Tx, phone, nationalID *string) (*model.Person, error) {
	clauses := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if phone != nil && strings.TrimSpace(*phone) != "" {
		clauses = append(clauses, "phone = ?")
		args = append(args, strings.TrimSpace(*phone))
	}
	if nationalID != nil && strings.TrimSpace(*nationalID) != "" {
		clauses = append(clauses, "national_id = ?")
		args = append(args, strings.TrimSpace(*nationalID))
	}
	if len(clauses) == 0 {
		return nil, ErrNotFound
	}
	q := `SELECT id, full_name, phone, national_id, created_at, updated_at
	      FROM persons WHERE ` + strings.Join(clauses, " OR ") + ` LIMIT 1`
	p, err := scanPerson(mtx(tx).QueryRowContext(ctx, q, args...))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// CreateTx inserts a person and populates the generated ID.
func (r *PersonRepo) CreateTx(ctx context.Context, tx Tx, p *model.Person) error {
	const q = `INSERT INTO persons (full_name, phone, national_id) VALUES (?, ?, ?)`
	res, err := mtx(tx).ExecContext(ctx, q, p.FullName, nullStr(p.Phone), nullStr(p.NationalID))
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

// GetTx fetches a person by id inside the given transaction.
func (r *PersonRepo) GetTx(ctx context.Context, tx Tx, id uint64) (*model.Person, error) {
	const q = `SELECT id, full_name, phone, national_id, created_at, updated_at FROM persons WHERE id = ?`
	p, err := scanPerson(mtx(tx).QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

// GetByID fetches a person by id.
func (r *PersonRepo) GetByID(ctx context.Context, id uint64) (*model.Person, error) {
	const q = `SELECT id, full_name, phone, national_id, created_at, updated_at FROM persons WHERE id = ?`
	p, err := scanPerson(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanPerson(row rowScanner) (*model.Person, error) {
	var p model.Person
	var phone, nationalID sql.NullString
	if err := row.Scan(&p.ID, &p.FullName, &phone, &nationalID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Phone = strOrNil(phone)
	p.NationalID = strOrNil(nationalID)
	return &p, nil
}

// nullStr converts an optional string into its nullable SQL form.
func nullStr(s *string) sql.NullString {
	if s == nil || strings.TrimSpace(*s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.TrimSpace(*s), Valid: true}
}

func strOrNil(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
