package repository

import (
	"context"
	"database/sql"
)

// Tx is the unit-of-work handle passed to the ...Tx repository methods.
// Services only ever see this interface, which keeps them testable with
// in-memory stores; the MySQL implementation wraps *sql.Tx.
type Tx interface {
	Commit() error
	Rollback() error
}

type sqlTx struct{ tx *sql.Tx }

func (t *sqlTx) Commit() error   { return t.tx.Commit() }
func (t *sqlTx) Rollback() error { return t.tx.Rollback() }

// Store owns the database handle and begins transactions for the
// service layer.  The per-table repositories share the same *sql.DB.
type Store struct{ db *sql.DB }

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Begin opens a new transaction.  The caller must commit or roll back.
func (s *Store) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

// mtx unwraps the concrete transaction for use inside this package.
// Passing a Tx that did not come from Store.Begin is a programming
// error and panics.
func mtx(tx Tx) *sql.Tx { return tx.(*sqlTx).tx }
