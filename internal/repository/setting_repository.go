package repository

import (
	"context"
	"database/sql"
)

// SettingRepo provides access to the generic key -> string settings
// store.  The sequence counter and the last-archive-date marker live
// here; both are upserted, never deleted.  The counter is only read
// under a row lock so concurrent allocations serialize on it.
type SettingRepo struct{ *Store }

// NewSettingRepo returns a SettingRepo sharing the given store.
func NewSettingRepo(s *Store) *SettingRepo { return &SettingRepo{Store: s} }

// GetForUpdateTx reads a setting under a row lock.  The second return
// value reports whether the key exists; a missing key is not an error
// so callers can initialize on first use.
func (r *SettingRepo) GetForUpdateTx(ctx context.Context, tx Tx, key string) (string, bool, error) {
	var v string
	err := mtx(tx).QueryRowContext(ctx,
		`SELECT value FROM settings WHERE `+"`key`"+` = ? FOR UPDATE`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// UpsertTx creates or replaces a setting inside the transaction.
func (r *SettingRepo) UpsertTx(ctx context.Context, tx Tx, key, value string) error {
	const q = "INSERT INTO settings (`key`, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)"
	_, err := mtx(tx).ExecContext(ctx, q, key, value)
	return err
}

// Get reads a setting outside any transaction.  Missing keys are
// reported as ErrNotFound.
func (r *SettingRepo) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE `+"`key`"+` = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return v, err
}

// Upsert creates or replaces a setting in its own statement.
func (r *SettingRepo) Upsert(ctx context.Context, key, value string) error {
	const q = "INSERT INTO settings (`key`, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)"
	_, err := r.db.ExecContext(ctx, q, key, value)
	return err
}
