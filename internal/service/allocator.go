package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
)

// Allocator issues unique, strictly increasing queue numbers from a
// single settings row.  The row is read under FOR UPDATE inside each
// allocation's transaction, so concurrent callers serialize on it and
// can never receive the same number twice.
type Allocator struct {
	settings SettingStore
}

// NewAllocator returns an Allocator over the given settings store.
func NewAllocator(settings SettingStore) *Allocator {
	return &Allocator{settings: settings}
}

// Next increments the counter and returns the new value.  A missing
// counter row is initialized to zero before the first allocation.
func (a *Allocator) Next(ctx context.Context) (int64, error) {
	tx, err := a.settings.Begin(ctx)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	raw, ok, err := a.settings.GetForUpdateTx(ctx, tx, model.SettingQueueCounter)
	if err != nil {
		return 0, err
	}
	var current int64
	if ok {
		current, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("corrupt queue counter %q: %w", raw, err)
		}
	}
	next := current + 1
	if err := a.settings.UpsertTx(ctx, tx, model.SettingQueueCounter, strconv.FormatInt(next, 10)); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return next, nil
}

// Reset sets the counter back to zero.  The next allocation returns 1.
func (a *Allocator) Reset(ctx context.Context) error {
	tx, err := a.settings.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := a.settings.UpsertTx(ctx, tx, model.SettingQueueCounter, "0"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
