package service

import (
	"context"
	"errors"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
	"github.com/SohaibShaar/waiting-system-sub001/internal/repository"
)

// Directory answers "where does a visit start" and "what station
// follows station X".  Only active stations are visible; ordering is
// strictly by sort_order.
type Directory struct {
	stations StationStore
}

// NewDirectory returns a Directory over the given station store.
func NewDirectory(stations StationStore) *Directory {
	return &Directory{stations: stations}
}

// First returns the intake point: the lowest-order active station.
func (d *Directory) First(ctx context.Context) (*model.Station, error) {
	return d.stations.FirstActive(ctx)
}

// NextAfter returns the active station following the given one, or nil
// when the given station is terminal.
func (d *Directory) NextAfter(ctx context.Context, current *model.Station) (*model.Station, error) {
	st, err := d.stations.NextActiveAfter(ctx, current.SortOrder)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return st, err
}
