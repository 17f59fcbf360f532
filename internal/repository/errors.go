// Package repository defines sentinel errors shared across the
// repositories and the services built on top of them.  Handlers use
// errors.Is against these values to pick response status codes, so no
// partial mutation ever leaks out with a 4xx answer.
package repository

import "errors"

// ErrNotFound is returned when a queue, station, person or history
// entry does not exist.  Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrInvalidState is returned when an operation targets an entry or
// queue that is not in the required source state, e.g. completing an
// entry that is not IN_PROGRESS or cancelling twice.  Handlers
// translate it into HTTP 409.
var ErrInvalidState = errors.New("invalid state")

// ErrStationBusy is returned when a call is attempted while the station
// already has an entry in CALLED or IN_PROGRESS.  The current visitor
// must be completed or skipped first.  Handlers translate it into
// HTTP 409.
var ErrStationBusy = errors.New("station busy")

// ErrNothingWaiting is returned by call-next when the station has no
// WAITING entries.  Handlers translate it into HTTP 404.
var ErrNothingWaiting = errors.New("nothing waiting")

// ErrNoServiceStation is returned at intake when no active service
// station follows the intake station.  This is a configuration error,
// surfaced as HTTP 500.
var ErrNoServiceStation = errors.New("no service station configured")

// ErrConflict is returned when a delete cannot proceed because of
// dependent records, such as removing a station that active queues
// still reference.  Handlers translate it into HTTP 400.
var ErrConflict = errors.New("conflict")
