package service

import (
	"context"
	"errors"
	"time"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
	"github.com/SohaibShaar/waiting-system-sub001/internal/notifier"
	"github.com/SohaibShaar/waiting-system-sub001/internal/repository"
)

// Registry owns the visit lifecycle outside station serving: intake,
// priority changes, cancellation, reinstatement and operator-forced
// completion.  Every mutation runs in one transaction; the intake
// history entry is written as already COMPLETED because reception is
// handled synchronously at the desk, not queued.
type Registry struct {
	store     TxBeginner
	persons   PersonStore
	queues    QueueStore
	history   HistoryStore
	stages    StageStore
	visits    VisitStore
	directory *Directory
	alloc     *Allocator
	events    notifier.Notifier
}

// NewRegistry constructs a Registry.  All dependencies must be non-nil.
func NewRegistry(store TxBeginner, persons PersonStore, queues QueueStore, history HistoryStore,
	stages StageStore, visits VisitStore, directory *Directory, alloc *Allocator, events notifier.Notifier) *Registry {
	if store == nil || persons == nil || queues == nil || history == nil || directory == nil || alloc == nil {
		panic("nil dependency passed to NewRegistry")
	}
	if events == nil {
		events = notifier.Nop{}
	}
	return &Registry{
		store:     store,
		persons:   persons,
		queues:    queues,
		history:   history,
		stages:    stages,
		visits:    visits,
		directory: directory,
		alloc:     alloc,
		events:    events,
	}
}

// OpenRequest carries the intake form.  FullName is required; phone and
// national id are optional dedupe keys.
type OpenRequest struct {
	FullName   string
	Phone      *string
	NationalID *string
	Priority   int
	Notes      *string
}

// OpenResult reports the created queue, the issued number and the first
// service station the visitor should head to.
type OpenResult struct {
	Queue   model.Queue
	Number  int64
	Station model.Station
}

// Open registers a visit: resolves or creates the person, allocates the
// next queue number, writes the queue row pointed at the first service
// station, records the intake stop as COMPLETED and puts the visitor in
// that first station's waiting line.
func (r *Registry) Open(ctx context.Context, req OpenRequest) (*OpenResult, error) {
	intake, err := r.directory.First(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, repository.ErrNoServiceStation
	}
	if err != nil {
		return nil, err
	}
	first, err := r.directory.NextAfter(ctx, intake)
	if err != nil {
		return nil, err
	}
	if first == nil {
		return nil, repository.ErrNoServiceStation
	}

	number, err := r.alloc.Next(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := r.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	person, err := r.persons.FindByIdentityTx(ctx, tx, req.Phone, req.NationalID)
	if errors.Is(err, repository.ErrNotFound) {
		person = &model.Person{FullName: req.FullName, Phone: req.Phone, NationalID: req.NationalID}
		err = r.persons.CreateTx(ctx, tx, person)
	}
	if err != nil {
		return nil, err
	}

	q := &model.Queue{
		Number:    number,
		PersonID:  person.ID,
		StationID: first.ID,
		Status:    model.QueueActive,
		Priority:  req.Priority,
		Notes:     req.Notes,
	}
	if err := r.queues.CreateTx(ctx, tx, q); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	done := now
	if err := r.history.CreateTx(ctx, tx, &model.HistoryEntry{
		QueueID:     q.ID,
		StationID:   intake.ID,
		Status:      model.HistoryCompleted,
		CompletedAt: &done,
	}); err != nil {
		return nil, err
	}
	if err := r.history.CreateTx(ctx, tx, &model.HistoryEntry{
		QueueID:   q.ID,
		StationID: first.ID,
		Status:    model.HistoryWaiting,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	r.events.Publish(ctx, notifier.Event{Kind: notifier.EventNewCase, QueueID: q.ID, Number: number, StationID: first.ID, StationDisplay: first.DisplayNumber})
	r.events.Publish(ctx, notifier.Event{Kind: notifier.EventStationState, StationID: first.ID})
	r.events.Publish(ctx, notifier.Event{Kind: notifier.EventScreenData})

	return &OpenResult{Queue: *q, Number: number, Station: *first}, nil
}

// ChangePriority sets a new priority on an ACTIVE queue.  Entries that
// have already been CALLED keep their turn.
func (r *Registry) ChangePriority(ctx context.Context, queueID uint64, priority int) error {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	q, err := r.queues.GetForUpdateTx(ctx, tx, queueID)
	if err != nil {
		return err
	}
	if q.Status != model.QueueActive {
		return repository.ErrInvalidState
	}
	if err := r.queues.UpdatePriorityTx(ctx, tx, queueID, priority); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	r.events.Publish(ctx, notifier.Event{Kind: notifier.EventQueueState, Change: "priority", QueueID: q.ID, Number: q.Number, StationID: q.StationID})
	return nil
}

// Cancel marks an ACTIVE queue CANCELLED and closes its open history
// entry as SKIPPED.  Cancelling twice fails with ErrInvalidState.
func (r *Registry) Cancel(ctx context.Context, queueID uint64, reason *string) error {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	q, err := r.queues.GetForUpdateTx(ctx, tx, queueID)
	if err != nil {
		return err
	}
	if q.Status != model.QueueActive {
		return repository.ErrInvalidState
	}
	open, err := r.history.OpenForQueueTx(ctx, tx, queueID)
	if err != nil {
		return err
	}
	if open != nil {
		open.Status = model.HistorySkipped
		if reason != nil {
			open.Notes = reason
		}
		if err := r.history.UpdateTx(ctx, tx, open); err != nil {
			return err
		}
	}
	if err := r.queues.UpdateStatusTx(ctx, tx, queueID, model.QueueCancelled, nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	r.events.Publish(ctx, notifier.Event{Kind: notifier.EventQueueState, Change: "cancelled", QueueID: q.ID, Number: q.Number, StationID: q.StationID})
	r.events.Publish(ctx, notifier.Event{Kind: notifier.EventStationState, StationID: q.StationID})
	return nil
}

// Reinstate reverses a cancellation: the queue returns to ACTIVE with a
// fresh WAITING entry at its last known station.  Fails unless the
// queue is currently CANCELLED.
func (r *Registry) Reinstate(ctx context.Context, queueID uint64) error {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	q, err := r.queues.GetForUpdateTx(ctx, tx, queueID)
	if err != nil {
		return err
	}
	if q.Status != model.QueueCancelled {
		return repository.ErrInvalidState
	}
	if err := r.queues.UpdateStatusTx(ctx, tx, queueID, model.QueueActive, nil); err != nil {
		return err
	}
	if err := r.history.CreateTx(ctx, tx, &model.HistoryEntry{
		QueueID:   q.ID,
		StationID: q.StationID,
		Status:    model.HistoryWaiting,
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	r.events.Publish(ctx, notifier.Event{Kind: notifier.EventQueueState, Change: "reinstated", QueueID: q.ID, Number: q.Number, StationID: q.StationID})
	r.events.Publish(ctx, notifier.Event{Kind: notifier.EventStationState, StationID: q.StationID})
	return nil
}

// CompleteCase force-completes an ACTIVE queue without it passing the
// remaining stations.  The open entry closes as SKIPPED and a
// completed-visit snapshot is still written so the archive keeps its
// source of truth.
func (r *Registry) CompleteCase(ctx context.Context, queueID uint64) error {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	q, err := r.queues.GetForUpdateTx(ctx, tx, queueID)
	if err != nil {
		return err
	}
	if q.Status != model.QueueActive {
		return repository.ErrInvalidState
	}
	open, err := r.history.OpenForQueueTx(ctx, tx, queueID)
	if err != nil {
		return err
	}
	if open != nil {
		open.Status = model.HistorySkipped
		if err := r.history.UpdateTx(ctx, tx, open); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	if err := r.queues.UpdateStatusTx(ctx, tx, queueID, model.QueueCompleted, &now); err != nil {
		return err
	}
	entries, err := r.history.ListForQueueTx(ctx, tx, queueID)
	if err != nil {
		return err
	}
	recs, err := r.stages.ListForQueueTx(ctx, tx, queueID)
	if err != nil {
		return err
	}
	visit, err := buildSnapshot(q, entries, recs, now)
	if err != nil {
		return err
	}
	if err := r.visits.CreateTx(ctx, tx, visit); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	r.events.Publish(ctx, notifier.Event{Kind: notifier.EventCaseCompleted, QueueID: q.ID, Number: q.Number})
	r.events.Publish(ctx, notifier.Event{Kind: notifier.EventStationState, StationID: q.StationID})
	r.events.Publish(ctx, notifier.Event{Kind: notifier.EventScreenData})
	return nil
}
