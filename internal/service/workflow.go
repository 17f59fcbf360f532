package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
	"github.com/SohaibShaar/waiting-system-sub001/internal/notifier"
	"github.com/SohaibShaar/waiting-system-sub001/internal/queue"
	"github.com/SohaibShaar/waiting-system-sub001/internal/repository"
)

// Workflow is the per-station state machine: calling, starting,
// completing and skipping visitors, and the station-to-station
// transition at completion.  Every operation takes the station's row
// locks inside a single transaction, so the exclusivity check (at most
// one CALLED or IN_PROGRESS entry per station) cannot race a second
// call on the same station.
type Workflow struct {
	store        TxBeginner
	queues       QueueStore
	history      HistoryStore
	stations     StationStore
	stages       StageStore
	visits       VisitStore
	persons      PersonStore
	directory    *Directory
	events       notifier.Notifier
	publishVisit VisitPublisher
}

// NewWorkflow constructs a Workflow.  All stores must be non-nil;
// events and publishVisit may be nil and default to no-ops.
func NewWorkflow(store TxBeginner, queues QueueStore, history HistoryStore, stations StationStore,
	stages StageStore, visits VisitStore, persons PersonStore, directory *Directory,
	events notifier.Notifier, publishVisit VisitPublisher) *Workflow {
	if store == nil || queues == nil || history == nil || stations == nil || directory == nil {
		panic("nil dependency passed to NewWorkflow")
	}
	if events == nil {
		events = notifier.Nop{}
	}
	if publishVisit == nil {
		publishVisit = func(context.Context, queue.VisitCompletedEvent) error { return nil }
	}
	return &Workflow{
		store:        store,
		queues:       queues,
		history:      history,
		stations:     stations,
		stages:       stages,
		visits:       visits,
		persons:      persons,
		directory:    directory,
		events:       events,
		publishVisit: publishVisit,
	}
}

// CallResult is what a station announces after a successful call.
type CallResult struct {
	QueueID        uint64 `json:"queue_id"`
	Number         int64  `json:"number"`
	StationID      uint64 `json:"station_id"`
	StationDisplay uint32 `json:"station_display"`
}

// pickNext orders waiting candidates by priority descending, then by
// entry creation time (FIFO within a priority), then by id for
// determinism, and returns the winner.
func pickNext(waiting []repository.WaitingEntry) repository.WaitingEntry {
	sort.SliceStable(waiting, func(i, j int) bool {
		if waiting[i].Priority != waiting[j].Priority {
			return waiting[i].Priority > waiting[j].Priority
		}
		if !waiting[i].Entry.CreatedAt.Equal(waiting[j].Entry.CreatedAt) {
			return waiting[i].Entry.CreatedAt.Before(waiting[j].Entry.CreatedAt)
		}
		return waiting[i].Entry.ID < waiting[j].Entry.ID
	})
	return waiting[0]
}

// CallNext calls the best waiting visitor at a station.  Fails with
// ErrStationBusy while an earlier call has not been completed or
// skipped, and with ErrNothingWaiting on an empty line.
func (w *Workflow) CallNext(ctx context.Context, stationID uint64, calledBy *string) (*CallResult, error) {
	return w.call(ctx, stationID, calledBy, nil)
}

// CallSpecific calls the visitor holding the given queue number instead
// of the best-priority one.  Fails with ErrNotFound when no matching
// WAITING entry exists at the station.
func (w *Workflow) CallSpecific(ctx context.Context, number int64, stationID uint64, calledBy *string) (*CallResult, error) {
	return w.call(ctx, stationID, calledBy, &number)
}

func (w *Workflow) call(ctx context.Context, stationID uint64, calledBy *string, number *int64) (*CallResult, error) {
	station, err := w.stations.GetByID(ctx, stationID)
	if err != nil {
		return nil, err
	}

	tx, err := w.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	active, err := w.history.ActiveAtStationTx(ctx, tx, stationID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, repository.ErrStationBusy
	}

	waiting, err := w.history.WaitingAtStationTx(ctx, tx, stationID)
	if err != nil {
		return nil, err
	}

	var chosen *repository.WaitingEntry
	if number != nil {
		for i := range waiting {
			if waiting[i].Number == *number {
				chosen = &waiting[i]
				break
			}
		}
		if chosen == nil {
			return nil, repository.ErrNotFound
		}
	} else {
		if len(waiting) == 0 {
			return nil, repository.ErrNothingWaiting
		}
		c := pickNext(waiting)
		chosen = &c
	}

	if !model.CanTransition(chosen.Entry.Status, model.HistoryCalled) {
		return nil, repository.ErrInvalidState
	}
	now := time.Now().UTC()
	chosen.Entry.Status = model.HistoryCalled
	chosen.Entry.CalledAt = &now
	chosen.Entry.CalledBy = calledBy
	if err := w.history.UpdateTx(ctx, tx, &chosen.Entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	res := &CallResult{
		QueueID:        chosen.Entry.QueueID,
		Number:         chosen.Number,
		StationID:      station.ID,
		StationDisplay: station.DisplayNumber,
	}
	w.events.Publish(ctx, notifier.Event{Kind: notifier.EventPatientCalled, QueueID: res.QueueID, Number: res.Number, StationID: station.ID, StationDisplay: station.DisplayNumber})
	w.events.Publish(ctx, notifier.Event{Kind: notifier.EventStationState, StationID: station.ID})
	return res, nil
}

// Start moves a CALLED entry to IN_PROGRESS and stamps startedAt.
func (w *Workflow) Start(ctx context.Context, queueID, stationID uint64) error {
	tx, err := w.store.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	entry, err := w.history.LatestAtStationTx(ctx, tx, queueID, stationID)
	if err != nil {
		return err
	}
	if !model.CanTransition(entry.Status, model.HistoryInProgress) {
		return repository.ErrInvalidState
	}
	now := time.Now().UTC()
	entry.Status = model.HistoryInProgress
	entry.StartedAt = &now
	if err := w.history.UpdateTx(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	w.events.Publish(ctx, notifier.Event{Kind: notifier.EventQueueState, Change: "started", QueueID: queueID, StationID: stationID})
	w.events.Publish(ctx, notifier.Event{Kind: notifier.EventStationState, StationID: stationID})
	return nil
}

// CompleteResult reports whether the queue finished its last station or
// moved on, and where to.
type CompleteResult struct {
	Completed   bool           `json:"completed"`
	NextStation *model.Station `json:"-"`
}

// Complete finishes the IN_PROGRESS entry at a station.  When a next
// active station exists the visitor joins its waiting line; otherwise
// the queue completes and a completed-visit snapshot is written in the
// same transaction.
func (w *Workflow) Complete(ctx context.Context, queueID, stationID uint64, notes *string) (*CompleteResult, error) {
	station, err := w.stations.GetByID(ctx, stationID)
	if err != nil {
		return nil, err
	}
	next, err := w.directory.NextAfter(ctx, station)
	if err != nil {
		return nil, err
	}

	tx, err := w.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	q, err := w.queues.GetForUpdateTx(ctx, tx, queueID)
	if err != nil {
		return nil, err
	}
	entry, err := w.history.LatestAtStationTx(ctx, tx, queueID, stationID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(entry.Status, model.HistoryCompleted) {
		return nil, repository.ErrInvalidState
	}
	now := time.Now().UTC()
	entry.Status = model.HistoryCompleted
	entry.CompletedAt = &now
	if notes != nil {
		entry.Notes = notes
	}
	if err := w.history.UpdateTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	var ev queue.VisitCompletedEvent
	if next != nil {
		if err := w.history.CreateTx(ctx, tx, &model.HistoryEntry{
			QueueID:   queueID,
			StationID: next.ID,
			Status:    model.HistoryWaiting,
		}); err != nil {
			return nil, err
		}
		if err := w.queues.UpdateStationTx(ctx, tx, queueID, next.ID); err != nil {
			return nil, err
		}
	} else {
		if err := w.queues.UpdateStatusTx(ctx, tx, queueID, model.QueueCompleted, &now); err != nil {
			return nil, err
		}
		entries, err := w.history.ListForQueueTx(ctx, tx, queueID)
		if err != nil {
			return nil, err
		}
		recs, err := w.stages.ListForQueueTx(ctx, tx, queueID)
		if err != nil {
			return nil, err
		}
		visit, err := buildSnapshot(q, entries, recs, now)
		if err != nil {
			return nil, err
		}
		if err := w.visits.CreateTx(ctx, tx, visit); err != nil {
			return nil, err
		}
		personName := ""
		if w.persons != nil {
			if p, err := w.persons.GetTx(ctx, tx, q.PersonID); err == nil {
				personName = p.FullName
			}
		}
		ev = queue.VisitCompletedEvent{
			QueueID:     q.ID,
			Number:      q.Number,
			PersonName:  personName,
			TotalSecs:   visit.TotalSecs,
			WaitingSecs: visit.WaitingSecs,
			ServiceSecs: visit.ServiceSecs,
			CompletedAt: now.Format(time.RFC3339),
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	w.events.Publish(ctx, notifier.Event{Kind: notifier.EventStationState, StationID: stationID})
	if next != nil {
		w.events.Publish(ctx, notifier.Event{Kind: notifier.EventQueueState, Change: "moved", QueueID: q.ID, Number: q.Number, StationID: next.ID, StationDisplay: next.DisplayNumber})
		w.events.Publish(ctx, notifier.Event{Kind: notifier.EventStationState, StationID: next.ID})
		return &CompleteResult{Completed: false, NextStation: next}, nil
	}
	w.events.Publish(ctx, notifier.Event{Kind: notifier.EventCaseCompleted, QueueID: q.ID, Number: q.Number})
	w.events.Publish(ctx, notifier.Event{Kind: notifier.EventScreenData})
	_ = w.publishVisit(ctx, ev)
	return &CompleteResult{Completed: true}, nil
}

// Skip terminates a WAITING or CALLED entry without serving it.  The
// queue stays at the station; re-admission is a deliberate operator
// action (Readmit), never automatic.
func (w *Workflow) Skip(ctx context.Context, queueID, stationID uint64) error {
	tx, err := w.store.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	entry, err := w.history.LatestAtStationTx(ctx, tx, queueID, stationID)
	if err != nil {
		return err
	}
	if !model.CanTransition(entry.Status, model.HistorySkipped) {
		return repository.ErrInvalidState
	}
	entry.Status = model.HistorySkipped
	if err := w.history.UpdateTx(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	w.events.Publish(ctx, notifier.Event{Kind: notifier.EventQueueState, Change: "skipped", QueueID: queueID, StationID: stationID})
	w.events.Publish(ctx, notifier.Event{Kind: notifier.EventStationState, StationID: stationID})
	return nil
}

// Readmit puts a previously skipped queue back into its station's
// waiting line with a fresh WAITING entry.  The queue must be ACTIVE at
// that station with no open entry anywhere.
func (w *Workflow) Readmit(ctx context.Context, queueID, stationID uint64) error {
	tx, err := w.store.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	q, err := w.queues.GetForUpdateTx(ctx, tx, queueID)
	if err != nil {
		return err
	}
	if q.Status != model.QueueActive || q.StationID != stationID {
		return repository.ErrInvalidState
	}
	open, err := w.history.OpenForQueueTx(ctx, tx, queueID)
	if err != nil {
		return err
	}
	if open != nil {
		return repository.ErrInvalidState
	}
	if err := w.history.CreateTx(ctx, tx, &model.HistoryEntry{
		QueueID:   queueID,
		StationID: stationID,
		Status:    model.HistoryWaiting,
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	w.events.Publish(ctx, notifier.Event{Kind: notifier.EventQueueState, Change: "readmitted", QueueID: q.ID, Number: q.Number, StationID: stationID})
	w.events.Publish(ctx, notifier.Event{Kind: notifier.EventStationState, StationID: stationID})
	return nil
}

// buildSnapshot computes the denormalized completed-visit record:
// total duration from intake to completion, waiting and service time
// summed across all history entries, and the per-stage capture payloads
// keyed by stage tag.
func buildSnapshot(q *model.Queue, entries []model.HistoryEntry, recs []model.StageRecord, completedAt time.Time) (*model.CompletedVisit, error) {
	var waitingSecs, serviceSecs int64
	for _, e := range entries {
		ref := e.StartedAt
		if ref == nil {
			ref = e.CalledAt
		}
		if ref != nil {
			if d := int64(ref.Sub(e.CreatedAt).Seconds()); d > 0 {
				waitingSecs += d
			}
		}
		if e.StartedAt != nil && e.CompletedAt != nil {
			if d := int64(e.CompletedAt.Sub(*e.StartedAt).Seconds()); d > 0 {
				serviceSecs += d
			}
		}
	}
	total := int64(completedAt.Sub(q.CreatedAt).Seconds())
	if total < 0 {
		total = 0
	}
	stages := make(map[string]json.RawMessage, len(recs))
	for _, rec := range recs {
		stages[rec.Stage] = rec.Payload
	}
	blob, err := json.Marshal(stages)
	if err != nil {
		return nil, err
	}
	return &model.CompletedVisit{
		QueueID:     q.ID,
		QueueNumber: q.Number,
		PersonID:    q.PersonID,
		TotalSecs:   total,
		WaitingSecs: waitingSecs,
		ServiceSecs: serviceSecs,
		Stages:      json.RawMessage(blob),
	}, nil
}
