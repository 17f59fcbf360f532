package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
	"github.com/SohaibShaar/waiting-system-sub001/internal/notifier"
)

// Archive migrates terminal queues into the cold-storage mirrors,
// deletes the originals and resets the sequence counter.  The whole
// migration and deletion is one transaction: if any step fails nothing
// is migrated and nothing is deleted.  The terminal queues are selected
// under row locks, so station operations targeting them block until the
// run commits.
type Archive struct {
	store    TxBeginner
	queues   QueueStore
	history  HistoryStore
	stages   StageStore
	visits   VisitStore
	persons  PersonStore
	stations StationStore
	mirror   ArchiveStore
	settings SettingStore
	alloc    *Allocator
	events   notifier.Notifier
}

// NewArchive constructs an Archive engine.  All stores must be non-nil;
// events may be nil.
func NewArchive(store TxBeginner, queues QueueStore, history HistoryStore, stages StageStore,
	visits VisitStore, persons PersonStore, stations StationStore, mirror ArchiveStore,
	settings SettingStore, alloc *Allocator, events notifier.Notifier) *Archive {
	if store == nil || queues == nil || history == nil || mirror == nil || settings == nil || alloc == nil {
		panic("nil dependency passed to NewArchive")
	}
	if events == nil {
		events = notifier.Nop{}
	}
	return &Archive{
		store:    store,
		queues:   queues,
		history:  history,
		stages:   stages,
		visits:   visits,
		persons:  persons,
		stations: stations,
		mirror:   mirror,
		settings: settings,
		alloc:    alloc,
		events:   events,
	}
}

// Run archives every COMPLETED or CANCELLED queue.  Returns the number
// of queues archived; zero eligible queues is a successful no-op.
// After the transaction commits the sequence counter is reset and the
// last-archive-date marker is updated.
func (a *Archive) Run(ctx context.Context) (int, error) {
	stationNames, err := a.stationNames(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := a.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	terminal, err := a.queues.ListTerminalTx(ctx, tx)
	if err != nil {
		return 0, err
	}
	if len(terminal) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	// Live person id -> archive person id, deduplicated within the run.
	personIDs := make(map[uint64]uint64)

	for i := range terminal {
		q := &terminal[i]
		archivePersonID, ok := personIDs[q.PersonID]
		if !ok {
			p, err := a.persons.GetTx(ctx, tx, q.PersonID)
			if err != nil {
				return 0, err
			}
			ap := &model.ArchivedPerson{FullName: p.FullName, Phone: p.Phone, NationalID: p.NationalID, ArchivedAt: now}
			if err := a.mirror.InsertPersonTx(ctx, tx, ap); err != nil {
				return 0, err
			}
			archivePersonID = ap.ID
			personIDs[q.PersonID] = archivePersonID
		}

		aq := &model.ArchivedQueue{
			Number:      q.Number,
			PersonID:    archivePersonID,
			StationName: stationLabel(stationNames, q.StationID),
			Status:      q.Status,
			Priority:    q.Priority,
			Notes:       q.Notes,
			CreatedAt:   q.CreatedAt,
			CompletedAt: q.CompletedAt,
			ArchivedAt:  now,
		}
		if err := a.mirror.InsertQueueTx(ctx, tx, aq); err != nil {
			return 0, err
		}

		entries, err := a.history.ListForQueueTx(ctx, tx, q.ID)
		if err != nil {
			return 0, err
		}
		for _, e := range entries {
			if err := a.mirror.InsertHistoryTx(ctx, tx, &model.ArchivedHistoryEntry{
				QueueID:     aq.ID,
				StationName: stationLabel(stationNames, e.StationID),
				Status:      e.Status,
				CalledAt:    e.CalledAt,
				StartedAt:   e.StartedAt,
				CompletedAt: e.CompletedAt,
				CalledBy:    e.CalledBy,
				Notes:       e.Notes,
				CreatedAt:   e.CreatedAt,
				ArchivedAt:  now,
			}); err != nil {
				return 0, err
			}
		}

		recs, err := a.stages.ListForQueueTx(ctx, tx, q.ID)
		if err != nil {
			return 0, err
		}
		for _, rec := range recs {
			if err := a.mirror.InsertStageTx(ctx, tx, &model.ArchivedStageRecord{
				QueueID:    aq.ID,
				Stage:      rec.Stage,
				Payload:    rec.Payload,
				CreatedAt:  rec.CreatedAt,
				ArchivedAt: now,
			}); err != nil {
				return 0, err
			}
		}

		visit, err := a.visits.GetByQueueTx(ctx, tx, q.ID)
		if err != nil {
			return 0, err
		}
		if visit != nil {
			if err := a.mirror.InsertVisitTx(ctx, tx, &model.ArchivedVisit{
				QueueID:     aq.ID,
				QueueNumber: visit.QueueNumber,
				PersonID:    archivePersonID,
				TotalSecs:   visit.TotalSecs,
				WaitingSecs: visit.WaitingSecs,
				ServiceSecs: visit.ServiceSecs,
				Stages:      visit.Stages,
				CreatedAt:   visit.CreatedAt,
				ArchivedAt:  now,
			}); err != nil {
				return 0, err
			}
		}
	}

	// Deletion only starts after every migration in the run succeeded.
	for i := range terminal {
		if err := a.mirror.DeleteQueueDataTx(ctx, tx, terminal[i].ID); err != nil {
			return 0, err
		}
	}
	for personID := range personIDs {
		if err := a.mirror.DeletePersonIfUnreferencedTx(ctx, tx, personID); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true

	if err := a.alloc.Reset(ctx); err != nil {
		return len(terminal), fmt.Errorf("archive committed but counter reset failed: %w", err)
	}
	if err := a.settings.Upsert(ctx, model.SettingLastArchiveDate, now.Format(time.RFC3339)); err != nil {
		return len(terminal), fmt.Errorf("archive committed but marker update failed: %w", err)
	}

	a.events.Publish(ctx, notifier.Event{Kind: notifier.EventScreenData})
	return len(terminal), nil
}

// stationNames preloads station id -> name.  Stations removed after a
// queue finished still need a label in the mirror rows.
func (a *Archive) stationNames(ctx context.Context) (map[uint64]string, error) {
	names := make(map[uint64]string)
	if a.stations == nil {
		return names, nil
	}
	stations, err := a.stations.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range stations {
		names[st.ID] = st.Name
	}
	return names, nil
}

// stationLabel falls back to a synthetic label when the station row was
// deleted between the queue finishing and the archive run.
func stationLabel(names map[uint64]string, id uint64) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("station-%d", id)
}
