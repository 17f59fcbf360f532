// Package service holds the core orchestration: the sequence allocator,
// the station directory, the case registry, the station workflow engine
// and the archive engine.  Services depend only on the persistence
// contracts below, not on a concrete query layer, so every invariant
// check runs inside the same transaction as the write it guards and the
// services stay testable against in-memory stores.
package service

import (
	"context"
	"time"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
	"github.com/SohaibShaar/waiting-system-sub001/internal/queue"
	"github.com/SohaibShaar/waiting-system-sub001/internal/repository"
)

// TxBeginner opens the unit of work the services commit or roll back.
type TxBeginner interface {
	Begin(ctx context.Context) (repository.Tx, error)
}

// SettingStore is the persistence contract for the key -> string store
// backing the sequence counter and the archive marker.
type SettingStore interface {
	TxBeginner
	GetForUpdateTx(ctx context.Context, tx repository.Tx, key string) (string, bool, error)
	UpsertTx(ctx context.Context, tx repository.Tx, key, value string) error
	Upsert(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
}

// PersonStore resolves and creates identity rows.
type PersonStore interface {
	FindByIdentityTx(ctx context.Context, tx repository.Tx, phone, nationalID *string) (*model.Person, error)
	CreateTx(ctx context.Context, tx repository.Tx, p *model.Person) error
	GetTx(ctx context.Context, tx repository.Tx, id uint64) (*model.Person, error)
}

// QueueStore is the persistence contract for visit rows.
type QueueStore interface {
	CreateTx(ctx context.Context, tx repository.Tx, q *model.Queue) error
	GetByID(ctx context.Context, id uint64) (*model.Queue, error)
	GetForUpdateTx(ctx context.Context, tx repository.Tx, id uint64) (*model.Queue, error)
	UpdateStatusTx(ctx context.Context, tx repository.Tx, id uint64, status string, completedAt *time.Time) error
	UpdateStationTx(ctx context.Context, tx repository.Tx, id, stationID uint64) error
	UpdatePriorityTx(ctx context.Context, tx repository.Tx, id uint64, priority int) error
	ListTerminalTx(ctx context.Context, tx repository.Tx) ([]model.Queue, error)
}

// HistoryStore is the persistence contract for the per-(queue, station)
// state records.  The ...AtStationTx reads must lock the rows they
// return so the exclusivity check and the write are atomic.
type HistoryStore interface {
	CreateTx(ctx context.Context, tx repository.Tx, h *model.HistoryEntry) error
	UpdateTx(ctx context.Context, tx repository.Tx, h *model.HistoryEntry) error
	ActiveAtStationTx(ctx context.Context, tx repository.Tx, stationID uint64) (*model.HistoryEntry, error)
	WaitingAtStationTx(ctx context.Context, tx repository.Tx, stationID uint64) ([]repository.WaitingEntry, error)
	LatestAtStationTx(ctx context.Context, tx repository.Tx, queueID, stationID uint64) (*model.HistoryEntry, error)
	OpenForQueueTx(ctx context.Context, tx repository.Tx, queueID uint64) (*model.HistoryEntry, error)
	ListForQueueTx(ctx context.Context, tx repository.Tx, queueID uint64) ([]model.HistoryEntry, error)
}

// StationStore answers the ordering queries routing depends on.
type StationStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Station, error)
	FirstActive(ctx context.Context) (*model.Station, error)
	NextActiveAfter(ctx context.Context, order uint32) (*model.Station, error)
	List(ctx context.Context) ([]model.Station, error)
}

// StageStore reads the per-stage capture documents attached to a queue.
type StageStore interface {
	ListForQueueTx(ctx context.Context, tx repository.Tx, queueID uint64) ([]model.StageRecord, error)
}

// VisitStore persists completed-visit snapshots.
type VisitStore interface {
	CreateTx(ctx context.Context, tx repository.Tx, v *model.CompletedVisit) error
	GetByQueueTx(ctx context.Context, tx repository.Tx, queueID uint64) (*model.CompletedVisit, error)
}

// ArchiveStore writes the cold-storage mirrors and performs the
// dependency-ordered deletes.
type ArchiveStore interface {
	InsertPersonTx(ctx context.Context, tx repository.Tx, p *model.ArchivedPerson) error
	InsertQueueTx(ctx context.Context, tx repository.Tx, q *model.ArchivedQueue) error
	InsertHistoryTx(ctx context.Context, tx repository.Tx, h *model.ArchivedHistoryEntry) error
	InsertStageTx(ctx context.Context, tx repository.Tx, s *model.ArchivedStageRecord) error
	InsertVisitTx(ctx context.Context, tx repository.Tx, v *model.ArchivedVisit) error
	DeleteQueueDataTx(ctx context.Context, tx repository.Tx, queueID uint64) error
	DeletePersonIfUnreferencedTx(ctx context.Context, tx repository.Tx, personID uint64) error
}

// VisitPublisher hands a completed visit to the message broker.  Wired
// to queue.PublishVisitCompleted in production; failures are logged by
// the publisher and ignored by the workflow.
type VisitPublisher func(ctx context.Context, ev queue.VisitCompletedEvent) error
