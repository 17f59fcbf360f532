package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
	"github.com/SohaibShaar/waiting-system-sub001/internal/notifier"
	"github.com/SohaibShaar/waiting-system-sub001/internal/queue"
	"github.com/SohaibShaar/waiting-system-sub001/internal/repository"
)

// fakeTx satisfies repository.Tx; the in-memory store applies writes
// immediately, the flags only let tests assert commit discipline.
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit() error   { t.committed = true; return nil }
func (t *fakeTx) Rollback() error { t.rolledBack = true; return nil }

// memStore is an in-memory double for every persistence contract the
// services depend on.  One instance backs all stores in a test so
// cross-table effects (intake writing person + queue + history) stay
// observable.
type memStore struct {
	mu     sync.Mutex
	nextID uint64
	base   time.Time

	persons  map[uint64]*model.Person
	stations map[uint64]*model.Station
	queues   map[uint64]*model.Queue
	history  map[uint64]*model.HistoryEntry
	stages   map[uint64]*model.StageRecord
	visits   map[uint64]*model.CompletedVisit // keyed by queue id
	settings map[string]string

	archPersons map[uint64]*model.ArchivedPerson
	archQueues  map[uint64]*model.ArchivedQueue
	archHistory []*model.ArchivedHistoryEntry
	archStages  []*model.ArchivedStageRecord
	archVisits  []*model.ArchivedVisit
}

func newMemStore() *memStore {
	return &memStore{
		base:        time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		persons:     make(map[uint64]*model.Person),
		stations:    make(map[uint64]*model.Station),
		queues:      make(map[uint64]*model.Queue),
		history:     make(map[uint64]*model.HistoryEntry),
		stages:      make(map[uint64]*model.StageRecord),
		visits:      make(map[uint64]*model.CompletedVisit),
		settings:    make(map[string]string),
		archPersons: make(map[uint64]*model.ArchivedPerson),
		archQueues:  make(map[uint64]*model.ArchivedQueue),
	}
}

// id hands out ids and a creation time that advances with each id, so
// insertion order and timestamp order agree.
func (m *memStore) id() (uint64, time.Time) {
	m.nextID++
	return m.nextID, m.base.Add(time.Duration(m.nextID) * time.Second)
}

func (m *memStore) Begin(ctx context.Context) (repository.Tx, error) {
	return &fakeTx{}, nil
}

// --- stations ---

func (m *memStore) addStation(name string, display, order uint32, active bool) *model.Station {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, at := m.id()
	st := &model.Station{ID: id, Name: name, DisplayNumber: display, SortOrder: order, IsActive: active, CreatedAt: at, UpdatedAt: at}
	m.stations[id] = st
	return st
}

func (m *memStore) GetByID(ctx context.Context, id uint64) (*model.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (m *memStore) List(ctx context.Context) ([]model.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Station, 0, len(m.stations))
	for _, st := range m.stations {
		out = append(out, *st)
	}
	return out, nil
}

func (m *memStore) FirstActive(ctx context.Context) (*model.Station, error) {
	return m.NextActiveAfter(ctx, 0)
}

func (m *memStore) NextActiveAfter(ctx context.Context, order uint32) (*model.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.Station
	for _, st := range m.stations {
		if !st.IsActive || st.SortOrder <= order {
			continue
		}
		if best == nil || st.SortOrder < best.SortOrder {
			best = st
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

// --- persons ---

func (m *memStore) FindByIdentityTx(ctx context.Context, tx repository.Tx, phone, nationalID *string) (*model.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match := func(have *string, want *string) bool {
		if have == nil || want == nil {
			return false
		}
		return strings.TrimSpace(*have) == strings.TrimSpace(*want) && strings.TrimSpace(*want) != ""
	}
	for _, p := range m.persons {
		if match(p.Phone, phone) || match(p.NationalID, nationalID) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) CreateTx(ctx context.Context, tx repository.Tx, p *model.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, at := m.id()
	p.ID = id
	p.CreatedAt = at
	p.UpdatedAt = at
	cp := *p
	m.persons[id] = &cp
	return nil
}

func (m *memStore) GetTx(ctx context.Context, tx repository.Tx, id uint64) (*model.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.persons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// --- queues ---

type queueStoreFacade struct{ *memStore }

func (m *memStore) CreateQueueTx(ctx context.Context, tx repository.Tx, q *model.Queue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, at := m.id()
	q.ID = id
	q.CreatedAt = at
	cp := *q
	m.queues[id] = &cp
	return nil
}

func (f queueStoreFacade) CreateTx(ctx context.Context, tx repository.Tx, q *model.Queue) error {
	return f.CreateQueueTx(ctx, tx, q)
}

func (f queueStoreFacade) GetByID(ctx context.Context, id uint64) (*model.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (f queueStoreFacade) GetForUpdateTx(ctx context.Context, tx repository.Tx, id uint64) (*model.Queue, error) {
	return f.GetByID(ctx, id)
}

func (f queueStoreFacade) UpdateStatusTx(ctx context.Context, tx repository.Tx, id uint64, status string, completedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queues[id]
	if !ok {
		return repository.ErrNotFound
	}
	q.Status = status
	q.CompletedAt = completedAt
	return nil
}

func (f queueStoreFacade) UpdateStationTx(ctx context.Context, tx repository.Tx, id, stationID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queues[id]
	if !ok {
		return repository.ErrNotFound
	}
	q.StationID = stationID
	return nil
}

func (f queueStoreFacade) UpdatePriorityTx(ctx context.Context, tx repository.Tx, id uint64, priority int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queues[id]
	if !ok {
		return repository.ErrNotFound
	}
	q.Priority = priority
	return nil
}

func (f queueStoreFacade) ListTerminalTx(ctx context.Context, tx repository.Tx) ([]model.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Queue, 0)
	for _, q := range f.queues {
		if q.Status == model.QueueCompleted || q.Status == model.QueueCancelled {
			out = append(out, *q)
		}
	}
	return out, nil
}

// --- history ---

type historyStoreFacade struct{ *memStore }

func (f historyStoreFacade) CreateTx(ctx context.Context, tx repository.Tx, h *model.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, at := f.id()
	h.ID = id
	if h.CreatedAt.IsZero() {
		h.CreatedAt = at
	}
	cp := *h
	f.history[id] = &cp
	return nil
}

func (f historyStoreFacade) UpdateTx(ctx context.Context, tx repository.Tx, h *model.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.history[h.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *h
	f.history[h.ID] = &cp
	return nil
}

func (f historyStoreFacade) ActiveAtStationTx(ctx context.Context, tx repository.Tx, stationID uint64) (*model.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.history {
		if h.StationID == stationID && (h.Status == model.HistoryCalled || h.Status == model.HistoryInProgress) {
			cp := *h
			return &cp, nil
		}
	}
	return nil, nil
}

func (f historyStoreFacade) WaitingAtStationTx(ctx context.Context, tx repository.Tx, stationID uint64) ([]repository.WaitingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.WaitingEntry, 0)
	for _, h := range f.history {
		if h.StationID != stationID || h.Status != model.HistoryWaiting {
			continue
		}
		q, ok := f.queues[h.QueueID]
		if !ok || q.Status != model.QueueActive {
			continue
		}
		name := ""
		if p, ok := f.persons[q.PersonID]; ok {
			name = p.FullName
		}
		out = append(out, repository.WaitingEntry{Entry: *h, Number: q.Number, Priority: q.Priority, PersonName: name})
	}
	return out, nil
}

func (f historyStoreFacade) LatestAtStationTx(ctx context.Context, tx repository.Tx, queueID, stationID uint64) (*model.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.HistoryEntry
	for _, h := range f.history {
		if h.QueueID != queueID || h.StationID != stationID {
			continue
		}
		if latest == nil || h.ID > latest.ID {
			latest = h
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f historyStoreFacade) OpenForQueueTx(ctx context.Context, tx repository.Tx, queueID uint64) (*model.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.history {
		if h.QueueID == queueID && h.Open() {
			cp := *h
			return &cp, nil
		}
	}
	return nil, nil
}

func (f historyStoreFacade) ListForQueueTx(ctx context.Context, tx repository.Tx, queueID uint64) ([]model.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.HistoryEntry, 0)
	for id := uint64(1); id <= f.nextID; id++ {
		if h, ok := f.history[id]; ok && h.QueueID == queueID {
			out = append(out, *h)
		}
	}
	return out, nil
}

// --- stages ---

type stageStoreFacade struct{ *memStore }

func (f stageStoreFacade) ListForQueueTx(ctx context.Context, tx repository.Tx, queueID uint64) ([]model.StageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.StageRecord, 0)
	for _, rec := range f.stages {
		if rec.QueueID == queueID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (m *memStore) addStage(queueID uint64, stage, payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, at := m.id()
	m.stages[id] = &model.StageRecord{ID: id, QueueID: queueID, Stage: stage, Payload: []byte(payload), CreatedAt: at, UpdatedAt: at}
}

// --- visits ---

type visitStoreFacade struct{ *memStore }

func (f visitStoreFacade) CreateTx(ctx context.Context, tx repository.Tx, v *model.CompletedVisit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, at := f.id()
	v.ID = id
	v.CreatedAt = at
	cp := *v
	f.visits[v.QueueID] = &cp
	return nil
}

func (f visitStoreFacade) GetByQueueTx(ctx context.Context, tx repository.Tx, queueID uint64) (*model.CompletedVisit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.visits[queueID]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

// --- settings ---

type settingStoreFacade struct{ *memStore }

func (f settingStoreFacade) GetForUpdateTx(ctx context.Context, tx repository.Tx, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.settings[key]
	return v, ok, nil
}

func (f settingStoreFacade) UpsertTx(ctx context.Context, tx repository.Tx, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[key] = value
	return nil
}

func (f settingStoreFacade) Upsert(ctx context.Context, key, value string) error {
	return f.UpsertTx(ctx, nil, key, value)
}

func (f settingStoreFacade) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.settings[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

// --- archive mirrors ---

type archiveStoreFacade struct{ *memStore }

func (f archiveStoreFacade) InsertPersonTx(ctx context.Context, tx repository.Tx, p *model.ArchivedPerson) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, _ := f.id()
	p.ID = id
	cp := *p
	f.archPersons[id] = &cp
	return nil
}

func (f archiveStoreFacade) InsertQueueTx(ctx context.Context, tx repository.Tx, q *model.ArchivedQueue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, _ := f.id()
	q.ID = id
	cp := *q
	f.archQueues[id] = &cp
	return nil
}

func (f archiveStoreFacade) InsertHistoryTx(ctx context.Context, tx repository.Tx, h *model.ArchivedHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *h
	f.archHistory = append(f.archHistory, &cp)
	return nil
}

func (f archiveStoreFacade) InsertStageTx(ctx context.Context, tx repository.Tx, s *model.ArchivedStageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.archStages = append(f.archStages, &cp)
	return nil
}

func (f archiveStoreFacade) InsertVisitTx(ctx context.Context, tx repository.Tx, v *model.ArchivedVisit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *v
	f.archVisits = append(f.archVisits, &cp)
	return nil
}

func (f archiveStoreFacade) DeleteQueueDataTx(ctx context.Context, tx repository.Tx, queueID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, h := range f.history {
		if h.QueueID == queueID {
			delete(f.history, id)
		}
	}
	for id, rec := range f.stages {
		if rec.QueueID == queueID {
			delete(f.stages, id)
		}
	}
	delete(f.visits, queueID)
	delete(f.queues, queueID)
	return nil
}

func (f archiveStoreFacade) DeletePersonIfUnreferencedTx(ctx context.Context, tx repository.Tx, personID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.queues {
		if q.PersonID == personID {
			return nil
		}
	}
	delete(f.persons, personID)
	return nil
}

// --- event capture ---

type captureNotifier struct {
	mu     sync.Mutex
	events []notifier.Event
}

func (n *captureNotifier) Publish(ctx context.Context, e notifier.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *captureNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Kind)
	}
	return out
}

// fixture bundles the services over one shared memStore.
type fixture struct {
	store    *memStore
	events   *captureNotifier
	alloc    *Allocator
	dir      *Directory
	registry *Registry
	workflow *Workflow
	archive  *Archive
	visitEvs []queueVisitEvent
}

type queueVisitEvent struct {
	QueueID uint64
	Number  int64
}

func newFixture() *fixture {
	m := newMemStore()
	ev := &captureNotifier{}
	settings := settingStoreFacade{m}
	queues := queueStoreFacade{m}
	history := historyStoreFacade{m}
	stages := stageStoreFacade{m}
	visits := visitStoreFacade{m}
	mirror := archiveStoreFacade{m}

	f := &fixture{store: m, events: ev}
	f.alloc = NewAllocator(settings)
	f.dir = NewDirectory(m)
	f.registry = NewRegistry(m, m, queues, history, stages, visits, f.dir, f.alloc, ev)
	f.workflow = NewWorkflow(m, queues, history, m, stages, visits, m, f.dir, ev,
		func(ctx context.Context, e queue.VisitCompletedEvent) error {
			f.visitEvs = append(f.visitEvs, queueVisitEvent{QueueID: e.QueueID, Number: e.Number})
			return nil
		})
	f.archive = NewArchive(m, queues, history, stages, visits, m, m, mirror, settings, f.alloc, ev)
	return f
}
