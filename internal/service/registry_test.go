package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
	"github.com/SohaibShaar/waiting-system-sub001/internal/notifier"
	"github.com/SohaibShaar/waiting-system-sub001/internal/repository"
)

// standard three-station pipeline: reception (intake) -> lab -> doctor.
func pipeline(f *fixture) (reception, lab, doctor *model.Station) {
	reception = f.store.addStation("Reception", 1, 10, true)
	lab = f.store.addStation("Lab", 2, 20, true)
	doctor = f.store.addStation("Doctor", 3, 30, true)
	return
}

func strPtr(s string) *string { return &s }

func TestOpenCreatesQueueAtFirstServiceStation(t *testing.T) {
	f := newFixture()
	_, lab, _ := pipeline(f)
	ctx := context.Background()

	res, err := f.registry.Open(ctx, OpenRequest{FullName: "Alia Hassan", Phone: strPtr("0791111111")})
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.Number)
	assert.Equal(t, lab.ID, res.Station.ID)
	assert.Equal(t, model.QueueActive, res.Queue.Status)
	assert.Equal(t, lab.ID, res.Queue.StationID)

	entries, err := historyStoreFacade{f.store}.ListForQueueTx(ctx, nil, res.Queue.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Intake is served synchronously at the desk, so its entry closes
	// immediately; the real line starts at the first service station.
	assert.Equal(t, model.HistoryCompleted, entries[0].Status)
	assert.NotNil(t, entries[0].CompletedAt)
	assert.Equal(t, model.HistoryWaiting, entries[1].Status)
	assert.Equal(t, lab.ID, entries[1].StationID)

	assert.Contains(t, f.events.kinds(), notifier.EventNewCase)
}

func TestOpenIssuesDistinctNumbers(t *testing.T) {
	f := newFixture()
	pipeline(f)
	ctx := context.Background()

	seen := map[int64]bool{}
	for i := 0; i < 4; i++ {
		res, err := f.registry.Open(ctx, OpenRequest{FullName: "Visitor"})
		require.NoError(t, err)
		assert.False(t, seen[res.Number], "number %d issued twice", res.Number)
		seen[res.Number] = true
	}
}

func TestOpenDedupesPersonByPhone(t *testing.T) {
	f := newFixture()
	pipeline(f)
	ctx := context.Background()

	first, err := f.registry.Open(ctx, OpenRequest{FullName: "Alia Hassan", Phone: strPtr("0791111111")})
	require.NoError(t, err)
	second, err := f.registry.Open(ctx, OpenRequest{FullName: "Alia H.", Phone: strPtr("0791111111")})
	require.NoError(t, err)

	assert.Equal(t, first.Queue.PersonID, second.Queue.PersonID)
	assert.Len(t, f.store.persons, 1)
}

func TestOpenFailsWithoutServiceStation(t *testing.T) {
	f := newFixture()
	// Intake exists but nothing follows it.
	f.store.addStation("Reception", 1, 10, true)

	_, err := f.registry.Open(context.Background(), OpenRequest{FullName: "Visitor"})
	assert.ErrorIs(t, err, repository.ErrNoServiceStation)
}

func TestCancelClosesOpenEntryAndIsNotRepeatable(t *testing.T) {
	f := newFixture()
	pipeline(f)
	ctx := context.Background()

	res, err := f.registry.Open(ctx, OpenRequest{FullName: "Visitor"})
	require.NoError(t, err)

	require.NoError(t, f.registry.Cancel(ctx, res.Queue.ID, strPtr("left the building")))

	q := f.store.queues[res.Queue.ID]
	assert.Equal(t, model.QueueCancelled, q.Status)

	open, err := historyStoreFacade{f.store}.OpenForQueueTx(ctx, nil, res.Queue.ID)
	require.NoError(t, err)
	assert.Nil(t, open)

	assert.ErrorIs(t, f.registry.Cancel(ctx, res.Queue.ID, nil), repository.ErrInvalidState)
}

func TestReinstateRequiresCancelledQueue(t *testing.T) {
	f := newFixture()
	_, lab, _ := pipeline(f)
	ctx := context.Background()

	res, err := f.registry.Open(ctx, OpenRequest{FullName: "Visitor"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.registry.Reinstate(ctx, res.Queue.ID), repository.ErrInvalidState)

	require.NoError(t, f.registry.Cancel(ctx, res.Queue.ID, nil))
	require.NoError(t, f.registry.Reinstate(ctx, res.Queue.ID))

	q := f.store.queues[res.Queue.ID]
	assert.Equal(t, model.QueueActive, q.Status)

	open, err := historyStoreFacade{f.store}.OpenForQueueTx(ctx, nil, res.Queue.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, model.HistoryWaiting, open.Status)
	assert.Equal(t, lab.ID, open.StationID)
}

func TestChangePriorityOnlyWhileActive(t *testing.T) {
	f := newFixture()
	pipeline(f)
	ctx := context.Background()

	res, err := f.registry.Open(ctx, OpenRequest{FullName: "Visitor"})
	require.NoError(t, err)

	require.NoError(t, f.registry.ChangePriority(ctx, res.Queue.ID, 5))
	assert.Equal(t, 5, f.store.queues[res.Queue.ID].Priority)

	require.NoError(t, f.registry.Cancel(ctx, res.Queue.ID, nil))
	assert.ErrorIs(t, f.registry.ChangePriority(ctx, res.Queue.ID, 1), repository.ErrInvalidState)
}

func TestCompleteCaseWritesSnapshotAndSkipsOpenEntry(t *testing.T) {
	f := newFixture()
	pipeline(f)
	ctx := context.Background()

	res, err := f.registry.Open(ctx, OpenRequest{FullName: "Visitor"})
	require.NoError(t, err)
	f.store.addStage(res.Queue.ID, model.StageReception, `{"paid":true}`)

	require.NoError(t, f.registry.CompleteCase(ctx, res.Queue.ID))

	q := f.store.queues[res.Queue.ID]
	assert.Equal(t, model.QueueCompleted, q.Status)
	assert.NotNil(t, q.CompletedAt)

	visit := f.store.visits[res.Queue.ID]
	require.NotNil(t, visit)
	assert.Equal(t, res.Number, visit.QueueNumber)
	assert.JSONEq(t, `{"RECEPTION":{"paid":true}}`, string(visit.Stages))

	open, err := historyStoreFacade{f.store}.OpenForQueueTx(ctx, nil, res.Queue.ID)
	require.NoError(t, err)
	assert.Nil(t, open)

	assert.ErrorIs(t, f.registry.CompleteCase(ctx, res.Queue.ID), repository.ErrInvalidState)
}
