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

func TestCallNextPrefersHigherPriority(t *testing.T) {
	f := newFixture()
	_, lab, _ := pipeline(f)
	ctx := context.Background()

	_, err := f.registry.Open(ctx, OpenRequest{FullName: "First In"})
	require.NoError(t, err)
	urgent, err := f.registry.Open(ctx, OpenRequest{FullName: "Urgent", Priority: 5})
	require.NoError(t, err)

	res, err := f.workflow.CallNext(ctx, lab.ID, strPtr("desk-1"))
	require.NoError(t, err)
	assert.Equal(t, urgent.Queue.ID, res.QueueID)
	assert.Equal(t, urgent.Number, res.Number)
}

func TestCallNextIsFIFOWithinPriority(t *testing.T) {
	f := newFixture()
	_, lab, _ := pipeline(f)
	ctx := context.Background()

	first, err := f.registry.Open(ctx, OpenRequest{FullName: "First"})
	require.NoError(t, err)
	_, err = f.registry.Open(ctx, OpenRequest{FullName: "Second"})
	require.NoError(t, err)

	res, err := f.workflow.CallNext(ctx, lab.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Queue.ID, res.QueueID)
}

func TestCallNextWhileStationBusy(t *testing.T) {
	f := newFixture()
	_, lab, _ := pipeline(f)
	ctx := context.Background()

	_, err := f.registry.Open(ctx, OpenRequest{FullName: "One"})
	require.NoError(t, err)
	_, err = f.registry.Open(ctx, OpenRequest{FullName: "Two"})
	require.NoError(t, err)

	_, err = f.workflow.CallNext(ctx, lab.ID, nil)
	require.NoError(t, err)

	_, err = f.workflow.CallNext(ctx, lab.ID, nil)
	assert.ErrorIs(t, err, repository.ErrStationBusy)
}

func TestCallNextOnEmptyLine(t *testing.T) {
	f := newFixture()
	_, lab, _ := pipeline(f)

	_, err := f.workflow.CallNext(context.Background(), lab.ID, nil)
	assert.ErrorIs(t, err, repository.ErrNothingWaiting)
}

func TestCallSpecificByNumber(t *testing.T) {
	f := newFixture()
	_, lab, _ := pipeline(f)
	ctx := context.Background()

	_, err := f.registry.Open(ctx, OpenRequest{FullName: "First"})
	require.NoError(t, err)
	second, err := f.registry.Open(ctx, OpenRequest{FullName: "Second"})
	require.NoError(t, err)

	res, err := f.workflow.CallSpecific(ctx, second.Number, lab.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, second.Queue.ID, res.QueueID)

	_, err = f.workflow.CallSpecific(ctx, 999, lab.ID, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCallStampsOperatorAndAnnounces(t *testing.T) {
	f := newFixture()
	_, lab, _ := pipeline(f)
	ctx := context.Background()

	res, err := f.registry.Open(ctx, OpenRequest{FullName: "Visitor"})
	require.NoError(t, err)

	_, err = f.workflow.CallNext(ctx, lab.ID, strPtr("desk-2"))
	require.NoError(t, err)

	entry, err := historyStoreFacade{f.store}.LatestAtStationTx(ctx, nil, res.Queue.ID, lab.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HistoryCalled, entry.Status)
	require.NotNil(t, entry.CalledBy)
	assert.Equal(t, "desk-2", *entry.CalledBy)
	assert.NotNil(t, entry.CalledAt)

	assert.Contains(t, f.events.kinds(), notifier.EventPatientCalled)
}

func TestStartRequiresCalledEntry(t *testing.T) {
	f := newFixture()
	_, lab, _ := pipeline(f)
	ctx := context.Background()

	res, err := f.registry.Open(ctx, OpenRequest{FullName: "Visitor"})
	require.NoError(t, err)

	// Still WAITING, not CALLED.
	assert.ErrorIs(t, f.workflow.Start(ctx, res.Queue.ID, lab.ID), repository.ErrInvalidState)

	_, err = f.workflow.CallNext(ctx, lab.ID, nil)
	require.NoError(t, err)
	require.NoError(t, f.workflow.Start(ctx, res.Queue.ID, lab.ID))

	entry, err := historyStoreFacade{f.store}.LatestAtStationTx(ctx, nil, res.Queue.ID, lab.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HistoryInProgress, entry.Status)
	assert.NotNil(t, entry.StartedAt)
}

func TestCompleteMovesQueueToNextStation(t *testing.T) {
	f := newFixture()
	_, lab, doctor := pipeline(f)
	ctx := context.Background()

	res, err := f.registry.Open(ctx, OpenRequest{FullName: "Visitor"})
	require.NoError(t, err)
	_, err = f.workflow.CallNext(ctx, lab.ID, nil)
	require.NoError(t, err)
	require.NoError(t, f.workflow.Start(ctx, res.Queue.ID, lab.ID))

	out, err := f.workflow.Complete(ctx, res.Queue.ID, lab.ID, nil)
	require.NoError(t, err)
	assert.False(t, out.Completed)
	require.NotNil(t, out.NextStation)
	assert.Equal(t, doctor.ID, out.NextStation.ID)

	q := f.store.queues[res.Queue.ID]
	assert.Equal(t, model.QueueActive, q.Status)
	assert.Equal(t, doctor.ID, q.StationID)

	entry, err := historyStoreFacade{f.store}.LatestAtStationTx(ctx, nil, res.Queue.ID, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HistoryWaiting, entry.Status)
}

func TestCompleteAtTerminalStationFinishesVisit(t *testing.T) {
	f := newFixture()
	_, lab, doctor := pipeline(f)
	ctx := context.Background()

	res, err := f.registry.Open(ctx, OpenRequest{FullName: "Visitor"})
	require.NoError(t, err)
	f.store.addStage(res.Queue.ID, model.StageLab, `{"sample":"A12"}`)

	serve := func(stationID uint64) {
		_, err := f.workflow.CallNext(ctx, stationID, nil)
		require.NoError(t, err)
		require.NoError(t, f.workflow.Start(ctx, res.Queue.ID, stationID))
	}

	serve(lab.ID)
	out, err := f.workflow.Complete(ctx, res.Queue.ID, lab.ID, nil)
	require.NoError(t, err)
	require.False(t, out.Completed)

	serve(doctor.ID)
	out, err = f.workflow.Complete(ctx, res.Queue.ID, doctor.ID, strPtr("all clear"))
	require.NoError(t, err)
	assert.True(t, out.Completed)

	q := f.store.queues[res.Queue.ID]
	assert.Equal(t, model.QueueCompleted, q.Status)
	assert.NotNil(t, q.CompletedAt)

	visit := f.store.visits[res.Queue.ID]
	require.NotNil(t, visit)
	assert.Equal(t, res.Number, visit.QueueNumber)
	assert.GreaterOrEqual(t, visit.TotalSecs, int64(0))
	assert.JSONEq(t, `{"LAB":{"sample":"A12"}}`, string(visit.Stages))

	require.Len(t, f.visitEvs, 1)
	assert.Equal(t, res.Queue.ID, f.visitEvs[0].QueueID)
	assert.Contains(t, f.events.kinds(), notifier.EventCaseCompleted)
}

func TestSkipAndReadmit(t *testing.T) {
	f := newFixture()
	_, lab, _ := pipeline(f)
	ctx := context.Background()

	res, err := f.registry.Open(ctx, OpenRequest{FullName: "Visitor"})
	require.NoError(t, err)
	_, err = f.workflow.CallNext(ctx, lab.ID, nil)
	require.NoError(t, err)

	require.NoError(t, f.workflow.Skip(ctx, res.Queue.ID, lab.ID))

	// Skipped visitors do not rejoin the line on their own.
	_, err = f.workflow.CallNext(ctx, lab.ID, nil)
	assert.ErrorIs(t, err, repository.ErrNothingWaiting)

	require.NoError(t, f.workflow.Readmit(ctx, res.Queue.ID, lab.ID))

	called, err := f.workflow.CallNext(ctx, lab.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, res.Queue.ID, called.QueueID)
}

func TestReadmitRejectsOpenEntry(t *testing.T) {
	f := newFixture()
	_, lab, _ := pipeline(f)
	ctx := context.Background()

	res, err := f.registry.Open(ctx, OpenRequest{FullName: "Visitor"})
	require.NoError(t, err)

	// The WAITING entry from intake is still open.
	assert.ErrorIs(t, f.workflow.Readmit(ctx, res.Queue.ID, lab.ID), repository.ErrInvalidState)
}

func TestSkipRequiresOpenEntry(t *testing.T) {
	f := newFixture()
	_, lab, _ := pipeline(f)
	ctx := context.Background()

	res, err := f.registry.Open(ctx, OpenRequest{FullName: "Visitor"})
	require.NoError(t, err)
	_, err = f.workflow.CallNext(ctx, lab.ID, nil)
	require.NoError(t, err)
	require.NoError(t, f.workflow.Start(ctx, res.Queue.ID, lab.ID))

	// IN_PROGRESS cannot be skipped, only completed.
	assert.ErrorIs(t, f.workflow.Skip(ctx, res.Queue.ID, lab.ID), repository.ErrInvalidState)
}
