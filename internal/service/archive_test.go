package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
)

func TestArchiveRunOnEmptyArchiveIsNoop(t *testing.T) {
	f := newFixture()
	pipeline(f)
	ctx := context.Background()

	// One ACTIVE queue; nothing terminal to archive.
	_, err := f.registry.Open(ctx, OpenRequest{FullName: "Visitor"})
	require.NoError(t, err)

	n, err := f.archive.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.store.queues, 1)
	assert.Empty(t, f.store.archQueues)
	_, ok := f.store.settings[model.SettingLastArchiveDate]
	assert.False(t, ok, "no-op run must not touch the marker")
}

func TestArchiveRunMigratesTerminalQueues(t *testing.T) {
	f := newFixture()
	_, lab, doctor := pipeline(f)
	ctx := context.Background()

	finish := func(q *OpenResult) {
		for _, st := range []uint64{lab.ID, doctor.ID} {
			_, err := f.workflow.CallNext(ctx, st, nil)
			require.NoError(t, err)
			require.NoError(t, f.workflow.Start(ctx, q.Queue.ID, st))
			_, err = f.workflow.Complete(ctx, q.Queue.ID, st, nil)
			require.NoError(t, err)
		}
	}

	// Same person completes two visits; a second person cancels; a
	// fourth visitor is still ACTIVE and must survive the run.
	phone := "0791111111"
	first, err := f.registry.Open(ctx, OpenRequest{FullName: "Repeat Visitor", Phone: &phone})
	require.NoError(t, err)
	f.store.addStage(first.Queue.ID, model.StageDoctor, `{"ok":true}`)
	finish(first)

	second, err := f.registry.Open(ctx, OpenRequest{FullName: "Repeat Visitor", Phone: &phone})
	require.NoError(t, err)
	finish(second)

	cancelled, err := f.registry.Open(ctx, OpenRequest{FullName: "Walked Out"})
	require.NoError(t, err)
	require.NoError(t, f.registry.Cancel(ctx, cancelled.Queue.ID, nil))

	active, err := f.registry.Open(ctx, OpenRequest{FullName: "Still Here"})
	require.NoError(t, err)

	n, err := f.archive.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Mirrors hold the migrated data; the repeat visitor is one row.
	assert.Len(t, f.store.archQueues, 3)
	assert.Len(t, f.store.archPersons, 2)
	assert.Len(t, f.store.archVisits, 2)
	assert.Len(t, f.store.archStages, 1)
	assert.NotEmpty(t, f.store.archHistory)

	// Live schema keeps only the ACTIVE queue and its person.
	assert.Len(t, f.store.queues, 1)
	_, ok := f.store.queues[active.Queue.ID]
	assert.True(t, ok)
	assert.Len(t, f.store.persons, 1)
	assert.Empty(t, f.store.visits)

	// Counter reset: the next visitor gets number 1 again.
	assert.Equal(t, "0", f.store.settings[model.SettingQueueCounter])
	assert.NotEmpty(t, f.store.settings[model.SettingLastArchiveDate])

	fresh, err := f.registry.Open(ctx, OpenRequest{FullName: "After Reset"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.Number)
}

func TestArchiveDenormalizesStationNames(t *testing.T) {
	f := newFixture()
	_, lab, doctor := pipeline(f)
	ctx := context.Background()

	res, err := f.registry.Open(ctx, OpenRequest{FullName: "Visitor"})
	require.NoError(t, err)
	for _, st := range []uint64{lab.ID, doctor.ID} {
		_, err := f.workflow.CallNext(ctx, st, nil)
		require.NoError(t, err)
		require.NoError(t, f.workflow.Start(ctx, res.Queue.ID, st))
		_, err = f.workflow.Complete(ctx, res.Queue.ID, st, nil)
		require.NoError(t, err)
	}

	_, err = f.archive.Run(ctx)
	require.NoError(t, err)

	require.Len(t, f.store.archQueues, 1)
	for _, aq := range f.store.archQueues {
		assert.Equal(t, "Doctor", aq.StationName)
	}
	names := map[string]bool{}
	for _, h := range f.store.archHistory {
		names[h.StationName] = true
	}
	assert.True(t, names["Lab"])
	assert.True(t, names["Doctor"])
}
