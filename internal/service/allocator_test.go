package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SohaibShaar/waiting-system-sub001/internal/model"
)

func TestAllocatorIssuesStrictlyIncreasingNumbers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var got []int64
	for i := 0; i < 5; i++ {
		n, err := f.alloc.Next(ctx)
		require.NoError(t, err)
		got = append(got, n)
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, got)
	assert.Equal(t, "5", f.store.settings[model.SettingQueueCounter])
}

func TestAllocatorInitializesMissingCounter(t *testing.T) {
	f := newFixture()

	_, ok := f.store.settings[model.SettingQueueCounter]
	require.False(t, ok)

	n, err := f.alloc.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestAllocatorResetRestartsAtOne(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.alloc.Next(ctx)
		require.NoError(t, err)
	}
	require.NoError(t, f.alloc.Reset(ctx))
	assert.Equal(t, "0", f.store.settings[model.SettingQueueCounter])

	n, err := f.alloc.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestAllocatorRejectsCorruptCounter(t *testing.T) {
	f := newFixture()
	f.store.settings[model.SettingQueueCounter] = "not-a-number"

	_, err := f.alloc.Next(context.Background())
	assert.Error(t, err)
}
