package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SohaibShaar/waiting-system-sub001/internal/repository"
)

func TestDirectoryFirstIsLowestOrderActive(t *testing.T) {
	f := newFixture()
	f.store.addStation("Doctor", 3, 30, true)
	reception := f.store.addStation("Reception", 1, 10, true)
	f.store.addStation("Lab", 2, 20, true)

	st, err := f.dir.First(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reception.ID, st.ID)
}

func TestDirectorySkipsInactiveStations(t *testing.T) {
	f := newFixture()
	reception := f.store.addStation("Reception", 1, 10, true)
	f.store.addStation("Lab", 2, 20, false)
	doctor := f.store.addStation("Doctor", 3, 30, true)

	next, err := f.dir.NextAfter(context.Background(), reception)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, doctor.ID, next.ID)
}

func TestDirectoryNextAfterTerminalIsNil(t *testing.T) {
	f := newFixture()
	f.store.addStation("Reception", 1, 10, true)
	doctor := f.store.addStation("Doctor", 2, 20, true)

	next, err := f.dir.NextAfter(context.Background(), doctor)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestDirectoryFirstWithNoActiveStations(t *testing.T) {
	f := newFixture()
	f.store.addStation("Reception", 1, 10, false)

	_, err := f.dir.First(context.Background())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
