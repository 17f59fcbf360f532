package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelsRouting(t *testing.T) {
	// Station state fans out to the station's own subscribers too.
	e := Event{Kind: EventStationState, StationID: 7}
	assert.Equal(t, []string{DisplayChannel, "station:7"}, e.Channels())

	// Announcements go to the shared display channel only.
	e = Event{Kind: EventPatientCalled, StationID: 7}
	assert.Equal(t, []string{DisplayChannel}, e.Channels())

	// Events without a station stay on the shared channel.
	e = Event{Kind: EventStationState}
	assert.Equal(t, []string{DisplayChannel}, e.Channels())
}
