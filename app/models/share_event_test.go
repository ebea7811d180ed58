package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareEventRecordAward(t *testing.T) {
	ev := &ShareEvent{UserID: 1}
	day := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, 0, ev.AwardsOn(day))

	ev.RecordAward(day)
	ev.RecordAward(day)

	assert.Equal(t, 2, ev.AwardsOn(day))
	require.NotNil(t, ev.LastAwardedAt)
	assert.Equal(t, day, *ev.LastAwardedAt)
}

func TestShareEventRecordAwardPrunesStaleDays(t *testing.T) {
	yesterday := time.Date(2026, 3, 13, 22, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 14, 1, 0, 0, 0, time.UTC)

	ev := &ShareEvent{UserID: 1}
	ev.RecordAward(yesterday)
	ev.RecordAward(yesterday)
	ev.RecordAward(today)

	assert.Equal(t, 1, ev.AwardsOn(today))
	assert.Equal(t, 0, ev.AwardsOn(yesterday))
	assert.Len(t, ev.CreditsAwardedToday, 1)
}

func TestDayCountMapRoundTrip(t *testing.T) {
	m := DayCountMap{"2026-03-14": 3}

	v, err := m.Value()
	require.NoError(t, err)

	var out DayCountMap
	require.NoError(t, out.Scan(v))
	assert.Equal(t, m, out)

	var empty DayCountMap
	require.NoError(t, empty.Scan(nil))
	assert.Equal(t, DayCountMap{}, empty)
}
