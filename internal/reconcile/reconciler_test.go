package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/statline/internal/store"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func refs() []time.Time {
	return []time.Time{day(2023, 11, 1), day(2023, 11, 5), day(2023, 11, 10)}
}

func row(date time.Time) store.OddsRow {
	return store.OddsRow{Date: date, Player: "A", Market: "player_points_over_under"}
}

func TestReconcileExactMatchKept(t *testing.T) {
	out, err := NewReconciler().Reconcile("A", []store.OddsRow{row(day(2023, 11, 5))}, refs())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, day(2023, 11, 5), out[0].Date)
}

func TestReconcileNearestDate(t *testing.T) {
	out, err := NewReconciler().Reconcile("A", []store.OddsRow{row(day(2023, 11, 9))}, refs())
	require.NoError(t, err)
	assert.Equal(t, day(2023, 11, 10), out[0].Date)
}

func TestReconcileTieBreaksToEarlierDate(t *testing.T) {
	// 2023-11-03 is 2 days from both 11-01 and 11-05; the earlier wins.
	out, err := NewReconciler().Reconcile("A", []store.OddsRow{row(day(2023, 11, 3))}, refs())
	require.NoError(t, err)
	assert.Equal(t, day(2023, 11, 1), out[0].Date)
}

func TestReconcileNoDistanceCutoff(t *testing.T) {
	// A row far outside the season still maps to the closest date.
	out, err := NewReconciler().Reconcile("A", []store.OddsRow{row(day(2023, 12, 25))}, refs())
	require.NoError(t, err)
	assert.Equal(t, day(2023, 11, 10), out[0].Date)
}

func TestReconcileResultSortedAscending(t *testing.T) {
	rows := []store.OddsRow{
		row(day(2023, 11, 9)),  // → 11-10
		row(day(2023, 11, 2)),  // → 11-01
		row(day(2023, 11, 5)),  // exact
	}

	out, err := NewReconciler().Reconcile("A", rows, refs())
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].Date.Before(out[i-1].Date))
	}
	assert.Equal(t, day(2023, 11, 1), out[0].Date)
	assert.Equal(t, day(2023, 11, 10), out[2].Date)
}

func TestReconcileDatesAlwaysFromReferenceSet(t *testing.T) {
	rows := []store.OddsRow{
		row(day(2023, 10, 15)),
		row(day(2023, 11, 3)),
		row(day(2023, 11, 7)),
		row(day(2024, 2, 1)),
	}
	refSet := map[time.Time]bool{}
	for _, d := range refs() {
		refSet[d] = true
	}

	out, err := NewReconciler().Reconcile("A", rows, refs())
	require.NoError(t, err)
	for _, r := range out {
		assert.True(t, refSet[r.Date], "reconciled date %v not in reference set", r.Date)
	}
}

func TestReconcileUnsortedReferences(t *testing.T) {
	unsorted := []time.Time{day(2023, 11, 10), day(2023, 11, 1), day(2023, 11, 5)}

	out, err := NewReconciler().Reconcile("A", []store.OddsRow{row(day(2023, 11, 3))}, unsorted)
	require.NoError(t, err)
	assert.Equal(t, day(2023, 11, 1), out[0].Date)
}

func TestReconcileEmptyReferences(t *testing.T) {
	_, err := NewReconciler().Reconcile("A", []store.OddsRow{row(day(2023, 11, 3))}, nil)
	assert.True(t, errors.Is(err, store.ErrNoReferenceDates))
}

func TestReconcilePreservesRowFields(t *testing.T) {
	in := store.OddsRow{
		Date:      day(2023, 11, 3),
		GameID:    "g1",
		BookKey:   "fanduel",
		Market:    "player_points_over_under",
		Player:    "A",
		OverUnder: true,
		Value:     25.5,
		Odds:      -110,
		Timestamp: "2023-11-03T18:00:00Z",
		HomeTeam:  "LAL",
		AwayTeam:  "BOS",
	}

	out, err := NewReconciler().Reconcile("A", []store.OddsRow{in}, refs())
	require.NoError(t, err)

	want := in
	want.Date = day(2023, 11, 1)
	assert.Equal(t, want, out[0])
}
