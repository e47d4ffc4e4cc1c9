// Package reconcile remaps odds rows whose provider-reported dates do not
// match any real game date to the nearest date the player actually played.
package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/fortuna/statline/internal/store"
)

// Equidistant reference dates are resolved to the earlier one. Upstream
// data sources leave the tie to scan order; fixing the rule keeps
// repeated runs reproducible.
const TieBreakPolicy = "earliest"

// Reconciler aligns odds rows to a player's true game dates.
type Reconciler struct{}

// NewReconciler creates a date reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Reconcile replaces each row's date with the nearest reference date,
// keeping exact matches unchanged, then returns the rows sorted ascending
// by the (possibly remapped) date. referenceDates is the set of dates in
// the player's series. Returns store.ErrNoReferenceDates when the set is
// empty; callers skip that player rather than abort the batch.
//
// The nearest-date search is a linear scan per row, O(rows × refDates).
// Fine at single-season volumes; a sorted binary search would behave
// identically if volumes ever grow.
func (r *Reconciler) Reconcile(player string, rows []store.OddsRow, referenceDates []time.Time) ([]store.OddsRow, error) {
	if len(referenceDates) == 0 {
		return nil, fmt.Errorf("reconciling odds for %q: %w", player, store.ErrNoReferenceDates)
	}

	refs := make([]time.Time, len(referenceDates))
	for i, d := range referenceDates {
		refs[i] = store.Day(d)
	}
	// Ascending scan order makes the strict-improvement comparison below
	// implement the earliest-wins tie-break.
	sort.Slice(refs, func(i, j int) bool { return refs[i].Before(refs[j]) })

	exact := make(map[time.Time]bool, len(refs))
	for _, d := range refs {
		exact[d] = true
	}

	out := make([]store.OddsRow, len(rows))
	for i, row := range rows {
		out[i] = row
		date := store.Day(row.Date)
		if exact[date] {
			out[i].Date = date
			continue
		}
		out[i].Date = nearest(refs, date)
	}

	store.SortOddsByDate(out)
	return out, nil
}

// nearest returns the reference date minimizing absolute day distance to
// target. refs must be sorted ascending; on a tie the earlier date wins
// because only a strictly smaller distance replaces the candidate.
func nearest(refs []time.Time, target time.Time) time.Time {
	best := refs[0]
	bestDist := store.DayDistance(best, target)
	for _, ref := range refs[1:] {
		if d := store.DayDistance(ref, target); d < bestDist {
			best = ref
			bestDist = d
		}
	}
	return best
}
