// Package pivot reshapes game-centric box-score records into
// player-centric time series.
package pivot

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/statline/internal/index"
	"github.com/fortuna/statline/internal/series"
	"github.com/fortuna/statline/internal/store"
)

// Builder pivots grouped game records into per-player series and persists
// each series through the player store, fully replacing prior content.
// Rerunning the whole pivot is the supported recovery path; there is no
// incremental merge.
type Builder struct {
	playerStore series.PlayerStore
	log         *logrus.Entry
}

// Result summarizes one pivot pass.
type Result struct {
	Series         map[string]store.PlayerSeries
	Dates          int
	Games          int
	PlayersWritten int
	PlayersSkipped int // unresolved identifiers, counted per occurrence
	SaveFailures   int
}

// NewBuilder creates a pivot builder writing through the given store.
func NewBuilder(playerStore series.PlayerStore, log *logrus.Entry) *Builder {
	return &Builder{playerStore: playerStore, log: log}
}

// Build processes dates in ascending order and produces one ordered
// series per player observed on any date. Within a game, rosters are
// partitioned by the home flag; each row gets the opposite roster as
// opponent and its own roster, minus the player, as team. Roster names
// are joined in ascending player-identifier order so repeated runs over
// identical input produce identical output.
//
// A player appearing twice on one date overwrites the earlier row
// (one game per day assumption). Unresolvable identifiers skip only that
// player's contribution; the record itself still pivots.
func (b *Builder) Build(ctx context.Context, grouped map[string][]store.GameRecord, resolver *index.Resolver) (*Result, error) {
	dates := make([]string, 0, len(grouped))
	for date := range grouped {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	result := &Result{
		Series: make(map[string]store.PlayerSeries),
		Dates:  len(dates),
	}
	// Per-player index of date → position in the accumulating series,
	// so a duplicate date replaces in place and the outer ascending date
	// loop keeps every series ordered without a final sort.
	rowIndex := make(map[string]map[string]int)

	for _, date := range dates {
		for _, record := range grouped[date] {
			b.pivotRecord(record, resolver, result, rowIndex)
			result.Games++
		}
	}

	for player, s := range result.Series {
		if err := b.playerStore.Save(ctx, player, s); err != nil {
			result.SaveFailures++
			b.log.WithError(err).Errorf("Failed to save series for %s", player)
			continue
		}
		result.PlayersWritten++
	}

	return result, nil
}

func (b *Builder) pivotRecord(record store.GameRecord, resolver *index.Resolver, result *Result, rowIndex map[string]map[string]int) {
	ids := make([]string, 0, len(record.BoxScore))
	for id := range record.BoxScore {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// First pass: resolve names and split rosters by side. Identifiers
	// the index does not cover drop out of both the rosters and the rows.
	names := make(map[string]string, len(ids))
	var homeNames, awayNames []string
	for _, id := range ids {
		name, err := resolver.Resolve(id)
		if err != nil {
			result.PlayersSkipped++
			b.log.WithError(err).Warnf("Skipping unresolved player in game on %s", record.Date.Format(store.DateFormat))
			continue
		}
		names[id] = name
		if record.BoxScore[id].Home {
			homeNames = append(homeNames, name)
		} else {
			awayNames = append(awayNames, name)
		}
	}

	dateKey := record.Date.Format(store.DateFormat)
	for _, id := range ids {
		name, ok := names[id]
		if !ok {
			continue
		}
		line := record.BoxScore[id]

		roster, opponents := awayNames, homeNames
		if line.Home {
			roster, opponents = homeNames, awayNames
		}

		row := store.PlayerRow{
			Date:     record.Date,
			Home:     line.Home,
			Stats:    line.Stats,
			Opponent: strings.Join(opponents, ","),
			Team:     joinExcluding(roster, name),
		}

		if rowIndex[name] == nil {
			rowIndex[name] = make(map[string]int)
		}
		if pos, exists := rowIndex[name][dateKey]; exists {
			result.Series[name][pos] = row
			continue
		}
		rowIndex[name][dateKey] = len(result.Series[name])
		result.Series[name] = append(result.Series[name], row)
	}
}

// joinExcluding joins the roster minus every entry equal to name. Exact
// string match: two players sharing a display name exclude each other.
// Known limitation of name-based attribution, kept deliberately.
func joinExcluding(roster []string, name string) string {
	kept := make([]string, 0, len(roster))
	for _, n := range roster {
		if n != name {
			kept = append(kept, n)
		}
	}
	return strings.Join(kept, ",")
}
