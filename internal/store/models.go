package store

import (
	"sort"
	"time"
)

// Date formats used across the pipeline. Raw game files carry compact
// YYYYMMDD dates; everything downstream uses ISO dates at day granularity.
const (
	RawDateFormat = "20060102"
	DateFormat    = "2006-01-02"
)

// Day normalizes a timestamp to midnight UTC so dates compare at day granularity.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayDistance returns the absolute distance between two dates in whole days.
func DayDistance(a, b time.Time) int {
	d := Day(a).Sub(Day(b))
	if d < 0 {
		d = -d
	}
	return int(d / (24 * time.Hour))
}

// PlayerGameStats holds one player's line from a single box score: a
// stat-name → value mapping plus which side of the game they were on.
// Treated as immutable once loaded.
type PlayerGameStats struct {
	Home  bool
	Stats map[string]float64
}

// GameRecord is one completed game: a calendar date plus a box score
// keyed by player identifier. Box-score keys are unique within a record.
type GameRecord struct {
	Date     time.Time
	BoxScore map[string]PlayerGameStats
}

// PlayerRow is one row of a player's time series: the box-score line
// augmented with game date and opponent/team-mate attribution.
type PlayerRow struct {
	Date     time.Time          `json:"date"`
	Home     bool               `json:"home"`
	Stats    map[string]float64 `json:"stats"`
	Opponent string             `json:"opponent"`
	Team     string             `json:"team"`
}

// PlayerSeries is a player's time series ordered ascending by date.
// Rows are uniquely keyed by date (one game per day assumption).
type PlayerSeries []PlayerRow

// SortByDate orders the series ascending by date in place.
func (s PlayerSeries) SortByDate() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Date.Before(s[j].Date)
	})
}

// Dates returns the distinct dates present in the series, ascending.
func (s PlayerSeries) Dates() []time.Time {
	seen := make(map[time.Time]bool, len(s))
	dates := make([]time.Time, 0, len(s))
	for _, row := range s {
		d := Day(row.Date)
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// StatColumns returns the union of stat names across the series, sorted,
// so that every save of the same series produces identical columns.
func (s PlayerSeries) StatColumns() []string {
	seen := make(map[string]bool)
	for _, row := range s {
		for name := range row.Stats {
			seen[name] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for name := range seen {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

// OddsRow is one betting line for a player prop. Date is the provider's
// reported date, which may not match any date the player actually played;
// reconciliation remaps it to the nearest true game date.
type OddsRow struct {
	Date      time.Time `json:"date"`
	GameID    string    `json:"game_id"`
	BookKey   string    `json:"book_key"`
	Market    string    `json:"market"`
	Player    string    `json:"player"`
	OverUnder bool      `json:"over_under"`
	Value     float64   `json:"value"`
	Odds      float64   `json:"odds"`
	Timestamp string    `json:"timestamp"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
}

// SortOddsByDate orders odds rows ascending by date in place.
func SortOddsByDate(rows []OddsRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
}
