package series

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fortuna/statline/internal/store"
)

// CSV layout for player series files: the date key first, then the stat
// columns sorted by name, then home flag and roster attribution. Sorted
// stat columns keep repeated saves of identical input byte-identical.
const (
	colDate     = "date"
	colHome     = "home"
	colOpponent = "opponent"
	colTeam     = "team"
)

var oddsHeader = []string{
	"date", "game_id", "book_key", "market", "player",
	"over_under", "value", "odds", "timestamp", "home_team", "away_team",
}

// CSVPlayerStore keeps one CSV file per player under a single directory.
type CSVPlayerStore struct {
	dir string
}

// NewCSVPlayerStore creates the store directory if needed.
func NewCSVPlayerStore(dir string) (*CSVPlayerStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating player series directory %s: %w", dir, err)
	}
	return &CSVPlayerStore{dir: dir}, nil
}

// Save writes the player's full series, replacing any previous file. The
// write goes to a temp file first and is renamed into place, so a failed
// save never leaves a partial file.
func (c *CSVPlayerStore) Save(ctx context.Context, player string, s store.PlayerSeries) error {
	cols := s.StatColumns()
	header := make([]string, 0, len(cols)+4)
	header = append(header, colDate)
	header = append(header, cols...)
	header = append(header, colHome, colOpponent, colTeam)

	records := make([][]string, 0, len(s)+1)
	records = append(records, header)
	for _, row := range s {
		record := make([]string, 0, len(header))
		record = append(record, row.Date.Format(store.DateFormat))
		for _, col := range cols {
			value, ok := row.Stats[col]
			if !ok {
				record = append(record, "")
				continue
			}
			record = append(record, formatFloat(value))
		}
		record = append(record, formatBool(row.Home), row.Opponent, row.Team)
		records = append(records, record)
	}

	return writeAtomic(c.path(player), records)
}

// Load reads the player's series and re-sorts it ascending by date; the
// on-disk order is not trusted.
func (c *CSVPlayerStore) Load(ctx context.Context, player string) (store.PlayerSeries, error) {
	records, err := readAll(c.path(player), player)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("series file for %q is empty: %w", player, store.ErrNotFound)
	}

	header := records[0]
	if len(header) < 4 || header[0] != colDate {
		return nil, fmt.Errorf("series file for %q has malformed header", player)
	}
	statCols := header[1 : len(header)-3]

	series := make(store.PlayerSeries, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("series file for %q: row %d has %d fields, want %d", player, i+1, len(record), len(header))
		}

		date, err := time.Parse(store.DateFormat, record[0])
		if err != nil {
			return nil, fmt.Errorf("series file for %q: row %d has bad date %q: %w", player, i+1, record[0], err)
		}

		stats := make(map[string]float64, len(statCols))
		for j, col := range statCols {
			cell := record[1+j]
			if cell == "" {
				continue
			}
			value, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("series file for %q: row %d column %s: %w", player, i+1, col, err)
			}
			stats[col] = value
		}

		n := len(record)
		series = append(series, store.PlayerRow{
			Date:     date,
			Stats:    stats,
			Home:     record[n-3] == "1",
			Opponent: record[n-2],
			Team:     record[n-1],
		})
	}

	series.SortByDate()
	return series, nil
}

func (c *CSVPlayerStore) path(player string) string {
	return filepath.Join(c.dir, player+".csv")
}

// CSVOddsStore keeps one CSV file of reconciled odds rows per player.
type CSVOddsStore struct {
	dir string
}

// NewCSVOddsStore creates the store directory if needed.
func NewCSVOddsStore(dir string) (*CSVOddsStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating odds series directory %s: %w", dir, err)
	}
	return &CSVOddsStore{dir: dir}, nil
}

// Save writes the player's reconciled odds rows, replacing any previous file.
func (c *CSVOddsStore) Save(ctx context.Context, player string, rows []store.OddsRow) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, oddsHeader)
	for _, row := range rows {
		records = append(records, []string{
			row.Date.Format(store.DateFormat),
			row.GameID,
			row.BookKey,
			row.Market,
			row.Player,
			strconv.FormatBool(row.OverUnder),
			formatFloat(row.Value),
			formatFloat(row.Odds),
			row.Timestamp,
			row.HomeTeam,
			row.AwayTeam,
		})
	}

	return writeAtomic(c.path(player), records)
}

// Load reads the player's odds rows sorted ascending by date.
func (c *CSVOddsStore) Load(ctx context.Context, player string) ([]store.OddsRow, error) {
	records, err := readAll(c.path(player), player)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("odds file for %q is empty: %w", player, store.ErrNotFound)
	}

	rows := make([]store.OddsRow, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := ParseOddsRecord(record)
		if err != nil {
			return nil, fmt.Errorf("odds file for %q: row %d: %w", player, i+1, err)
		}
		rows = append(rows, *row)
	}

	store.SortOddsByDate(rows)
	return rows, nil
}

func (c *CSVOddsStore) path(player string) string {
	return filepath.Join(c.dir, player+".csv")
}

// ParseOddsRecord decodes one CSV record in the odds layout. Shared with
// the raw odds loader, whose per-date partitions use the same columns.
func ParseOddsRecord(record []string) (*store.OddsRow, error) {
	if len(record) != len(oddsHeader) {
		return nil, fmt.Errorf("record has %d fields, want %d", len(record), len(oddsHeader))
	}

	date, err := time.Parse(store.DateFormat, record[0])
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", record[0], err)
	}
	overUnder, err := strconv.ParseBool(record[5])
	if err != nil {
		return nil, fmt.Errorf("bad over_under %q: %w", record[5], err)
	}
	value, err := strconv.ParseFloat(record[6], 64)
	if err != nil {
		return nil, fmt.Errorf("bad value %q: %w", record[6], err)
	}
	odds, err := strconv.ParseFloat(record[7], 64)
	if err != nil {
		return nil, fmt.Errorf("bad odds %q: %w", record[7], err)
	}

	return &store.OddsRow{
		Date:      date,
		GameID:    record[1],
		BookKey:   record[2],
		Market:    record[3],
		Player:    record[4],
		OverUnder: overUnder,
		Value:     value,
		Odds:      odds,
		Timestamp: record[8],
		HomeTeam:  record[9],
		AwayTeam:  record[10],
	}, nil
}

// writeAtomic writes all records to a temp file in the target directory
// and renames it over the destination.
func writeAtomic(path string, records [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".series-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	writer := csv.NewWriter(tmp)
	if err := writer.WriteAll(records); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func readAll(path, player string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no series for %q: %w", player, store.ErrNotFound)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
