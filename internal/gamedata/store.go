// Package gamedata loads raw per-game box-score records and groups them
// by calendar date for the pivot.
package gamedata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/statline/internal/store"
)

// Store reads raw game records from a directory of per-game JSON files.
// Records are held only transiently; the durable artifacts are the
// per-player series produced downstream.
type Store struct {
	dir string
	log *logrus.Entry
}

// NewStore creates a game record store over the given directory.
func NewStore(dir string, log *logrus.Entry) *Store {
	return &Store{dir: dir, log: log}
}

// rawGame mirrors the scraper's on-disk format: a compact YYYYMMDD date
// and a box score keyed by player identifier, where each line is a
// stat-name → value mapping including a home flag of 0 or 1.
type rawGame struct {
	Date     string                        `json:"date"`
	BoxScore map[string]map[string]float64 `json:"box_score"`
}

// Load reads every game file and groups records by calendar date
// (store.DateFormat keys). Within a date, records keep the order they
// were encountered. Malformed records are skipped with a warning and
// never corrupt other dates' groups.
func (s *Store) Load() (map[string][]store.GameRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading game data directory %s: %w", s.dir, err)
	}

	grouped := make(map[string][]store.GameRecord)
	skipped := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		record, err := s.loadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			skipped++
			s.log.WithError(err).Warnf("Skipping game file %s", entry.Name())
			continue
		}

		key := record.Date.Format(store.DateFormat)
		grouped[key] = append(grouped[key], *record)
	}

	if skipped > 0 {
		s.log.Warnf("Skipped %d malformed game files out of %d entries", skipped, len(entries))
	}

	return grouped, nil
}

func (s *Store) loadFile(path string) (*store.GameRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw rawGame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", store.ErrMalformedRecord, path, err)
	}

	if raw.Date == "" {
		return nil, fmt.Errorf("%w: %s has no date", store.ErrMalformedRecord, path)
	}
	date, err := time.Parse(store.RawDateFormat, raw.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has unparseable date %q", store.ErrMalformedRecord, path, raw.Date)
	}

	if len(raw.BoxScore) == 0 {
		return nil, fmt.Errorf("%w: %s has no box score", store.ErrMalformedRecord, path)
	}

	record := &store.GameRecord{
		Date:     store.Day(date),
		BoxScore: make(map[string]store.PlayerGameStats, len(raw.BoxScore)),
	}

	for playerID, line := range raw.BoxScore {
		stats := make(map[string]float64, len(line))
		for name, value := range line {
			if name == "home" {
				continue
			}
			stats[name] = value
		}
		record.BoxScore[playerID] = store.PlayerGameStats{
			Home:  line["home"] != 0,
			Stats: stats,
		}
	}

	return record, nil
}
