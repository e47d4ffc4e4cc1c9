// Package oddsdata loads raw odds rows from per-provider-date CSV
// partitions. Rows span all players; the pipeline splits them by player
// before reconciliation.
package oddsdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/statline/internal/series"
	"github.com/fortuna/statline/internal/store"
)

// Store reads raw odds CSV files from a directory, one file per provider
// date.
type Store struct {
	dir string
	log *logrus.Entry
}

// NewStore creates a raw odds store over the given directory.
func NewStore(dir string, log *logrus.Entry) *Store {
	return &Store{dir: dir, log: log}
}

// Load reads every per-date partition and concatenates the rows.
// Malformed rows are skipped with a warning; a bad row never drops the
// rest of its partition.
func (s *Store) Load() ([]store.OddsRow, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading odds data directory %s: %w", s.dir, err)
	}

	var rows []store.OddsRow
	skipped := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		partition, bad, err := s.loadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.log.WithError(err).Warnf("Skipping odds partition %s", entry.Name())
			continue
		}
		skipped += bad
		rows = append(rows, partition...)
	}

	if skipped > 0 {
		s.log.Warnf("Skipped %d malformed odds rows", skipped)
	}

	return rows, nil
}

// SplitByPlayer groups odds rows by the player display name.
func SplitByPlayer(rows []store.OddsRow) map[string][]store.OddsRow {
	grouped := make(map[string][]store.OddsRow)
	for _, row := range rows {
		grouped[row.Player] = append(grouped[row.Player], row)
	}
	return grouped
}

func (s *Store) loadFile(path string) ([]store.OddsRow, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, 0, nil
	}

	rows := make([]store.OddsRow, 0, len(records)-1)
	skipped := 0
	for i, record := range records[1:] {
		row, err := series.ParseOddsRecord(record)
		if err != nil {
			skipped++
			s.log.WithError(err).Warnf("Skipping row %d of %s", i+1, filepath.Base(path))
			continue
		}
		rows = append(rows, *row)
	}

	return rows, skipped, nil
}
