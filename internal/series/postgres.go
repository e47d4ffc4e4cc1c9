package series

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fortuna/statline/internal/store"
)

// PostgresPlayerStore persists player series in the player_series table.
// A save deletes and reinserts the player's rows inside one transaction,
// which gives the same full-overwrite, all-or-nothing contract as the
// CSV backend.
type PostgresPlayerStore struct {
	db *store.Database
}

// NewPostgresPlayerStore creates a Postgres-backed player series store.
func NewPostgresPlayerStore(db *store.Database) *PostgresPlayerStore {
	return &PostgresPlayerStore{db: db}
}

// Save replaces the player's entire series.
func (p *PostgresPlayerStore) Save(ctx context.Context, player string, s store.PlayerSeries) error {
	tx, err := p.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning series save for %q: %w", player, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM player_series WHERE player = $1`, player); err != nil {
		return fmt.Errorf("clearing series for %q: %w", player, err)
	}

	insert := `
		INSERT INTO player_series (player, game_date, home, stats, opponent, team)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, row := range s {
		stats, err := json.Marshal(row.Stats)
		if err != nil {
			return fmt.Errorf("encoding stats for %q: %w", player, err)
		}
		if _, err := tx.ExecContext(ctx, insert,
			player, store.Day(row.Date), row.Home, stats, row.Opponent, row.Team,
		); err != nil {
			return fmt.Errorf("inserting series row for %q: %w", player, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing series for %q: %w", player, err)
	}
	return nil
}

// Load returns the player's series sorted ascending by date.
func (p *PostgresPlayerStore) Load(ctx context.Context, player string) (store.PlayerSeries, error) {
	query := `
		SELECT game_date, home, stats, opponent, team
		FROM player_series
		WHERE player = $1
		ORDER BY game_date ASC
	`

	rows, err := p.db.DB().QueryContext(ctx, query, player)
	if err != nil {
		return nil, fmt.Errorf("querying series for %q: %w", player, err)
	}
	defer rows.Close()

	var series store.PlayerSeries
	for rows.Next() {
		var row store.PlayerRow
		var stats []byte
		if err := rows.Scan(&row.Date, &row.Home, &stats, &row.Opponent, &row.Team); err != nil {
			return nil, fmt.Errorf("scanning series row for %q: %w", player, err)
		}
		if err := json.Unmarshal(stats, &row.Stats); err != nil {
			return nil, fmt.Errorf("decoding stats for %q: %w", player, err)
		}
		row.Date = store.Day(row.Date)
		series = append(series, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading series for %q: %w", player, err)
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("no series for %q: %w", player, store.ErrNotFound)
	}

	series.SortByDate()
	return series, nil
}

// PostgresOddsStore persists reconciled odds rows in the odds_series table.
type PostgresOddsStore struct {
	db *store.Database
}

// NewPostgresOddsStore creates a Postgres-backed odds series store.
func NewPostgresOddsStore(db *store.Database) *PostgresOddsStore {
	return &PostgresOddsStore{db: db}
}

// Save replaces the player's reconciled odds rows.
func (p *PostgresOddsStore) Save(ctx context.Context, player string, oddsRows []store.OddsRow) error {
	tx, err := p.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning odds save for %q: %w", player, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM odds_series WHERE player = $1`, player); err != nil {
		return fmt.Errorf("clearing odds for %q: %w", player, err)
	}

	insert := `
		INSERT INTO odds_series (player, game_date, game_id, book_key, market,
			over_under, value, odds, captured, home_team, away_team)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for _, row := range oddsRows {
		if _, err := tx.ExecContext(ctx, insert,
			player, store.Day(row.Date), row.GameID, row.BookKey, row.Market,
			row.OverUnder, row.Value, row.Odds, row.Timestamp, row.HomeTeam, row.AwayTeam,
		); err != nil {
			return fmt.Errorf("inserting odds row for %q: %w", player, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing odds for %q: %w", player, err)
	}
	return nil
}

// Load returns the player's reconciled odds rows sorted ascending by date.
func (p *PostgresOddsStore) Load(ctx context.Context, player string) ([]store.OddsRow, error) {
	query := `
		SELECT game_date, game_id, book_key, market, over_under, value, odds,
			captured, home_team, away_team
		FROM odds_series
		WHERE player = $1
		ORDER BY game_date ASC, id ASC
	`

	rows, err := p.db.DB().QueryContext(ctx, query, player)
	if err != nil {
		return nil, fmt.Errorf("querying odds for %q: %w", player, err)
	}
	defer rows.Close()

	var result []store.OddsRow
	for rows.Next() {
		row := store.OddsRow{Player: player}
		if err := rows.Scan(&row.Date, &row.GameID, &row.BookKey, &row.Market,
			&row.OverUnder, &row.Value, &row.Odds, &row.Timestamp, &row.HomeTeam, &row.AwayTeam,
		); err != nil {
			return nil, fmt.Errorf("scanning odds row for %q: %w", player, err)
		}
		row.Date = store.Day(row.Date)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading odds for %q: %w", player, err)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("no odds for %q: %w", player, store.ErrNotFound)
	}

	store.SortOddsByDate(result)
	return result, nil
}

var (
	_ PlayerStore = (*PostgresPlayerStore)(nil)
	_ OddsStore   = (*PostgresOddsStore)(nil)
	_ PlayerStore = (*CSVPlayerStore)(nil)
	_ OddsStore   = (*CSVOddsStore)(nil)
)
