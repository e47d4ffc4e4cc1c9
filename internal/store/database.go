package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Database wraps the PostgreSQL connection used by the Postgres-backed
// series stores.
type Database struct {
	conn *sql.DB
	dsn  string
}

// NewDatabase opens a connection pool and verifies connectivity.
func NewDatabase(dsn string) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		conn: db,
		dsn:  dsn,
	}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for queries
func (db *Database) DB() *sql.DB {
	return db.conn
}

// migrations are applied in order and tracked in schema_migrations so a
// restart never reapplies one.
var migrations = []struct {
	version string
	sql     string
}{
	{
		version: "001_create_player_series",
		sql: `
			CREATE TABLE IF NOT EXISTS player_series (
				player    TEXT NOT NULL,
				game_date DATE NOT NULL,
				home      BOOLEAN NOT NULL,
				stats     JSONB NOT NULL,
				opponent  TEXT NOT NULL,
				team      TEXT NOT NULL,
				PRIMARY KEY (player, game_date)
			)
		`,
	},
	{
		version: "002_create_odds_series",
		sql: `
			CREATE TABLE IF NOT EXISTS odds_series (
				id         BIGSERIAL PRIMARY KEY,
				player     TEXT NOT NULL,
				game_date  DATE NOT NULL,
				game_id    TEXT NOT NULL,
				book_key   TEXT NOT NULL,
				market     TEXT NOT NULL,
				over_under BOOLEAN NOT NULL,
				value      DOUBLE PRECISION NOT NULL,
				odds       DOUBLE PRECISION NOT NULL,
				captured   TEXT NOT NULL,
				home_team  TEXT NOT NULL,
				away_team  TEXT NOT NULL
			)
		`,
	},
	{
		version: "003_index_odds_series_player",
		sql:     `CREATE INDEX IF NOT EXISTS idx_odds_series_player ON odds_series (player, game_date)`,
	},
}

// RunMigrations executes all schema migrations in order
func (db *Database) RunMigrations() error {
	logrus.Info("Running database migrations...")

	if err := db.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		if err := db.runMigration(m.version, m.sql); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.version, err)
		}
	}

	logrus.Info("All migrations completed successfully")
	return nil
}

// createMigrationsTable creates a table to track which migrations have been run
func (db *Database) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := db.conn.Exec(query)
	return err
}

// runMigration applies a single migration if it hasn't been applied yet
func (db *Database) runMigration(version, query string) error {
	var exists bool
	err := db.conn.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		logrus.Debugf("Skipping %s (already applied)", version)
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logrus.Infof("Applied migration %s", version)
	return nil
}

// HealthCheck performs a health check on the database
func (db *Database) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return db.conn.PingContext(ctx)
}
