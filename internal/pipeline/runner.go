// Package pipeline orchestrates the batch run: pivot pass over the raw
// game records, then the odds reconciliation pass over the raw odds
// partitions. The run is single-threaded and batch-oriented; every
// per-record or per-player failure is isolated and counted so one bad
// input cannot take down the whole batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/statline/internal/cache"
	"github.com/fortuna/statline/internal/gamedata"
	"github.com/fortuna/statline/internal/index"
	"github.com/fortuna/statline/internal/oddsdata"
	"github.com/fortuna/statline/internal/pivot"
	"github.com/fortuna/statline/internal/reconcile"
	"github.com/fortuna/statline/internal/series"
	"github.com/fortuna/statline/internal/store"
)

// Runner wires the stores, resolver, pivot builder, and reconciler into
// one batch job.
type Runner struct {
	games       *gamedata.Store
	odds        *oddsdata.Store
	resolver    *index.Resolver
	builder     *pivot.Builder
	reconciler  *reconcile.Reconciler
	playerStore series.PlayerStore
	oddsStore   series.OddsStore
	cache       *cache.RedisCache // optional
	log         *logrus.Entry
}

// Summary reports what one batch run did, including everything that was
// skipped. The driver logs it at the end of each run.
type Summary struct {
	RunID              string        `json:"run_id"`
	Dates              int           `json:"dates"`
	Games              int           `json:"games"`
	PlayersWritten     int           `json:"players_written"`
	PlayersSkipped     int           `json:"players_skipped"`
	SaveFailures       int           `json:"save_failures"`
	OddsRows           int           `json:"odds_rows"`
	OddsPlayersWritten int           `json:"odds_players_written"`
	OddsPlayersSkipped int           `json:"odds_players_skipped"`
	Elapsed            time.Duration `json:"elapsed"`
}

// NewRunner constructs a batch runner. The cache may be nil when the read
// API is disabled.
func NewRunner(
	games *gamedata.Store,
	odds *oddsdata.Store,
	resolver *index.Resolver,
	playerStore series.PlayerStore,
	oddsStore series.OddsStore,
	redisCache *cache.RedisCache,
	log *logrus.Entry,
) *Runner {
	return &Runner{
		games:       games,
		odds:        odds,
		resolver:    resolver,
		builder:     pivot.NewBuilder(playerStore, log),
		reconciler:  reconcile.NewReconciler(),
		playerStore: playerStore,
		oddsStore:   oddsStore,
		cache:       redisCache,
		log:         log,
	}
}

// Run executes the pivot pass followed by the odds pass and returns a
// summary. Only structural failures (unreadable directories, a missing
// collaborator) return an error.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	summary := &Summary{RunID: uuid.New().String()}
	log := r.log.WithField("run_id", summary.RunID)

	log.Info("Starting batch run")

	grouped, err := r.games.Load()
	if err != nil {
		return nil, fmt.Errorf("loading game records: %w", err)
	}

	result, err := r.builder.Build(ctx, grouped, r.resolver)
	if err != nil {
		return nil, fmt.Errorf("pivoting game records: %w", err)
	}
	summary.Dates = result.Dates
	summary.Games = result.Games
	summary.PlayersWritten = result.PlayersWritten
	summary.PlayersSkipped = result.PlayersSkipped
	summary.SaveFailures = result.SaveFailures

	if err := r.runOddsPass(ctx, summary, log); err != nil {
		return nil, err
	}

	if r.cache != nil {
		r.invalidate(ctx, result, log)
	}

	summary.Elapsed = time.Since(started)
	log.WithFields(logrus.Fields{
		"dates":                summary.Dates,
		"games":                summary.Games,
		"players_written":      summary.PlayersWritten,
		"players_skipped":      summary.PlayersSkipped,
		"save_failures":        summary.SaveFailures,
		"odds_rows":            summary.OddsRows,
		"odds_players_written": summary.OddsPlayersWritten,
		"odds_players_skipped": summary.OddsPlayersSkipped,
		"elapsed":              summary.Elapsed.String(),
	}).Info("Batch run complete")

	return summary, nil
}

// runOddsPass splits raw odds rows by player, remaps each player's dates
// against their series, and persists the reconciled rows. Players without
// a series (or without reference dates) are skipped, not fatal.
func (r *Runner) runOddsPass(ctx context.Context, summary *Summary, log *logrus.Entry) error {
	rows, err := r.odds.Load()
	if err != nil {
		return fmt.Errorf("loading odds rows: %w", err)
	}
	summary.OddsRows = len(rows)
	if len(rows) == 0 {
		return nil
	}

	for player, playerRows := range oddsdata.SplitByPlayer(rows) {
		if err := ctx.Err(); err != nil {
			return err
		}

		playerSeries, err := r.playerStore.Load(ctx, player)
		if err != nil {
			summary.OddsPlayersSkipped++
			if errors.Is(err, store.ErrNotFound) {
				log.Warnf("No series for %s, skipping odds reconciliation", player)
			} else {
				log.WithError(err).Errorf("Failed to load series for %s", player)
			}
			continue
		}

		reconciled, err := r.reconciler.Reconcile(player, playerRows, playerSeries.Dates())
		if err != nil {
			summary.OddsPlayersSkipped++
			log.WithError(err).Warnf("Skipping odds for %s", player)
			continue
		}

		if err := r.oddsStore.Save(ctx, player, reconciled); err != nil {
			summary.OddsPlayersSkipped++
			log.WithError(err).Errorf("Failed to save odds for %s", player)
			continue
		}
		summary.OddsPlayersWritten++
	}

	return nil
}

func (r *Runner) invalidate(ctx context.Context, result *pivot.Result, log *logrus.Entry) {
	for player := range result.Series {
		if err := r.cache.InvalidatePlayer(ctx, player); err != nil {
			log.WithError(err).Warnf("Failed to invalidate cache for %s", player)
		}
	}
}
