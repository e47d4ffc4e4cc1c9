// Package series persists per-player time series: the pivoted stat rows
// and the reconciled odds rows. Each player's series is an independent
// partition, fully overwritten on save; loads return rows sorted
// ascending by date regardless of stored order.
package series

import (
	"context"

	"github.com/fortuna/statline/internal/store"
)

// PlayerStore persists pivoted player stat series.
type PlayerStore interface {
	// Save replaces the player's entire series. Writes are all-or-nothing;
	// a failed save leaves any previous series intact.
	Save(ctx context.Context, player string, s store.PlayerSeries) error

	// Load returns the player's series sorted ascending by date, or
	// store.ErrNotFound if none exists.
	Load(ctx context.Context, player string) (store.PlayerSeries, error)
}

// OddsStore persists reconciled odds rows per player. Mirrors PlayerStore.
type OddsStore interface {
	Save(ctx context.Context, player string, rows []store.OddsRow) error
	Load(ctx context.Context, player string) ([]store.OddsRow, error)
}
