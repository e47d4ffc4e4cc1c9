package store

import "errors"

// Error taxonomy for the pipeline. Per-record and per-player failures are
// isolated by callers (skip and continue); only missing structural
// collaborators abort a run.
var (
	// ErrMalformedRecord marks a raw game record with an unparseable date
	// or missing box score. The record is skipped; other dates' groups
	// are unaffected.
	ErrMalformedRecord = errors.New("malformed game record")

	// ErrUnknownPlayer marks a player identifier the resolver cannot map
	// to a display name. That player's contribution to the record is
	// skipped.
	ErrUnknownPlayer = errors.New("unknown player identifier")

	// ErrNotFound is returned when a requested player series or odds
	// partition does not exist. Callers must not fabricate empty data.
	ErrNotFound = errors.New("player series not found")

	// ErrNoReferenceDates is returned when odds reconciliation is
	// impossible because the player has no known game dates.
	ErrNoReferenceDates = errors.New("no reference dates for player")
)
