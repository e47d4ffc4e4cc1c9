// Package index resolves scraped player identifiers to display names.
//
// The on-disk index maps display name → identifier (that is how the
// scraper builds it); the resolver reverses it once at load time and is
// then injected into every component that needs resolution, rather than
// being read as ambient global state.
package index

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fortuna/statline/internal/store"
)

// Resolver maps player identifiers to display names. The mapping must be
// total over every identifier seen in the box scores.
type Resolver struct {
	idToName map[string]string
}

// Load reads a name → identifier JSON index and reverses it.
func Load(path string) (*Resolver, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading player index %s: %w", path, err)
	}

	var nameToID map[string]string
	if err := json.Unmarshal(raw, &nameToID); err != nil {
		return nil, fmt.Errorf("parsing player index %s: %w", path, err)
	}

	idToName := make(map[string]string, len(nameToID))
	for name, id := range nameToID {
		idToName[id] = name
	}

	return &Resolver{idToName: idToName}, nil
}

// NewResolver builds a resolver from an identifier → name mapping directly.
// Used by tests and by callers that already hold the reversed index.
func NewResolver(idToName map[string]string) *Resolver {
	return &Resolver{idToName: idToName}
}

// Resolve returns the display name for an identifier, or ErrUnknownPlayer
// if the index does not cover it.
func (r *Resolver) Resolve(id string) (string, error) {
	name, ok := r.idToName[id]
	if !ok {
		return "", fmt.Errorf("resolving %q: %w", id, store.ErrUnknownPlayer)
	}
	return name, nil
}

// Len reports how many identifiers the index covers.
func (r *Resolver) Len() int {
	return len(r.idToName)
}
