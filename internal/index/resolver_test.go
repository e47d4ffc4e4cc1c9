package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/statline/internal/store"
)

func TestLoadReversesIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "player_idx.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"lebron james": "jamesle01", "kevin durant": "duranke01"}`), 0o644))

	resolver, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, resolver.Len())

	name, err := resolver.Resolve("jamesle01")
	require.NoError(t, err)
	assert.Equal(t, "lebron james", name)
}

func TestResolveUnknownPlayer(t *testing.T) {
	resolver := NewResolver(map[string]string{"jamesle01": "lebron james"})

	_, err := resolver.Resolve("nobody99")
	assert.True(t, errors.Is(err, store.ErrUnknownPlayer))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadBadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "player_idx.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
