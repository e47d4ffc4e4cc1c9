package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/statline/internal/gamedata"
	"github.com/fortuna/statline/internal/index"
	"github.com/fortuna/statline/internal/oddsdata"
	"github.com/fortuna/statline/internal/series"
)

func testLog() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

type fixture struct {
	runner      *Runner
	playerStore series.PlayerStore
	oddsStore   series.OddsStore
	seriesDir   string
	oddsOutDir  string
}

// newFixture lays out a full input tree: two game dates for alice and
// bob, plus an odds partition whose dates need remapping.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	gamesDir := filepath.Join(root, "games")
	oddsDir := filepath.Join(root, "odds")
	require.NoError(t, os.Mkdir(gamesDir, 0o755))
	require.NoError(t, os.Mkdir(oddsDir, 0o755))

	write(t, filepath.Join(gamesDir, "20231101_0001.json"),
		`{"date":"20231101","box_score":{
			"alice01":{"pts":20,"ast":5,"home":1},
			"bob01":{"pts":12,"ast":2,"home":0}}}`)
	write(t, filepath.Join(gamesDir, "20231105_0002.json"),
		`{"date":"20231105","box_score":{
			"alice01":{"pts":30,"ast":7,"home":0},
			"bob01":{"pts":8,"ast":1,"home":1}}}`)
	write(t, filepath.Join(gamesDir, "broken.json"), `{"date":"bad"}`)

	write(t, filepath.Join(oddsDir, "2023-11-03.csv"),
		"date,game_id,book_key,market,player,over_under,value,odds,timestamp,home_team,away_team\n"+
			// 2023-11-03 ties between 11-01 and 11-05: earlier date wins.
			"2023-11-03,g1,fanduel,player_points_over_under,alice,True,24.5,-110,ts,LAL,BOS\n"+
			// carol has no series and must be skipped, not fatal.
			"2023-11-03,g1,fanduel,player_points_over_under,carol,True,10.5,100,ts,LAL,BOS\n")

	indexPath := filepath.Join(root, "player_idx.json")
	write(t, indexPath, `{"alice":"alice01","bob":"bob01"}`)
	resolver, err := index.Load(indexPath)
	require.NoError(t, err)

	seriesDir := filepath.Join(root, "series")
	oddsOutDir := filepath.Join(root, "odds-series")
	playerStore, err := series.NewCSVPlayerStore(seriesDir)
	require.NoError(t, err)
	oddsStore, err := series.NewCSVOddsStore(oddsOutDir)
	require.NoError(t, err)

	runner := NewRunner(
		gamedata.NewStore(gamesDir, testLog()),
		oddsdata.NewStore(oddsDir, testLog()),
		resolver,
		playerStore,
		oddsStore,
		nil,
		testLog(),
	)
	return &fixture{
		runner:      runner,
		playerStore: playerStore,
		oddsStore:   oddsStore,
		seriesDir:   seriesDir,
		oddsOutDir:  oddsOutDir,
	}
}

func TestRunFullBatch(t *testing.T) {
	fx := newFixture(t)
	playerStore, oddsStore := fx.playerStore, fx.oddsStore
	ctx := context.Background()

	summary, err := fx.runner.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Dates)
	assert.Equal(t, 2, summary.Games)
	assert.Equal(t, 2, summary.PlayersWritten)
	assert.Equal(t, 0, summary.PlayersSkipped)
	assert.Equal(t, 2, summary.OddsRows)
	assert.Equal(t, 1, summary.OddsPlayersWritten)
	assert.Equal(t, 1, summary.OddsPlayersSkipped)
	assert.NotEmpty(t, summary.RunID)

	alice, err := playerStore.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, day(2023, 11, 1), alice[0].Date)
	assert.Equal(t, "bob", alice[0].Opponent)
	assert.Equal(t, "", alice[0].Team)
	assert.True(t, alice[0].Home)
	assert.Equal(t, 20.0, alice[0].Stats["pts"])

	odds, err := oddsStore.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, odds, 1)
	// Remapped to the earlier of the two equidistant game dates.
	assert.Equal(t, day(2023, 11, 1), odds[0].Date)

	_, err = oddsStore.Load(ctx, "carol")
	assert.Error(t, err)
}

func TestRunIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.runner.Run(ctx)
	require.NoError(t, err)
	first := readOutputFiles(t, fx)

	_, err = fx.runner.Run(ctx)
	require.NoError(t, err)
	second := readOutputFiles(t, fx)

	assert.Equal(t, first, second, "rerunning the batch must produce byte-identical files")
}

func readOutputFiles(t *testing.T, fx *fixture) map[string][]byte {
	t.Helper()
	files := make(map[string][]byte)
	for _, dir := range []string{fx.seriesDir, fx.oddsOutDir} {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			require.NoError(t, err)
			files[filepath.Join(dir, e.Name())] = data
		}
	}
	return files
}
