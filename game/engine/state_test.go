package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateFromRows(t *testing.T, stars, bombs int, rows ...string) *GameState {
	t.Helper()
	gs, err := NewGameState(gridFromRows(t, rows...), stars, bombs, nil)
	require.NoError(t, err)
	return gs
}

func rowsOf(g *Grid) []string {
	rows := make([]string, g.Height())
	for x := 0; x < g.Height(); x++ {
		b := make([]byte, g.Width(x))
		for y := range b {
			if v := g.At(x, y); v == Empty {
				b[y] = '.'
			} else {
				b[y] = byte('0' + v)
			}
		}
		rows[x] = string(b)
	}
	return rows
}

func TestBuild(t *testing.T) {
	t.Run("no reaction", func(t *testing.T) {
		gs := stateFromRows(t, 0, 0, "1..", "...")
		outcome, err := gs.Build(0, 1, 1)
		require.NoError(t, err)

		assert.Equal(t, 4, gs.Score)
		assert.Equal(t, 1, gs.NumBuilt)
		assert.Equal(t, "BUILD 1 2", gs.Command)
		assert.Empty(t, outcome.Phases)
		assert.Equal(t, Tier(1), outcome.Final)
		assert.Equal(t, []string{"11.", "..."}, rowsOf(gs.Grid))
	})

	t.Run("four connected merge into one", func(t *testing.T) {
		gs := stateFromRows(t, 0, 0,
			"11.",
			"1..",
			"...")
		outcome, err := gs.Build(1, 1, 1)
		require.NoError(t, err)

		require.Len(t, outcome.Phases, 1)
		assert.Equal(t, Tier(1), outcome.Phases[0].Before)
		assert.Equal(t, Tier(2), outcome.Phases[0].After)
		assert.ElementsMatch(t, []Position{{1, 1}, {0, 1}, {1, 0}, {0, 0}}, outcome.Phases[0].Cells)
		assert.Equal(t, []string{"...", ".2.", "..."}, rowsOf(gs.Grid))

		rules := DefaultRules()
		assert.Equal(t, rules.BuildScores[1]+rules.BuildScores[2], gs.Score)
		assert.Equal(t, gs.Score, outcome.ScoreDelta)
	})

	t.Run("two in a row do not react", func(t *testing.T) {
		gs := stateFromRows(t, 0, 0, "1..")
		outcome, err := gs.Build(0, 1, 1)
		require.NoError(t, err)
		assert.Empty(t, outcome.Phases)
		assert.Equal(t, []string{"11."}, rowsOf(gs.Grid))
	})

	t.Run("chain reaction", func(t *testing.T) {
		gs := stateFromRows(t, 0, 0,
			".2.",
			"2.1",
			".11")
		outcome, err := gs.Build(1, 1, 1)
		require.NoError(t, err)

		require.Len(t, outcome.Phases, 2)
		assert.Equal(t, Tier(1), outcome.Phases[0].Before)
		assert.Len(t, outcome.Phases[0].Cells, 4)
		assert.Equal(t, Tier(2), outcome.Phases[1].Before)
		assert.Equal(t, Tier(3), outcome.Phases[1].After)
		assert.Len(t, outcome.Phases[1].Cells, 3)

		assert.Equal(t, Tier(3), outcome.Final)
		assert.Equal(t, []string{"...", ".3.", "..."}, rowsOf(gs.Grid))
		assert.Equal(t, 4+20+100, gs.Score)
	})

	t.Run("chain stops at tier 9", func(t *testing.T) {
		gs := stateFromRows(t, 0, 0,
			".8.",
			"8.9",
			".9.")
		outcome, err := gs.Build(1, 1, 8)
		require.NoError(t, err)

		require.Len(t, outcome.Phases, 1)
		assert.Equal(t, Tier(9), outcome.Final)
		assert.Equal(t, []string{"...", ".99", ".9."}, rowsOf(gs.Grid))
		assert.Equal(t, 100000+500000, gs.Score)
	})

	t.Run("tier 9 never reacts", func(t *testing.T) {
		gs := stateFromRows(t, 0, 0, "99.", "9..")
		outcome, err := gs.Build(1, 1, 9)
		require.NoError(t, err)
		assert.Empty(t, outcome.Phases)
		assert.Equal(t, 4, gs.Grid.Count(9))
	})

	t.Run("occupied cell", func(t *testing.T) {
		gs := stateFromRows(t, 0, 0, "1..", "...")
		before := gs.Snapshot()

		_, err := gs.Build(0, 0, 2)
		assert.ErrorIs(t, err, ErrOccupiedCell)
		assert.Equal(t, "You can't put structures here, since it's not empty.", err.Error())
		assert.Equal(t, before, gs.Snapshot())
	})

	t.Run("out of range", func(t *testing.T) {
		gs := stateFromRows(t, 0, 0, "..")
		_, err := gs.Build(3, 0, 1)
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("invalid tier", func(t *testing.T) {
		gs := stateFromRows(t, 0, 0, "..")
		before := gs.Snapshot()
		_, err := gs.Build(0, 0, 0)
		assert.ErrorIs(t, err, ErrInvalidTier)
		assert.Equal(t, before, gs.Snapshot())
	})
}

func TestStarTier(t *testing.T) {
	t.Run("picks qualifying tier over non-qualifying higher tier", func(t *testing.T) {
		gs := stateFromRows(t, 1, 0,
			".4.",
			"4.7",
			"...")
		before := gs.Snapshot()
		assert.Equal(t, Tier(4), gs.StarTier(1, 1))
		assert.Equal(t, before, gs.Snapshot(), "probe must be read-only")
	})

	t.Run("picks highest qualifying tier", func(t *testing.T) {
		gs := stateFromRows(t, 1, 0,
			".4.",
			"4.7",
			".7.")
		assert.Equal(t, Tier(7), gs.StarTier(1, 1))
	})

	t.Run("defaults to tier 1", func(t *testing.T) {
		gs := stateFromRows(t, 1, 0,
			".2.",
			"3.4",
			".5.")
		assert.Equal(t, MinTier, gs.StarTier(1, 1))
	})

	t.Run("tier 9 neighbours never qualify", func(t *testing.T) {
		gs := stateFromRows(t, 1, 0, ".9.", "9..")
		assert.Equal(t, MinTier, gs.StarTier(1, 1))
	})
}

func TestPutStar(t *testing.T) {
	t.Run("wildcard reacts", func(t *testing.T) {
		gs := stateFromRows(t, 2, 0,
			".4.",
			"4.7",
			"...")
		outcome, err := gs.PutStar(1, 1)
		require.NoError(t, err)

		assert.Equal(t, 1, gs.NumStars)
		assert.Equal(t, 0, gs.NumBuilt)
		assert.Equal(t, "STAR 2 2", gs.Command)
		assert.Equal(t, Tier(4), outcome.Placed)
		assert.Equal(t, Tier(5), outcome.Final)
		assert.Equal(t, []string{"...", ".57", "..."}, rowsOf(gs.Grid))
		assert.Equal(t, 500+1500, gs.Score)
	})

	t.Run("lone star is tier 1", func(t *testing.T) {
		gs := stateFromRows(t, 1, 0, "...", "...")
		outcome, err := gs.PutStar(0, 0)
		require.NoError(t, err)
		assert.Equal(t, MinTier, outcome.Final)
		assert.Equal(t, 4, gs.Score)
	})

	t.Run("no stars left", func(t *testing.T) {
		gs := stateFromRows(t, 0, 0, "...")
		before := gs.Snapshot()
		_, err := gs.PutStar(0, 0)
		assert.ErrorIs(t, err, ErrNoStarsLeft)
		assert.Equal(t, before, gs.Snapshot())
	})

	t.Run("occupied cell", func(t *testing.T) {
		gs := stateFromRows(t, 1, 0, "3..")
		before := gs.Snapshot()
		_, err := gs.PutStar(0, 0)
		assert.ErrorIs(t, err, ErrOccupiedCell)
		assert.Equal(t, "You can't put stars here, since it's not empty.", err.Error())
		assert.Equal(t, before, gs.Snapshot())
	})
}

func TestPutBomb(t *testing.T) {
	t.Run("removes structure at a penalty", func(t *testing.T) {
		gs := stateFromRows(t, 0, 2, "3..")
		outcome, err := gs.PutBomb(0, 0)
		require.NoError(t, err)

		assert.Equal(t, -50, gs.Score)
		assert.Equal(t, 1, gs.NumBombs)
		assert.Equal(t, "BOMBER 1 1", gs.Command)
		assert.Equal(t, Tier(3), outcome.Placed)
		assert.Equal(t, -50, outcome.ScoreDelta)
		assert.Equal(t, Empty, gs.Grid.At(0, 0))
	})

	t.Run("no reaction after removal", func(t *testing.T) {
		gs := stateFromRows(t, 0, 1, "11.", "1.1")
		_, err := gs.PutBomb(0, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{".1.", "1.1"}, rowsOf(gs.Grid))
	})

	t.Run("empty cell", func(t *testing.T) {
		gs := stateFromRows(t, 0, 1, "...")
		before := gs.Snapshot()
		_, err := gs.PutBomb(0, 0)
		assert.ErrorIs(t, err, ErrEmptyCell)
		assert.Equal(t, "You can't put bombers here, since it's empty.", err.Error())
		assert.Equal(t, before, gs.Snapshot())
	})

	t.Run("no bombers left", func(t *testing.T) {
		gs := stateFromRows(t, 0, 0, "1..")
		_, err := gs.PutBomb(0, 0)
		assert.ErrorIs(t, err, ErrNoBombersLeft)
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	gs := stateFromRows(t, 2, 1, "1.", ".3")
	_, err := gs.Build(0, 1, 2)
	require.NoError(t, err)

	snap := gs.Snapshot()
	require.NotNil(t, snap.Command)
	assert.Equal(t, "BUILD 1 2", *snap.Command)

	rebuilt, err := FromSnapshot(snap, nil)
	require.NoError(t, err)
	assert.Equal(t, snap, rebuilt.Snapshot())

	initial := stateFromRows(t, 0, 0, "..")
	assert.Nil(t, initial.Snapshot().Command)
}

func TestGameStateJSON(t *testing.T) {
	gs := stateFromRows(t, 1, 2, "1.")

	data, err := json.Marshal(gs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":0,"num_built":0,"num_stars":1,"num_bombs":2,"grid":[[1,null]],"command":null}`, string(data))

	var decoded GameState
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, gs.Snapshot(), decoded.Snapshot())
}

func TestCloneIsIndependent(t *testing.T) {
	gs := stateFromRows(t, 1, 1, "1..")
	before := gs.Snapshot()

	clone := gs.Clone()
	_, err := clone.Build(0, 1, 1)
	require.NoError(t, err)
	_, err = clone.PutStar(0, 2)
	require.NoError(t, err)

	assert.Equal(t, before, gs.Snapshot())
}

func TestFromSnapshotRejectsNegativeInventory(t *testing.T) {
	_, err := FromSnapshot(Snapshot{Grid: [][]Tier{{Empty}}, NumStars: -1}, nil)
	assert.Error(t, err)
}
