package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridFromRows builds a grid from rows of '.' and digits
func gridFromRows(t *testing.T, rows ...string) *Grid {
	t.Helper()
	values := make([][]Tier, len(rows))
	for x, row := range rows {
		values[x] = make([]Tier, len(row))
		for y, ch := range row {
			if ch != '.' {
				values[x][y] = Tier(ch - '0')
			}
		}
	}
	g, err := NewGrid(values)
	require.NoError(t, err)
	return g
}

func TestNewGrid(t *testing.T) {
	t.Run("positions match indices", func(t *testing.T) {
		g := gridFromRows(t, "1.", ".2", "3.")
		assert.Equal(t, 3, g.Height())
		assert.Equal(t, 2, g.Width(0))
		for _, c := range g.Cells() {
			assert.Equal(t, c.Value, g.At(c.X, c.Y))
		}
		assert.Equal(t, Tier(2), g.At(1, 1))
	})

	t.Run("unequal rows", func(t *testing.T) {
		_, err := NewGrid([][]Tier{{1, 2}, {1}})
		assert.ErrorIs(t, err, ErrInvalidShape)
	})

	t.Run("no rows", func(t *testing.T) {
		_, err := NewGrid(nil)
		assert.ErrorIs(t, err, ErrInvalidShape)
	})

	t.Run("invalid tier", func(t *testing.T) {
		_, err := NewGrid([][]Tier{{1, 10}})
		assert.ErrorIs(t, err, ErrInvalidTier)
	})
}

func TestGridInBounds(t *testing.T) {
	g := gridFromRows(t, "...", "...")

	tests := []struct {
		x, y int
		want bool
	}{
		{0, 0, true},
		{1, 2, true},
		{2, 0, false},
		{0, 3, false},
		{-1, 0, false},
		{0, -1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.InBounds(tt.x, tt.y), "InBounds(%d, %d)", tt.x, tt.y)
	}
	assert.Equal(t, 0, g.Width(5))
}

func TestGridSerializeRoundTrip(t *testing.T) {
	g := gridFromRows(t, "1.9", ".5.", "23.")

	rebuilt, err := NewGrid(g.Serialize())
	require.NoError(t, err)
	assert.True(t, g.Equal(rebuilt))

	clone := g.Clone()
	clone.set(1, 0, 4)
	assert.False(t, g.Equal(clone), "clone must not share cells")
	assert.Equal(t, Empty, g.At(1, 0))
}

func TestGridJSON(t *testing.T) {
	g := gridFromRows(t, "1.", ".2")

	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `[[1,null],[null,2]]`, string(data))

	var decoded Grid
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, g.Equal(&decoded))

	var bad Grid
	assert.ErrorIs(t, json.Unmarshal([]byte(`[[1],[1,2]]`), &bad), ErrInvalidShape)
}

func TestGridCount(t *testing.T) {
	g := gridFromRows(t, "11.", ".1.")
	assert.Equal(t, 3, g.Count(1))
	assert.Equal(t, 3, g.Count(Empty))
	assert.Equal(t, 0, g.Count(2))
}
