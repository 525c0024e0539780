package level

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
  3 4
1 2

1.2.
....
..9.
3
1 2 3
`

func TestParse(t *testing.T) {
	lvl, err := ParseString(sample)
	require.NoError(t, err)

	assert.Equal(t, 3, lvl.Height)
	assert.Equal(t, 4, lvl.Width)
	assert.Equal(t, 1, lvl.NumStars)
	assert.Equal(t, 2, lvl.NumBombs)
	assert.Equal(t, [][]int{{1, 0, 2, 0}, {0, 0, 0, 0}, {0, 0, 9, 0}}, lvl.Grid)
	assert.Equal(t, []int{1, 2, 3}, lvl.Queue)
	assert.Equal(t, 3, lvl.Filled())
}

func TestParseEmptyQueue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"zero length", "1 2\n0 0\n..\n0\n"},
		{"missing section", "1 2\n0 0\n..\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lvl, err := ParseString(tt.raw)
			require.NoError(t, err)
			assert.NotNil(t, lvl.Queue)
			assert.Empty(t, lvl.Queue)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind ErrorKind
	}{
		{"empty", "", KindDimensions},
		{"one dimension", "3\n0 0\n", KindDimensions},
		{"non integer dimension", "a 3\n", KindDimensions},
		{"zero dimension", "0 3\n0 0\n", KindDimensions},
		{"missing inventory", "1 1\n", KindInventory},
		{"negative inventory", "1 1\n-1 0\n.\n0\n", KindInventory},
		{"too few rows", "2 2\n0 0\n..\n", KindRowLength},
		{"short row", "2 2\n0 0\n..\n.\n0\n", KindRowLength},
		{"bad character", "1 2\n0 0\n.x\n0\n", KindGridChar},
		{"zero is not a tier", "1 2\n0 0\n.0\n0\n", KindGridChar},
		{"multibyte character", "1 2\n0 0\n1é\n0\n", KindGridChar},
		{"multibyte short row", "1 3\n0 0\n1é\n0\n", KindRowLength},
		{"missing queue line", "1 2\n0 0\n..\n2\n", KindQueue},
		{"bad queue entry", "1 2\n0 0\n..\n2\n1 10\n", KindQueue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lvl, err := ParseString(tt.raw)
			require.Error(t, err)
			assert.Nil(t, lvl)
			assert.True(t, errors.Is(err, ErrParse))

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.kind, parseErr.Kind)
		})
	}
}

func TestParseCountsCellsNotBytes(t *testing.T) {
	_, err := ParseString("1 3\n0 0\n.é1\n0\n")

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, KindGridChar, parseErr.Kind)
	assert.Equal(t, 3, parseErr.Line)
	assert.Contains(t, parseErr.Msg, "'é' at column 2")

	_, err = ParseString("1 2\n0 0\néé1\n0\n")
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, KindRowLength, parseErr.Kind)
	assert.Contains(t, parseErr.Msg, "row has 3 cells, expected 2")
}

func TestEncodeRoundTrip(t *testing.T) {
	lvl, err := ParseString(sample)
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, Encode(&b, lvl))
	assert.Equal(t, "3 4\n1 2\n1.2.\n....\n..9.\n3\n1 2 3\n", b.String())

	again, err := ParseString(b.String())
	require.NoError(t, err)
	assert.Equal(t, lvl, again)

	empty := &Level{Width: 1, Height: 1, Grid: [][]int{{0}}, Queue: []int{}}
	assert.Equal(t, "1 1\n0 0\n.\n0\n", empty.String())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		lvl  *Level
		kind ErrorKind
	}{
		{"rows", &Level{Width: 1, Height: 2, Grid: [][]int{{0}}}, KindRowLength},
		{"width", &Level{Width: 2, Height: 1, Grid: [][]int{{0}}}, KindRowLength},
		{"tier", &Level{Width: 1, Height: 1, Grid: [][]int{{12}}}, KindGridChar},
		{"queue", &Level{Width: 1, Height: 1, Grid: [][]int{{0}}, Queue: []int{0}}, KindQueue},
		{"inventory", &Level{Width: 1, Height: 1, NumBombs: -2, Grid: [][]int{{0}}}, KindInventory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.lvl.Validate()
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.kind, parseErr.Kind)
			assert.Empty(t, tt.lvl.String())
		})
	}
}
