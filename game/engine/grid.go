package engine

import (
	"encoding/json"
	"fmt"
)

// Tier is the value of a structure. Empty marks a cell with no structure.
type Tier int

const (
	Empty   Tier = 0
	MinTier Tier = 1
	MaxTier Tier = 9
)

// Valid reports whether t is a placeable structure tier.
func (t Tier) Valid() bool {
	return t >= MinTier && t <= MaxTier
}

// MarshalJSON encodes empty cells as null.
func (t Tier) MarshalJSON() ([]byte, error) {
	if t == Empty {
		return []byte("null"), nil
	}
	return json.Marshal(int(t))
}

// UnmarshalJSON decodes null as Empty.
func (t *Tier) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Empty
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("tier must be an integer or null: %w", err)
	}
	*t = Tier(v)
	return nil
}

// Position is a grid coordinate. X is the row, Y the column, both 0-indexed.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Cell is a position tagged grid slot
type Cell struct {
	Position
	Value Tier `json:"value"`
}

// Grid is a rectangular container of cells. Its dimensions are fixed at construction.
type Grid struct {
	cells [][]Cell
}

// NewGrid builds a grid from raw tier values, one slice per row.
func NewGrid(values [][]Tier) (*Grid, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: grid has no rows", ErrInvalidShape)
	}
	width := len(values[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: grid rows are empty", ErrInvalidShape)
	}

	cells := make([][]Cell, len(values))
	for x, row := range values {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidShape, x+1, len(row), width)
		}
		cells[x] = make([]Cell, width)
		for y, v := range row {
			if v != Empty && !v.Valid() {
				return nil, fmt.Errorf("%w: %d at (%d, %d)", ErrInvalidTier, v, x+1, y+1)
			}
			cells[x][y] = Cell{Position: Position{X: x, Y: y}, Value: v}
		}
	}

	return &Grid{cells: cells}, nil
}

// Height returns the number of rows
func (g *Grid) Height() int {
	return len(g.cells)
}

// Width returns the length of row x, or 0 when x is outside the grid
func (g *Grid) Width(x int) int {
	if x < 0 || x >= len(g.cells) {
		return 0
	}
	return len(g.cells[x])
}

// InBounds reports whether (x, y) addresses a cell of the grid
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < len(g.cells) && y < len(g.cells[x])
}

// At returns the value at (x, y). Callers must check InBounds first.
func (g *Grid) At(x, y int) Tier {
	return g.cells[x][y].Value
}

func (g *Grid) set(x, y int, t Tier) {
	g.cells[x][y].Value = t
}

// Cells returns a copy of all cells in row-major order
func (g *Grid) Cells() []Cell {
	out := make([]Cell, 0, len(g.cells)*g.Width(0))
	for _, row := range g.cells {
		out = append(out, row...)
	}
	return out
}

// Count returns how many cells currently hold t
func (g *Grid) Count(t Tier) int {
	n := 0
	for _, row := range g.cells {
		for _, c := range row {
			if c.Value == t {
				n++
			}
		}
	}
	return n
}

// Serialize returns the plain nested tier values of the grid
func (g *Grid) Serialize() [][]Tier {
	out := make([][]Tier, len(g.cells))
	for x, row := range g.cells {
		out[x] = make([]Tier, len(row))
		for y, c := range row {
			out[x][y] = c.Value
		}
	}
	return out
}

// Clone returns a deep copy of the grid
func (g *Grid) Clone() *Grid {
	cells := make([][]Cell, len(g.cells))
	for x, row := range g.cells {
		cells[x] = make([]Cell, len(row))
		copy(cells[x], row)
	}
	return &Grid{cells: cells}
}

// Equal reports whether both grids have the same shape and values
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || len(g.cells) != len(other.cells) {
		return false
	}
	for x, row := range g.cells {
		if len(row) != len(other.cells[x]) {
			return false
		}
		for y, c := range row {
			if c.Value != other.cells[x][y].Value {
				return false
			}
		}
	}
	return true
}

// MarshalJSON encodes the grid as its serialized values
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Serialize())
}

// UnmarshalJSON rebuilds the grid from serialized values
func (g *Grid) UnmarshalJSON(data []byte) error {
	var values [][]Tier
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	built, err := NewGrid(values)
	if err != nil {
		return err
	}
	g.cells = built.cells
	return nil
}
