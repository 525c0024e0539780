package engine

import (
	"encoding/json"
	"fmt"
)

// GameState is one snapshot of a play session. Snapshots kept in a History
// are never mutated; actions run on a Clone.
type GameState struct {
	Score    int
	NumBuilt int
	NumStars int
	NumBombs int
	Grid     *Grid

	// Command is the action that produced this state, empty for the initial state
	Command string

	rules *Rules
}

// Snapshot is the plain value form of a GameState
type Snapshot struct {
	Score    int      `json:"score"`
	NumBuilt int      `json:"num_built"`
	NumStars int      `json:"num_stars"`
	NumBombs int      `json:"num_bombs"`
	Grid     [][]Tier `json:"grid"`
	Command  *string  `json:"command"`
}

// Outcome describes what an action did to the state
type Outcome struct {
	Tool       Tool     `json:"tool"`
	Position   Position `json:"position"`
	Placed     Tier     `json:"placed"`
	Final      Tier     `json:"final"`
	Phases     []Phase  `json:"phases,omitempty"`
	ScoreDelta int      `json:"score_delta"`
}

// NewGameState creates an initial state with no command. A nil rules uses DefaultRules.
func NewGameState(grid *Grid, numStars, numBombs int, rules *Rules) (*GameState, error) {
	if grid == nil {
		return nil, fmt.Errorf("grid cannot be nil")
	}
	if numStars < 0 || numBombs < 0 {
		return nil, fmt.Errorf("inventory counts must not be negative (stars=%d, bombers=%d)", numStars, numBombs)
	}
	if rules == nil {
		rules = DefaultRules()
	}
	return &GameState{
		NumStars: numStars,
		NumBombs: numBombs,
		Grid:     grid,
		rules:    rules,
	}, nil
}

// FromSnapshot rebuilds a state from its value form. A nil rules uses DefaultRules.
func FromSnapshot(snap Snapshot, rules *Rules) (*GameState, error) {
	grid, err := NewGrid(snap.Grid)
	if err != nil {
		return nil, err
	}
	if snap.NumBuilt < 0 {
		return nil, fmt.Errorf("num_built must not be negative, got %d", snap.NumBuilt)
	}
	gs, err := NewGameState(grid, snap.NumStars, snap.NumBombs, rules)
	if err != nil {
		return nil, err
	}
	gs.Score = snap.Score
	gs.NumBuilt = snap.NumBuilt
	if snap.Command != nil {
		gs.Command = *snap.Command
	}
	return gs, nil
}

// Snapshot returns the value form of the state
func (gs *GameState) Snapshot() Snapshot {
	snap := Snapshot{
		Score:    gs.Score,
		NumBuilt: gs.NumBuilt,
		NumStars: gs.NumStars,
		NumBombs: gs.NumBombs,
		Grid:     gs.Grid.Serialize(),
	}
	if gs.Command != "" {
		cmd := gs.Command
		snap.Command = &cmd
	}
	return snap
}

// Clone returns a deep copy that can be mutated freely
func (gs *GameState) Clone() *GameState {
	return &GameState{
		Score:    gs.Score,
		NumBuilt: gs.NumBuilt,
		NumStars: gs.NumStars,
		NumBombs: gs.NumBombs,
		Grid:     gs.Grid.Clone(),
		Command:  gs.Command,
		rules:    gs.rules,
	}
}

// Rules returns the scoring rules the state plays by
func (gs *GameState) Rules() *Rules {
	return gs.rules
}

// MarshalJSON encodes the state as its snapshot
func (gs *GameState) MarshalJSON() ([]byte, error) {
	return json.Marshal(gs.Snapshot())
}

// UnmarshalJSON decodes a snapshot using DefaultRules
func (gs *GameState) UnmarshalJSON(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	decoded, err := FromSnapshot(snap, nil)
	if err != nil {
		return err
	}
	*gs = *decoded
	return nil
}

// Build places a structure of the given tier at (x, y) and resolves reactions
func (gs *GameState) Build(x, y int, tier Tier) (*Outcome, error) {
	if !gs.Grid.InBounds(x, y) {
		return nil, actionErr(ToolBuild, x, y, ErrOutOfRange)
	}
	if gs.Grid.At(x, y) != Empty {
		return nil, actionErr(ToolBuild, x, y, ErrOccupiedCell)
	}
	if !tier.Valid() {
		return nil, actionErr(ToolBuild, x, y, fmt.Errorf("%w: got %d", ErrInvalidTier, tier))
	}

	gs.Command = FormatCommand(ToolBuild, x, y)
	gs.NumBuilt++
	return gs.putStructure(ToolBuild, x, y, tier), nil
}

// PutStar places a star at (x, y). The star takes the highest tier that
// reacts immediately, or tier 1 when none does.
func (gs *GameState) PutStar(x, y int) (*Outcome, error) {
	if gs.NumStars == 0 {
		return nil, ErrNoStarsLeft
	}
	if !gs.Grid.InBounds(x, y) {
		return nil, actionErr(ToolStar, x, y, ErrOutOfRange)
	}
	if gs.Grid.At(x, y) != Empty {
		return nil, actionErr(ToolStar, x, y, ErrOccupiedCell)
	}

	gs.Command = FormatCommand(ToolStar, x, y)
	gs.NumStars--
	return gs.putStructure(ToolStar, x, y, gs.StarTier(x, y)), nil
}

// PutBomb removes the structure at (x, y) at a score penalty
func (gs *GameState) PutBomb(x, y int) (*Outcome, error) {
	if gs.NumBombs == 0 {
		return nil, ErrNoBombersLeft
	}
	if !gs.Grid.InBounds(x, y) {
		return nil, actionErr(ToolBomb, x, y, ErrOutOfRange)
	}
	tier := gs.Grid.At(x, y)
	if tier == Empty {
		return nil, actionErr(ToolBomb, x, y, ErrEmptyCell)
	}

	gs.Command = FormatCommand(ToolBomb, x, y)
	gs.NumBombs--
	penalty := gs.rules.BombPenalty(tier)
	gs.Score -= penalty
	gs.Grid.set(x, y, Empty)

	return &Outcome{
		Tool:       ToolBomb,
		Position:   Position{X: x, Y: y},
		Placed:     tier,
		Final:      Empty,
		ScoreDelta: -penalty,
	}, nil
}

// putStructure sets the cell, scores it and runs the reaction chain
func (gs *GameState) putStructure(tool Tool, x, y int, tier Tier) *Outcome {
	before := gs.Score
	gs.Grid.set(x, y, tier)
	gs.Score += gs.rules.BuildScore(tier)

	phases := gs.resolveReactions(x, y)

	return &Outcome{
		Tool:       tool,
		Position:   Position{X: x, Y: y},
		Placed:     tier,
		Final:      gs.Grid.At(x, y),
		Phases:     phases,
		ScoreDelta: gs.Score - before,
	}
}
