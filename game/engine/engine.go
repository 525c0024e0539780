package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wricardo/merge-puzzle-game/game/level"
)

// GameEngine runs one play session: a level, its build queue and the
// history of snapshots. It is not safe for concurrent use.
type GameEngine struct {
	level   *level.Level
	queue   []Tier
	rules   *Rules
	history *History
}

// ActionResult is the outcome of a committed action
type ActionResult struct {
	Command string     `json:"command"`
	Outcome *Outcome   `json:"outcome"`
	State   *GameState `json:"state"`
	Step    int        `json:"step"`
}

// BatchResult is the outcome of a committed command batch
type BatchResult struct {
	Executed int            `json:"executed"`
	Results  []ActionResult `json:"results"`
	State    *GameState     `json:"state"`
	Step     int            `json:"step"`
}

// NewEngine creates an engine positioned at the initial state of lvl.
// A nil rules uses DefaultRules.
func NewEngine(lvl *level.Level, rules *Rules) (*GameEngine, error) {
	if lvl == nil {
		return nil, fmt.Errorf("level cannot be nil")
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	if rules == nil {
		rules = DefaultRules()
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	values := make([][]Tier, len(lvl.Grid))
	for x, row := range lvl.Grid {
		values[x] = make([]Tier, len(row))
		for y, v := range row {
			values[x][y] = Tier(v)
		}
	}
	grid, err := NewGrid(values)
	if err != nil {
		return nil, err
	}

	initial, err := NewGameState(grid, lvl.NumStars, lvl.NumBombs, rules)
	if err != nil {
		return nil, err
	}

	queue := make([]Tier, len(lvl.Queue))
	for i, v := range lvl.Queue {
		queue[i] = Tier(v)
	}

	return &GameEngine{
		level:   lvl,
		queue:   queue,
		rules:   rules,
		history: NewHistory(initial),
	}, nil
}

// Level returns the level the session was loaded from
func (e *GameEngine) Level() *level.Level {
	return e.level
}

// Rules returns the scoring rules
func (e *GameEngine) Rules() *Rules {
	return e.rules
}

// History returns the session timeline
func (e *GameEngine) History() *History {
	return e.history
}

// Current returns the snapshot selected by the history pointer
func (e *GameEngine) Current() *GameState {
	return e.history.Current()
}

// Step returns the history pointer, which is also the round number
func (e *GameEngine) Step() int {
	return e.history.Step()
}

// Queue returns the full build queue
func (e *GameEngine) Queue() []Tier {
	out := make([]Tier, len(e.queue))
	copy(out, e.queue)
	return out
}

// NextTier returns the next structure to build from the current state
func (e *GameEngine) NextTier() (Tier, bool) {
	return e.nextTierFor(e.Current())
}

// RemainingQueue returns the structures not yet built in the current state
func (e *GameEngine) RemainingQueue() []Tier {
	built := e.Current().NumBuilt
	if built >= len(e.queue) {
		return []Tier{}
	}
	out := make([]Tier, len(e.queue)-built)
	copy(out, e.queue[built:])
	return out
}

func (e *GameEngine) nextTierFor(gs *GameState) (Tier, bool) {
	if gs.NumBuilt >= len(e.queue) {
		return Empty, false
	}
	return e.queue[gs.NumBuilt], true
}

// perform runs tool on gs in place. gs must be a private clone.
func (e *GameEngine) perform(gs *GameState, tool Tool, x, y int) (*Outcome, error) {
	switch tool {
	case ToolBuild:
		// a bad target is reported before an exhausted queue
		if !gs.Grid.InBounds(x, y) {
			return nil, actionErr(ToolBuild, x, y, ErrOutOfRange)
		}
		if gs.Grid.At(x, y) != Empty {
			return nil, actionErr(ToolBuild, x, y, ErrOccupiedCell)
		}
		tier, ok := e.nextTierFor(gs)
		if !ok {
			return nil, ErrQueueExhausted
		}
		return gs.Build(x, y, tier)
	case ToolStar:
		return gs.PutStar(x, y)
	case ToolBomb:
		return gs.PutBomb(x, y)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTool, tool)
}

// Apply performs a single action on a clone of the current state and, on
// success, appends the clone to the history. On error nothing changes.
func (e *GameEngine) Apply(tool Tool, x, y int) (*ActionResult, error) {
	next := e.Current().Clone()
	outcome, err := e.perform(next, tool, x, y)
	if err != nil {
		return nil, err
	}

	e.history.Append(next)
	return &ActionResult{
		Command: next.Command,
		Outcome: outcome,
		State:   next,
		Step:    e.history.Step(),
	}, nil
}

// Exec runs a newline separated batch of commands. Lines run in order, each
// on a clone of the previous result; the first failure aborts the batch and
// leaves the history untouched. An END line stops reading.
func (e *GameEngine) Exec(text string) (*BatchResult, error) {
	current := e.Current()
	var states []*GameState
	var results []ActionResult

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if isEndMarker(line) {
			break
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			return nil, &LineError{Line: i + 1, Command: line, Err: err}
		}
		if !current.Grid.InBounds(cmd.X, cmd.Y) {
			return nil, &LineError{Line: i + 1, Command: line, Err: ErrOutOfRange}
		}

		next := current.Clone()
		outcome, err := e.perform(next, cmd.Tool, cmd.X, cmd.Y)
		if err != nil {
			return nil, &LineError{Line: i + 1, Command: line, Err: err}
		}

		states = append(states, next)
		results = append(results, ActionResult{
			Command: next.Command,
			Outcome: outcome,
			State:   next,
			Step:    e.history.Step() + len(states),
		})
		current = next
	}

	if len(states) == 0 {
		return nil, ErrNoCommands
	}

	e.history.Append(states...)
	return &BatchResult{
		Executed: len(states),
		Results:  results,
		State:    e.Current(),
		Step:     e.history.Step(),
	}, nil
}

// Undo moves back one step
func (e *GameEngine) Undo() error {
	return e.history.Undo()
}

// Redo moves forward one step
func (e *GameEngine) Redo() error {
	return e.history.Redo()
}

// JumpTo selects a history entry
func (e *GameEngine) JumpTo(index int) error {
	return e.history.JumpTo(index)
}

// ExportCommands returns the commands leading to the current step
func (e *GameEngine) ExportCommands() []string {
	return e.history.ExportCommands()
}

// Output renders the command log as saved to an output file
func (e *GameEngine) Output() string {
	lines := append(e.ExportCommands(), EndMarker, "")
	return strings.Join(lines, "\n")
}

// IsFinished reports whether no further action is possible from the current state
func (e *GameEngine) IsFinished() bool {
	gs := e.Current()
	if _, ok := e.nextTierFor(gs); ok && gs.Grid.Count(Empty) > 0 {
		return false
	}
	if gs.NumStars > 0 && gs.Grid.Count(Empty) > 0 {
		return false
	}
	if gs.NumBombs > 0 && gs.Grid.Count(Empty) < len(gs.Grid.Cells()) {
		return false
	}
	return true
}

// ErrorMessage returns the text to show a player for err. Internal errors
// get a generic message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var lineErr *LineError
	if errors.As(err, &lineErr) {
		if IsValidationError(lineErr.Err) {
			return fmt.Sprintf("Error on line %d: %s\nExecution was interrupted.", lineErr.Line, lineErr.Err.Error())
		}
		return fmt.Sprintf("An unknown error occurred when executing line %d.\nChanges will be rolled back.", lineErr.Line)
	}
	if IsValidationError(err) {
		return err.Error()
	}
	return "An unexpected error occurred."
}
