package engine

import (
	"errors"
	"fmt"
)

// Validation errors are the user-facing failures of an action. They never
// leave partial state behind.
var (
	ErrInvalidShape    = errors.New("grid rows must all have the same length")
	ErrInvalidTier     = errors.New("tier must be between 1 and 9")
	ErrOutOfRange      = errors.New("coordinates out of range")
	ErrOccupiedCell    = errors.New("cell is not empty")
	ErrEmptyCell       = errors.New("cell is empty")
	ErrQueueExhausted  = errors.New("you have no structure left to build")
	ErrNoStarsLeft     = errors.New("you don't have any stars left")
	ErrNoBombersLeft   = errors.New("you don't have any bombers left")
	ErrNothingToUndo   = errors.New("no operation can be undone")
	ErrNothingToRedo   = errors.New("no operation can be redone")
	ErrIndexOutOfRange = errors.New("history index out of range")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrParamCount      = errors.New("there should be exactly 2 params for this command")
	ErrNotInteger      = errors.New("all params should be integers")
	ErrNoCommands      = errors.New("no command was found")
	ErrInvalidRules    = errors.New("invalid rules")
)

// ErrUnknownTool is raised for tool identifiers the engine does not know.
// It signals a defect in the caller rather than a player mistake.
var ErrUnknownTool = errors.New("unknown tool")

var validationErrors = []error{
	ErrInvalidShape,
	ErrInvalidTier,
	ErrOutOfRange,
	ErrOccupiedCell,
	ErrEmptyCell,
	ErrQueueExhausted,
	ErrNoStarsLeft,
	ErrNoBombersLeft,
	ErrNothingToUndo,
	ErrNothingToRedo,
	ErrIndexOutOfRange,
	ErrUnknownCommand,
	ErrParamCount,
	ErrNotInteger,
	ErrNoCommands,
}

// IsValidationError reports whether err is a user-facing validation failure.
// Anything else should be reported generically and logged in full.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ActionError describes a rejected placement
type ActionError struct {
	Tool Tool
	X, Y int
	Err  error
}

func (e *ActionError) Error() string {
	noun := "structures"
	switch e.Tool {
	case ToolStar:
		noun = "stars"
	case ToolBomb:
		noun = "bombers"
	}

	switch {
	case errors.Is(e.Err, ErrOccupiedCell):
		return fmt.Sprintf("You can't put %s here, since it's not empty.", noun)
	case errors.Is(e.Err, ErrEmptyCell):
		return fmt.Sprintf("You can't put %s here, since it's empty.", noun)
	case errors.Is(e.Err, ErrOutOfRange):
		return fmt.Sprintf("You can't put %s at (%d, %d), coordinates out of range.", noun, e.X+1, e.Y+1)
	}
	return e.Err.Error()
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// LineError reports the first failing line of a command batch
type LineError struct {
	Line    int
	Command string
	Err     error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("error on line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

func actionErr(tool Tool, x, y int, err error) error {
	return &ActionError{Tool: tool, X: x, Y: y, Err: err}
}
