package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Tool identifies a player action
type Tool string

const (
	ToolBuild Tool = "build"
	ToolStar  Tool = "star"
	ToolBomb  Tool = "bomb"
)

// ParseTool maps a tool name to a Tool
func ParseTool(name string) (Tool, error) {
	switch Tool(strings.ToLower(strings.TrimSpace(name))) {
	case ToolBuild:
		return ToolBuild, nil
	case ToolStar:
		return ToolStar, nil
	case ToolBomb:
		return ToolBomb, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
}

// Keyword returns the exported command word for the tool
func (t Tool) Keyword() string {
	switch t {
	case ToolBuild:
		return "BUILD"
	case ToolStar:
		return "STAR"
	case ToolBomb:
		return "BOMBER"
	}
	return strings.ToUpper(string(t))
}

// EndMarker terminates a saved command log
const EndMarker = "END"

// FormatCommand renders an action with 1-indexed coordinates
func FormatCommand(tool Tool, x, y int) string {
	return fmt.Sprintf("%s %d %d", tool.Keyword(), x+1, y+1)
}

// Command is one parsed line of a command batch, with 0-indexed coordinates
type Command struct {
	Tool Tool
	X, Y int
}

func (c Command) String() string {
	return FormatCommand(c.Tool, c.X, c.Y)
}

// ParseCommand parses "PUT x y", "STAR x y" or "BOMBER x y". BUILD is
// accepted as a synonym of PUT so exported logs can be replayed. Bounds are
// not checked here.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrNoCommands
	}

	var tool Tool
	switch strings.ToLower(fields[0]) {
	case "put", "build":
		tool = ToolBuild
	case "star":
		tool = ToolStar
	case "bomber":
		tool = ToolBomb
	default:
		return Command{}, fmt.Errorf("%w '%s'", ErrUnknownCommand, fields[0])
	}

	params := fields[1:]
	if len(params) != 2 {
		return Command{}, ErrParamCount
	}
	coords := [2]int{}
	for i, p := range params {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Command{}, fmt.Errorf("%w: %q", ErrNotInteger, p)
		}
		coords[i] = v - 1
	}

	return Command{Tool: tool, X: coords[0], Y: coords[1]}, nil
}

func isEndMarker(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), EndMarker)
}
