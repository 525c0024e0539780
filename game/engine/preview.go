package engine

// Preview shows what an action would do without committing it
type Preview struct {
	Tool     Tool       `json:"tool"`
	Target   Position   `json:"target"`
	Value    Tier       `json:"value"`
	Reacting []Position `json:"reacting,omitempty"`

	// Display is the current state with only the target cell changed, which
	// keeps the cells that would react visible. Result is the committed outcome.
	Display *GameState `json:"display"`
	Result  *GameState `json:"result"`
	Outcome *Outcome   `json:"outcome"`
}

// Preview runs tool on a throwaway clone of the current state
func (e *GameEngine) Preview(tool Tool, x, y int) (*Preview, error) {
	current := e.Current()
	result := current.Clone()
	outcome, err := e.perform(result, tool, x, y)
	if err != nil {
		return nil, err
	}

	display := current.Clone()
	display.Grid.set(x, y, result.Grid.At(x, y))

	seen := make(map[Position]bool)
	var reacting []Position
	for _, phase := range outcome.Phases {
		for _, p := range phase.Cells {
			if !seen[p] {
				seen[p] = true
				reacting = append(reacting, p)
			}
		}
	}

	return &Preview{
		Tool:     tool,
		Target:   Position{X: x, Y: y},
		Value:    result.Grid.At(x, y),
		Reacting: reacting,
		Display:  display,
		Result:   result,
		Outcome:  outcome,
	}, nil
}
