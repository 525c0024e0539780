package engine

// Phase is one merge step of a reaction chain
type Phase struct {
	Before Tier       `json:"before"`
	After  Tier       `json:"after"`
	Cells  []Position `json:"cells"`
}

var directions = [4]Position{
	{X: 1, Y: 0},
	{X: -1, Y: 0},
	{X: 0, Y: 1},
	{X: 0, Y: -1},
}

// connected returns the group reachable from (x, y) through 4-directional
// neighbours holding t. The origin is always part of the group, whatever its
// current value, which lets it be used as a probe on an empty cell.
func (gs *GameState) connected(x, y int, t Tier) []Position {
	origin := Position{X: x, Y: y}
	visited := map[Position]bool{origin: true}
	group := []Position{origin}

	for head := 0; head < len(group); head++ {
		p := group[head]
		for _, d := range directions {
			n := Position{X: p.X + d.X, Y: p.Y + d.Y}
			if visited[n] || !gs.Grid.InBounds(n.X, n.Y) || gs.Grid.At(n.X, n.Y) != t {
				continue
			}
			visited[n] = true
			group = append(group, n)
		}
	}

	return group
}

// checkReaction reports the phase a tier t structure at (x, y) would trigger,
// or nil when the group is too small. Tier 9 never reacts. Read-only.
func (gs *GameState) checkReaction(x, y int, t Tier) *Phase {
	if !t.Valid() || t >= MaxTier {
		return nil
	}
	group := gs.connected(x, y, t)
	if len(group) < gs.rules.MinReactionCount {
		return nil
	}
	return &Phase{Before: t, After: t + 1, Cells: group}
}

// resolveReactions merges groups around (x, y) until no further reaction applies
func (gs *GameState) resolveReactions(x, y int) []Phase {
	var phases []Phase
	for {
		phase := gs.checkReaction(x, y, gs.Grid.At(x, y))
		if phase == nil {
			return phases
		}
		for _, p := range phase.Cells {
			gs.Grid.set(p.X, p.Y, Empty)
		}
		gs.Grid.set(x, y, phase.After)
		gs.Score += gs.rules.BuildScore(phase.After)
		phases = append(phases, *phase)
	}
}

// StarTier returns the tier a star placed at (x, y) would take: the highest
// tier from 9 down to 2 whose probe reaches the reaction threshold, else 1.
// Only the immediate reaction is probed, not the chain that may follow.
func (gs *GameState) StarTier(x, y int) Tier {
	for t := MaxTier; t > MinTier; t-- {
		if gs.checkReaction(x, y, t) != nil {
			return t
		}
	}
	return MinTier
}

// ReactionGroup returns the cells a structure of tier t at (x, y) would merge
// with right now, or nil when it would not react.
func (gs *GameState) ReactionGroup(x, y int, t Tier) []Position {
	if !gs.Grid.InBounds(x, y) {
		return nil
	}
	phase := gs.checkReaction(x, y, t)
	if phase == nil {
		return nil
	}
	return phase.Cells
}
