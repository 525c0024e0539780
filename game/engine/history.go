package engine

import "fmt"

// History is a linear timeline of snapshots. Entry 0 is the loaded level.
type History struct {
	states []*GameState
	step   int
}

// HistoryEntry is a read-only view of one history slot
type HistoryEntry struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Command string `json:"command,omitempty"`
	Score   int    `json:"score"`
	Current bool   `json:"current"`
}

// NewHistory starts a timeline at the initial state
func NewHistory(initial *GameState) *History {
	return &History{states: []*GameState{initial}}
}

// Append drops every entry after the current step, then appends the states
// and moves the pointer to the last one.
func (h *History) Append(states ...*GameState) {
	if len(states) == 0 {
		return
	}
	kept := h.states[:h.step+1:h.step+1]
	h.states = append(kept, states...)
	h.step = len(h.states) - 1
}

// Undo moves the pointer one entry back
func (h *History) Undo() error {
	if h.step == 0 {
		return ErrNothingToUndo
	}
	h.step--
	return nil
}

// Redo moves the pointer one entry forward
func (h *History) Redo() error {
	if h.step >= len(h.states)-1 {
		return ErrNothingToRedo
	}
	h.step++
	return nil
}

// JumpTo sets the pointer to index
func (h *History) JumpTo(index int) error {
	if index < 0 || index >= len(h.states) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(h.states))
	}
	h.step = index
	return nil
}

// Current returns the snapshot at the pointer. It must not be mutated.
func (h *History) Current() *GameState {
	return h.states[h.step]
}

// At returns the snapshot at index without moving the pointer
func (h *History) At(index int) (*GameState, error) {
	if index < 0 || index >= len(h.states) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(h.states))
	}
	return h.states[index], nil
}

// Step returns the pointer
func (h *History) Step() int {
	return h.step
}

// Len returns the number of entries, including ones ahead of the pointer
func (h *History) Len() int {
	return len(h.states)
}

// CanUndo reports whether Undo would succeed
func (h *History) CanUndo() bool {
	return h.step > 0
}

// CanRedo reports whether Redo would succeed
func (h *History) CanRedo() bool {
	return h.step < len(h.states)-1
}

// ExportCommands returns the commands of entries 1 through the pointer
func (h *History) ExportCommands() []string {
	commands := make([]string, 0, h.step)
	for _, s := range h.states[1 : h.step+1] {
		commands = append(commands, s.Command)
	}
	return commands
}

// Entries lists every entry of the timeline
func (h *History) Entries() []HistoryEntry {
	entries := make([]HistoryEntry, len(h.states))
	for i, s := range h.states {
		label := s.Command
		if label == "" {
			label = "Start"
		}
		entries[i] = HistoryEntry{
			Index:   i,
			Label:   label,
			Command: s.Command,
			Score:   s.Score,
			Current: i == h.step,
		}
	}
	return entries
}
