package service

import (
	"time"

	"github.com/wricardo/merge-puzzle-game/game/engine"
	"github.com/wricardo/merge-puzzle-game/game/level"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string       `json:"id"`
	LevelID        string       `json:"level_id"`
	CreatedAt      time.Time    `json:"created_at"`
	LastAccessedAt time.Time    `json:"last_accessed_at"`
	Game           *GameView    `json:"game"`
	Level          *level.Level `json:"level"`
}

// GameView is the current state of a session plus the values a client
// needs to render controls around it
type GameView struct {
	Step           int               `json:"step"`
	HistoryLength  int               `json:"history_length"`
	State          *engine.GameState `json:"state"`
	NextTier       *engine.Tier      `json:"next_tier"`
	RemainingQueue []engine.Tier     `json:"remaining_queue"`
	CanUndo        bool              `json:"can_undo"`
	CanRedo        bool              `json:"can_redo"`
	Finished       bool              `json:"finished"`
}

// ActionResult contains the result of a single action
type ActionResult struct {
	Success bool            `json:"success"`
	Command string          `json:"command"`
	Outcome *engine.Outcome `json:"outcome"`
	Game    *GameView       `json:"game"`
}

// ExecResult contains the result of a command batch
type ExecResult struct {
	Success    bool              `json:"success"`
	Executed   int               `json:"executed"`
	Commands   []string          `json:"commands"`
	Outcomes   []*engine.Outcome `json:"outcomes"`
	ScoreDelta int               `json:"score_delta"`
	Game       *GameView         `json:"game"`
}

// HistoryResponse lists the timeline of a session
type HistoryResponse struct {
	Entries []engine.HistoryEntry `json:"entries"`
	Step    int                   `json:"step"`
	Total   int                   `json:"total"`
}

// SnapshotResponse is one history entry without moving the pointer
type SnapshotResponse struct {
	Index   int               `json:"index"`
	Current bool              `json:"current"`
	State   *engine.GameState `json:"state"`
}

// ExportResult is the command log leading to the current step
type ExportResult struct {
	Commands []string `json:"commands"`
	Output   string   `json:"output"`
}

// SaveResult reports where a session output was written
type SaveResult struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Commands  int    `json:"commands"`
}

// LevelInfo provides information about a level file
type LevelInfo struct {
	Filename    string `json:"filename"`
	LevelID     string `json:"level_id"` // The identifier to use for session creation
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	NumStars    int    `json:"num_stars"`
	NumBombs    int    `json:"num_bombs"`
	QueueLength int    `json:"queue_length"`
	Filled      int    `json:"filled"`
}
