package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wricardo/merge-puzzle-game/game/engine"
	"github.com/wricardo/merge-puzzle-game/game/level"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrLevelNotFound   = errors.New("level not found")
	ErrInvalidLevel    = errors.New("invalid level")
)

// GameService defines all game-related operations. Coordinates are
// 0-indexed rows (x) and columns (y); command text is 1-indexed.
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, levelID string) (*SessionInfo, error)
	ImportSession(ctx context.Context, name, raw string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Act(ctx context.Context, sessionID string, tool engine.Tool, x, y int) (*ActionResult, error)
	Exec(ctx context.Context, sessionID, commands string) (*ExecResult, error)
	Undo(ctx context.Context, sessionID string) (*GameView, error)
	Redo(ctx context.Context, sessionID string) (*GameView, error)
	JumpTo(ctx context.Context, sessionID string, index int) (*GameView, error)
	Preview(ctx context.Context, sessionID string, tool engine.Tool, x, y int) (*engine.Preview, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*GameView, error)
	GetHistory(ctx context.Context, sessionID string) (*HistoryResponse, error)
	GetSnapshot(ctx context.Context, sessionID string, index int) (*SnapshotResponse, error)
	Export(ctx context.Context, sessionID string) (*ExportResult, error)
	SaveOutput(ctx context.Context, sessionID string) (*SaveResult, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, levelID string) (*level.Level, error)
	SaveLevel(ctx context.Context, levelID string, lvl *level.Level) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, levelID string, lvl *level.Level, rules *engine.Rules) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// LevelManager handles level loading
type LevelManager interface {
	LoadLevel(name string) (*level.Level, error)
	ListLevels() ([]*LevelInfo, error)
	GetDefault() (string, *level.Level)
	SaveLevel(name string, lvl *level.Level) error
	Rules() *engine.Rules
}

// Session represents an active game session
type Session struct {
	ID             string
	LevelID        string
	Level          *level.Level
	Engine         *engine.GameEngine
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// ValidLevelID reports whether id can name a level file and prefix an output
// file: non-empty, no path separators, no '-' and no leading '.'
func ValidLevelID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\-`) && !strings.HasPrefix(id, ".")
}

// OutputName is the file name a session's command log is saved under
func OutputName(levelID, sessionID string) string {
	return fmt.Sprintf("%s-%s.out", levelID, sessionID)
}
