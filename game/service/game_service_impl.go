package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/wricardo/merge-puzzle-game/game/engine"
	"github.com/wricardo/merge-puzzle-game/game/level"
)

const maxImportSuffix = 100

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	levels   LevelManager
	mu       sync.Mutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, levels LevelManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		levels:   levels,
	}
}

// CreateSession creates a new game session from a level file
func (s *gameServiceImpl) CreateSession(ctx context.Context, levelID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	levelID = strings.TrimSuffix(levelID, ".in")
	var lvl *level.Level
	if levelID != "" {
		var err error
		lvl, err = s.levels.LoadLevel(levelID)
		if err != nil {
			if errors.Is(err, ErrLevelNotFound) {
				return nil, s.levelNotFound(levelID)
			}
			return nil, fmt.Errorf("failed to load level %s: %w", levelID, err)
		}
	} else {
		levelID, lvl = s.levels.GetDefault()
		if lvl == nil {
			return nil, fmt.Errorf("%w: no default level available", ErrLevelNotFound)
		}
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", levelID, lvl, s.levels.Rules())
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sessionInfo(session), nil
}

// ImportSession creates a session from level text supplied by the caller.
// The level is stored with the other levels so the session can be restored
// from its saved output.
func (s *gameServiceImpl) ImportSession(ctx context.Context, name, raw string) (*SessionInfo, error) {
	lvl, err := level.ParseString(raw)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "custom"
	}
	name = strings.TrimSuffix(name, ".in")
	if !ValidLevelID(name) {
		return nil, fmt.Errorf("%w: level name %q must not contain path separators or '-'", ErrInvalidLevel, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	levelID, err := s.storeImportedLevel(name, lvl)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Create("", levelID, lvl, s.levels.Rules())
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sessionInfo(session), nil
}

// storeImportedLevel saves lvl under name, or name_2, name_3 and so on when
// a different level already uses the name. An identical level is reused.
func (s *gameServiceImpl) storeImportedLevel(name string, lvl *level.Level) (string, error) {
	text := lvl.String()
	for i := 1; i <= maxImportSuffix; i++ {
		id := name
		if i > 1 {
			id = fmt.Sprintf("%s_%d", name, i)
		}

		existing, err := s.levels.LoadLevel(id)
		if err == nil {
			if existing.String() == text {
				return id, nil
			}
			continue
		}
		if !errors.Is(err, ErrLevelNotFound) {
			continue
		}

		if err := s.levels.SaveLevel(id, lvl); err != nil {
			return "", fmt.Errorf("failed to store imported level: %w", err)
		}
		return id, nil
	}
	return "", fmt.Errorf("%w: too many levels named %q", ErrInvalidLevel, name)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	return sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Act performs one build, star or bomb action
func (s *gameServiceImpl) Act(ctx context.Context, sessionID string, tool engine.Tool, x, y int) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	res, err := sess.Engine.Apply(tool, x, y)
	if err != nil {
		return nil, err
	}
	s.autoSave(sessionID)

	return &ActionResult{
		Success: true,
		Command: res.Command,
		Outcome: res.Outcome,
		Game:    newGameView(sess.Engine),
	}, nil
}

// Exec runs a command batch all-or-nothing
func (s *gameServiceImpl) Exec(ctx context.Context, sessionID, commands string) (*ExecResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	startScore := sess.Engine.Current().Score
	batch, err := sess.Engine.Exec(commands)
	if err != nil {
		return nil, err
	}
	s.autoSave(sessionID)

	result := &ExecResult{
		Success:    true,
		Executed:   batch.Executed,
		Commands:   make([]string, 0, len(batch.Results)),
		Outcomes:   make([]*engine.Outcome, 0, len(batch.Results)),
		ScoreDelta: batch.State.Score - startScore,
		Game:       newGameView(sess.Engine),
	}
	for _, r := range batch.Results {
		result.Commands = append(result.Commands, r.Command)
		result.Outcomes = append(result.Outcomes, r.Outcome)
	}

	return result, nil
}

// Undo moves a session one step back
func (s *gameServiceImpl) Undo(ctx context.Context, sessionID string) (*GameView, error) {
	return s.navigate(sessionID, func(e *engine.GameEngine) error { return e.Undo() })
}

// Redo moves a session one step forward
func (s *gameServiceImpl) Redo(ctx context.Context, sessionID string) (*GameView, error) {
	return s.navigate(sessionID, func(e *engine.GameEngine) error { return e.Redo() })
}

// JumpTo moves a session to a history entry
func (s *gameServiceImpl) JumpTo(ctx context.Context, sessionID string, index int) (*GameView, error) {
	return s.navigate(sessionID, func(e *engine.GameEngine) error { return e.JumpTo(index) })
}

func (s *gameServiceImpl) navigate(sessionID string, move func(*engine.GameEngine) error) (*GameView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := move(sess.Engine); err != nil {
		return nil, err
	}
	s.autoSave(sessionID)

	return newGameView(sess.Engine), nil
}

// Preview reports what an action would do without committing it
func (s *gameServiceImpl) Preview(ctx context.Context, sessionID string, tool engine.Tool, x, y int) (*engine.Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.Preview(tool, x, y)
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*GameView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return newGameView(sess.Engine), nil
}

// GetHistory lists the timeline of a session
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	h := sess.Engine.History()
	return &HistoryResponse{
		Entries: h.Entries(),
		Step:    h.Step(),
		Total:   h.Len(),
	}, nil
}

// GetSnapshot returns a history entry without moving the pointer
func (s *gameServiceImpl) GetSnapshot(ctx context.Context, sessionID string, index int) (*SnapshotResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	state, err := sess.Engine.History().At(index)
	if err != nil {
		return nil, err
	}
	return &SnapshotResponse{
		Index:   index,
		Current: index == sess.Engine.Step(),
		State:   state,
	}, nil
}

// Export returns the command log leading to the current step
func (s *gameServiceImpl) Export(ctx context.Context, sessionID string) (*ExportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Commands: sess.Engine.ExportCommands(),
		Output:   sess.Engine.Output(),
	}, nil
}

// SaveOutput writes the command log of a session to the output store
func (s *gameServiceImpl) SaveOutput(ctx context.Context, sessionID string) (*SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(sess.ID); err != nil {
		return nil, fmt.Errorf("failed to save output: %w", err)
	}

	return &SaveResult{
		SessionID: sess.ID,
		Name:      OutputName(sess.LevelID, sess.ID),
		Commands:  sess.Engine.Step(),
	}, nil
}

// ListLevels returns the available level files
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// LoadLevel loads a specific level
func (s *gameServiceImpl) LoadLevel(ctx context.Context, levelID string) (*level.Level, error) {
	return s.levels.LoadLevel(levelID)
}

// SaveLevel stores a level under levelID
func (s *gameServiceImpl) SaveLevel(ctx context.Context, levelID string, lvl *level.Level) error {
	return s.levels.SaveLevel(levelID, lvl)
}

// session looks up a session and marks it accessed. Callers hold s.mu.
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) autoSave(sessionID string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: failed to persist output of session %s: %v", sessionID, err)
	}
}

func (s *gameServiceImpl) levelNotFound(levelID string) error {
	available, err := s.levels.ListLevels()
	if err == nil && len(available) > 0 {
		ids := make([]string, 0, len(available))
		for _, info := range available {
			ids = append(ids, info.LevelID)
		}
		return fmt.Errorf("%w: '%s'. Available levels: %v", ErrLevelNotFound, levelID, ids)
	}
	return fmt.Errorf("%w: '%s'. Use /api/levels to list available levels", ErrLevelNotFound, levelID)
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		LevelID:        sess.LevelID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Game:           newGameView(sess.Engine),
		Level:          sess.Level,
	}
}

func newGameView(e *engine.GameEngine) *GameView {
	h := e.History()
	view := &GameView{
		Step:           h.Step(),
		HistoryLength:  h.Len(),
		State:          e.Current(),
		RemainingQueue: e.RemainingQueue(),
		CanUndo:        h.CanUndo(),
		CanRedo:        h.CanRedo(),
		Finished:       e.IsFinished(),
	}
	if tier, ok := e.NextTier(); ok {
		view.NextTier = &tier
	}
	return view
}
