package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/merge-puzzle-game/game/engine"
	"github.com/wricardo/merge-puzzle-game/game/level"
	"github.com/wricardo/merge-puzzle-game/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	saved    map[string]int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
		saved:    make(map[string]int),
	}
}

func (m *MockSessionManager) Create(id, levelID string, lvl *level.Level, rules *engine.Rules) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(lvl, rules)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		LevelID:        levelID,
		Level:          lvl,
		Engine:         eng,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

func (m *MockSessionManager) Save(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	m.saved[id]++
	return nil
}

// MockLevelManager implements service.LevelManager for testing
type MockLevelManager struct {
	levels map[string]*level.Level
}

const testLevel = `3 3
1 1
...
...
...
4
1 1 1 2
`

func NewMockLevelManager(t *testing.T) *MockLevelManager {
	t.Helper()
	lvl, err := level.ParseString(testLevel)
	if err != nil {
		t.Fatalf("failed to parse test level: %v", err)
	}
	return &MockLevelManager{
		levels: map[string]*level.Level{"test": lvl},
	}
}

func (m *MockLevelManager) LoadLevel(name string) (*level.Level, error) {
	lvl, exists := m.levels[name]
	if !exists {
		return nil, service.ErrLevelNotFound
	}
	return lvl, nil
}

func (m *MockLevelManager) ListLevels() ([]*service.LevelInfo, error) {
	result := make([]*service.LevelInfo, 0, len(m.levels))
	for name, lvl := range m.levels {
		result = append(result, &service.LevelInfo{
			Filename: name + ".in",
			LevelID:  name,
			Width:    lvl.Width,
			Height:   lvl.Height,
		})
	}
	return result, nil
}

func (m *MockLevelManager) GetDefault() (string, *level.Level) {
	return "test", m.levels["test"]
}

func (m *MockLevelManager) SaveLevel(name string, lvl *level.Level) error {
	if err := lvl.Validate(); err != nil {
		return err
	}
	m.levels[name] = lvl
	return nil
}

func (m *MockLevelManager) Rules() *engine.Rules {
	return engine.DefaultRules()
}

func newTestService(t *testing.T) (service.GameService, *MockSessionManager) {
	t.Helper()
	sessions := NewMockSessionManager()
	return service.NewGameService(sessions, NewMockLevelManager(t)), sessions
}

// Test cases
func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	tests := []struct {
		name    string
		levelID string
		wantErr bool
	}{
		{
			name:    "create with default level",
			levelID: "",
			wantErr: false,
		},
		{
			name:    "create with specific level",
			levelID: "test",
			wantErr: false,
		},
		{
			name:    "create with unknown level",
			levelID: "nonexistent",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.CreateSession(ctx, tt.levelID)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !errors.Is(err, service.ErrLevelNotFound) {
					t.Errorf("expected ErrLevelNotFound, got %v", err)
				}
				if !strings.Contains(err.Error(), "Available levels: [test]") {
					t.Errorf("expected available levels in message, got %q", err.Error())
				}
				return
			}
			if session.LevelID != "test" {
				t.Errorf("expected level_id test, got %q", session.LevelID)
			}
			if session.Game == nil || session.Game.Step != 0 {
				t.Errorf("expected a fresh game view, got %+v", session.Game)
			}
			if session.Game.NextTier == nil || *session.Game.NextTier != 1 {
				t.Errorf("expected next tier 1, got %v", session.Game.NextTier)
			}
		})
	}
}

func TestGameService_ImportSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	info, err := svc.ImportSession(ctx, "mine.in", "1 2\n0 0\n1.\n1\n1\n")
	if err != nil {
		t.Fatalf("ImportSession() error = %v", err)
	}
	if info.LevelID != "mine" {
		t.Errorf("expected level id mine, got %q", info.LevelID)
	}

	_, err = svc.ImportSession(ctx, "", "not a level")
	if !errors.Is(err, level.ErrParse) {
		t.Errorf("expected parse error, got %v", err)
	}

	tests := []struct {
		name      string
		raw       string
		wantLevel string
	}{
		{"mine", "1 2\n0 0\n1.\n1\n1\n", "mine"},
		{"mine", "1 2\n0 0\n.1\n1\n1\n", "mine_2"},
		{"mine.in", "1 2\n0 0\n.1\n1\n1\n", "mine_2"},
		{"test", "1 2\n0 0\n..\n0\n", "test_2"},
	}
	for _, tt := range tests {
		info, err := svc.ImportSession(ctx, tt.name, tt.raw)
		if err != nil {
			t.Fatalf("ImportSession(%q) error = %v", tt.name, err)
		}
		if info.LevelID != tt.wantLevel {
			t.Errorf("ImportSession(%q) level id = %q, want %q", tt.name, info.LevelID, tt.wantLevel)
		}
		stored, err := svc.LoadLevel(ctx, tt.wantLevel)
		if err != nil {
			t.Fatalf("imported level %s not stored: %v", tt.wantLevel, err)
		}
		if stored.String() != info.Level.String() {
			t.Errorf("stored level %s differs from the imported one", tt.wantLevel)
		}
	}

	for _, name := range []string{"../escaped", `..\escaped`, "with-dash", ".hidden"} {
		if _, err := svc.ImportSession(ctx, name, "1 2\n0 0\n1.\n1\n1\n"); !errors.Is(err, service.ErrInvalidLevel) {
			t.Errorf("ImportSession(%q) expected ErrInvalidLevel, got %v", name, err)
		}
	}
}

func TestGameService_Act(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService(t)

	sessionInfo, err := svc.CreateSession(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	tests := []struct {
		name      string
		sessionID string
		tool      engine.Tool
		x, y      int
		wantErr   error
	}{
		{"build", sessionInfo.ID, engine.ToolBuild, 0, 0, nil},
		{"build on occupied cell", sessionInfo.ID, engine.ToolBuild, 0, 0, engine.ErrOccupiedCell},
		{"star", sessionInfo.ID, engine.ToolStar, 2, 2, nil},
		{"no stars left", sessionInfo.ID, engine.ToolStar, 1, 1, engine.ErrNoStarsLeft},
		{"bomb", sessionInfo.ID, engine.ToolBomb, 2, 2, nil},
		{"out of range", sessionInfo.ID, engine.ToolBuild, 5, 5, engine.ErrOutOfRange},
		{"invalid session", "nonexistent", engine.ToolBuild, 1, 1, service.ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Act(ctx, tt.sessionID, tt.tool, tt.x, tt.y)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Act() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Act() unexpected error: %v", err)
			}
			if !result.Success || result.Command == "" {
				t.Errorf("expected a committed command, got %+v", result)
			}
		})
	}

	state, err := svc.GetGameState(ctx, sessionInfo.ID)
	if err != nil {
		t.Fatalf("GetGameState() error = %v", err)
	}
	if state.Step != 3 {
		t.Errorf("expected step 3, got %d", state.Step)
	}
	if state.State.Score != 4+4-2 {
		t.Errorf("expected score 6, got %d", state.State.Score)
	}
	if sessions.saved[sessionInfo.ID] != 3 {
		t.Errorf("expected 3 auto-saves, got %d", sessions.saved[sessionInfo.ID])
	}
}

func TestGameService_Exec(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sessionInfo, err := svc.CreateSession(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	result, err := svc.Exec(ctx, sessionInfo.ID, "PUT 1 1\nPUT 1 2\nPUT 2 1")
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if result.Executed != 3 {
		t.Errorf("expected 3 executed, got %d", result.Executed)
	}
	if result.ScoreDelta != 3*4+20 {
		t.Errorf("expected score delta 32, got %d", result.ScoreDelta)
	}
	if len(result.Outcomes[2].Phases) != 1 {
		t.Errorf("expected a reaction on the third command, got %+v", result.Outcomes[2])
	}

	_, err = svc.Exec(ctx, sessionInfo.ID, "PUT 3 3\nPUT 2 1")
	var lineErr *engine.LineError
	if !errors.As(err, &lineErr) || lineErr.Line != 2 {
		t.Fatalf("expected error on line 2, got %v", err)
	}

	state, _ := svc.GetGameState(ctx, sessionInfo.ID)
	if state.Step != 3 || state.HistoryLength != 4 {
		t.Errorf("failed batch must not change history, got step=%d len=%d", state.Step, state.HistoryLength)
	}
}

func TestGameService_UndoRedoJump(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sessionInfo, _ := svc.CreateSession(ctx, "test")

	if _, err := svc.Undo(ctx, sessionInfo.ID); !errors.Is(err, engine.ErrNothingToUndo) {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}

	if _, err := svc.Exec(ctx, sessionInfo.ID, "PUT 1 1\nPUT 3 3"); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	view, err := svc.Undo(ctx, sessionInfo.ID)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if view.Step != 1 || !view.CanRedo {
		t.Errorf("expected step 1 with redo available, got %+v", view)
	}

	export, err := svc.Export(ctx, sessionInfo.ID)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if export.Output != "BUILD 1 1\nEND\n" {
		t.Errorf("unexpected output %q", export.Output)
	}

	if view, _ = svc.Redo(ctx, sessionInfo.ID); view.Step != 2 {
		t.Errorf("expected step 2 after redo, got %d", view.Step)
	}

	if view, _ = svc.JumpTo(ctx, sessionInfo.ID, 0); view.Step != 0 {
		t.Errorf("expected step 0 after jump, got %d", view.Step)
	}
	if _, err := svc.JumpTo(ctx, sessionInfo.ID, 9); !errors.Is(err, engine.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestGameService_HistoryAndSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sessionInfo, _ := svc.CreateSession(ctx, "test")
	if _, err := svc.Exec(ctx, sessionInfo.ID, "PUT 1 1\nSTAR 2 2"); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	history, err := svc.GetHistory(ctx, sessionInfo.ID)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if history.Total != 3 || history.Entries[0].Label != "Start" || history.Entries[2].Label != "STAR 2 2" {
		t.Errorf("unexpected history %+v", history)
	}

	snap, err := svc.GetSnapshot(ctx, sessionInfo.ID, 1)
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if snap.Current || snap.State.Score != 4 {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	state, _ := svc.GetGameState(ctx, sessionInfo.ID)
	if state.Step != 2 {
		t.Errorf("snapshot lookup must not move the pointer, got step %d", state.Step)
	}
}

func TestGameService_Preview(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sessionInfo, _ := svc.CreateSession(ctx, "test")
	if _, err := svc.Exec(ctx, sessionInfo.ID, "PUT 1 1\nPUT 1 2"); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}

	preview, err := svc.Preview(ctx, sessionInfo.ID, engine.ToolBuild, 1, 0)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if preview.Value != 2 || len(preview.Reacting) != 3 {
		t.Errorf("unexpected preview %+v", preview)
	}

	state, _ := svc.GetGameState(ctx, sessionInfo.ID)
	if state.HistoryLength != 3 {
		t.Errorf("preview must not commit, got history length %d", state.HistoryLength)
	}
}

func TestGameService_SaveOutput(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService(t)

	sessionInfo, _ := svc.CreateSession(ctx, "test")
	res, err := svc.SaveOutput(ctx, sessionInfo.ID)
	if err != nil {
		t.Fatalf("SaveOutput() error = %v", err)
	}
	if res.Name != "test-"+sessionInfo.ID+".out" {
		t.Errorf("unexpected output name %q", res.Name)
	}
	if sessions.saved[sessionInfo.ID] != 1 {
		t.Errorf("expected one save, got %d", sessions.saved[sessionInfo.ID])
	}
}

func TestGameService_ListAndDeleteSessions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateSession(ctx, "test"); err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
	}

	sessions, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 3 {
		t.Errorf("expected 3 sessions, got %d", len(sessions))
	}

	if err := svc.DeleteSession(ctx, sessions[0].ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := svc.GetSession(ctx, sessions[0].ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestGameService_Levels(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	lvl := &level.Level{Width: 2, Height: 1, Grid: [][]int{{1, 0}}, Queue: []int{2}}
	if err := svc.SaveLevel(ctx, "tiny", lvl); err != nil {
		t.Fatalf("SaveLevel() error = %v", err)
	}

	levels, err := svc.ListLevels(ctx)
	if err != nil {
		t.Fatalf("ListLevels() error = %v", err)
	}
	if len(levels) != 2 {
		t.Errorf("expected 2 levels, got %d", len(levels))
	}

	loaded, err := svc.LoadLevel(ctx, "tiny")
	if err != nil || loaded.Width != 2 {
		t.Errorf("LoadLevel() = %+v, %v", loaded, err)
	}
}

func TestGameService_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	info, err := svc.CreateSession(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 60)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GetGameState(ctx, info.ID); err != nil {
				errs <- err
			}
			if _, err := svc.GetSession(ctx, info.ID); err != nil {
				errs <- err
			}
			if _, err := svc.ListSessions(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent access error: %v", err)
	}
}
