package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/merge-puzzle-game/game/engine"
	"github.com/wricardo/merge-puzzle-game/game/service"
)

const outputExt = ".out"

// FilePersistence implements SessionPersistence by writing one
// <level>-<session>.out command log per session
type FilePersistence struct {
	outputDir    string
	levelManager service.LevelManager
}

// NewFilePersistence creates a new file-based output store
func NewFilePersistence(outputDir string, levelManager service.LevelManager) (*FilePersistence, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &FilePersistence{
		outputDir:    outputDir,
		levelManager: levelManager,
	}, nil
}

// Save writes the command log of a session, replacing any earlier output
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	// an earlier output may carry another level id for the same session
	if existing, ok := fp.find(session.ID); ok && filepath.Base(existing) != service.OutputName(session.LevelID, session.ID) {
		if err := os.Remove(existing); err != nil {
			return fmt.Errorf("failed to remove stale output file: %w", err)
		}
	}

	filePath := filepath.Join(fp.outputDir, service.OutputName(session.LevelID, session.ID))
	if err := os.WriteFile(filePath, []byte(session.Engine.Output()), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}

// Load restores a session by replaying its saved commands onto its level
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	filePath, ok := fp.find(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat output file: %w", err)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}

	name := filepath.Base(filePath)
	sessionID := sessionIDFromName(name, id)
	levelID := strings.TrimSuffix(name, "-"+sessionID+outputExt)

	lvl, err := fp.levelManager.LoadLevel(levelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load level '%s': %w", levelID, err)
	}

	gameEngine, err := engine.NewEngine(lvl, fp.levelManager.Rules())
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}

	if _, err := gameEngine.Exec(string(data)); err != nil && !errors.Is(err, engine.ErrNoCommands) {
		return nil, fmt.Errorf("failed to replay commands: %w", err)
	}

	return &service.Session{
		ID:             sessionID,
		LevelID:        levelID,
		Level:          lvl,
		Engine:         gameEngine,
		CreatedAt:      info.ModTime(),
		LastAccessedAt: info.ModTime(),
	}, nil
}

// LoadCommands returns the saved command lines of a session, without END
func (fp *FilePersistence) LoadCommands(id string) ([]string, error) {
	filePath, ok := fp.find(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}

	var commands []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, engine.EndMarker) {
			break
		}
		commands = append(commands, line)
	}
	return commands, nil
}

// Delete removes the output file of a session
func (fp *FilePersistence) Delete(id string) error {
	filePath, ok := fp.find(id)
	if !ok {
		return ErrSessionNotFound
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to remove output file: %w", err)
	}

	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, outputExt) {
			continue
		}
		base := strings.TrimSuffix(name, outputExt)
		idx := strings.LastIndex(base, "-")
		if idx <= 0 || idx == len(base)-1 {
			continue
		}
		sessionIDs = append(sessionIDs, base[idx+1:])
	}

	return sessionIDs, nil
}

// Exists checks if a session has a saved output
func (fp *FilePersistence) Exists(id string) bool {
	_, ok := fp.find(id)
	return ok
}

// find returns the output file of a session, matching the ID case-insensitively
func (fp *FilePersistence) find(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	entries, err := os.ReadDir(fp.outputDir)
	if err != nil {
		return "", false
	}

	suffix := strings.ToLower("-" + id + outputExt)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(name) > len(suffix) && strings.HasSuffix(strings.ToLower(name), suffix) {
			return filepath.Join(fp.outputDir, name), true
		}
	}
	return "", false
}

// sessionIDFromName recovers the ID as spelled in the file name
func sessionIDFromName(name, id string) string {
	base := strings.TrimSuffix(name, outputExt)
	return base[len(base)-len(id):]
}
