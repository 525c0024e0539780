package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/merge-puzzle-game/game/engine"
	"github.com/wricardo/merge-puzzle-game/game/level"
	"github.com/wricardo/merge-puzzle-game/game/service"
)

var (
	ErrLevelNotFound = service.ErrLevelNotFound
	ErrInvalidLevel  = service.ErrInvalidLevel
)

const (
	levelExt       = ".in"
	rulesFile      = "rules.json"
	defaultLevelID = "classic"
	minimalLevel   = "default"
)

// Manager handles level loading and caching
type Manager struct {
	levelDir     string
	defaultID    string
	defaultLevel *level.Level
	levels       map[string]*level.Level
	rules        *engine.Rules
	mu           sync.RWMutex
}

// NewManager creates a new level manager over levelDir. An optional
// rules.json in the same directory replaces the default scoring table.
func NewManager(levelDir string) (*Manager, error) {
	if _, err := os.Stat(levelDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("level directory does not exist: %s", levelDir)
	}

	m := &Manager{
		levelDir: levelDir,
		levels:   make(map[string]*level.Level),
	}

	rules, err := m.loadRules()
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	m.rules = rules

	if err := m.loadDefaultLevel(); err != nil {
		return nil, fmt.Errorf("failed to load default level: %w", err)
	}

	return m, nil
}

// LoadLevel loads a level by name, with or without the .in extension
func (m *Manager) LoadLevel(name string) (*level.Level, error) {
	name = strings.TrimSuffix(name, levelExt)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: %q", ErrLevelNotFound, name)
	}

	m.mu.RLock()
	// Check cache first
	if lvl, exists := m.levels[name]; exists {
		m.mu.RUnlock()
		return lvl, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if lvl, exists := m.levels[name]; exists {
		return lvl, nil
	}

	f, err := os.Open(filepath.Join(m.levelDir, name+levelExt))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrLevelNotFound
		}
		return nil, fmt.Errorf("failed to open level file: %w", err)
	}
	defer f.Close()

	lvl, err := level.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLevel, name, err)
	}

	m.levels[name] = lvl
	return lvl, nil
}

// ListLevels returns information about all valid level files, sorted by ID
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.levelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	var levels []*service.LevelInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), levelExt) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), levelExt)
		// sessions cannot be saved for these names
		if !service.ValidLevelID(name) {
			continue
		}
		lvl, err := m.LoadLevel(name)
		if err != nil {
			// Skip invalid levels
			continue
		}

		levels = append(levels, &service.LevelInfo{
			Filename:    entry.Name(),
			LevelID:     name,
			Width:       lvl.Width,
			Height:      lvl.Height,
			NumStars:    lvl.NumStars,
			NumBombs:    lvl.NumBombs,
			QueueLength: len(lvl.Queue),
			Filled:      lvl.Filled(),
		})
	}

	sort.Slice(levels, func(i, j int) bool { return levels[i].LevelID < levels[j].LevelID })
	return levels, nil
}

// GetDefault returns the default level and its ID
func (m *Manager) GetDefault() (string, *level.Level) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID, m.defaultLevel
}

// SetDefault sets the default level by name
func (m *Manager) SetDefault(name string) error {
	lvl, err := m.LoadLevel(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = strings.TrimSuffix(name, levelExt)
	m.defaultLevel = lvl
	return nil
}

// Rules returns the scoring rules levels are played with
func (m *Manager) Rules() *engine.Rules {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rules
}

// RefreshCache drops cached levels and reloads the rules and the default level
func (m *Manager) RefreshCache() error {
	rules, err := m.loadRules()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.levels = make(map[string]*level.Level)
	m.rules = rules
	m.mu.Unlock()

	return m.loadDefaultLevel()
}

// SaveLevel writes a level to disk in its textual format
func (m *Manager) SaveLevel(name string, lvl *level.Level) error {
	name = strings.TrimSuffix(name, levelExt)
	if !service.ValidLevelID(name) {
		return fmt.Errorf("%w: level name %q must not be empty or contain path separators or '-'", ErrInvalidLevel, name)
	}
	if lvl == nil {
		return fmt.Errorf("%w: level cannot be nil", ErrInvalidLevel)
	}
	if err := lvl.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLevel, err)
	}

	var b strings.Builder
	if err := level.Encode(&b, lvl); err != nil {
		return fmt.Errorf("failed to encode level: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.levelDir, name+levelExt), []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	m.mu.Lock()
	m.levels[name] = lvl
	m.mu.Unlock()

	return nil
}

// loadDefaultLevel picks classic.in, else the first valid level, else a
// built-in empty board
func (m *Manager) loadDefaultLevel() error {
	id := defaultLevelID
	lvl, err := m.LoadLevel(id)
	if err != nil {
		levels, listErr := m.ListLevels()
		if listErr != nil || len(levels) == 0 {
			m.setDefault(minimalLevel, createMinimalLevel())
			return nil
		}

		id = levels[0].LevelID
		lvl, err = m.LoadLevel(id)
		if err != nil {
			m.setDefault(minimalLevel, createMinimalLevel())
			return nil
		}
	}

	m.setDefault(id, lvl)
	return nil
}

func (m *Manager) setDefault(id string, lvl *level.Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = id
	m.defaultLevel = lvl
}

// loadRules reads rules.json, falling back to the default table
func (m *Manager) loadRules() (*engine.Rules, error) {
	return LoadRules(filepath.Join(m.levelDir, rulesFile))
}

// LoadRules reads a rules file. Keys it omits keep their default value and
// a missing file yields DefaultRules.
func LoadRules(path string) (*engine.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return engine.DefaultRules(), nil
		}
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rules := engine.DefaultRules()
	if err := json.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

// createMinimalLevel creates a small valid level
func createMinimalLevel() *level.Level {
	grid := make([][]int, 5)
	for x := range grid {
		grid[x] = make([]int, 5)
	}
	return &level.Level{
		Width:    5,
		Height:   5,
		NumStars: 1,
		NumBombs: 1,
		Grid:     grid,
		Queue:    []int{1, 1, 1, 2, 2, 1, 3, 1, 2, 2},
	}
}
