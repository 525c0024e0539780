package session

import (
	"github.com/wricardo/merge-puzzle-game/game/service"
)

// SessionPersistence stores the command log of sessions. Snapshots are never
// stored; a session is restored by replaying its commands onto its level.
type SessionPersistence interface {
	// Save writes the commands leading to the current step of a session
	Save(session *service.Session) error

	// Load restores a session by ID
	Load(id string) (*service.Session, error)

	// Delete removes the saved output of a session
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session has a saved output
	Exists(id string) bool
}
