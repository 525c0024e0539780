// Package session provides session management for the merge puzzle game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management
//   - Session cleanup and expiration
//   - Saving and restoring sessions through their command log
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// FilePersistence writes the commands leading to the current step of each
// session to <level>-<session>.out in an output directory, terminated by END.
// Snapshots are never written; a saved session is restored by replaying its
// commands onto its level.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference, generated from
// crypto/rand. Lookups are case-insensitive.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("outputs", levelManager)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//
//	sess, err := manager.Create("", "classic", lvl, levelManager.Rules())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Write the command log of the session
//	err = manager.Save(sess.ID)
package session
