// Package service provides the business logic layer for the merge puzzle game.
//
// The service package implements:
//   - Multi-session game management
//   - Level loading and listing
//   - Action and command batch processing
//   - Undo, redo and history navigation
//   - Saving the command log of a session
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// LevelManager loads level files and the scoring rules.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. An engine is single threaded, so every call goes through
// the service mutex. Each session owns its own engine and history.
//
// Usage:
//
//	levelMgr, err := config.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//	sessionMgr := session.NewManager()
//	gameService := service.NewGameService(sessionMgr, levelMgr)
//
//	sessionInfo, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Exec(ctx, sessionInfo.ID, "PUT 1 1\nSTAR 2 2")
//	if err != nil {
//		fmt.Println(engine.ErrorMessage(err))
//	}
//
// Validation failures from the engine (engine.IsValidationError) are returned
// unwrapped so transports can show their message to the player.
package service
