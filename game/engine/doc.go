// Package engine provides the core game logic for the Structure Merge puzzle.
//
// The engine package implements the game mechanics including:
//   - The rectangular Grid of structure tiers with bounds checking
//   - Build, star and bomber actions on a GameState
//   - Chain reactions: three or more connected equal structures merge
//     into one structure of the next tier at the placed cell
//   - Scoring through a Rules table
//   - A linear undo/redo History of immutable snapshots
//   - Command batches ("PUT x y", "STAR x y", "BOMBER x y") applied
//     all-or-nothing
//
// Core Types:
//
// GameEngine runs a session loaded from a level.Level. GameState is one
// snapshot; every action runs on a Clone of the current snapshot and only a
// successful clone is appended to the History, so a rejected action never
// changes a recorded state.
//
// Usage:
//
//	lvl, err := level.ParseString(raw)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(lvl, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Build the next queued structure at row 1, column 2
//	result, err := gameEngine.Apply(engine.ToolBuild, 0, 1)
//	if err != nil {
//		fmt.Println(engine.ErrorMessage(err))
//	}
//
//	fmt.Print(gameEngine.Output())
//
// Game Rules:
//
// Structures are taken from the build queue in order. A star becomes the
// highest tier that would react right away, or tier 1 when none would.
// A bomber removes a structure and costs half of its build score. Tier 9
// structures never react.
package engine
