// Package config provides level management for the merge puzzle game.
//
// The config package handles:
//   - Loading level files (*.in) from a directory
//   - Caching parsed levels
//   - Default level selection
//   - Level discovery and listing
//   - The optional rules.json scoring table
//
// Level Format:
//
// Levels are stored as text files in the levels directory, in the format
// decoded by the level package: dimensions, star and bomber counts, the
// grid rows and the build queue.
//
// Rules:
//
// A rules.json next to the levels may override the reaction threshold, the
// build score of each tier and the bomb ratio:
//
//	{"min_reaction_count": 3, "build_scores": [0, 4, 20, 100, 500, 1500, 5000, 20000, 100000, 500000], "bomb_ratio": 0.5}
//
// A bombed structure costs bomb_ratio times its build score, rounded to the
// nearest whole point with halves rounded up.
//
// Usage:
//
//	manager, err := config.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	lvl, err := manager.LoadLevel("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	levels, err := manager.ListLevels()
package config
