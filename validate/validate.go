// Command validate provides a small CLI that validates the level files (*.in)
// in a levels directory (../levels by default). It checks:
//   - The textual format: dimensions, inventory, grid rows and queue
//   - Tiers on the grid and in the queue are within 1-9
//   - No group on the starting grid is already large enough to merge
//   - At least one action is possible from the starting position
//   - rules.json, when present, is a consistent scoring table
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/merge-puzzle-game/game/config"
	"github.com/wricardo/merge-puzzle-game/game/engine"
	"github.com/wricardo/merge-puzzle-game/game/level"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateLevel loads and validates a single level file against rules.
func validateLevel(filePath string, rules *engine.Rules) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	f, err := os.Open(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}
	defer f.Close()

	lvl, err := level.Parse(f)
	if err != nil {
		result.fail("Invalid level: %v", err)
		return result
	}

	eng, err := engine.NewEngine(lvl, rules)
	if err != nil {
		result.fail("Level cannot be played: %v", err)
		return result
	}

	for _, group := range unresolvedGroups(eng.Current()) {
		result.fail("Unresolved group of %d tier %d cells at (%d,%d)",
			len(group.cells), group.tier, group.cells[0].X+1, group.cells[0].Y+1)
	}

	if eng.IsFinished() {
		result.fail("No action is possible from the starting position")
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", lvl.Height, lvl.Width))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Filled cells: %d", lvl.Filled()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Stars: %d, Bombers: %d", lvl.NumStars, lvl.NumBombs))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Queue: %d structures", len(lvl.Queue)))
	}

	return result
}

type group struct {
	tier  engine.Tier
	cells []engine.Position
}

// unresolvedGroups returns every group on the grid that already meets the
// reaction threshold, each reported once from its first cell in row-major order.
func unresolvedGroups(gs *engine.GameState) []group {
	seen := make(map[engine.Position]bool)
	var groups []group

	for _, cell := range gs.Grid.Cells() {
		if cell.Value == engine.Empty || seen[cell.Position] {
			continue
		}
		cells := gs.ReactionGroup(cell.X, cell.Y, cell.Value)
		for _, p := range cells {
			seen[p] = true
		}
		if cells != nil {
			groups = append(groups, group{tier: cell.Value, cells: cells})
		}
	}

	return groups
}

// validateRules checks rules.json in dir, if there is one
func validateRules(dir string) (*engine.Rules, error) {
	return config.LoadRules(filepath.Join(dir, "rules.json"))
}

// main scans the levels directory for *.in files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	levelDir := "../levels"
	if len(os.Args) > 1 {
		levelDir = os.Args[1]
	}

	rules, err := validateRules(levelDir)
	if err != nil {
		fmt.Printf("❌ rules.json: %v\n", err)
		os.Exit(1)
	}

	files, err := filepath.Glob(filepath.Join(levelDir, "*.in"))
	if err != nil {
		fmt.Printf("Error finding level files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateLevel(file, rules)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All levels are valid!")
	} else {
		fmt.Println("❌ Some levels have errors")
		os.Exit(1)
	}
}
