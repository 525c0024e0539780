// Command analyze prints quick, human-readable heuristics about level files
// in the project's levels directory. It summarizes dimensions, inventory,
// the tier histogram of the grid and the composition of the build queue,
// and highlights cells where the next structure or a star would react
// immediately.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/merge-puzzle-game/game/engine"
	"github.com/wricardo/merge-puzzle-game/game/level"
)

// maxListed caps the opportunities printed per level
const maxListed = 5

// Analysis holds the heuristics computed for one level file.
type Analysis struct {
	Name     string
	Height   int
	Width    int
	Stars    int
	Bombs    int
	Filled   int
	Grid     map[engine.Tier]int
	Queue    map[engine.Tier]int
	QueueLen int

	// NextTier is the first structure of the queue, Empty when there is none
	NextTier engine.Tier

	BuildOpportunities []Opportunity
	StarOpportunities  []Opportunity
}

// Opportunity is an empty cell where a placement merges right away.
type Opportunity struct {
	engine.Position
	Tier  engine.Tier
	Group int
}

func main() {
	dir := "levels"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.in"))
	if err != nil {
		fmt.Printf("Error finding level files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No level files found in %s\n", dir)
		return
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		analysis, err := analyzeLevel(file)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analysis)
	}
}

func analyzeLevel(path string) (*Analysis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	defer f.Close()

	lvl, err := level.Parse(f)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewEngine(lvl, nil)
	if err != nil {
		return nil, err
	}
	gs := eng.Current()

	a := &Analysis{
		Name:     filepath.Base(path),
		Height:   lvl.Height,
		Width:    lvl.Width,
		Stars:    lvl.NumStars,
		Bombs:    lvl.NumBombs,
		Filled:   lvl.Filled(),
		Grid:     make(map[engine.Tier]int),
		Queue:    make(map[engine.Tier]int),
		QueueLen: len(lvl.Queue),
	}

	for _, cell := range gs.Grid.Cells() {
		if cell.Value != engine.Empty {
			a.Grid[cell.Value]++
		}
	}
	for _, t := range eng.Queue() {
		a.Queue[t]++
	}

	next, hasNext := eng.NextTier()
	if hasNext {
		a.NextTier = next
	}

	for _, cell := range gs.Grid.Cells() {
		if cell.Value != engine.Empty {
			continue
		}
		x, y := cell.X, cell.Y

		if hasNext {
			if group := gs.ReactionGroup(x, y, next); group != nil {
				a.BuildOpportunities = append(a.BuildOpportunities, Opportunity{cell.Position, next, len(group)})
			}
		}
		if lvl.NumStars > 0 {
			if t := gs.StarTier(x, y); t > engine.MinTier {
				a.StarOpportunities = append(a.StarOpportunities,
					Opportunity{cell.Position, t, len(gs.ReactionGroup(x, y, t))})
			}
		}
	}

	// Largest merges first
	sort.SliceStable(a.StarOpportunities, func(i, j int) bool {
		return a.StarOpportunities[i].Tier > a.StarOpportunities[j].Tier
	})

	return a, nil
}

func printAnalysis(w io.Writer, a *Analysis) {
	cells := a.Height * a.Width

	fmt.Fprintf(w, "Grid Size: %d x %d\n", a.Height, a.Width)
	fmt.Fprintf(w, "Stars: %d | Bombers: %d\n", a.Stars, a.Bombs)
	fmt.Fprintf(w, "Filled: %d/%d cells\n", a.Filled, cells)
	fmt.Fprintf(w, "Grid tiers: %s\n", histogram(a.Grid))
	fmt.Fprintf(w, "Queue: %d structures (%s)\n", a.QueueLen, histogram(a.Queue))

	if a.QueueLen > cells-a.Filled+a.Bombs {
		fmt.Fprintf(w, "⚠️  WARNING: the queue holds more structures than the board can take without merges\n")
	}

	if a.NextTier == engine.Empty {
		fmt.Fprintf(w, "No structure to build\n")
	} else if len(a.BuildOpportunities) > 0 {
		fmt.Fprintf(w, "✅ Next structure (tier %d) reacts at %d cells\n", a.NextTier, len(a.BuildOpportunities))
		listOpportunities(w, a.BuildOpportunities)
	} else {
		fmt.Fprintf(w, "Next structure (tier %d) has no immediate reaction\n", a.NextTier)
	}

	if len(a.StarOpportunities) > 0 {
		fmt.Fprintf(w, "✅ A star merges at %d cells\n", len(a.StarOpportunities))
		listOpportunities(w, a.StarOpportunities)
	} else if a.Stars > 0 {
		fmt.Fprintf(w, "Stars have no immediate reaction\n")
	}
}

func listOpportunities(w io.Writer, ops []Opportunity) {
	for i, op := range ops {
		if i == maxListed {
			fmt.Fprintf(w, "   ... and %d more\n", len(ops)-maxListed)
			break
		}
		fmt.Fprintf(w, "   (%d, %d) as tier %d merges %d cells\n", op.X+1, op.Y+1, op.Tier, op.Group)
	}
}

// histogram renders counts as "tier:count" pairs in tier order
func histogram(counts map[engine.Tier]int) string {
	if len(counts) == 0 {
		return "none"
	}
	out := ""
	for t := engine.MinTier; t <= engine.MaxTier; t++ {
		if n := counts[t]; n > 0 {
			if out != "" {
				out += " "
			}
			out += fmt.Sprintf("%d:%d", t, n)
		}
	}
	return out
}
