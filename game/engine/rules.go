package engine

import (
	"fmt"
	"math"
)

// Rules holds the reaction threshold and the scoring table
type Rules struct {
	// MinReactionCount is the connected group size that triggers a merge
	MinReactionCount int `json:"min_reaction_count"`

	// BuildScores is indexed by tier; index 0 is unused
	BuildScores []int `json:"build_scores"`

	// BombRatio is the share of a structure's build score lost when it is bombed
	BombRatio float64 `json:"bomb_ratio"`
}

// DefaultRules returns the standard scoring table
func DefaultRules() *Rules {
	return &Rules{
		MinReactionCount: 3,
		BuildScores:      []int{0, 4, 20, 100, 500, 1500, 5000, 20000, 100000, 500000},
		BombRatio:        0.5,
	}
}

// Validate checks the rules for consistency
func (r *Rules) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: rules cannot be nil", ErrInvalidRules)
	}
	if r.MinReactionCount < 2 {
		return fmt.Errorf("%w: min_reaction_count must be at least 2, got %d", ErrInvalidRules, r.MinReactionCount)
	}
	if len(r.BuildScores) != int(MaxTier)+1 {
		return fmt.Errorf("%w: build_scores must have %d entries (index 0 unused), got %d",
			ErrInvalidRules, int(MaxTier)+1, len(r.BuildScores))
	}
	for t := MinTier; t <= MaxTier; t++ {
		if r.BuildScores[t] < 0 {
			return fmt.Errorf("%w: build_scores[%d] must not be negative", ErrInvalidRules, t)
		}
	}
	if r.BombRatio < 0 || math.IsNaN(r.BombRatio) {
		return fmt.Errorf("%w: bomb_ratio must not be negative", ErrInvalidRules)
	}
	return nil
}

// BuildScore returns the points for placing or promoting to tier t
func (r *Rules) BuildScore(t Tier) int {
	if !t.Valid() {
		return 0
	}
	return r.BuildScores[t]
}

// BombPenalty returns the points lost when a tier t structure is bombed.
// Scores are integers, so BombRatio * BuildScore(t) is rounded to the nearest
// point with halves rounded away from zero: 0.3 of 4 costs 1, 0.125 of 4 costs 1.
func (r *Rules) BombPenalty(t Tier) int {
	return int(math.Round(r.BombRatio * float64(r.BuildScore(t))))
}
