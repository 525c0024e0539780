package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRulesBombPenalty(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		tier  Tier
		want  int
	}{
		{"default half", 0.5, 3, 50},
		{"default half of tier 1", 0.5, 1, 2},
		{"rounds down", 0.3, 1, 1},
		{"exact", 0.3, 2, 6},
		{"half rounds up", 0.125, 1, 1},
		{"below half rounds to zero", 0.1, 1, 0},
		{"zero ratio", 0, 9, 0},
		{"full ratio", 1, 4, 500},
		{"invalid tier", 0.5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			rules.BombRatio = tt.ratio
			assert.Equal(t, tt.want, rules.BombPenalty(tt.tier))
		})
	}
}

func TestRulesValidate(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())

	var nilRules *Rules
	assert.ErrorIs(t, nilRules.Validate(), ErrInvalidRules)

	negative := DefaultRules()
	negative.BombRatio = -0.1
	assert.ErrorIs(t, negative.Validate(), ErrInvalidRules)

	short := DefaultRules()
	short.BuildScores = []int{0, 4}
	assert.ErrorIs(t, short.Validate(), ErrInvalidRules)
}
