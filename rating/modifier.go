package rating

import (
	"fmt"

	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/scoring"
)

const (
	singleSetModifier    = 1.0
	loneTiebreakModifier = 0.3
)

// FormatModifier scales K for matches of two or more sets. Single sets and
// lone tiebreaks are fixed at 1.0 and 0.3 for every strategy.
type FormatModifier interface {
	Name() string
	MultiSet(setsPlayed, setsDiff int) float64
}

// SetsAndMarginModifier is 1 + 0.1*(sets-1) + 0.1*|diff|.
type SetsAndMarginModifier struct{}

func (SetsAndMarginModifier) Name() string { return "sets_and_margin" }

func (SetsAndMarginModifier) MultiSet(setsPlayed, setsDiff int) float64 {
	return 1.0 + 0.1*float64(setsPlayed-1) + 0.1*float64(setsDiff)
}

// MarginModifier is 1 + 0.1*|diff|.
type MarginModifier struct{}

func (MarginModifier) Name() string { return "margin" }

func (MarginModifier) MultiSet(_, setsDiff int) float64 {
	return 1.0 + 0.1*float64(setsDiff)
}

func ModifierByName(name string) (FormatModifier, error) {
	switch name {
	case "", SetsAndMarginModifier{}.Name():
		return SetsAndMarginModifier{}, nil
	case MarginModifier{}.Name():
		return MarginModifier{}, nil
	}
	return nil, fmt.Errorf("unknown format modifier %q", name)
}

// matchModifier returns the modifier for a match and false when there were no
// sets to look at.
func matchModifier(m FormatModifier, sets []models.MatchSet, format models.MatchFormat) (float64, bool) {
	switch {
	case len(sets) == 0:
		return singleSetModifier, false
	case scoring.IsLoneTiebreak(sets):
		return loneTiebreakModifier, true
	case len(sets) == 1:
		return singleSetModifier, true
	}
	out := scoring.Evaluate(sets, format)
	return m.MultiSet(out.SetsPlayed, out.SetsDiff()), true
}
