// Package scoring decides set and match winners from recorded set scores.
package scoring

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/beach-tennis-system/models"
)

var (
	ErrCannotDetermineWinner = errors.New("cannot determine match winner")
	ErrInvalidSets           = errors.New("invalid set scores")
)

// Side identifies a team slot of a match. SideNone means no winner.
type Side int

const (
	SideNone Side = iota
	Side1
	Side2
)

// deciderIndex is the set index of a champion tiebreak played as a decider.
const deciderIndex = 3

// Outcome is the result of evaluating all sets of one match.
type Outcome struct {
	Team1Sets  int  `json:"team1_sets"`
	Team2Sets  int  `json:"team2_sets"`
	SetsDrawn  int  `json:"sets_drawn"`
	SetsPlayed int  `json:"sets_played"`
	Winner     Side `json:"winner"`
}

// SetsDiff is the absolute difference in sets won.
func (o Outcome) SetsDiff() int {
	if o.Team1Sets > o.Team2Sets {
		return o.Team1Sets - o.Team2Sets
	}
	return o.Team2Sets - o.Team1Sets
}

// SetWinner returns the side that won a single set, or SideNone for a drawn set.
func SetWinner(s models.MatchSet, format models.MatchFormat) Side {
	switch {
	case s.IsTiebreakOnly && format.IsOnlyTiebreak():
		// raw points live in the games fields
		return compare(s.Games1, s.Games2)
	case s.IsTiebreakOnly:
		if s.TB1 != nil && s.TB2 != nil {
			return compare(*s.TB1, *s.TB2)
		}
		return compare(s.Games1, s.Games2)
	case s.Index == deciderIndex && s.TB1 != nil && s.TB2 != nil:
		return compare(*s.TB1, *s.TB2)
	}
	return compare(s.Games1, s.Games2)
}

func compare(a, b int) Side {
	switch {
	case a > b:
		return Side1
	case b > a:
		return Side2
	}
	return SideNone
}

// Evaluate counts sets per side and picks the side with strictly more sets.
func Evaluate(sets []models.MatchSet, format models.MatchFormat) Outcome {
	var out Outcome
	for _, s := range sets {
		out.SetsPlayed++
		switch SetWinner(s, format) {
		case Side1:
			out.Team1Sets++
		case Side2:
			out.Team2Sets++
		default:
			out.SetsDrawn++
		}
	}
	out.Winner = compare(out.Team1Sets, out.Team2Sets)
	return out
}

// KnockoutWinner resolves a match that must have a winner. A tie in sets is broken
// by total games; a tie in games too is an error.
func KnockoutWinner(sets []models.MatchSet, format models.MatchFormat) (Side, error) {
	out := Evaluate(sets, format)
	if out.Winner != SideNone {
		return out.Winner, nil
	}
	g1, g2 := TotalGames(sets, format, false)
	if side := compare(g1, g2); side != SideNone {
		return side, nil
	}
	return SideNone, fmt.Errorf("%w: sets %d:%d, games %d:%d", ErrCannotDetermineWinner, out.Team1Sets, out.Team2Sets, g1, g2)
}

// ValidateSets checks that set indices are contiguous from 1 and scores are non-negative.
// The slice is sorted by index in place.
func ValidateSets(sets []models.MatchSet, format models.MatchFormat) error {
	sort.SliceStable(sets, func(i, j int) bool { return sets[i].Index < sets[j].Index })
	for i, s := range sets {
		if s.Index != i+1 {
			return fmt.Errorf("%w: set indices must be contiguous from 1, got %d at position %d", ErrInvalidSets, s.Index, i+1)
		}
		if s.Games1 < 0 || s.Games2 < 0 {
			return fmt.Errorf("%w: negative games in set %d", ErrInvalidSets, s.Index)
		}
		if (s.TB1 == nil) != (s.TB2 == nil) {
			return fmt.Errorf("%w: set %d has only one tiebreak value", ErrInvalidSets, s.Index)
		}
		if s.TB1 != nil && (*s.TB1 < 0 || *s.TB2 < 0) {
			return fmt.Errorf("%w: negative tiebreak points in set %d", ErrInvalidSets, s.Index)
		}
		if s.IsTiebreakOnly && !format.IsOnlyTiebreak() && s.TB1 == nil && s.Games1 == s.Games2 {
			return fmt.Errorf("%w: tiebreak set %d has no points", ErrInvalidSets, s.Index)
		}
	}
	if format.MaxSets > 0 && len(sets) > format.MaxSets {
		return fmt.Errorf("%w: %d sets recorded, format allows %d", ErrInvalidSets, len(sets), format.MaxSets)
	}
	return nil
}
