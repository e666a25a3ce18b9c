package scoring

import "github.com/Dosada05/beach-tennis-system/models"

// GamesFor returns the games each side is credited with for one set.
//
// A champion tiebreak counts as a 1:0 set, except in the only-tiebreak format
// where the raw points are the games. With tb3AsOneZero a decider set carrying
// tiebreak points is also counted as 1:0 instead of its stored games.
func GamesFor(s models.MatchSet, format models.MatchFormat, tb3AsOneZero bool) (int, int) {
	oneZero := func() (int, int) {
		switch SetWinner(s, format) {
		case Side1:
			return 1, 0
		case Side2:
			return 0, 1
		}
		return 0, 0
	}

	if s.IsTiebreakOnly {
		if format.IsOnlyTiebreak() {
			return s.Games1, s.Games2
		}
		return oneZero()
	}
	if tb3AsOneZero && s.Index == deciderIndex && s.TB1 != nil && s.TB2 != nil {
		return oneZero()
	}
	return s.Games1, s.Games2
}

// TotalGames sums GamesFor over all sets.
func TotalGames(sets []models.MatchSet, format models.MatchFormat, tb3AsOneZero bool) (int, int) {
	var g1, g2 int
	for _, s := range sets {
		a, b := GamesFor(s, format, tb3AsOneZero)
		g1 += a
		g2 += b
	}
	return g1, g2
}

// IsLoneTiebreak reports a match consisting of a single tiebreak-only set.
func IsLoneTiebreak(sets []models.MatchSet) bool {
	return len(sets) == 1 && sets[0].IsTiebreakOnly
}
