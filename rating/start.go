package rating

import "strings"

const (
	DefaultStartRating = 1000

	btrBase  = 800
	btrFloor = 800
	btrCeil  = 1400

	levelStep = 50
)

var (
	hardMarkers   = []string{"hard", "проам"}
	mediumMarkers = []string{"medium"}
)

// StartPolicy picks the first rating of a player who has none yet.
type StartPolicy struct {
	Default   int
	Overrides map[int]int
}

// StartRating prefers an explicit override, then a BTR estimate, then a guess
// from the tournament level in its name.
func (p StartPolicy) StartRating(playerID int, btr *int, tournamentName string) int {
	if r, ok := p.Overrides[playerID]; ok && r > 0 {
		return r
	}
	if btr != nil && *btr > 0 {
		return BTREstimate(*btr)
	}
	return p.byName(tournamentName)
}

func (p StartPolicy) byName(name string) int {
	base := p.Default
	if base <= 0 {
		base = DefaultStartRating
	}
	lower := strings.ToLower(name)
	for _, m := range hardMarkers {
		if strings.Contains(lower, m) {
			return base + levelStep
		}
	}
	for _, m := range mediumMarkers {
		if strings.Contains(lower, m) {
			return base - levelStep
		}
	}
	return base
}

// BTREstimate maps an external BTR rating onto this scale.
func BTREstimate(btr int) int {
	return min(max(btrBase+btr/5, btrFloor), btrCeil)
}
