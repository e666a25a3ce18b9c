package standings

import (
	"sort"

	"github.com/Dosada05/beach-tennis-system/models"
)

// Placement is a final place range for one entrant; ties share the range.
type Placement struct {
	EntrantID int `json:"entrant_id"`
	From      int `json:"place_from"`
	To        int `json:"place_to"`
}

// GroupPlacements merges per-group rankings: everyone finishing k-th in their
// group shares one range after all better group ranks.
func GroupPlacements(groups [][]int) []Placement {
	var out []Placement
	next := 1
	for rank := 0; ; rank++ {
		var tied []int
		for _, g := range groups {
			if rank < len(g) {
				tied = append(tied, g[rank])
			}
		}
		if len(tied) == 0 {
			break
		}
		to := next + len(tied) - 1
		for _, id := range tied {
			out = append(out, Placement{EntrantID: id, From: next, To: to})
		}
		next = to + 1
	}
	return out
}

// KnockoutPlacements places teams of a finished or partly finished bracket.
// Final: 1 and 2. Third-place match: 3 and 4, otherwise both semifinal losers
// share 3-4. Losers of a round with m matches share m+1..2m. Entrant ids are
// the team ids of the matches.
func KnockoutPlacements(matches []*models.Match) []Placement {
	finalRound := 0
	var third *models.Match
	for _, m := range matches {
		if m.IsThirdPlace {
			third = m
			continue
		}
		finalRound = max(finalRound, m.Round())
	}

	matchesInRound := make(map[int]int)
	for _, m := range matches {
		if !m.IsThirdPlace {
			matchesInRound[m.Round()]++
		}
	}

	placed := make(map[int]bool)
	var out []Placement
	add := func(team *int, from, to int) {
		if team == nil || placed[*team] {
			return
		}
		placed[*team] = true
		out = append(out, Placement{EntrantID: *team, From: from, To: to})
	}

	for _, m := range matches {
		if m.IsThirdPlace || m.WinnerID == nil || m.Round() != finalRound {
			continue
		}
		add(m.WinnerID, 1, 1)
		add(m.Loser(), 2, 2)
	}
	if third != nil && third.WinnerID != nil {
		add(third.WinnerID, 3, 3)
		add(third.Loser(), 4, 4)
	}

	rounds := make([]int, 0, len(matchesInRound))
	for r := range matchesInRound {
		rounds = append(rounds, r)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rounds)))

	for _, r := range rounds {
		if r == finalRound {
			continue
		}
		if r == finalRound-1 && third != nil && third.WinnerID != nil {
			continue
		}
		count := matchesInRound[r]
		for _, m := range matches {
			if m.IsThirdPlace || m.Round() != r || m.WinnerID == nil {
				continue
			}
			add(m.Loser(), count+1, 2*count)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].EntrantID < out[j].EntrantID
	})
	return out
}
