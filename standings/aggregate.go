// Package standings aggregates match results per entrant and ranks groups.
package standings

import (
	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/scoring"
)

// Result is a completed match seen from the standings. Sides hold entrant ids:
// one per side for team formats, two for King rounds.
type Result struct {
	MatchID int
	Round   int
	Side1   []int
	Side2   []int
	Sets    []models.MatchSet
}

// within reports whether every entrant of both sides is a member.
func (r Result) within(members map[int]bool) bool {
	for _, id := range r.Side1 {
		if !members[id] {
			return false
		}
	}
	for _, id := range r.Side2 {
		if !members[id] {
			return false
		}
	}
	return true
}

type Stats struct {
	EntrantID int `json:"entrant_id"`
	Matches   int `json:"matches"`
	Wins      int `json:"wins"`
	Losses    int `json:"losses"`
	SetsWon   int `json:"sets_won"`
	SetsLost  int `json:"sets_lost"`
	SetsDrawn int `json:"sets_drawn"`
	GamesWon  int `json:"games_won"`
	GamesLost int `json:"games_lost"`
}

func (s Stats) SetsRatio() Ratio  { return Ratio{s.SetsWon, s.SetsLost} }
func (s Stats) GamesRatio() Ratio { return Ratio{s.GamesWon, s.GamesLost} }

func (s *Stats) add(o Stats) {
	s.Matches += o.Matches
	s.Wins += o.Wins
	s.Losses += o.Losses
	s.SetsWon += o.SetsWon
	s.SetsLost += o.SetsLost
	s.SetsDrawn += o.SetsDrawn
	s.GamesWon += o.GamesWon
	s.GamesLost += o.GamesLost
}

// Ratio is won/lost kept as integers so comparisons are exact.
type Ratio struct {
	Won  int
	Lost int
}

// Compare orders ratios; a ratio with nothing lost is above any finite one.
func (r Ratio) Compare(o Ratio) int {
	rInf, oInf := r.Lost == 0 && r.Won > 0, o.Lost == 0 && o.Won > 0
	switch {
	case rInf && oInf:
		return cmpInt(r.Won, o.Won)
	case rInf:
		return 1
	case oInf:
		return -1
	}
	rl, ol := max(r.Lost, 1), max(o.Lost, 1)
	return cmpInt(r.Won*ol, o.Won*rl)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// sideStats is what each member of one side gets from a single match.
func sideStats(r Result, format models.MatchFormat, tb3AsOneZero bool) (Stats, Stats) {
	out := scoring.Evaluate(r.Sets, format)
	g1, g2 := scoring.TotalGames(r.Sets, format, tb3AsOneZero)

	s1 := Stats{Matches: 1, SetsWon: out.Team1Sets, SetsLost: out.Team2Sets, SetsDrawn: out.SetsDrawn, GamesWon: g1, GamesLost: g2}
	s2 := Stats{Matches: 1, SetsWon: out.Team2Sets, SetsLost: out.Team1Sets, SetsDrawn: out.SetsDrawn, GamesWon: g2, GamesLost: g1}
	switch out.Winner {
	case scoring.Side1:
		s1.Wins, s2.Losses = 1, 1
	case scoring.Side2:
		s2.Wins, s1.Losses = 1, 1
	}
	return s1, s2
}

// Aggregate sums results per entrant. Every entrant passed in gets a row even
// without matches.
func Aggregate(entrants []int, results []Result, format models.MatchFormat, tb3AsOneZero bool) map[int]*Stats {
	stats := make(map[int]*Stats, len(entrants))
	for _, id := range entrants {
		stats[id] = &Stats{EntrantID: id}
	}
	get := func(id int) *Stats {
		s, ok := stats[id]
		if !ok {
			s = &Stats{EntrantID: id}
			stats[id] = s
		}
		return s
	}

	for _, r := range results {
		s1, s2 := sideStats(r, format, tb3AsOneZero)
		for _, id := range r.Side1 {
			get(id).add(s1)
		}
		for _, id := range r.Side2 {
			get(id).add(s2)
		}
	}
	return stats
}

// Between restricts results to matches played only among members.
func Between(results []Result, members []int) []Result {
	set := make(map[int]bool, len(members))
	for _, id := range members {
		set[id] = true
	}
	var out []Result
	for _, r := range results {
		if r.within(set) {
			out = append(out, r)
		}
	}
	return out
}
