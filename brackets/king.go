package brackets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

const (
	MinKingParticipants = 4
	MaxKingParticipants = 16
)

var (
	ErrInvalidKingParticipants = errors.New("king participants count must be between 4 and 16")
	ErrInvalidKingSchedule     = errors.New("invalid king schedule")
)

// KingMatch is a 2 vs 2 match between participant indices.
type KingMatch struct {
	Team1 [2]int `json:"team1"`
	Team2 [2]int `json:"team2"`
}

type KingRound struct {
	Matches []KingMatch `json:"matches"`
	Resting []int       `json:"resting"`
}

// Hand-made schedules for small groups. N=6 needs 16 partner slots for 15
// pairs, so exactly one partnership (0,1) is played twice.
var kingTables = map[int][]KingRound{
	4: {
		{Matches: []KingMatch{{Team1: [2]int{0, 1}, Team2: [2]int{2, 3}}}},
		{Matches: []KingMatch{{Team1: [2]int{0, 2}, Team2: [2]int{1, 3}}}},
		{Matches: []KingMatch{{Team1: [2]int{0, 3}, Team2: [2]int{1, 2}}}},
	},
	5: {
		{Matches: []KingMatch{{Team1: [2]int{1, 4}, Team2: [2]int{2, 3}}}, Resting: []int{0}},
		{Matches: []KingMatch{{Team1: [2]int{2, 0}, Team2: [2]int{3, 4}}}, Resting: []int{1}},
		{Matches: []KingMatch{{Team1: [2]int{3, 1}, Team2: [2]int{4, 0}}}, Resting: []int{2}},
		{Matches: []KingMatch{{Team1: [2]int{4, 2}, Team2: [2]int{0, 1}}}, Resting: []int{3}},
		{Matches: []KingMatch{{Team1: [2]int{0, 3}, Team2: [2]int{1, 2}}}, Resting: []int{4}},
	},
	6: {
		{Matches: []KingMatch{{Team1: [2]int{0, 1}, Team2: [2]int{2, 3}}}, Resting: []int{4, 5}},
		{Matches: []KingMatch{{Team1: [2]int{0, 5}, Team2: [2]int{3, 4}}}, Resting: []int{1, 2}},
		{Matches: []KingMatch{{Team1: [2]int{1, 4}, Team2: [2]int{2, 5}}}, Resting: []int{0, 3}},
		{Matches: []KingMatch{{Team1: [2]int{0, 3}, Team2: [2]int{2, 4}}}, Resting: []int{1, 5}},
		{Matches: []KingMatch{{Team1: [2]int{0, 1}, Team2: [2]int{4, 5}}}, Resting: []int{2, 3}},
		{Matches: []KingMatch{{Team1: [2]int{1, 2}, Team2: [2]int{3, 5}}}, Resting: []int{0, 4}},
		{Matches: []KingMatch{{Team1: [2]int{0, 4}, Team2: [2]int{1, 5}}}, Resting: []int{2, 3}},
		{Matches: []KingMatch{{Team1: [2]int{0, 2}, Team2: [2]int{1, 3}}}, Resting: []int{4, 5}},
	},
}

// GenerateKingRounds returns the partner-rotation schedule for n players.
func GenerateKingRounds(n int) ([]KingRound, error) {
	if n < MinKingParticipants || n > MaxKingParticipants {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKingParticipants, n)
	}
	if table, ok := kingTables[n]; ok {
		return cloneKingRounds(table), nil
	}
	return rotationKingRounds(n)
}

func cloneKingRounds(src []KingRound) []KingRound {
	out := make([]KingRound, len(src))
	for i, r := range src {
		out[i] = KingRound{
			Matches: append([]KingMatch(nil), r.Matches...),
			Resting: append([]int{}, r.Resting...),
		}
	}
	return out
}

type pair [2]int

// partnerRounds is the circle method over players: every pair of players is
// partnered exactly once. -1 marks the bye for odd n.
func partnerRounds(n int) [][]pair {
	ids := make([]int, n, n+1)
	for i := range ids {
		ids[i] = i
	}
	if n%2 == 1 {
		ids = append(ids, -1)
	}
	m := len(ids)

	rounds := make([][]pair, 0, m-1)
	for r := 0; r < m-1; r++ {
		pairs := make([]pair, 0, m/2)
		for i := 0; i < m/2; i++ {
			pairs = append(pairs, pair{ids[i], ids[m-1-i]})
		}
		rounds = append(rounds, pairs)

		rotated := make([]int, 0, m)
		rotated = append(rotated, ids[0], ids[m-1])
		rotated = append(rotated, ids[1:m-1]...)
		ids = rotated
	}
	return rounds
}

// rotationKingRounds groups consecutive partner pairs into matches. When a
// round has an odd number of pairs one pair rests; the choice is searched so
// that play counts end up differing by at most one.
func rotationKingRounds(n int) ([]KingRound, error) {
	rounds := partnerRounds(n)

	playing := make([][]pair, len(rounds))
	byeRest := make([][]int, len(rounds))
	total := 0
	for r, pairs := range rounds {
		for _, p := range pairs {
			switch {
			case p[0] == -1:
				byeRest[r] = append(byeRest[r], p[1])
			case p[1] == -1:
				byeRest[r] = append(byeRest[r], p[0])
			default:
				playing[r] = append(playing[r], p)
			}
		}
		total += 4 * (len(playing[r]) / 2)
	}

	s := &restSearch{
		n:       n,
		playing: playing,
		lo:      total / n,
		hi:      (total + n - 1) / n,
		played:  make([]int, n),
		choice:  make([]int, len(rounds)),
		future:  make([][]int, len(rounds)+1),
	}
	s.future[len(rounds)] = make([]int, n)
	for r := len(rounds) - 1; r >= 0; r-- {
		s.future[r] = append([]int(nil), s.future[r+1]...)
		for _, p := range playing[r] {
			s.future[r][p[0]]++
			s.future[r][p[1]]++
		}
	}
	if !s.search(0) {
		return nil, fmt.Errorf("no balanced king schedule for %d participants", n)
	}

	out := make([]KingRound, 0, len(rounds))
	for r := range rounds {
		pairs := playing[r]
		resting := append([]int{}, byeRest[r]...)
		if len(pairs)%2 == 1 {
			rest := pairs[s.choice[r]]
			resting = append(resting, rest[0], rest[1])
			pairs = append(append([]pair(nil), pairs[:s.choice[r]]...), pairs[s.choice[r]+1:]...)
		}
		sort.Ints(resting)

		round := KingRound{Resting: resting}
		for i := 0; i+1 < len(pairs); i += 2 {
			round.Matches = append(round.Matches, KingMatch{Team1: pairs[i], Team2: pairs[i+1]})
		}
		out = append(out, round)
	}
	return out, nil
}

type restSearch struct {
	n       int
	playing [][]pair
	lo, hi  int
	played  []int
	choice  []int
	future  [][]int
}

func (s *restSearch) search(r int) bool {
	for x := 0; x < s.n; x++ {
		if s.played[x] > s.hi || s.played[x]+s.future[r][x] < s.lo {
			return false
		}
	}
	if r == len(s.playing) {
		return true
	}

	pairs := s.playing[r]
	if len(pairs)%2 == 0 {
		s.apply(pairs, -1, 1)
		if s.search(r + 1) {
			return true
		}
		s.apply(pairs, -1, -1)
		return false
	}

	// rest the pair that has played the most so far first
	order := make([]int, len(pairs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		pi, pj := pairs[order[i]], pairs[order[j]]
		return s.played[pi[0]]+s.played[pi[1]] > s.played[pj[0]]+s.played[pj[1]]
	})

	for _, skip := range order {
		s.apply(pairs, skip, 1)
		s.choice[r] = skip
		if s.search(r + 1) {
			return true
		}
		s.apply(pairs, skip, -1)
	}
	return false
}

func (s *restSearch) apply(pairs []pair, skip, step int) {
	for i, p := range pairs {
		if i == skip {
			continue
		}
		s.played[p[0]] += step
		s.played[p[1]] += step
	}
}

// KingSchedule is a stored custom schedule. Player numbers are 1-based:
// {"rounds": [{"matches": [[[1,2],[3,4]]], "resting": [5]}]}.
type KingSchedule struct {
	Rounds []struct {
		Matches [][2][2]int `json:"matches"`
		Resting []int       `json:"resting"`
	} `json:"rounds"`
}

// ParseKingSchedule converts a stored schedule to 0-based rounds and checks
// that every index is in range and used at most once per round.
func ParseKingSchedule(raw string, n int) ([]KingRound, error) {
	var ks KingSchedule
	if err := json.Unmarshal([]byte(raw), &ks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKingSchedule, err)
	}
	if len(ks.Rounds) == 0 {
		return nil, fmt.Errorf("%w: no rounds", ErrInvalidKingSchedule)
	}

	rounds := make([]KingRound, 0, len(ks.Rounds))
	for ri, raw := range ks.Rounds {
		used := make(map[int]bool)
		take := func(v int) (int, error) {
			idx := v - 1
			if idx < 0 || idx >= n {
				return 0, fmt.Errorf("%w: round %d references player %d of %d", ErrInvalidKingSchedule, ri+1, v, n)
			}
			if used[idx] {
				return 0, fmt.Errorf("%w: round %d uses player %d twice", ErrInvalidKingSchedule, ri+1, v)
			}
			used[idx] = true
			return idx, nil
		}

		var round KingRound
		for _, m := range raw.Matches {
			var km KingMatch
			for side := 0; side < 2; side++ {
				for k := 0; k < 2; k++ {
					idx, err := take(m[side][k])
					if err != nil {
						return nil, err
					}
					if side == 0 {
						km.Team1[k] = idx
					} else {
						km.Team2[k] = idx
					}
				}
			}
			round.Matches = append(round.Matches, km)
		}
		round.Resting = []int{}
		for _, v := range raw.Resting {
			idx, err := take(v)
			if err != nil {
				return nil, err
			}
			round.Resting = append(round.Resting, idx)
		}
		sort.Ints(round.Resting)
		rounds = append(rounds, round)
	}
	return rounds, nil
}

type KingGenerator struct{}

func NewKingGenerator() BracketGenerator {
	return &KingGenerator{}
}

func (g *KingGenerator) GetName() string {
	return "King"
}

// GenerateBracket maps King rounds onto the group's entries. A tournament's
// stored schedule wins over generation.
func (g *KingGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	ids := entryIDs(params.Entries)

	var (
		rounds []KingRound
		err    error
	)
	if params.Tournament != nil && params.Tournament.KingScheduleJSON != nil {
		rounds, err = ParseKingSchedule(*params.Tournament.KingScheduleJSON, len(ids))
	} else {
		rounds, err = GenerateKingRounds(len(ids))
	}
	if err != nil {
		return nil, err
	}

	group := 0
	if params.GroupIndex != nil {
		group = *params.GroupIndex
	}

	var matches []*BracketMatch
	for r, round := range rounds {
		for order, m := range round.Matches {
			matches = append(matches, &BracketMatch{
				UID:          fmt.Sprintf("K%dR%dM%d", group, r+1, order+1),
				Round:        r + 1,
				RoundName:    fmt.Sprintf("Round %d", r+1),
				OrderInRound: order + 1,
				GroupIndex:   params.GroupIndex,
				Side1:        []int{ids[m.Team1[0]], ids[m.Team1[1]]},
				Side2:        []int{ids[m.Team2[0]], ids[m.Team2[1]]},
			})
		}
	}
	return matches, nil
}
