package brackets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/beach-tennis-system/models"
)

var (
	ErrNotEnoughParticipants = errors.New("not enough participants")
	ErrInvalidCustomPattern  = errors.New("invalid custom round-robin pattern")
	ErrUnknownPattern        = errors.New("unknown round-robin pattern")
)

// Pairing is a fixture between two 0-based entrant indices.
type Pairing struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// RoundRobinRound is one round of a group. Bye is the index sitting out, if any.
type RoundRobinRound struct {
	Index    int       `json:"index"`
	Pairings []Pairing `json:"pairings"`
	Bye      *int      `json:"bye,omitempty"`
}

// CustomPattern is a stored fixture list with 1-based entrant numbers:
// {"participants_count": 4, "rounds": [[[1,4],[2,3]], ...]}.
type CustomPattern struct {
	ParticipantsCount int        `json:"participants_count"`
	Rounds            [][][2]int `json:"rounds"`
}

func ParseCustomPattern(raw string) (*CustomPattern, error) {
	var p CustomPattern
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCustomPattern, err)
	}
	return &p, nil
}

// RoundRobinSchedule builds the rounds for n entrants.
func RoundRobinSchedule(n int, pattern models.RoundRobinPattern, custom *CustomPattern) ([]RoundRobinRound, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: round robin needs at least 2, got %d", ErrNotEnoughParticipants, n)
	}
	switch pattern {
	case models.PatternBerger, "":
		return circleSchedule(n, bergerRotation), nil
	case models.PatternSnake:
		return circleSchedule(n, snakeRotation), nil
	case models.PatternCustom:
		if custom == nil {
			return nil, fmt.Errorf("%w: pattern payload is missing", ErrInvalidCustomPattern)
		}
		return customSchedule(n, custom)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, pattern)
}

func bergerRotation(round, m int) int { return round * m / 2 % (m - 1) }

func snakeRotation(round, m int) int { return round }

// circleSchedule is the circle method: entrant m-1 stays fixed and the others
// rotate by the step returned from rotation. For odd n a dummy is added and
// whoever meets it has a bye.
func circleSchedule(n int, rotation func(round, m int) int) []RoundRobinRound {
	m := n
	if m%2 == 1 {
		m++
	}
	fixed := m - 1
	rounds := make([]RoundRobinRound, 0, m-1)

	for r := 0; r < m-1; r++ {
		t := rotation(r, m)
		round := RoundRobinRound{Index: r}

		home, away := t, fixed
		if r%2 == 1 {
			home, away = fixed, t
		}
		round.addPairing(home, away, n)

		for i := 1; i < m/2; i++ {
			a := (t + i) % (m - 1)
			b := (t - i + m - 1) % (m - 1)
			round.addPairing(a, b, n)
		}
		rounds = append(rounds, round)
	}
	return rounds
}

func (r *RoundRobinRound) addPairing(a, b, n int) {
	switch {
	case a >= n:
		bye := b
		r.Bye = &bye
	case b >= n:
		bye := a
		r.Bye = &bye
	default:
		r.Pairings = append(r.Pairings, Pairing{Home: a, Away: b})
	}
}

func customSchedule(n int, p *CustomPattern) ([]RoundRobinRound, error) {
	if p.ParticipantsCount != n {
		return nil, fmt.Errorf("%w: pattern is for %d participants, group has %d", ErrInvalidCustomPattern, p.ParticipantsCount, n)
	}
	if len(p.Rounds) == 0 {
		return nil, fmt.Errorf("%w: no rounds", ErrInvalidCustomPattern)
	}

	seen := make(map[[2]int]bool)
	rounds := make([]RoundRobinRound, 0, len(p.Rounds))
	for ri, raw := range p.Rounds {
		round := RoundRobinRound{Index: ri}
		busy := make(map[int]bool, n)
		for _, pair := range raw {
			a, b := pair[0]-1, pair[1]-1
			if a < 0 || b < 0 || a >= n || b >= n || a == b {
				return nil, fmt.Errorf("%w: round %d has invalid pair %v", ErrInvalidCustomPattern, ri+1, pair)
			}
			if busy[a] || busy[b] {
				return nil, fmt.Errorf("%w: round %d uses a participant twice", ErrInvalidCustomPattern, ri+1)
			}
			busy[a], busy[b] = true, true

			key := [2]int{min(a, b), max(a, b)}
			if seen[key] {
				return nil, fmt.Errorf("%w: pair %v repeats in round %d", ErrInvalidCustomPattern, pair, ri+1)
			}
			seen[key] = true
			round.Pairings = append(round.Pairings, Pairing{Home: a, Away: b})
		}
		if n%2 == 1 {
			for i := 0; i < n; i++ {
				if !busy[i] {
					bye := i
					round.Bye = &bye
					break
				}
			}
		}
		rounds = append(rounds, round)
	}
	return rounds, nil
}

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket creates the fixtures of one group using the tournament's pattern.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	tournament := params.Tournament
	ids := entryIDs(params.Entries)

	var custom *CustomPattern
	if tournament.RoundRobinPattern == models.PatternCustom && tournament.CustomPatternJSON != nil {
		p, err := ParseCustomPattern(*tournament.CustomPatternJSON)
		if err != nil {
			return nil, err
		}
		custom = p
	}

	rounds, err := RoundRobinSchedule(len(ids), tournament.RoundRobinPattern, custom)
	if err != nil {
		return nil, err
	}

	group := 0
	if params.GroupIndex != nil {
		group = *params.GroupIndex
	}

	matches := make([]*BracketMatch, 0, len(ids)*(len(ids)-1)/2)
	for _, round := range rounds {
		for order, p := range round.Pairings {
			matches = append(matches, &BracketMatch{
				UID:          fmt.Sprintf("G%dR%dM%d", group, round.Index+1, order+1),
				Round:        round.Index + 1,
				RoundName:    fmt.Sprintf("Round %d", round.Index+1),
				OrderInRound: order + 1,
				GroupIndex:   params.GroupIndex,
				Side1:        []int{ids[p.Home]},
				Side2:        []int{ids[p.Away]},
			})
		}
	}
	return matches, nil
}
