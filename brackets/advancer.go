package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/beach-tennis-system/models"
)

var (
	ErrMatchNotInBracket = errors.New("match does not belong to the bracket")
	ErrMatchHasNoWinner  = errors.New("match has no winner")
	ErrByeMatchReset     = errors.New("bye match cannot be reset")
)

type slotKey struct {
	round int
	order int
}

// Advancer moves results through one knockout bracket. It mutates the matches
// it was built from and reports which of them changed.
type Advancer struct {
	matches    map[slotKey]*models.Match
	byID       map[int]*models.Match
	thirdPlace *models.Match
	finalRound int
}

func NewAdvancer(matches []*models.Match) *Advancer {
	a := &Advancer{
		matches: make(map[slotKey]*models.Match, len(matches)),
		byID:    make(map[int]*models.Match, len(matches)),
	}
	for _, m := range matches {
		a.byID[m.ID] = m
		if m.IsThirdPlace {
			a.thirdPlace = m
			continue
		}
		a.matches[slotKey{m.Round(), m.OrderInRound}] = m
		if m.Round() > a.finalRound {
			a.finalRound = m.Round()
		}
	}
	return a
}

func (a *Advancer) next(m *models.Match) *models.Match {
	if m.IsThirdPlace || m.Round() >= a.finalRound {
		return nil
	}
	return a.matches[slotKey{m.Round() + 1, (m.OrderInRound + 1) / 2}]
}

// IsBye reports whether m is a first-round match with a single team.
func IsBye(m *models.Match) bool {
	if m.IsThirdPlace || m.Round() != 1 {
		return false
	}
	return (m.Team1ID == nil) != (m.Team2ID == nil)
}

func (a *Advancer) isSemifinal(m *models.Match) bool {
	return !m.IsThirdPlace && a.finalRound > 1 && m.Round() == a.finalRound-1
}

// nextSlot points at the slot of the next match fed by m.
func nextSlot(next *models.Match, order int) **int {
	if order%2 == 1 {
		return &next.Team1ID
	}
	return &next.Team2ID
}

func thirdPlaceSlot(third *models.Match, semiOrder int) **int {
	if semiOrder == 1 {
		return &third.Team1ID
	}
	return &third.Team2ID
}

func sameTeam(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ResetResult lists matches to save and matches whose sets must be deleted.
type ResetResult struct {
	Changed         []*models.Match
	ClearedMatchIDs []int
}

func (r *ResetResult) touch(m *models.Match) {
	for _, c := range r.Changed {
		if c == m {
			return
		}
	}
	r.Changed = append(r.Changed, m)
}

// Advance writes the winner of m into the next round and, for a semifinal,
// its loser into the third-place match. If a downstream slot already held a
// different team with a result, that result is reset first.
func (a *Advancer) Advance(m *models.Match) (ResetResult, error) {
	var res ResetResult
	if _, ok := a.byID[m.ID]; !ok {
		return res, fmt.Errorf("%w: match %d", ErrMatchNotInBracket, m.ID)
	}
	if m.WinnerID == nil {
		return res, fmt.Errorf("%w: match %d", ErrMatchHasNoWinner, m.ID)
	}

	if next := a.next(m); next != nil {
		a.place(next, nextSlot(next, m.OrderInRound), m.WinnerID, &res)
	}
	if a.isSemifinal(m) && a.thirdPlace != nil {
		if loser := m.Loser(); loser != nil {
			a.place(a.thirdPlace, thirdPlaceSlot(a.thirdPlace, m.OrderInRound), loser, &res)
		}
	}
	return res, nil
}

func (a *Advancer) place(target *models.Match, slot **int, team *int, res *ResetResult) {
	if sameTeam(*slot, team) {
		return
	}
	if target.WinnerID != nil {
		a.reset(target, res)
	}
	id := *team
	*slot = &id
	target.Normalize()
	res.touch(target)
}

// Reset undoes the result of m and clears every downstream slot it filled,
// cascading through matches that already had results. BYE matches stay
// completed; only a new draw changes them.
func (a *Advancer) Reset(m *models.Match) (ResetResult, error) {
	var res ResetResult
	if _, ok := a.byID[m.ID]; !ok {
		return res, fmt.Errorf("%w: match %d", ErrMatchNotInBracket, m.ID)
	}
	if IsBye(m) {
		return res, fmt.Errorf("%w: match %d", ErrByeMatchReset, m.ID)
	}
	a.reset(m, &res)
	return res, nil
}

func (a *Advancer) reset(m *models.Match, res *ResetResult) {
	winner, loser := m.WinnerID, m.Loser()

	m.WinnerID = nil
	m.Status = models.MatchScheduled
	m.FinishedAt = nil
	res.touch(m)
	res.ClearedMatchIDs = append(res.ClearedMatchIDs, m.ID)

	if winner == nil {
		return
	}
	if next := a.next(m); next != nil {
		a.clear(next, nextSlot(next, m.OrderInRound), winner, res)
	}
	if a.isSemifinal(m) && a.thirdPlace != nil && loser != nil {
		a.clear(a.thirdPlace, thirdPlaceSlot(a.thirdPlace, m.OrderInRound), loser, res)
	}
}

func (a *Advancer) clear(target *models.Match, slot **int, team *int, res *ResetResult) {
	if !sameTeam(*slot, team) {
		return
	}
	if target.WinnerID != nil {
		a.reset(target, res)
	}
	*slot = nil
	target.Normalize()
	res.touch(target)
}

// CompleteByes finishes first-round matches that have a single team and
// advances that team.
func (a *Advancer) CompleteByes() ResetResult {
	var res ResetResult
	for order := 1; ; order++ {
		m, ok := a.matches[slotKey{1, order}]
		if !ok {
			break
		}
		var team *int
		switch {
		case m.Team1ID != nil && m.Team2ID == nil:
			team = m.Team1ID
		case m.Team2ID != nil && m.Team1ID == nil:
			team = m.Team2ID
		default:
			continue
		}
		id := *team
		m.WinnerID = &id
		m.Status = models.MatchCompleted
		res.touch(m)
		if next := a.next(m); next != nil {
			a.place(next, nextSlot(next, m.OrderInRound), m.WinnerID, &res)
		}
	}
	return res
}
