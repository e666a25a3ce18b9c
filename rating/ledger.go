// Package rating replays tournaments into Elo-style player ratings.
package rating

import "sort"

// Ledger is an immutable snapshot of player ratings. Every change produces a
// new Ledger, so a recompute never observes a half-applied tournament.
type Ledger struct {
	ratings map[int]int
}

func NewLedger(ratings map[int]int) Ledger {
	cp := make(map[int]int, len(ratings))
	for id, r := range ratings {
		cp[id] = r
	}
	return Ledger{ratings: cp}
}

// Rating returns the player's rating; ok is false when the player has none
// or it is not positive.
func (l Ledger) Rating(playerID int) (int, bool) {
	r, ok := l.ratings[playerID]
	return r, ok && r > 0
}

// With returns a new ledger with the given ratings replaced.
func (l Ledger) With(updates map[int]int) Ledger {
	next := make(map[int]int, len(l.ratings)+len(updates))
	for id, r := range l.ratings {
		next[id] = r
	}
	for id, r := range updates {
		next[id] = r
	}
	return Ledger{ratings: next}
}

func (l Ledger) Snapshot() map[int]int {
	cp := make(map[int]int, len(l.ratings))
	for id, r := range l.ratings {
		cp[id] = r
	}
	return cp
}

func (l Ledger) PlayerIDs() []int {
	ids := make([]int, 0, len(l.ratings))
	for id := range l.ratings {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (l Ledger) Len() int { return len(l.ratings) }
