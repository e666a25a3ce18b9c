package locks

import (
	"context"
	"fmt"
	"sort"
)

// Locker serialises work on a set of keys. The returned release func must be
// called exactly once.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (release func(), err error)
}

func TournamentKey(id int) string {
	return fmt.Sprintf("tournament:%d", id)
}

func TournamentKeys(ids ...int) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, TournamentKey(id))
	}
	return keys
}

// normalize sorts and dedups keys so every caller acquires them in the same order.
func normalize(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	n := 0
	for i, k := range out {
		if i > 0 && k == out[n-1] {
			continue
		}
		out[n] = k
		n++
	}
	return out[:n]
}

type chain []Locker

// Chain acquires the lockers in order and releases them in reverse.
func Chain(lockers ...Locker) Locker {
	var c chain
	for _, l := range lockers {
		if l != nil {
			c = append(c, l)
		}
	}
	return c
}

func (c chain) Lock(ctx context.Context, keys ...string) (func(), error) {
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, l := range c {
		release, err := l.Lock(ctx, keys...)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}
