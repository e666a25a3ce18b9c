package standings

import (
	"fmt"
	"math"
	"sort"

	"github.com/Dosada05/beach-tennis-system/models"
)

type roundEntry struct {
	round int
	stats Stats
}

// KingStandings aggregates a King group under one of the calculation modes.
//
//   - NO: every round counts.
//   - G−: each player counts only their first min(played) rounds.
//   - M+: every round counts and players with fewer rounds than the group
//     maximum are credited round(avg games won per round) for each missing
//     round. Wins are always 0 in this mode.
func KingStandings(entrants []int, results []Result, mode models.KingCalculationMode, format models.MatchFormat) (map[int]*Stats, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w %q", ErrUnknownKingMode, mode)
	}

	logs := make(map[int][]roundEntry, len(entrants))
	for _, id := range entrants {
		logs[id] = nil
	}
	for _, r := range results {
		s1, s2 := sideStats(r, format, false)
		for _, id := range r.Side1 {
			logs[id] = append(logs[id], roundEntry{round: r.Round, stats: s1})
		}
		for _, id := range r.Side2 {
			logs[id] = append(logs[id], roundEntry{round: r.Round, stats: s2})
		}
	}

	minPlayed, maxPlayed := math.MaxInt, 0
	for id, log := range logs {
		sort.SliceStable(log, func(i, j int) bool { return log[i].round < log[j].round })
		logs[id] = log
		minPlayed = min(minPlayed, len(log))
		maxPlayed = max(maxPlayed, len(log))
	}
	if len(logs) == 0 {
		minPlayed = 0
	}

	out := make(map[int]*Stats, len(logs))
	for id, log := range logs {
		counted := log
		if mode == models.KingModeGMinus && len(counted) > minPlayed {
			counted = counted[:minPlayed]
		}

		total := &Stats{EntrantID: id}
		for _, e := range counted {
			total.add(e.stats)
		}

		if mode == models.KingModeMPlus {
			if played := len(log); played > 0 && played < maxPlayed {
				avg := float64(total.GamesWon) / float64(played)
				total.GamesWon += int(math.RoundToEven(avg)) * (maxPlayed - played)
			}
			total.Wins = 0
		}
		out[id] = total
	}
	return out, nil
}
