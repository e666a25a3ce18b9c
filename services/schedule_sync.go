package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/repositories"
)

type pairKey struct {
	low, high  int
	occurrence int
}

func pairKeys(matches []*models.Match) []pairKey {
	seen := make(map[[2]int]int, len(matches))
	keys := make([]pairKey, len(matches))
	for i, m := range matches {
		if m.Team1ID == nil || m.Team2ID == nil {
			keys[i] = pairKey{occurrence: -1 - i}
			continue
		}
		low, high := models.NormalizedPair(*m.Team1ID, *m.Team2ID)
		keys[i] = pairKey{low: low, high: high, occurrence: seen[[2]int{low, high}]}
		seen[[2]int{low, high}]++
	}
	return keys
}

// syncGroupMatches makes the stored matches of one group equal to desired.
// Matches are matched by normalised team pair, so recorded sets survive a
// regeneration; stored matches without a desired pair are deleted with their
// sets. Returns the number of created matches.
func syncGroupMatches(ctx context.Context, exec repositories.SQLExecutor, repo repositories.MatchRepository, existing, desired []*models.Match) (int, error) {
	stored := make(map[pairKey]*models.Match, len(existing))
	for i, key := range pairKeys(existing) {
		stored[key] = existing[i]
	}

	created := 0
	for i, key := range pairKeys(desired) {
		want := desired[i]
		if have, ok := stored[key]; ok && key.occurrence >= 0 {
			delete(stored, key)
			if have.Round() != want.Round() || have.OrderInRound != want.OrderInRound || have.RoundName != want.RoundName {
				have.RoundIndex, have.RoundName, have.OrderInRound = want.RoundIndex, want.RoundName, want.OrderInRound
				if err := repo.UpdateSchedule(ctx, exec, have); err != nil {
					return created, fmt.Errorf("failed to move match %d: %w", have.ID, handleRepositoryError(err))
				}
			}
			*want = *have
			continue
		}
		if err := repo.Create(ctx, exec, want); err != nil {
			return created, fmt.Errorf("failed to create group match: %w", handleRepositoryError(err))
		}
		created++
	}

	if len(stored) == 0 {
		return created, nil
	}
	stale := make([]int, 0, len(stored))
	for _, m := range stored {
		stale = append(stale, m.ID)
	}
	if err := repo.DeleteByIDs(ctx, exec, uniqueSorted(stale)); err != nil {
		return created, err
	}
	return created, nil
}
