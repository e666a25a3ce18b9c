package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/beach-tennis-system/brackets"
	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/repositories"
	"github.com/Dosada05/beach-tennis-system/scoring"
)

// --- match helpers ---

func findMatch(matches []*models.Match, id int) *models.Match {
	for _, m := range matches {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// saveMatches persists the state of every changed match and drops the sets of
// matches whose result was undone.
func saveMatches(ctx context.Context, exec repositories.SQLExecutor, repo repositories.MatchRepository, changed []*models.Match, cleared []int) error {
	sort.SliceStable(changed, func(i, j int) bool { return changed[i].ID < changed[j].ID })
	for _, m := range changed {
		if err := repo.UpdateState(ctx, exec, m); err != nil {
			return fmt.Errorf("failed to update match %d: %w", m.ID, handleRepositoryError(err))
		}
	}
	if len(cleared) == 0 {
		return nil
	}
	if err := repo.DeleteSets(ctx, exec, uniqueSorted(cleared)); err != nil {
		return fmt.Errorf("failed to delete sets of reset matches: %w", err)
	}
	for _, m := range changed {
		for _, id := range cleared {
			if m.ID == id {
				m.Sets = nil
			}
		}
	}
	return nil
}

// completeKnockoutMatch fixes the winner of m from its sets and pushes it
// through the bracket. m must be one of the advancer's matches.
func completeKnockoutMatch(adv *brackets.Advancer, m *models.Match, format models.MatchFormat, now time.Time) (brackets.ResetResult, error) {
	if m.WinnerID == nil {
		if m.Team1ID == nil || m.Team2ID == nil {
			return brackets.ResetResult{}, fmt.Errorf("match %d: %w", m.ID, ErrMatchNotReady)
		}
		side, err := scoring.KnockoutWinner(m.Sets, format)
		if err != nil {
			return brackets.ResetResult{}, fmt.Errorf("match %d: %w", m.ID, err)
		}
		m.WinnerID = winnerOf(m, side)
	}
	if m.Status != models.MatchCompleted {
		m.Status = models.MatchCompleted
		m.FinishedAt = &now
	}

	res, err := adv.Advance(m)
	if err != nil {
		return res, err
	}
	res.Changed = append(res.Changed, m)
	return res, nil
}

func winnerOf(m *models.Match, side scoring.Side) *int {
	switch side {
	case scoring.Side1:
		return intPtr(*m.Team1ID)
	case scoring.Side2:
		return intPtr(*m.Team2ID)
	}
	return nil
}

func dedupMatches(ms []*models.Match) []*models.Match {
	seen := make(map[*models.Match]bool, len(ms))
	out := ms[:0]
	for _, m := range ms {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func uniqueSorted(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}
