package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/beach-tennis-system/brackets"
	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/repositories"
	"github.com/Dosada05/beach-tennis-system/scoring"
)

type MatchService interface {
	RecordResult(ctx context.Context, matchID int, sets []models.MatchSet) (*models.Match, error)
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	ListMatches(ctx context.Context, tournamentID int, filter repositories.MatchFilter) ([]*models.Match, error)
}

type matchService struct {
	deps Deps
	now  func() time.Time
}

func NewMatchService(deps Deps) MatchService {
	return &matchService{deps: deps.withDefaults(), now: time.Now}
}

// RecordResult replaces the sets of a match and decides its winner. A
// knockout winner moves on through the bracket; empty sets undo the result.
func (s *matchService) RecordResult(ctx context.Context, matchID int, sets []models.MatchSet) (*models.Match, error) {
	m, err := s.deps.Repos.Matches.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	t, err := s.deps.Repos.Tournaments.GetByID(ctx, nil, m.TournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if err := scoring.ValidateSets(sets, t.Format); err != nil {
		return nil, err
	}
	for i := range sets {
		sets[i].MatchID = matchID
	}

	var changed []*models.Match
	err = s.deps.mutate(ctx, []int{m.TournamentID}, func(exec repositories.SQLExecutor) error {
		if m.BracketID != nil {
			changed, err = s.recordKnockout(ctx, exec, t, m, sets)
			return err
		}

		current, err := s.deps.Repos.Matches.GetByID(ctx, exec, matchID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if err := s.applyGroupResult(current, sets, t.Format); err != nil {
			return err
		}
		if err := s.deps.Repos.Matches.ReplaceSets(ctx, exec, current.ID, sets); err != nil {
			return handleRepositoryError(err)
		}
		if err := s.deps.Repos.Matches.UpdateState(ctx, exec, current); err != nil {
			return handleRepositoryError(err)
		}
		changed = []*models.Match{current}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var result *models.Match
	for _, c := range changed {
		if c.ID == matchID {
			result = c
		}
		s.deps.Notifier.NotifyTournament(c.TournamentID, brackets.EventMatchUpdated, c)
	}
	s.deps.Logger.Info("match result recorded",
		slog.Int("tournament_id", m.TournamentID),
		slog.Int("match_id", matchID),
		slog.Int("sets", len(sets)),
		slog.Int("changed", len(changed)))
	return result, nil
}

func (s *matchService) applyGroupResult(m *models.Match, sets []models.MatchSet, format models.MatchFormat) error {
	m.Sets = sets
	if len(sets) == 0 {
		m.WinnerID = nil
		m.Status = models.MatchScheduled
		m.FinishedAt = nil
		return nil
	}
	if m.Team1ID == nil || m.Team2ID == nil {
		return fmt.Errorf("match %d: %w", m.ID, ErrMatchNotReady)
	}

	out := scoring.Evaluate(sets, format)
	if out.Winner == scoring.SideNone && !format.FreeFormat {
		return fmt.Errorf("match %d: %w: sets %d:%d", m.ID, scoring.ErrCannotDetermineWinner, out.Team1Sets, out.Team2Sets)
	}
	m.WinnerID = winnerOf(m, out.Winner)
	m.Status = models.MatchCompleted
	now := s.now()
	m.FinishedAt = &now
	return nil
}

func (s *matchService) recordKnockout(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, m *models.Match, sets []models.MatchSet) ([]*models.Match, error) {
	matches, err := s.deps.Repos.Matches.ListByTournament(ctx, exec, m.TournamentID, repositories.MatchFilter{BracketID: m.BracketID})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of bracket %d: %w", *m.BracketID, err)
	}
	target := findMatch(matches, m.ID)
	if target == nil {
		return nil, ErrMatchNotFound
	}
	adv := brackets.NewAdvancer(matches)

	var res brackets.ResetResult
	if len(sets) == 0 {
		res, err = adv.Reset(target)
	} else {
		if target.Team1ID == nil || target.Team2ID == nil {
			return nil, fmt.Errorf("match %d: %w", target.ID, ErrMatchNotReady)
		}
		// the previous winner is replaced; Advance resets what it had reached
		target.Sets = sets
		target.WinnerID = nil
		res, err = completeKnockoutMatch(adv, target, t.Format, s.now())
	}
	if err != nil {
		return nil, err
	}

	changed := dedupMatches(res.Changed)
	if err := saveMatches(ctx, exec, s.deps.Repos.Matches, changed, res.ClearedMatchIDs); err != nil {
		return nil, err
	}
	if len(sets) > 0 {
		if err := s.deps.Repos.Matches.ReplaceSets(ctx, exec, target.ID, sets); err != nil {
			return nil, handleRepositoryError(err)
		}
		target.Sets = sets
	}
	return changed, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.deps.Repos.Matches.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return m, nil
}

func (s *matchService) ListMatches(ctx context.Context, tournamentID int, filter repositories.MatchFilter) ([]*models.Match, error) {
	if _, err := s.deps.Repos.Tournaments.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.deps.Repos.Matches.ListByTournament(ctx, nil, tournamentID, filter)
}
