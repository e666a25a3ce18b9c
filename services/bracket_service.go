package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/Dosada05/beach-tennis-system/brackets"
	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/repositories"
)

type BracketService interface {
	GenerateKnockoutBracket(ctx context.Context, tournamentID, size int, hasThirdPlace bool) (*models.KnockoutBracket, error)
	SeedBracket(ctx context.Context, bracketID int, entryIDs []int) (*models.KnockoutBracket, error)
	AdvanceWinner(ctx context.Context, matchID int) (*models.Match, error)
	ResetMatch(ctx context.Context, matchID int) (*models.Match, error)
	GetBracket(ctx context.Context, bracketID int) (*models.KnockoutBracket, error)
}

type bracketService struct {
	deps            Deps
	specialPlayerID *int
	now             func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewBracketService creates the knockout service. rng orders equal ratings
// and unseeded entrants; nil means a time-seeded source.
func NewBracketService(deps Deps, specialPlayerID *int, rng *rand.Rand) BracketService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &bracketService{
		deps:            deps.withDefaults(),
		specialPlayerID: specialPlayerID,
		now:             time.Now,
		rng:             rng,
	}
}

// GenerateKnockoutBracket creates an empty bracket. A zero size is derived
// from the planned participant count split over GroupsCount brackets.
func (s *bracketService) GenerateKnockoutBracket(ctx context.Context, tournamentID, size int, hasThirdPlace bool) (*models.KnockoutBracket, error) {
	t, err := s.deps.Repos.Tournaments.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	if size == 0 {
		size, err = brackets.BracketSize(t.PlannedParticipantCount, max(t.GroupsCount, 1))
	} else {
		err = brackets.ValidateBracketSize(size)
	}
	if err != nil {
		return nil, err
	}
	structure, err := brackets.BuildKnockoutMatches(size, hasThirdPlace)
	if err != nil {
		return nil, err
	}

	bracket := &models.KnockoutBracket{TournamentID: t.ID, Size: size, HasThirdPlace: hasThirdPlace && size >= 4}
	err = s.deps.mutate(ctx, []int{t.ID}, func(exec repositories.SQLExecutor) error {
		if err := s.deps.Repos.Brackets.Create(ctx, exec, bracket); err != nil {
			return handleRepositoryError(err)
		}

		bracket.Positions = make([]models.DrawPosition, size)
		for i := range bracket.Positions {
			bracket.Positions[i] = models.DrawPosition{BracketID: bracket.ID, Position: i + 1, Source: models.DrawMain}
		}
		if err := s.deps.Repos.Brackets.ReplacePositions(ctx, exec, bracket.ID, bracket.Positions); err != nil {
			return handleRepositoryError(err)
		}

		bracket.Matches = make([]*models.Match, 0, len(structure))
		for _, bm := range structure {
			m := &models.Match{
				TournamentID: t.ID,
				BracketID:    intPtr(bracket.ID),
				Stage:        models.StagePlayoff,
				RoundIndex:   intPtr(bm.Round),
				RoundName:    bm.RoundName,
				OrderInRound: bm.OrderInRound,
				IsThirdPlace: bm.IsThirdPlace,
				Status:       models.MatchScheduled,
			}
			if err := s.deps.Repos.Matches.Create(ctx, exec, m); err != nil {
				return fmt.Errorf("failed to create match %s of bracket %d: %w", bm.UID, bracket.ID, handleRepositoryError(err))
			}
			bracket.Matches = append(bracket.Matches, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.Info("knockout bracket generated",
		slog.Int("tournament_id", t.ID),
		slog.Int("bracket_id", bracket.ID),
		slog.Int("size", size),
		slog.Int("matches", len(bracket.Matches)))
	s.deps.Notifier.NotifyTournament(t.ID, brackets.EventBracketGenerated, bracket)
	return bracket, nil
}

// SeedBracket draws the entries into the bracket and rebuilds its first
// round. An empty entryIDs seeds every entry of the tournament that is not
// already drawn into another of its brackets. Previous results of the
// bracket are discarded.
func (s *bracketService) SeedBracket(ctx context.Context, bracketID int, entryIDs []int) (*models.KnockoutBracket, error) {
	bracket, err := s.deps.Repos.Brackets.GetByID(ctx, nil, bracketID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	data, err := s.deps.loadTournamentData(ctx, bracket.TournamentID, repositories.MatchFilter{})
	if err != nil {
		return nil, err
	}

	entries, err := s.selectEntries(ctx, data, bracket, entryIDs)
	if err != nil {
		return nil, err
	}
	entrants := make([]brackets.SeedEntrant, 0, len(entries))
	for _, e := range entries {
		entrants = append(entrants, brackets.SeedEntrant{
			EntryID: e.ID,
			Rating:  teamRating(e.Team),
			Special: s.isSpecial(e.Team),
		})
	}

	s.rngMu.Lock()
	positions, err := brackets.Draw(bracket.Size, entrants, s.rng)
	s.rngMu.Unlock()
	if err != nil {
		return nil, err
	}
	for i := range positions {
		positions[i].BracketID = bracket.ID
	}

	teamOfEntry := make(map[int]int, len(entries))
	for _, e := range entries {
		teamOfEntry[e.ID] = e.TeamID
	}

	err = s.deps.mutate(ctx, []int{bracket.TournamentID}, func(exec repositories.SQLExecutor) error {
		if err := s.deps.Repos.Brackets.ReplacePositions(ctx, exec, bracket.ID, positions); err != nil {
			return handleRepositoryError(err)
		}
		matches, err := s.deps.Repos.Matches.ListByTournament(ctx, exec, bracket.TournamentID, repositories.MatchFilter{BracketID: &bracket.ID})
		if err != nil {
			return fmt.Errorf("failed to list matches of bracket %d: %w", bracket.ID, err)
		}

		cleared := make([]int, 0, len(matches))
		for _, m := range matches {
			m.Team1ID, m.Team2ID, m.WinnerID = nil, nil, nil
			m.Status = models.MatchScheduled
			m.StartedAt, m.FinishedAt = nil, nil
			m.Normalize()
			cleared = append(cleared, m.ID)
		}
		fillFirstRound(matches, positions, teamOfEntry)

		adv := brackets.NewAdvancer(matches)
		byes := adv.CompleteByes()
		for _, m := range byes.Changed {
			if m.Status == models.MatchCompleted && m.FinishedAt == nil {
				now := s.now()
				m.FinishedAt = &now
			}
		}
		if err := saveMatches(ctx, exec, s.deps.Repos.Matches, matches, cleared); err != nil {
			return err
		}
		bracket.Positions = positions
		bracket.Matches = matches
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.Info("knockout bracket seeded",
		slog.Int("tournament_id", bracket.TournamentID),
		slog.Int("bracket_id", bracket.ID),
		slog.Int("entrants", len(entrants)))
	s.deps.Notifier.NotifyTournament(bracket.TournamentID, brackets.EventBracketSeeded, bracket)
	return bracket, nil
}

func (s *bracketService) selectEntries(ctx context.Context, data *tournamentData, bracket *models.KnockoutBracket, entryIDs []int) ([]*models.TournamentEntry, error) {
	if len(entryIDs) == 0 {
		drawn, err := s.drawnElsewhere(ctx, bracket)
		if err != nil {
			return nil, err
		}
		out := make([]*models.TournamentEntry, 0, len(data.entries))
		for _, e := range data.entries {
			if !drawn[e.ID] {
				out = append(out, e)
			}
		}
		return out, nil
	}
	byID := make(map[int]*models.TournamentEntry, len(data.entries))
	for _, e := range data.entries {
		byID[e.ID] = e
	}
	seen := make(map[int]bool, len(entryIDs))
	out := make([]*models.TournamentEntry, 0, len(entryIDs))
	for _, id := range entryIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: entry %d is listed twice", ErrEntrantsNotUniqueInput, id)
		}
		seen[id] = true
		e, ok := byID[id]
		if !ok {
			if _, err := s.deps.Repos.Entries.GetByID(ctx, nil, id); err != nil {
				return nil, fmt.Errorf("entry %d: %w", id, handleRepositoryError(err))
			}
			return nil, fmt.Errorf("entry %d of tournament %d: %w", id, data.tournament.ID, ErrEntryNotInTournament)
		}
		out = append(out, e)
	}
	return out, nil
}

// drawnElsewhere collects entries placed in the other brackets of the tournament.
func (s *bracketService) drawnElsewhere(ctx context.Context, bracket *models.KnockoutBracket) (map[int]bool, error) {
	others, err := s.deps.Repos.Brackets.ListByTournament(ctx, nil, bracket.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brackets of tournament %d: %w", bracket.TournamentID, err)
	}
	drawn := make(map[int]bool)
	for _, other := range others {
		if other.ID == bracket.ID {
			continue
		}
		positions, err := s.deps.Repos.Brackets.ListPositions(ctx, nil, other.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list positions of bracket %d: %w", other.ID, err)
		}
		for _, p := range positions {
			if p.EntryID != nil {
				drawn[*p.EntryID] = true
			}
		}
	}
	return drawn, nil
}

func (s *bracketService) isSpecial(team *models.Team) bool {
	if s.specialPlayerID == nil || team == nil {
		return false
	}
	for _, id := range team.PlayerIDs() {
		if id == *s.specialPlayerID {
			return true
		}
	}
	return false
}

// teamRating is the mean current rating of the team's players; unrated
// players count as zero.
func teamRating(team *models.Team) int {
	if team == nil || len(team.Players) == 0 {
		return 0
	}
	sum := 0
	for _, p := range team.Players {
		if p != nil {
			sum += p.CurrentRating
		}
	}
	return sum / len(team.Players)
}

// fillFirstRound puts the drawn entries' teams into the first-round slots.
func fillFirstRound(matches []*models.Match, positions []models.DrawPosition, teamOfEntry map[int]int) {
	structure := make([]*brackets.BracketMatch, 0, len(matches))
	byOrder := make(map[int]*models.Match)
	for _, m := range matches {
		if m.Round() != 1 || m.IsThirdPlace {
			continue
		}
		structure = append(structure, &brackets.BracketMatch{Round: 1, OrderInRound: m.OrderInRound})
		byOrder[m.OrderInRound] = m
	}
	brackets.FillFirstRound(structure, positions)

	for _, bm := range structure {
		m := byOrder[bm.OrderInRound]
		if len(bm.Side1) == 1 {
			m.Team1ID = intPtr(teamOfEntry[bm.Side1[0]])
		}
		if len(bm.Side2) == 1 {
			m.Team2ID = intPtr(teamOfEntry[bm.Side2[0]])
		}
		m.Normalize()
	}
}

func (s *bracketService) AdvanceWinner(ctx context.Context, matchID int) (*models.Match, error) {
	return s.withKnockoutMatch(ctx, matchID, func(adv *brackets.Advancer, target *models.Match, t *models.Tournament) (brackets.ResetResult, error) {
		return completeKnockoutMatch(adv, target, t.Format, s.now())
	})
}

func (s *bracketService) ResetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	return s.withKnockoutMatch(ctx, matchID, func(adv *brackets.Advancer, target *models.Match, _ *models.Tournament) (brackets.ResetResult, error) {
		return adv.Reset(target)
	})
}

type bracketStep func(adv *brackets.Advancer, target *models.Match, t *models.Tournament) (brackets.ResetResult, error)

// withKnockoutMatch loads the whole bracket of a match inside one transaction,
// applies step and saves every match it touched.
func (s *bracketService) withKnockoutMatch(ctx context.Context, matchID int, step bracketStep) (*models.Match, error) {
	m, err := s.deps.Repos.Matches.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if m.BracketID == nil {
		return nil, fmt.Errorf("match %d: %w", matchID, ErrMatchNotInKnockout)
	}

	var (
		target  *models.Match
		changed []*models.Match
	)
	err = s.deps.mutate(ctx, []int{m.TournamentID}, func(exec repositories.SQLExecutor) error {
		t, err := s.deps.Repos.Tournaments.GetByID(ctx, exec, m.TournamentID)
		if err != nil {
			return handleRepositoryError(err)
		}
		matches, err := s.deps.Repos.Matches.ListByTournament(ctx, exec, m.TournamentID, repositories.MatchFilter{BracketID: m.BracketID})
		if err != nil {
			return fmt.Errorf("failed to list matches of bracket %d: %w", *m.BracketID, err)
		}
		target = findMatch(matches, matchID)
		if target == nil {
			return ErrMatchNotFound
		}

		res, err := step(brackets.NewAdvancer(matches), target, t)
		if err != nil {
			return err
		}
		changed = dedupMatches(res.Changed)
		return saveMatches(ctx, exec, s.deps.Repos.Matches, changed, res.ClearedMatchIDs)
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.Info("knockout bracket updated",
		slog.Int("tournament_id", target.TournamentID),
		slog.Int("match_id", target.ID),
		slog.Int("changed", len(changed)))
	for _, c := range changed {
		s.deps.Notifier.NotifyTournament(c.TournamentID, brackets.EventMatchUpdated, c)
	}
	return target, nil
}

func (s *bracketService) GetBracket(ctx context.Context, bracketID int) (*models.KnockoutBracket, error) {
	b, err := s.deps.Repos.Brackets.GetByID(ctx, nil, bracketID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	positions, err := s.deps.Repos.Brackets.ListPositions(ctx, nil, b.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions of bracket %d: %w", b.ID, err)
	}
	matches, err := s.deps.Repos.Matches.ListByTournament(ctx, nil, b.TournamentID, repositories.MatchFilter{BracketID: &b.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of bracket %d: %w", b.ID, err)
	}
	b.Positions, b.Matches = positions, matches
	return b, nil
}
