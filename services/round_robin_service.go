package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/beach-tennis-system/brackets"
	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/repositories"
)

type ScheduledPairing struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// ScheduledRound is a round robin round with entrant ids instead of indices.
type ScheduledRound struct {
	Index    int                `json:"index"`
	Pairings []ScheduledPairing `json:"pairings"`
	Bye      *int               `json:"bye,omitempty"`
}

type RoundRobinService interface {
	GenerateRoundRobinSchedule(entrantIDs []int, pattern models.RoundRobinPattern, custom *brackets.CustomPattern) ([]ScheduledRound, error)
	GenerateRoundRobinMatches(ctx context.Context, tournamentID int) (int, error)
}

type roundRobinService struct {
	deps      Deps
	generator brackets.BracketGenerator
}

func NewRoundRobinService(deps Deps) RoundRobinService {
	return &roundRobinService{deps: deps.withDefaults(), generator: brackets.NewRoundRobinGenerator()}
}

func (s *roundRobinService) GenerateRoundRobinSchedule(entrantIDs []int, pattern models.RoundRobinPattern, custom *brackets.CustomPattern) ([]ScheduledRound, error) {
	seen := make(map[int]bool, len(entrantIDs))
	for _, id := range entrantIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: entrant %d is listed twice", ErrEntrantsNotUniqueInput, id)
		}
		seen[id] = true
	}

	rounds, err := brackets.RoundRobinSchedule(len(entrantIDs), pattern, custom)
	if err != nil {
		return nil, err
	}
	out := make([]ScheduledRound, 0, len(rounds))
	for _, r := range rounds {
		sr := ScheduledRound{Index: r.Index, Pairings: make([]ScheduledPairing, 0, len(r.Pairings))}
		for _, p := range r.Pairings {
			sr.Pairings = append(sr.Pairings, ScheduledPairing{Home: entrantIDs[p.Home], Away: entrantIDs[p.Away]})
		}
		if r.Bye != nil {
			sr.Bye = intPtr(entrantIDs[*r.Bye])
		}
		out = append(out, sr)
	}
	return out, nil
}

// GenerateRoundRobinMatches stores every group's fixtures. Existing matches
// of a pair are kept with their sets; pairs that left the group are deleted.
func (s *roundRobinService) GenerateRoundRobinMatches(ctx context.Context, tournamentID int) (int, error) {
	stage := models.StageGroup
	data, err := s.deps.loadTournamentData(ctx, tournamentID, repositories.MatchFilter{Stage: &stage})
	if err != nil {
		return 0, err
	}
	if data.tournament.System != models.SystemRoundRobin {
		return 0, fmt.Errorf("tournament %d is %s: %w", tournamentID, data.tournament.System, ErrWrongTournamentSystem)
	}

	planned := make(map[int][]*models.Match)
	for _, g := range groupIndexes(data.entries) {
		entries := data.group(g)
		bms, err := s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
			Tournament: data.tournament,
			Entries:    entries,
			GroupIndex: intPtr(g),
		})
		if err != nil {
			return 0, fmt.Errorf("group %d: %w", g, err)
		}

		teamOfEntry := make(map[int]int, len(entries))
		for _, e := range entries {
			teamOfEntry[e.ID] = e.TeamID
		}
		for _, bm := range bms {
			planned[g] = append(planned[g], &models.Match{
				TournamentID: tournamentID,
				Stage:        models.StageGroup,
				GroupIndex:   intPtr(g),
				RoundIndex:   intPtr(bm.Round),
				RoundName:    bm.RoundName,
				OrderInRound: bm.OrderInRound,
				Team1ID:      intPtr(teamOfEntry[bm.Side1[0]]),
				Team2ID:      intPtr(teamOfEntry[bm.Side2[0]]),
				Status:       models.MatchScheduled,
			})
		}
	}

	created := 0
	err = s.deps.mutate(ctx, []int{tournamentID}, func(exec repositories.SQLExecutor) error {
		created = 0
		for _, g := range sortedKeys(planned) {
			existing, err := s.deps.Repos.Matches.ListByTournament(ctx, exec, tournamentID, repositories.MatchFilter{Stage: &stage, GroupIndex: intPtr(g)})
			if err != nil {
				return fmt.Errorf("failed to list matches of group %d: %w", g, err)
			}
			n, err := syncGroupMatches(ctx, exec, s.deps.Repos.Matches, existing, planned[g])
			if err != nil {
				return err
			}
			created += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.deps.Logger.Info("round robin matches generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("groups", len(planned)),
		slog.Int("created", created))
	s.deps.Notifier.NotifyTournament(tournamentID, brackets.EventScheduleUpdated, map[string]int{"created": created})
	return created, nil
}
