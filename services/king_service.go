package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/beach-tennis-system/brackets"
	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/repositories"
)

type KingEntrant struct {
	EntryID  int    `json:"entry_id"`
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
}

// KingGroupSchedule is the schedule of one group. Rounds use 0-based indices
// into Entrants.
type KingGroupSchedule struct {
	GroupIndex int                  `json:"group_index"`
	Entrants   []KingEntrant        `json:"entrants"`
	Rounds     []brackets.KingRound `json:"rounds"`
}

type KingService interface {
	GenerateKingSchedule(ctx context.Context, tournamentID int) ([]KingGroupSchedule, error)
	PersistKingMatches(ctx context.Context, tournamentID int, groups []KingGroupSchedule) (int, error)
}

type kingService struct {
	deps      Deps
	generator brackets.BracketGenerator
}

func NewKingService(deps Deps) KingService {
	return &kingService{deps: deps.withDefaults(), generator: brackets.NewKingGenerator()}
}

func (s *kingService) load(ctx context.Context, tournamentID int) (*tournamentData, error) {
	stage := models.StageGroup
	data, err := s.deps.loadTournamentData(ctx, tournamentID, repositories.MatchFilter{Stage: &stage})
	if err != nil {
		return nil, err
	}
	if data.tournament.System != models.SystemKing {
		return nil, fmt.Errorf("tournament %d is %s: %w", tournamentID, data.tournament.System, ErrWrongTournamentSystem)
	}
	for _, e := range data.entries {
		if e.Team == nil || e.Team.Player2ID != nil {
			return nil, fmt.Errorf("entry %d: %w", e.ID, ErrKingEntryNotSingle)
		}
	}
	return data, nil
}

func kingRounds(t *models.Tournament, n int) ([]brackets.KingRound, error) {
	if t.KingScheduleJSON != nil {
		return brackets.ParseKingSchedule(*t.KingScheduleJSON, n)
	}
	return brackets.GenerateKingRounds(n)
}

func (s *kingService) GenerateKingSchedule(ctx context.Context, tournamentID int) ([]KingGroupSchedule, error) {
	data, err := s.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	out := make([]KingGroupSchedule, 0)
	for _, g := range groupIndexes(data.entries) {
		entries := data.group(g)
		rounds, err := kingRounds(data.tournament, len(entries))
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", g, err)
		}
		schedule := KingGroupSchedule{GroupIndex: g, Rounds: rounds}
		for _, e := range entries {
			schedule.Entrants = append(schedule.Entrants, KingEntrant{
				EntryID:  e.ID,
				PlayerID: e.Team.Player1ID,
				Name:     e.Team.DisplayName(),
			})
		}
		out = append(out, schedule)
	}
	return out, nil
}

// PersistKingMatches stores the schedules as doubles matches. Without groups
// the tournament's own schedule is generated.
func (s *kingService) PersistKingMatches(ctx context.Context, tournamentID int, groups []KingGroupSchedule) (int, error) {
	data, err := s.load(ctx, tournamentID)
	if err != nil {
		return 0, err
	}

	planned := make(map[int][]*brackets.BracketMatch)
	if len(groups) == 0 {
		for _, g := range groupIndexes(data.entries) {
			bms, err := s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
				Tournament: data.tournament,
				Entries:    data.group(g),
				GroupIndex: intPtr(g),
			})
			if err != nil {
				return 0, fmt.Errorf("group %d: %w", g, err)
			}
			planned[g] = bms
		}
	} else {
		for _, group := range groups {
			if _, dup := planned[group.GroupIndex]; dup {
				return 0, fmt.Errorf("%w: group %d is listed twice", ErrValidationFailed, group.GroupIndex)
			}
			bms, err := kingBracketMatches(data, group)
			if err != nil {
				return 0, err
			}
			planned[group.GroupIndex] = bms
		}
	}

	playerOfEntry := make(map[int]int, len(data.entries))
	for _, e := range data.entries {
		playerOfEntry[e.ID] = e.Team.Player1ID
	}

	created := 0
	err = s.deps.mutate(ctx, []int{tournamentID}, func(exec repositories.SQLExecutor) error {
		created = 0
		teams := newPairTeams(s.deps.Repos.Teams)
		stage := models.StageGroup
		for _, g := range sortedKeys(planned) {
			desired := make([]*models.Match, 0, len(planned[g]))
			for _, bm := range planned[g] {
				t1, err := teams.get(ctx, exec, playerOfEntry[bm.Side1[0]], playerOfEntry[bm.Side1[1]])
				if err != nil {
					return err
				}
				t2, err := teams.get(ctx, exec, playerOfEntry[bm.Side2[0]], playerOfEntry[bm.Side2[1]])
				if err != nil {
					return err
				}
				desired = append(desired, &models.Match{
					TournamentID: tournamentID,
					Stage:        models.StageGroup,
					GroupIndex:   intPtr(g),
					RoundIndex:   intPtr(bm.Round),
					RoundName:    bm.RoundName,
					OrderInRound: bm.OrderInRound,
					Team1ID:      intPtr(t1),
					Team2ID:      intPtr(t2),
					Status:       models.MatchScheduled,
				})
			}

			existing, err := s.deps.Repos.Matches.ListByTournament(ctx, exec, tournamentID, repositories.MatchFilter{Stage: &stage, GroupIndex: intPtr(g)})
			if err != nil {
				return fmt.Errorf("failed to list matches of group %d: %w", g, err)
			}
			n, err := syncGroupMatches(ctx, exec, s.deps.Repos.Matches, existing, desired)
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

	s.deps.Logger.Info("king matches persisted",
		slog.Int("tournament_id", tournamentID),
		slog.Int("groups", len(planned)),
		slog.Int("created", created))
	s.deps.Notifier.NotifyTournament(tournamentID, brackets.EventScheduleUpdated, map[string]int{"created": created})
	return created, nil
}

// kingBracketMatches checks a caller-supplied schedule against the group and
// maps its indices to entry ids.
func kingBracketMatches(data *tournamentData, group KingGroupSchedule) ([]*brackets.BracketMatch, error) {
	n := len(group.Entrants)
	if n < brackets.MinKingParticipants || n > brackets.MaxKingParticipants {
		return nil, fmt.Errorf("group %d has %d: %w", group.GroupIndex, n, brackets.ErrInvalidKingParticipants)
	}
	seen := make(map[int]bool, n)
	ids := make([]int, n)
	for i, ke := range group.Entrants {
		e := data.entryByID(ke.EntryID)
		if e == nil {
			return nil, fmt.Errorf("entry %d of tournament %d: %w", ke.EntryID, data.tournament.ID, ErrEntryNotInTournament)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("%w: entry %d is listed twice", ErrEntrantsNotUniqueInput, e.ID)
		}
		seen[e.ID] = true
		ids[i] = e.ID
	}

	var out []*brackets.BracketMatch
	for r, round := range group.Rounds {
		used := make(map[int]bool, n)
		for order, m := range round.Matches {
			for _, idx := range [4]int{m.Team1[0], m.Team1[1], m.Team2[0], m.Team2[1]} {
				if idx < 0 || idx >= n || used[idx] {
					return nil, fmt.Errorf("%w: group %d round %d uses index %d", brackets.ErrInvalidKingSchedule, group.GroupIndex, r+1, idx)
				}
				used[idx] = true
			}
			gi := group.GroupIndex
			out = append(out, &brackets.BracketMatch{
				UID:          fmt.Sprintf("K%dR%dM%d", gi, r+1, order+1),
				Round:        r + 1,
				RoundName:    fmt.Sprintf("Round %d", r+1),
				OrderInRound: order + 1,
				GroupIndex:   &gi,
				Side1:        []int{ids[m.Team1[0]], ids[m.Team1[1]]},
				Side2:        []int{ids[m.Team2[0]], ids[m.Team2[1]]},
			})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: group %d has no matches", brackets.ErrInvalidKingSchedule, group.GroupIndex)
	}
	return out, nil
}

// pairTeams finds or creates the doubles team of two players, once per run.
type pairTeams struct {
	repo  repositories.TeamRepository
	cache map[[2]int]int
}

func newPairTeams(repo repositories.TeamRepository) *pairTeams {
	return &pairTeams{repo: repo, cache: make(map[[2]int]int)}
}

func (p *pairTeams) get(ctx context.Context, exec repositories.SQLExecutor, a, b int) (int, error) {
	low, high := models.NormalizedPair(a, b)
	key := [2]int{low, high}
	if id, ok := p.cache[key]; ok {
		return id, nil
	}

	team, err := p.repo.FindByPlayers(ctx, exec, low, &high)
	if errors.Is(err, repositories.ErrTeamNotFound) {
		team = &models.Team{Player1ID: low, Player2ID: &high}
		err = p.repo.Create(ctx, exec, team)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve team of players %d and %d: %w", low, high, handleRepositoryError(err))
	}
	p.cache[key] = team.ID
	return team.ID, nil
}
