package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/repositories"
	"github.com/Dosada05/beach-tennis-system/standings"
)

type StandingRow struct {
	Rank    int              `json:"rank"`
	EntryID int              `json:"entry_id"`
	TeamID  int              `json:"team_id"`
	Name    string           `json:"name"`
	Stats   *standings.Stats `json:"stats"`
}

// GroupRanking orders the entries of one group. Order holds entry ids, best first.
type GroupRanking struct {
	TournamentID int           `json:"tournament_id"`
	GroupIndex   int           `json:"group_index"`
	Order        []int         `json:"order"`
	Rows         []StandingRow `json:"rows"`
}

type StandingsService interface {
	RankGroup(ctx context.Context, tournamentID, groupIndex int) (*GroupRanking, error)
	ComputeKingGroupRanking(ctx context.Context, tournamentID, groupIndex int) (map[int]int, error)
	RecomputePlacements(ctx context.Context, tournamentID int) ([]models.TournamentPlacement, error)
}

type standingsService struct {
	deps            Deps
	specialPlayerID *int
}

func NewStandingsService(deps Deps, specialPlayerID *int) StandingsService {
	return &standingsService{deps: deps.withDefaults(), specialPlayerID: specialPlayerID}
}

func (s *standingsService) RankGroup(ctx context.Context, tournamentID, groupIndex int) (*GroupRanking, error) {
	stage := models.StageGroup
	data, err := s.deps.loadTournamentData(ctx, tournamentID, repositories.MatchFilter{Stage: &stage, GroupIndex: &groupIndex})
	if err != nil {
		return nil, err
	}
	return s.rankGroup(ctx, data, groupIndex)
}

func (s *standingsService) ComputeKingGroupRanking(ctx context.Context, tournamentID, groupIndex int) (map[int]int, error) {
	stage := models.StageGroup
	data, err := s.deps.loadTournamentData(ctx, tournamentID, repositories.MatchFilter{Stage: &stage, GroupIndex: &groupIndex})
	if err != nil {
		return nil, err
	}
	if data.tournament.System != models.SystemKing {
		return nil, fmt.Errorf("tournament %d is %s: %w", tournamentID, data.tournament.System, ErrWrongTournamentSystem)
	}
	ranking, err := s.rankGroup(ctx, data, groupIndex)
	if err != nil {
		return nil, err
	}
	return standings.Ranks(ranking.Order), nil
}

func (s *standingsService) rankGroup(ctx context.Context, data *tournamentData, groupIndex int) (*GroupRanking, error) {
	t := data.tournament
	entries := data.group(groupIndex)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: tournament %d has no entries in group %d", ErrValidationFailed, t.ID, groupIndex)
	}
	criteria, err := standings.ParseRuleset(t.Ruleset)
	if err != nil {
		return nil, err
	}

	entrants := make([]standings.Entrant, 0, len(entries))
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		entrants = append(entrants, s.entrant(e))
		ids = append(ids, e.ID)
	}

	var matches []*models.Match
	for _, m := range data.matches {
		if m.Stage == models.StageGroup && groupOf(m.GroupIndex) == groupIndex {
			matches = append(matches, m)
		}
	}

	var (
		results []standings.Result
		stats   map[int]*standings.Stats
		ranker  *standings.Ranker
	)
	if t.System == models.SystemKing {
		results, err = s.kingResults(ctx, matches, entries)
		if err != nil {
			return nil, err
		}
		mode := t.KingCalculationMode
		if mode == "" {
			mode = models.KingModeNo
		}
		stats, err = standings.KingStandings(ids, results, mode, t.Format)
		if err != nil {
			return nil, err
		}
		ranker = standings.NewRanker(standings.KingRuleset(criteria), t.Format)
	} else {
		results = teamResults(matches, entries)
		ranker = standings.NewRanker(criteria, t.Format)
	}

	order := ranker.Rank(entrants, results, stats)
	if stats == nil {
		stats = standings.Aggregate(ids, results, t.Format, false)
	}

	ranking := &GroupRanking{TournamentID: t.ID, GroupIndex: groupIndex, Order: order}
	byID := make(map[int]*models.TournamentEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	for i, id := range order {
		e := byID[id]
		st := stats[id]
		if st == nil {
			st = &standings.Stats{EntrantID: id}
		}
		ranking.Rows = append(ranking.Rows, StandingRow{Rank: i + 1, EntryID: id, TeamID: e.TeamID, Name: entryName(e), Stats: st})
	}
	return ranking, nil
}

func (s *standingsService) entrant(e *models.TournamentEntry) standings.Entrant {
	out := standings.Entrant{ID: e.ID, Name: entryName(e)}
	if e.Team == nil {
		return out
	}
	sum, n := 0, 0
	for _, p := range e.Team.Players {
		if p == nil {
			continue
		}
		sum += p.CurrentRating
		n++
		if s.specialPlayerID != nil && p.ID == *s.specialPlayerID {
			out.Special = true
		}
	}
	if n > 0 {
		out.Rating = float64(sum) / float64(n)
	}
	return out
}

func entryName(e *models.TournamentEntry) string {
	if e.Team != nil {
		if name := e.Team.DisplayName(); name != "" {
			return name
		}
	}
	return fmt.Sprintf("#%d", e.ID)
}

// teamResults maps completed group matches between members to entry ids.
func teamResults(matches []*models.Match, entries []*models.TournamentEntry) []standings.Result {
	member := make(map[int]int, len(entries))
	for _, e := range entries {
		member[e.TeamID] = e.ID
	}
	var out []standings.Result
	for _, m := range matches {
		if m.Status != models.MatchCompleted || m.Team1ID == nil || m.Team2ID == nil {
			continue
		}
		e1, ok1 := member[*m.Team1ID]
		e2, ok2 := member[*m.Team2ID]
		if !ok1 || !ok2 {
			continue
		}
		out = append(out, standings.Result{MatchID: m.ID, Round: m.Round(), Side1: []int{e1}, Side2: []int{e2}, Sets: m.Sets})
	}
	return out
}

// kingResults resolves the doubles teams of King matches back to the single
// player entries of the group.
func (s *standingsService) kingResults(ctx context.Context, matches []*models.Match, entries []*models.TournamentEntry) ([]standings.Result, error) {
	entryOfPlayer := make(map[int]int, len(entries))
	for _, e := range entries {
		if e.Team == nil || e.Team.Player2ID != nil {
			return nil, fmt.Errorf("entry %d: %w", e.ID, ErrKingEntryNotSingle)
		}
		entryOfPlayer[e.Team.Player1ID] = e.ID
	}

	var completed []*models.Match
	for _, m := range matches {
		if m.Status == models.MatchCompleted && m.Team1ID != nil && m.Team2ID != nil {
			completed = append(completed, m)
		}
	}
	teams, err := s.deps.Repos.Teams.ListByIDs(ctx, nil, teamIDsOfMatches(completed))
	if err != nil {
		return nil, fmt.Errorf("failed to load king teams: %w", err)
	}
	teamByID := make(map[int]*models.Team, len(teams))
	for _, t := range teams {
		teamByID[t.ID] = t
	}

	side := func(teamID int) ([]int, bool) {
		team := teamByID[teamID]
		if team == nil {
			return nil, false
		}
		out := make([]int, 0, 2)
		for _, p := range team.PlayerIDs() {
			id, ok := entryOfPlayer[p]
			if !ok {
				return nil, false
			}
			out = append(out, id)
		}
		return out, true
	}

	out := make([]standings.Result, 0, len(completed))
	for _, m := range completed {
		s1, ok1 := side(*m.Team1ID)
		s2, ok2 := side(*m.Team2ID)
		if !ok1 || !ok2 {
			s.deps.Logger.Warn("king match references players outside the group",
				slog.Int("tournament_id", m.TournamentID), slog.Int("match_id", m.ID))
			continue
		}
		out = append(out, standings.Result{MatchID: m.ID, Round: m.Round(), Side1: s1, Side2: s2, Sets: m.Sets})
	}
	return out, nil
}

// RecomputePlacements stores final place ranges: knockout brackets first in
// bracket order, then the group ranks of everyone they did not place.
func (s *standingsService) RecomputePlacements(ctx context.Context, tournamentID int) ([]models.TournamentPlacement, error) {
	data, err := s.deps.loadTournamentData(ctx, tournamentID, repositories.MatchFilter{})
	if err != nil {
		return nil, err
	}
	bracketList, err := s.deps.Repos.Brackets.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brackets of tournament %d: %w", tournamentID, err)
	}
	sort.SliceStable(bracketList, func(i, j int) bool { return bracketList[i].Index < bracketList[j].Index })

	var (
		out    []models.TournamentPlacement
		placed = make(map[int]bool)
		offset = 0
	)
	add := func(entryID, from, to int) {
		placed[entryID] = true
		out = append(out, models.TournamentPlacement{TournamentID: tournamentID, EntryID: entryID, PlaceFrom: from, PlaceTo: to})
		offset = max(offset, to)
	}

	for _, b := range bracketList {
		var matches []*models.Match
		for _, m := range data.matches {
			if m.BracketID != nil && *m.BracketID == b.ID {
				matches = append(matches, m)
			}
		}
		base := offset
		for _, p := range standings.KnockoutPlacements(matches) {
			e := data.entryByTeam[p.EntrantID]
			if e == nil || placed[e.ID] {
				continue
			}
			add(e.ID, base+p.From, base+p.To)
		}
	}

	var groups [][]int
	for _, g := range groupIndexes(data.entries) {
		ranking, err := s.rankGroup(ctx, data, g)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", g, err)
		}
		var rest []int
		for _, id := range ranking.Order {
			if !placed[id] {
				rest = append(rest, id)
			}
		}
		groups = append(groups, rest)
	}
	base := offset
	for _, p := range standings.GroupPlacements(groups) {
		add(p.EntrantID, base+p.From, base+p.To)
	}

	err = s.deps.mutate(ctx, []int{tournamentID}, func(exec repositories.SQLExecutor) error {
		return s.deps.Repos.Placements.ReplaceForTournament(ctx, exec, tournamentID, out)
	})
	if err != nil {
		return nil, err
	}
	s.deps.Logger.Info("placements recomputed", slog.Int("tournament_id", tournamentID), slog.Int("placements", len(out)))
	return out, nil
}
