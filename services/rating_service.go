package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/beach-tennis-system/brackets"
	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/rating"
	"github.com/Dosada05/beach-tennis-system/repositories"
	"github.com/Dosada05/beach-tennis-system/storage"
	"golang.org/x/sync/errgroup"
)

// RecomputeOptions selects the master tournaments to replay. StartRating and
// StartRatingsByPlayer only apply to players without a rating yet.
type RecomputeOptions struct {
	FromDate             *time.Time  `json:"from_date,omitempty"`
	ToDate               *time.Time  `json:"to_date,omitempty"`
	TournamentIDs        []int       `json:"tournament_ids,omitempty"`
	StartRating          int         `json:"start_rating,omitempty"`
	StartRatingsByPlayer map[int]int `json:"start_ratings_by_player,omitempty"`
	WipeHistory          bool        `json:"wipe_history"`
}

type EventSummary struct {
	TournamentID int              `json:"tournament_id"`
	Name         string           `json:"name"`
	Date         time.Time        `json:"date"`
	StageIDs     []int            `json:"stage_ids,omitempty"`
	Coefficient  float64          `json:"coefficient"`
	Players      int              `json:"players"`
	Matches      int              `json:"matches"`
	Warnings     []rating.Warning `json:"warnings,omitempty"`
}

type RecomputeReport struct {
	StartedAt      time.Time             `json:"started_at"`
	FinishedAt     time.Time             `json:"finished_at"`
	Options        *RecomputeOptions     `json:"options,omitempty"`
	Events         []EventSummary        `json:"events"`
	RatingsUpdated int                   `json:"ratings_updated"`
	Archive        *storage.UploadResult `json:"archive,omitempty"`
}

type RatingService interface {
	RecomputeRatings(ctx context.Context, opts RecomputeOptions) (*RecomputeReport, error)
	ComputeRatingsForTournament(ctx context.Context, tournamentID int) (*RecomputeReport, error)
	ComputeRatingsForMultiStageTournament(ctx context.Context, masterID int, stageIDs []int) (*RecomputeReport, error)
	ListDynamics(ctx context.Context, tournamentID int) ([]models.PlayerRatingDynamic, error)
}

type ratingService struct {
	deps       Deps
	engineOpts rating.Options
	archive    storage.ReportArchive
	now        func() time.Time
}

// NewRatingService wires the pure rating engine to persistence. archive may be nil.
func NewRatingService(deps Deps, engineOpts rating.Options, archive storage.ReportArchive) RatingService {
	return &ratingService{
		deps:       deps.withDefaults(),
		engineOpts: engineOpts,
		archive:    archive,
		now:        time.Now,
	}
}

func (s *ratingService) RecomputeRatings(ctx context.Context, opts RecomputeOptions) (*RecomputeReport, error) {
	if opts.StartRating < 0 {
		return nil, ErrInvalidStartRating
	}
	for playerID, r := range opts.StartRatingsByPlayer {
		if r < 0 {
			return nil, fmt.Errorf("%w: player %d", ErrInvalidStartRating, playerID)
		}
	}

	masterIDs, err := s.validateRecompute(ctx, opts)
	if err != nil {
		return nil, err
	}

	filter := repositories.ListTournamentsFilter{FromDate: opts.FromDate, ToDate: opts.ToDate, IDs: masterIDs}
	masters, err := s.deps.Repos.Tournaments.ListMasters(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments to recompute: %w", err)
	}
	stages, lockIDs, err := s.loadStages(ctx, masters)
	if err != nil {
		return nil, err
	}

	engineOpts := s.engineOpts
	if opts.StartRating > 0 {
		engineOpts.Start.Default = opts.StartRating
	}
	if len(opts.StartRatingsByPlayer) > 0 {
		engineOpts.Start.Overrides = opts.StartRatingsByPlayer
	}
	engine := rating.NewEngine(engineOpts)

	report := &RecomputeReport{StartedAt: s.now(), Options: &opts, Events: []EventSummary{}}
	s.deps.Logger.Info("rating recompute started",
		slog.Int("tournaments", len(masters)), slog.Bool("wipe_history", opts.WipeHistory))

	err = s.deps.mutate(ctx, lockIDs, func(exec repositories.SQLExecutor) error {
		report.Events = report.Events[:0]
		report.RatingsUpdated = 0

		if opts.WipeHistory {
			if err := s.deps.Repos.Ratings.DeleteAll(ctx, exec); err != nil {
				return err
			}
			if err := s.deps.Repos.Players.ResetRatings(ctx, exec); err != nil {
				return err
			}
		} else if err := s.deps.Repos.Ratings.DeleteByTournamentIDs(ctx, exec, lockIDs); err != nil {
			return err
		}

		for _, master := range masters {
			// prior events of this run are already written in the same transaction
			before, err := s.deps.Repos.Ratings.LatestRatingsBefore(ctx, exec, master)
			if err != nil {
				return fmt.Errorf("failed to load ratings before tournament %d: %w", master.ID, err)
			}
			summary, updated, err := s.computeEvent(ctx, exec, engine, master, stages[master.ID], rating.NewLedger(before))
			if err != nil {
				return err
			}
			report.Events = append(report.Events, *summary)
			report.RatingsUpdated += updated
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, report)
	return report, nil
}

// validateRecompute checks every referenced tournament and player before any
// write and maps stage ids to their masters.
func (s *ratingService) validateRecompute(ctx context.Context, opts RecomputeOptions) ([]int, error) {
	masterIDs := make([]int, len(opts.TournamentIDs))
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for i, id := range opts.TournamentIDs {
			t, err := s.deps.Repos.Tournaments.GetByID(gCtx, nil, id)
			if err != nil {
				return fmt.Errorf("tournament %d: %w", id, handleRepositoryError(err))
			}
			masterIDs[i] = t.ID
			if t.ParentID != nil {
				masterIDs[i] = *t.ParentID
			}
		}
		return nil
	})
	g.Go(func() error {
		if len(opts.StartRatingsByPlayer) == 0 {
			return nil
		}
		ids := make([]int, 0, len(opts.StartRatingsByPlayer))
		for id := range opts.StartRatingsByPlayer {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		players, err := s.deps.Repos.Players.ListByIDs(gCtx, nil, ids)
		if err != nil {
			return fmt.Errorf("failed to load players: %w", err)
		}
		found := indexPlayers(players)
		for _, id := range ids {
			if found[id] == nil {
				return fmt.Errorf("player %d: %w", id, ErrPlayerNotFound)
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return masterIDs, nil
}

func (s *ratingService) loadStages(ctx context.Context, masters []*models.Tournament) (map[int][]*models.Tournament, []int, error) {
	stages := make(map[int][]*models.Tournament, len(masters))
	lockIDs := make([]int, 0, len(masters))
	for _, m := range masters {
		st, err := s.deps.Repos.Tournaments.ListStages(ctx, nil, m.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list stages of tournament %d: %w", m.ID, err)
		}
		stages[m.ID] = st
		lockIDs = append(lockIDs, m.ID)
		for _, stage := range st {
			lockIDs = append(lockIDs, stage.ID)
		}
	}
	return stages, lockIDs, nil
}

func (s *ratingService) ComputeRatingsForTournament(ctx context.Context, tournamentID int) (*RecomputeReport, error) {
	t, err := s.deps.Repos.Tournaments.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if !t.IsMaster() {
		return nil, fmt.Errorf("tournament %d: %w", tournamentID, ErrNotMasterTournament)
	}
	stages, err := s.deps.Repos.Tournaments.ListStages(ctx, nil, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages of tournament %d: %w", t.ID, err)
	}
	return s.computeSingle(ctx, t, stages)
}

func (s *ratingService) ComputeRatingsForMultiStageTournament(ctx context.Context, masterID int, stageIDs []int) (*RecomputeReport, error) {
	master, err := s.deps.Repos.Tournaments.GetByID(ctx, nil, masterID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if !master.IsMaster() {
		return nil, fmt.Errorf("tournament %d: %w", masterID, ErrNotMasterTournament)
	}
	all, err := s.deps.Repos.Tournaments.ListStages(ctx, nil, masterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages of tournament %d: %w", masterID, err)
	}
	if len(stageIDs) == 0 {
		return s.computeSingle(ctx, master, all)
	}

	byID := make(map[int]*models.Tournament, len(all))
	for _, st := range all {
		byID[st.ID] = st
	}
	stages := make([]*models.Tournament, 0, len(stageIDs))
	for _, id := range stageIDs {
		st, ok := byID[id]
		if !ok {
			if _, err := s.deps.Repos.Tournaments.GetByID(ctx, nil, id); err != nil {
				return nil, fmt.Errorf("stage %d: %w", id, handleRepositoryError(err))
			}
			return nil, fmt.Errorf("stage %d of tournament %d: %w", id, masterID, ErrStageNotInTournament)
		}
		stages = append(stages, st)
	}
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].StageOrder < stages[j].StageOrder })
	return s.computeSingle(ctx, master, stages)
}

// computeSingle rates one event on top of the players' current ratings. A
// repeated run reuses the rating_before stored by the previous one.
func (s *ratingService) computeSingle(ctx context.Context, master *models.Tournament, stages []*models.Tournament) (*RecomputeReport, error) {
	lockIDs := []int{master.ID}
	for _, st := range stages {
		lockIDs = append(lockIDs, st.ID)
	}
	engine := rating.NewEngine(s.engineOpts)
	report := &RecomputeReport{StartedAt: s.now()}

	err := s.deps.mutate(ctx, lockIDs, func(exec repositories.SQLExecutor) error {
		previous, err := s.deps.Repos.Ratings.RatingsBefore(ctx, exec, master.ID)
		if err != nil {
			return fmt.Errorf("failed to load previous ratings of tournament %d: %w", master.ID, err)
		}
		if err := s.deps.Repos.Ratings.DeleteByTournamentIDs(ctx, exec, lockIDs); err != nil {
			return err
		}
		summary, updated, err := s.computeEventWith(ctx, exec, engine, master, stages, func(players []*models.Player) rating.Ledger {
			current := make(map[int]int, len(players))
			for _, p := range players {
				current[p.ID] = p.CurrentRating
			}
			return rating.NewLedger(current).With(previous)
		})
		if err != nil {
			return err
		}
		report.Events = []EventSummary{*summary}
		report.RatingsUpdated = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, report)
	return report, nil
}

func (s *ratingService) computeEvent(ctx context.Context, exec repositories.SQLExecutor, engine *rating.Engine,
	master *models.Tournament, stages []*models.Tournament, base rating.Ledger) (*EventSummary, int, error) {
	return s.computeEventWith(ctx, exec, engine, master, stages, func([]*models.Player) rating.Ledger { return base })
}

// computeEventWith loads one event, runs the engine and writes history,
// dynamics and the players' new ratings.
func (s *ratingService) computeEventWith(ctx context.Context, exec repositories.SQLExecutor, engine *rating.Engine,
	master *models.Tournament, stages []*models.Tournament, baseFor func([]*models.Player) rating.Ledger) (*EventSummary, int, error) {

	tournaments := append([]*models.Tournament{master}, stages...)
	ids := make([]int, 0, len(tournaments))
	for _, t := range tournaments {
		ids = append(ids, t.ID)
	}

	entries, err := s.deps.Repos.Entries.ListByTournamentIDs(ctx, exec, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load entries of tournament %d: %w", master.ID, err)
	}
	matches, err := s.deps.Repos.Matches.ListCompletedByTournamentIDs(ctx, exec, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load matches of tournament %d: %w", master.ID, err)
	}
	teams, err := s.deps.Repos.Teams.ListByIDs(ctx, exec, teamIDsOfMatches(matches))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load teams of tournament %d: %w", master.ID, err)
	}
	players, err := s.deps.Repos.Players.ListByIDs(ctx, exec, playerIDsOfTeams(teams))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load players of tournament %d: %w", master.ID, err)
	}

	infos := make(map[int]rating.PlayerInfo, len(players))
	for _, p := range players {
		infos[p.ID] = rating.PlayerInfo{ID: p.ID, BTR: p.BTRRating}
	}

	event := buildRatingEvent(tournaments, entries, teams, matches)
	res, err := engine.ComputeEvent(baseFor(players), infos, event)
	if err != nil {
		return nil, 0, fmt.Errorf("rating computation for tournament %d failed: %w", master.ID, err)
	}

	for _, w := range res.Warnings {
		s.deps.Logger.Warn("inconsistent match data",
			slog.String("kind", string(w.Kind)),
			slog.Int("tournament_id", w.TournamentID),
			slog.Int("match_id", w.MatchID),
			slog.String("detail", w.Detail))
	}

	if err := s.deps.Repos.Ratings.InsertHistory(ctx, exec, res.History); err != nil {
		return nil, 0, err
	}
	if err := s.deps.Repos.Ratings.InsertDynamics(ctx, exec, res.Dynamics); err != nil {
		return nil, 0, err
	}
	ratings := res.Ratings()
	if err := s.deps.Repos.Players.UpdateRatings(ctx, exec, ratings); err != nil {
		return nil, 0, err
	}

	summary := &EventSummary{
		TournamentID: master.ID,
		Name:         master.Name,
		Date:         master.Date,
		Coefficient:  res.Coefficient,
		Players:      len(res.Dynamics),
		Matches:      len(event.Matches),
		Warnings:     res.Warnings,
	}
	for _, st := range stages {
		summary.StageIDs = append(summary.StageIDs, st.ID)
	}
	s.deps.Logger.Debug("tournament rated",
		slog.Int("tournament_id", master.ID),
		slog.Int("players", summary.Players),
		slog.Int("matches", summary.Matches),
		slog.Float64("coefficient", res.Coefficient))
	return summary, len(ratings), nil
}

// finish archives the report and notifies clients once the transaction is committed.
func (s *ratingService) finish(ctx context.Context, report *RecomputeReport) {
	report.FinishedAt = s.now()
	s.deps.Logger.Info("rating recompute finished",
		slog.Int("tournaments", len(report.Events)),
		slog.Int("ratings_updated", report.RatingsUpdated),
		slog.Duration("took", report.FinishedAt.Sub(report.StartedAt)))

	if s.archive != nil {
		res, err := s.archive.Archive(ctx, "recompute", report)
		if err != nil {
			s.deps.Logger.Warn("failed to archive recompute report", slog.Any("error", err))
		} else {
			report.Archive = res
		}
	}
	for _, ev := range report.Events {
		s.deps.Notifier.NotifyTournament(ev.TournamentID, brackets.EventRatingsUpdated, ev)
	}
}

func (s *ratingService) ListDynamics(ctx context.Context, tournamentID int) ([]models.PlayerRatingDynamic, error) {
	if _, err := s.deps.Repos.Tournaments.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.deps.Repos.Ratings.ListDynamics(ctx, nil, tournamentID)
}

type tournamentTeam struct {
	tournamentID int
	id           int
}

// buildRatingEvent turns persisted rows into engine input. tournaments[0] is
// the master; the rest are its stages.
func buildRatingEvent(tournaments []*models.Tournament, entries []*models.TournamentEntry, teams []*models.Team, matches []*models.Match) rating.Event {
	master := tournaments[0]
	byID := make(map[int]*models.Tournament, len(tournaments))
	for _, t := range tournaments {
		byID[t.ID] = t
	}
	teamByID := make(map[int]*models.Team, len(teams))
	for _, t := range teams {
		teamByID[t.ID] = t
	}

	entered := make(map[tournamentTeam]*models.TournamentEntry, len(entries))
	oocPlayers := make(map[tournamentTeam]bool)
	distinctTeams := make(map[int]bool)
	for _, e := range entries {
		entered[tournamentTeam{e.TournamentID, e.TeamID}] = e
		distinctTeams[e.TeamID] = true
		if e.OutOfCompetition && e.Team != nil {
			for _, p := range e.Team.PlayerIDs() {
				oocPlayers[tournamentTeam{e.TournamentID, p}] = true
			}
		}
	}

	side := func(tournamentID int, teamID *int) *rating.Side {
		if teamID == nil {
			return nil
		}
		team := teamByID[*teamID]
		if team == nil {
			return &rating.Side{TeamID: *teamID}
		}
		s := &rating.Side{TeamID: team.ID, PlayerIDs: team.PlayerIDs()}
		if e := entered[tournamentTeam{tournamentID, team.ID}]; e != nil {
			s.OutOfCompetition = e.OutOfCompetition
			return s
		}
		// King pairs are not entered themselves; a pair is out of competition
		// when one of its players is
		for _, p := range s.PlayerIDs {
			if oocPlayers[tournamentTeam{tournamentID, p}] {
				s.OutOfCompetition = true
			}
		}
		return s
	}

	ev := rating.Event{
		TournamentID: master.ID,
		Name:         master.Name,
		Date:         master.Date,
		Coefficient:  master.RatingCoefficient,
		Participants: len(distinctTeams),
		Matches:      make([]rating.MatchInput, 0, len(matches)),
	}
	for _, m := range matches {
		t := byID[m.TournamentID]
		if t == nil {
			continue
		}
		stageOrder := 0
		if t.ID != master.ID {
			stageOrder = t.StageOrder
		}
		ev.Matches = append(ev.Matches, rating.MatchInput{
			MatchID:      m.ID,
			TournamentID: m.TournamentID,
			StageOrder:   stageOrder,
			Stage:        m.Stage,
			Round:        m.Round(),
			Order:        m.OrderInRound,
			Side1:        side(m.TournamentID, m.Team1ID),
			Side2:        side(m.TournamentID, m.Team2ID),
			WinnerTeamID: m.WinnerID,
			Sets:         m.Sets,
			Format:       t.Format,
		})
	}
	return ev
}

func teamIDsOfMatches(matches []*models.Match) []int {
	seen := make(map[int]bool)
	ids := make([]int, 0, len(matches)*2)
	for _, m := range matches {
		for _, id := range []*int{m.Team1ID, m.Team2ID} {
			if id != nil && !seen[*id] {
				seen[*id] = true
				ids = append(ids, *id)
			}
		}
	}
	sort.Ints(ids)
	return ids
}

func playerIDsOfTeams(teams []*models.Team) []int {
	seen := make(map[int]bool)
	ids := make([]int, 0, len(teams)*2)
	for _, t := range teams {
		for _, id := range t.PlayerIDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Ints(ids)
	return ids
}
