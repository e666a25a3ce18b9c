package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Dosada05/beach-tennis-system/locks"
	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/repositories"
	"golang.org/x/sync/errgroup"
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error
}

// Notifier pushes tournament events to live clients.
type Notifier interface {
	NotifyTournament(tournamentID int, eventType string, payload any)
}

type noopNotifier struct{}

func (noopNotifier) NotifyTournament(int, string, any) {}

// Repositories bundles the persistence the services need.
type Repositories struct {
	Tournaments repositories.TournamentRepository
	Players     repositories.PlayerRepository
	Teams       repositories.TeamRepository
	Entries     repositories.EntryRepository
	Matches     repositories.MatchRepository
	Brackets    repositories.BracketRepository
	Ratings     repositories.RatingRepository
	Placements  repositories.PlacementRepository
}

func NewPostgresRepositories(db *sql.DB) Repositories {
	return Repositories{
		Tournaments: repositories.NewPostgresTournamentRepository(db),
		Players:     repositories.NewPostgresPlayerRepository(db),
		Teams:       repositories.NewPostgresTeamRepository(db),
		Entries:     repositories.NewPostgresEntryRepository(db),
		Matches:     repositories.NewPostgresMatchRepository(db),
		Brackets:    repositories.NewPostgresBracketRepository(db),
		Ratings:     repositories.NewPostgresRatingRepository(db),
		Placements:  repositories.NewPostgresPlacementRepository(db),
	}
}

// Deps is shared by every service constructor.
type Deps struct {
	Repos    Repositories
	Tx       Transactor
	Locker   locks.Locker
	Notifier Notifier
	Logger   *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Locker == nil {
		d.Locker = locks.NewKeyedMutex()
	}
	if d.Notifier == nil {
		d.Notifier = noopNotifier{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// mutate runs fn under the tournament locks and inside one transaction.
func (d Deps) mutate(ctx context.Context, tournamentIDs []int, fn func(exec repositories.SQLExecutor) error) error {
	release, err := d.Locker.Lock(ctx, locks.TournamentKeys(tournamentIDs...)...)
	if err != nil {
		return fmt.Errorf("failed to lock tournaments %v: %w", tournamentIDs, err)
	}
	defer release()

	return d.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := d.Repos.Tournaments.LockForUpdate(ctx, exec, tournamentIDs); err != nil {
			return handleRepositoryError(err)
		}
		return fn(exec)
	})
}

// tournamentData is one tournament with entries, teams, players and matches.
type tournamentData struct {
	tournament *models.Tournament
	entries    []*models.TournamentEntry
	matches    []*models.Match
	players    map[int]*models.Player

	entryByTeam map[int]*models.TournamentEntry
}

// loadTournamentData reads outside any transaction, so the independent
// queries run in parallel on the pool.
func (d Deps) loadTournamentData(ctx context.Context, tournamentID int, filter repositories.MatchFilter) (*tournamentData, error) {
	data := &tournamentData{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := d.Repos.Tournaments.GetByID(gCtx, nil, tournamentID)
		if err != nil {
			return handleRepositoryError(err)
		}
		data.tournament = t
		return nil
	})
	g.Go(func() error {
		entries, err := d.Repos.Entries.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list entries of tournament %d: %w", tournamentID, err)
		}
		data.entries = entries
		return nil
	})
	g.Go(func() error {
		matches, err := d.Repos.Matches.ListByTournament(gCtx, nil, tournamentID, filter)
		if err != nil {
			return fmt.Errorf("failed to list matches of tournament %d: %w", tournamentID, err)
		}
		data.matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	players, err := d.Repos.Players.ListByIDs(ctx, nil, playerIDsOfEntries(data.entries))
	if err != nil {
		return nil, fmt.Errorf("failed to load players of tournament %d: %w", tournamentID, err)
	}
	data.players = indexPlayers(players)
	data.index()
	return data, nil
}

func (data *tournamentData) index() {
	data.entryByTeam = make(map[int]*models.TournamentEntry, len(data.entries))
	for _, e := range data.entries {
		data.entryByTeam[e.TeamID] = e
		if e.Team == nil {
			continue
		}
		e.Team.Players = e.Team.Players[:0]
		for _, id := range e.Team.PlayerIDs() {
			e.Team.Players = append(e.Team.Players, data.players[id])
		}
	}
}

// group returns the entries of one group in row order.
func (data *tournamentData) group(groupIndex int) []*models.TournamentEntry {
	return entriesOfGroup(data.entries, groupIndex)
}

func (data *tournamentData) entryByID(id int) *models.TournamentEntry {
	for _, e := range data.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func entriesOfGroup(entries []*models.TournamentEntry, groupIndex int) []*models.TournamentEntry {
	out := make([]*models.TournamentEntry, 0)
	for _, e := range entries {
		if groupOf(e.GroupIndex) == groupIndex {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rowOf(out[i]), rowOf(out[j])
		if ri != rj {
			return ri < rj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// groupIndexes lists the distinct groups of the entries, ascending.
func groupIndexes(entries []*models.TournamentEntry) []int {
	seen := make(map[int]bool)
	var out []int
	for _, e := range entries {
		g := groupOf(e.GroupIndex)
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	sort.Ints(out)
	return out
}

// entries without a group index belong to group 0
func groupOf(idx *int) int {
	if idx == nil {
		return 0
	}
	return *idx
}

func rowOf(e *models.TournamentEntry) int {
	if e.RowIndex == nil {
		return int(^uint(0) >> 1)
	}
	return *e.RowIndex
}

func playerIDsOfEntries(entries []*models.TournamentEntry) []int {
	seen := make(map[int]bool)
	ids := make([]int, 0, len(entries)*2)
	for _, e := range entries {
		if e.Team == nil {
			continue
		}
		for _, id := range e.Team.PlayerIDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Ints(ids)
	return ids
}

func indexPlayers(players []*models.Player) map[int]*models.Player {
	out := make(map[int]*models.Player, len(players))
	for _, p := range players {
		out[p.ID] = p
	}
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func intPtr(v int) *int { return &v }
