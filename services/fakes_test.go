package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/repositories"
)

// fakeStore is an in-memory database behind every repository interface.
type fakeStore struct {
	mu     sync.Mutex
	nextID int

	tournaments map[int]*models.Tournament
	players     map[int]*models.Player
	teams       map[int]*models.Team
	entries     map[int]*models.TournamentEntry
	matches     map[int]*models.Match
	brackets    map[int]*models.KnockoutBracket
	positions   map[int][]models.DrawPosition
	dynamics    []models.PlayerRatingDynamic
	history     []models.PlayerRatingHistory
	placements  map[int][]models.TournamentPlacement

	locked [][]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tournaments: make(map[int]*models.Tournament),
		players:     make(map[int]*models.Player),
		teams:       make(map[int]*models.Team),
		entries:     make(map[int]*models.TournamentEntry),
		matches:     make(map[int]*models.Match),
		brackets:    make(map[int]*models.KnockoutBracket),
		positions:   make(map[int][]models.DrawPosition),
		placements:  make(map[int][]models.TournamentPlacement),
	}
}

func (s *fakeStore) id() int {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) deps() Deps {
	return Deps{
		Repos: Repositories{
			Tournaments: fakeTournaments{s},
			Players:     fakePlayers{s},
			Teams:       fakeTeams{s},
			Entries:     fakeEntries{s},
			Matches:     fakeMatches{s},
			Brackets:    fakeBrackets{s},
			Ratings:     fakeRatings{s},
			Placements:  fakePlacements{s},
		},
		Tx:     fakeTx{s},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// --- fixtures ---

func (s *fakeStore) addTournament(t *models.Tournament) *models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	if t.Date.IsZero() {
		t.Date = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	}
	s.tournaments[t.ID] = t
	return t
}

func (s *fakeStore) addPlayer(name string, rating int) *models.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &models.Player{ID: s.id(), FullName: name, CurrentRating: rating}
	s.players[p.ID] = p
	return p
}

func (s *fakeStore) addTeam(players ...*models.Player) *models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &models.Team{ID: s.id(), Player1ID: players[0].ID}
	if len(players) > 1 {
		t.Player2ID = intPtr(players[1].ID)
	}
	s.teams[t.ID] = t
	return t
}

func (s *fakeStore) addEntry(tournamentID int, team *models.Team, group, row int) *models.TournamentEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &models.TournamentEntry{ID: s.id(), TournamentID: tournamentID, TeamID: team.ID, GroupIndex: intPtr(group), RowIndex: intPtr(row)}
	s.entries[e.ID] = e
	return e
}

func (s *fakeStore) addMatch(m *models.Match) *models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	m.Normalize()
	if m.Stage == "" {
		m.Stage = models.StageGroup
	}
	if m.Status == "" {
		m.Status = models.MatchScheduled
	}
	s.matches[m.ID] = cloneMatch(m)
	return m
}

func (s *fakeStore) match(id int) *models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMatch(s.matches[id])
}

func (s *fakeStore) player(id int) *models.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *s.players[id]
	return &p
}

func (s *fakeStore) countMatches(tournamentID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.matches {
		if m.TournamentID == tournamentID {
			n++
		}
	}
	return n
}

// --- cloning ---

func cloneMatch(m *models.Match) *models.Match {
	if m == nil {
		return nil
	}
	c := *m
	c.Sets = append([]models.MatchSet(nil), m.Sets...)
	return &c
}

func (s *fakeStore) snapshot() *fakeStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := newFakeStore()
	c.nextID = s.nextID
	for id, t := range s.tournaments {
		cp := *t
		c.tournaments[id] = &cp
	}
	for id, p := range s.players {
		cp := *p
		c.players[id] = &cp
	}
	for id, t := range s.teams {
		cp := *t
		c.teams[id] = &cp
	}
	for id, e := range s.entries {
		cp := *e
		c.entries[id] = &cp
	}
	for id, m := range s.matches {
		c.matches[id] = cloneMatch(m)
	}
	for id, b := range s.brackets {
		cp := *b
		c.brackets[id] = &cp
	}
	for id, p := range s.positions {
		c.positions[id] = append([]models.DrawPosition(nil), p...)
	}
	for id, p := range s.placements {
		c.placements[id] = append([]models.TournamentPlacement(nil), p...)
	}
	c.dynamics = append([]models.PlayerRatingDynamic(nil), s.dynamics...)
	c.history = append([]models.PlayerRatingHistory(nil), s.history...)
	return c
}

func (s *fakeStore) restore(c *fakeStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = c.nextID
	s.tournaments, s.players, s.teams, s.entries = c.tournaments, c.players, c.teams, c.entries
	s.matches, s.brackets, s.positions, s.placements = c.matches, c.brackets, c.positions, c.placements
	s.dynamics, s.history = c.dynamics, c.history
}

// fakeTx rolls the whole store back when fn fails.
type fakeTx struct{ s *fakeStore }

func (tx fakeTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	saved := tx.s.snapshot()
	if err := fn(nil); err != nil {
		tx.s.restore(saved)
		return err
	}
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) NotifyTournament(_ int, eventType string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventType)
}

// --- tournaments ---

type fakeTournaments struct{ s *fakeStore }

func (r fakeTournaments) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	r.s.addTournament(t)
	return nil
}

func (r fakeTournaments) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r fakeTournaments) ListStages(_ context.Context, _ repositories.SQLExecutor, masterID int) ([]*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Tournament
	for _, t := range r.s.tournaments {
		if t.ParentID != nil && *t.ParentID == masterID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StageOrder != out[j].StageOrder {
			return out[i].StageOrder < out[j].StageOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func tournamentBefore(a, b *models.Tournament) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}

func (r fakeTournaments) ListMasters(_ context.Context, _ repositories.SQLExecutor, f repositories.ListTournamentsFilter) ([]*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[int]bool, len(f.IDs))
	for _, id := range f.IDs {
		wanted[id] = true
	}
	var out []*models.Tournament
	for _, t := range r.s.tournaments {
		switch {
		case t.ParentID != nil,
			f.FromDate != nil && t.Date.Before(*f.FromDate),
			f.ToDate != nil && t.Date.After(*f.ToDate),
			len(wanted) > 0 && !wanted[t.ID]:
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return tournamentBefore(out[i], out[j]) })
	return out, nil
}

func (r fakeTournaments) LockForUpdate(_ context.Context, _ repositories.SQLExecutor, ids []int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		if _, ok := r.s.tournaments[id]; !ok {
			return repositories.ErrTournamentNotFound
		}
	}
	r.s.locked = append(r.s.locked, append([]int(nil), ids...))
	return nil
}

// --- players and teams ---

type fakePlayers struct{ s *fakeStore }

func (r fakePlayers) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func (r fakePlayers) ListByIDs(_ context.Context, _ repositories.SQLExecutor, ids []int) ([]*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Player
	for _, id := range ids {
		if p, ok := r.s.players[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakePlayers) ListAll(_ context.Context, _ repositories.SQLExecutor) ([]*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Player
	for _, p := range r.s.players {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakePlayers) UpdateRatings(_ context.Context, _ repositories.SQLExecutor, ratings map[int]int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, v := range ratings {
		if p, ok := r.s.players[id]; ok {
			p.CurrentRating = v
		}
	}
	return nil
}

func (r fakePlayers) ResetRatings(_ context.Context, _ repositories.SQLExecutor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.players {
		p.CurrentRating = 0
	}
	return nil
}

type fakeTeams struct{ s *fakeStore }

func (r fakeTeams) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

func (r fakeTeams) ListByIDs(_ context.Context, _ repositories.SQLExecutor, ids []int) ([]*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Team
	for _, id := range ids {
		if t, ok := r.s.teams[id]; ok {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeTeams) FindByPlayers(_ context.Context, _ repositories.SQLExecutor, player1ID int, player2ID *int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *models.Team
	for _, t := range r.s.teams {
		match := false
		switch {
		case player2ID == nil:
			match = t.Player1ID == player1ID && t.Player2ID == nil
		case t.Player2ID != nil:
			match = (t.Player1ID == player1ID && *t.Player2ID == *player2ID) ||
				(t.Player1ID == *player2ID && *t.Player2ID == player1ID)
		}
		if match && (found == nil || t.ID < found.ID) {
			found = t
		}
	}
	if found == nil {
		return nil, repositories.ErrTeamNotFound
	}
	cp := *found
	return &cp, nil
}

func (r fakeTeams) Create(_ context.Context, _ repositories.SQLExecutor, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	team.ID = r.s.id()
	cp := *team
	r.s.teams[team.ID] = &cp
	return nil
}

// --- entries ---

type fakeEntries struct{ s *fakeStore }

func (r fakeEntries) withTeam(e *models.TournamentEntry) *models.TournamentEntry {
	cp := *e
	if t, ok := r.s.teams[e.TeamID]; ok {
		team := *t
		cp.Team = &team
	}
	return &cp
}

func (r fakeEntries) Create(_ context.Context, _ repositories.SQLExecutor, e *models.TournamentEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = r.s.id()
	cp := *e
	r.s.entries[e.ID] = &cp
	return nil
}

func (r fakeEntries) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[id]
	if !ok {
		return nil, repositories.ErrEntryNotFound
	}
	return r.withTeam(e), nil
}

func (r fakeEntries) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.TournamentEntry, error) {
	return r.ListByTournamentIDs(ctx, exec, []int{tournamentID})
}

func (r fakeEntries) ListByTournamentIDs(_ context.Context, _ repositories.SQLExecutor, ids []int) ([]*models.TournamentEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []*models.TournamentEntry
	for _, e := range r.s.entries {
		if wanted[e.TournamentID] {
			out = append(out, r.withTeam(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- matches ---

type fakeMatches struct{ s *fakeStore }

func (r fakeMatches) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.s.addMatch(m)
	return nil
}

func (r fakeMatches) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (r fakeMatches) sorted(keep func(m *models.Match) bool) []*models.Match {
	var out []*models.Match
	for _, m := range r.s.matches {
		if keep(m) {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round() != out[j].Round() {
			return out[i].Round() < out[j].Round()
		}
		if out[i].OrderInRound != out[j].OrderInRound {
			return out[i].OrderInRound < out[j].OrderInRound
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r fakeMatches) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, f repositories.MatchFilter) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(m *models.Match) bool {
		switch {
		case m.TournamentID != tournamentID,
			f.Stage != nil && m.Stage != *f.Stage,
			f.GroupIndex != nil && (m.GroupIndex == nil || *m.GroupIndex != *f.GroupIndex),
			f.BracketID != nil && (m.BracketID == nil || *m.BracketID != *f.BracketID):
			return false
		}
		return true
	}), nil
}

func (r fakeMatches) ListCompletedByTournamentIDs(_ context.Context, _ repositories.SQLExecutor, ids []int) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	return r.sorted(func(m *models.Match) bool {
		return wanted[m.TournamentID] && m.Status == models.MatchCompleted
	}), nil
}

func (r fakeMatches) UpdateState(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.matches[m.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Normalize()
	stored.Team1ID, stored.Team2ID, stored.TeamLowID, stored.TeamHighID = m.Team1ID, m.Team2ID, m.TeamLowID, m.TeamHighID
	stored.WinnerID, stored.Status, stored.StartedAt, stored.FinishedAt = m.WinnerID, m.Status, m.StartedAt, m.FinishedAt
	return nil
}

func (r fakeMatches) UpdateSchedule(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.matches[m.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	stored.RoundIndex, stored.RoundName, stored.OrderInRound = m.RoundIndex, m.RoundName, m.OrderInRound
	return nil
}

func (r fakeMatches) DeleteByIDs(_ context.Context, _ repositories.SQLExecutor, ids []int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		delete(r.s.matches, id)
	}
	return nil
}

func (r fakeMatches) ReplaceSets(_ context.Context, _ repositories.SQLExecutor, matchID int, sets []models.MatchSet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	stored.Sets = append([]models.MatchSet(nil), sets...)
	return nil
}

func (r fakeMatches) DeleteSets(_ context.Context, _ repositories.SQLExecutor, ids []int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		if m, ok := r.s.matches[id]; ok {
			m.Sets = nil
		}
	}
	return nil
}

// --- brackets ---

type fakeBrackets struct{ s *fakeStore }

func (r fakeBrackets) Create(_ context.Context, _ repositories.SQLExecutor, b *models.KnockoutBracket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b.Index == 0 {
		for _, other := range r.s.brackets {
			if other.TournamentID == b.TournamentID && other.Index > b.Index {
				b.Index = other.Index
			}
		}
		b.Index++
	}
	b.ID = r.s.id()
	cp := *b
	cp.Positions, cp.Matches = nil, nil
	r.s.brackets[b.ID] = &cp
	return nil
}

func (r fakeBrackets) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.KnockoutBracket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.brackets[id]
	if !ok {
		return nil, repositories.ErrBracketNotFound
	}
	cp := *b
	return &cp, nil
}

func (r fakeBrackets) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.KnockoutBracket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.KnockoutBracket
	for _, b := range r.s.brackets {
		if b.TournamentID == tournamentID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (r fakeBrackets) ReplacePositions(_ context.Context, _ repositories.SQLExecutor, bracketID int, positions []models.DrawPosition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.positions[bracketID] = append([]models.DrawPosition(nil), positions...)
	return nil
}

func (r fakeBrackets) ListPositions(_ context.Context, _ repositories.SQLExecutor, bracketID int) ([]models.DrawPosition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]models.DrawPosition(nil), r.s.positions[bracketID]...), nil
}

// --- ratings and placements ---

type fakeRatings struct{ s *fakeStore }

func (r fakeRatings) DeleteByTournamentIDs(_ context.Context, _ repositories.SQLExecutor, ids []int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	dyn := r.s.dynamics[:0:0]
	for _, d := range r.s.dynamics {
		if !wanted[d.TournamentID] {
			dyn = append(dyn, d)
		}
	}
	hist := r.s.history[:0:0]
	for _, h := range r.s.history {
		if !wanted[h.TournamentID] {
			hist = append(hist, h)
		}
	}
	r.s.dynamics, r.s.history = dyn, hist
	return nil
}

func (r fakeRatings) DeleteAll(_ context.Context, _ repositories.SQLExecutor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.dynamics, r.s.history = nil, nil
	return nil
}

func (r fakeRatings) InsertDynamics(_ context.Context, _ repositories.SQLExecutor, dynamics []models.PlayerRatingDynamic) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range dynamics {
		d.ID = r.s.id()
		r.s.dynamics = append(r.s.dynamics, d)
	}
	return nil
}

func (r fakeRatings) InsertHistory(_ context.Context, _ repositories.SQLExecutor, history []models.PlayerRatingHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, h := range history {
		h.ID = r.s.id()
		r.s.history = append(r.s.history, h)
	}
	return nil
}

func (r fakeRatings) RatingsBefore(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (map[int]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int]int)
	for _, d := range r.s.dynamics {
		if d.TournamentID == tournamentID {
			out[d.PlayerID] = d.RatingBefore
		}
	}
	return out, nil
}

func (r fakeRatings) LatestRatingsBefore(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) (map[int]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	latest := make(map[int]*models.Tournament)
	out := make(map[int]int)
	for _, d := range r.s.dynamics {
		owner := r.s.tournaments[d.TournamentID]
		if owner == nil || !tournamentBefore(owner, t) {
			continue
		}
		if prev := latest[d.PlayerID]; prev == nil || tournamentBefore(prev, owner) {
			latest[d.PlayerID] = owner
			out[d.PlayerID] = d.RatingAfter
		}
	}
	return out, nil
}

func (r fakeRatings) ListDynamics(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.PlayerRatingDynamic, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.PlayerRatingDynamic
	for _, d := range r.s.dynamics {
		if d.TournamentID == tournamentID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

type fakePlacements struct{ s *fakeStore }

func (r fakePlacements) ReplaceForTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, placements []models.TournamentPlacement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.placements[tournamentID] = append([]models.TournamentPlacement(nil), placements...)
	return nil
}

func (r fakePlacements) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.TournamentPlacement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]models.TournamentPlacement(nil), r.s.placements[tournamentID]...), nil
}
