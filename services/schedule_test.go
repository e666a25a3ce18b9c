package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/beach-tennis-system/brackets"
	"github.com/Dosada05/beach-tennis-system/models"
)

func TestGenerateRoundRobinSchedule(t *testing.T) {
	svc := NewRoundRobinService(newFakeStore().deps())

	rounds, err := svc.GenerateRoundRobinSchedule([]int{10, 20, 30}, models.PatternBerger, nil)
	require.NoError(t, err)
	require.Len(t, rounds, 3)

	pairs := make(map[[2]int]int)
	byes := make(map[int]int)
	for _, r := range rounds {
		require.NotNil(t, r.Bye)
		byes[*r.Bye]++
		for _, p := range r.Pairings {
			low, high := models.NormalizedPair(p.Home, p.Away)
			pairs[[2]int{low, high}]++
		}
	}
	assert.Equal(t, map[[2]int]int{{10, 20}: 1, {10, 30}: 1, {20, 30}: 1}, pairs)
	assert.Equal(t, map[int]int{10: 1, 20: 1, 30: 1}, byes)

	_, err = svc.GenerateRoundRobinSchedule([]int{10, 10}, models.PatternSnake, nil)
	assert.ErrorIs(t, err, ErrEntrantsNotUniqueInput)

	_, err = svc.GenerateRoundRobinSchedule([]int{10}, models.PatternBerger, nil)
	assert.ErrorIs(t, err, brackets.ErrNotEnoughParticipants)
	assert.True(t, IsValidation(err))
}

func TestGenerateRoundRobinMatchesKeepsRecordedResults(t *testing.T) {
	s := newFakeStore()
	tour := s.addTournament(&models.Tournament{Name: "RR", System: models.SystemRoundRobin, RoundRobinPattern: models.PatternBerger, Format: classicFormat})
	var groupA []*models.TournamentEntry
	for i := 0; i < 4; i++ {
		groupA = append(groupA, s.addEntry(tour.ID, s.addTeam(s.addPlayer("a", 1000)), 0, i))
	}
	for i := 0; i < 3; i++ {
		s.addEntry(tour.ID, s.addTeam(s.addPlayer("b", 1000)), 1, i)
	}

	notifier := &fakeNotifier{}
	deps := s.deps()
	deps.Notifier = notifier
	svc := NewRoundRobinService(deps)
	ctx := context.Background()

	created, err := svc.GenerateRoundRobinMatches(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, created)
	assert.Equal(t, 9, s.countMatches(tour.ID))
	assert.Equal(t, []string{brackets.EventScheduleUpdated}, notifier.events)

	created, err = svc.GenerateRoundRobinMatches(ctx, tour.ID)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 9, s.countMatches(tour.ID))

	// record a result between the first two entries, then drop the last one
	var kept *models.Match
	for _, m := range s.matches {
		low, high := models.NormalizedPair(groupA[0].TeamID, groupA[1].TeamID)
		if m.TeamLowID != nil && *m.TeamLowID == low && *m.TeamHighID == high {
			kept = m
		}
	}
	require.NotNil(t, kept)
	kept.Sets = straightSets(6, 1)
	kept.Status = models.MatchCompleted
	delete(s.entries, groupA[3].ID)

	created, err = svc.GenerateRoundRobinMatches(ctx, tour.ID)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 6, s.countMatches(tour.ID))
	stored := s.match(kept.ID)
	require.NotNil(t, stored)
	assert.Len(t, stored.Sets, 2)
	assert.Equal(t, models.MatchCompleted, stored.Status)
}

func TestGenerateRoundRobinMatchesWrongSystem(t *testing.T) {
	s := newFakeStore()
	tour := s.addTournament(&models.Tournament{Name: "King", System: models.SystemKing})
	_, err := NewRoundRobinService(s.deps()).GenerateRoundRobinMatches(context.Background(), tour.ID)
	assert.ErrorIs(t, err, ErrWrongTournamentSystem)
}

type kingFixture struct {
	store      *fakeStore
	tournament *models.Tournament
	entries    []*models.TournamentEntry
	svc        KingService
}

func newKingFixture(t *testing.T, n int) *kingFixture {
	t.Helper()
	s := newFakeStore()
	f := &kingFixture{store: s}
	f.tournament = s.addTournament(&models.Tournament{
		Name:                "King",
		System:              models.SystemKing,
		ParticipantMode:     models.ModeSingles,
		KingCalculationMode: models.KingModeNo,
		Format:              models.MatchFormat{GamesTo: 6, MaxSets: 1},
	})
	for i := 0; i < n; i++ {
		f.entries = append(f.entries, s.addEntry(f.tournament.ID, s.addTeam(s.addPlayer(string(rune('A'+i)), 1000)), 0, i))
	}
	f.svc = NewKingService(s.deps())
	return f
}

func TestGenerateKingSchedule(t *testing.T) {
	f := newKingFixture(t, 5)

	groups, err := f.svc.GenerateKingSchedule(context.Background(), f.tournament.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	g := groups[0]
	require.Len(t, g.Entrants, 5)
	assert.Equal(t, f.entries[0].ID, g.Entrants[0].EntryID)
	assert.Equal(t, "A", g.Entrants[0].Name)
	require.Len(t, g.Rounds, 5)
	assert.Equal(t, []int{2}, g.Rounds[2].Resting)

	rests := make(map[int]int)
	for _, r := range g.Rounds {
		for _, idx := range r.Resting {
			rests[idx]++
		}
	}
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1, 3: 1, 4: 1}, rests)
}

func TestGenerateKingScheduleRejectsDoubles(t *testing.T) {
	f := newKingFixture(t, 4)
	a, b := f.store.addPlayer("X", 1000), f.store.addPlayer("Y", 1000)
	f.store.addEntry(f.tournament.ID, f.store.addTeam(a, b), 0, 5)

	_, err := f.svc.GenerateKingSchedule(context.Background(), f.tournament.ID)
	assert.ErrorIs(t, err, ErrKingEntryNotSingle)
}

func TestPersistKingMatches(t *testing.T) {
	f := newKingFixture(t, 5)
	ctx := context.Background()

	created, err := f.svc.PersistKingMatches(ctx, f.tournament.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, created)
	assert.Equal(t, 5, f.store.countMatches(f.tournament.ID))
	for _, m := range f.store.matches {
		team := f.store.teams[*m.Team1ID]
		require.NotNil(t, team.Player2ID, "king matches are played by pairs")
	}

	created, err = f.svc.PersistKingMatches(ctx, f.tournament.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, created)

	// a supplied schedule replaces the generated one
	groups, err := f.svc.GenerateKingSchedule(ctx, f.tournament.ID)
	require.NoError(t, err)
	groups[0].Rounds = groups[0].Rounds[:2]
	created, err = f.svc.PersistKingMatches(ctx, f.tournament.ID, groups)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 2, f.store.countMatches(f.tournament.ID))

	groups[0].Rounds = []brackets.KingRound{{Matches: []brackets.KingMatch{{Team1: [2]int{0, 0}, Team2: [2]int{1, 2}}}}}
	_, err = f.svc.PersistKingMatches(ctx, f.tournament.ID, groups)
	assert.ErrorIs(t, err, brackets.ErrInvalidKingSchedule)
	assert.Equal(t, 2, f.store.countMatches(f.tournament.ID))
}
