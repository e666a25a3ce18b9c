package standings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/beach-tennis-system/models"
)

var format = models.MatchFormat{GamesTo: 6, MaxSets: 3, AllowTiebreakOnlySet: true}

func intPtr(v int) *int { return &v }

// single is a one-set match a vs b.
func single(a, b, g1, g2 int) Result {
	return Result{Side1: []int{a}, Side2: []int{b}, Sets: []models.MatchSet{{Index: 1, Games1: g1, Games2: g2}}}
}

func TestAggregate(t *testing.T) {
	results := []Result{
		{Side1: []int{1}, Side2: []int{2}, Sets: []models.MatchSet{
			{Index: 1, Games1: 6, Games2: 4},
			{Index: 2, Games1: 3, Games2: 6},
			{Index: 3, TB1: intPtr(10), TB2: intPtr(6), IsTiebreakOnly: true},
		}},
		{Side1: []int{2}, Side2: []int{3}, Sets: []models.MatchSet{
			{Index: 1, Games1: 5, Games2: 5},
		}},
	}
	stats := Aggregate([]int{1, 2, 3, 4}, results, format, false)

	assert.Equal(t, Stats{EntrantID: 1, Matches: 1, Wins: 1, SetsWon: 2, SetsLost: 1, GamesWon: 10, GamesLost: 10}, *stats[1])
	assert.Equal(t, Stats{EntrantID: 2, Matches: 2, Losses: 1, SetsWon: 1, SetsLost: 2, SetsDrawn: 1, GamesWon: 15, GamesLost: 15}, *stats[2])
	assert.Equal(t, 0, stats[3].Wins, "a drawn match is not a win")
	assert.Equal(t, 1, stats[3].SetsDrawn)
	assert.Equal(t, Stats{EntrantID: 4}, *stats[4])
}

func TestAggregateOnlyTiebreakFormat(t *testing.T) {
	onlyTB := models.MatchFormat{GamesTo: 0, MaxSets: 1, AllowTiebreakOnlySet: true}
	results := []Result{{Side1: []int{1}, Side2: []int{2}, Sets: []models.MatchSet{
		{Index: 1, Games1: 10, Games2: 8, TB1: intPtr(10), TB2: intPtr(8), IsTiebreakOnly: true},
	}}}
	stats := Aggregate([]int{1, 2}, results, onlyTB, false)
	assert.Equal(t, 10, stats[1].GamesWon)
	assert.Equal(t, 8, stats[1].GamesLost)
	assert.Equal(t, 1, stats[1].Wins)
}

func TestRatioCompare(t *testing.T) {
	assert.Equal(t, 1, Ratio{3, 0}.Compare(Ratio{10, 1}))
	assert.Equal(t, 1, Ratio{3, 0}.Compare(Ratio{2, 0}))
	assert.Equal(t, 0, Ratio{2, 4}.Compare(Ratio{1, 2}))
	assert.Equal(t, -1, Ratio{0, 0}.Compare(Ratio{1, 1}))
	assert.Equal(t, 0, Ratio{0, 0}.Compare(Ratio{0, 3}))
	assert.Equal(t, -1, Ratio{5, 6}.Compare(Ratio{6, 7}))
}

func TestKingStandingsModes(t *testing.T) {
	results := []Result{
		{Round: 1, Side1: []int{1, 2}, Side2: []int{3, 4}, Sets: []models.MatchSet{{Index: 1, Games1: 6, Games2: 2}}},
		{Round: 2, Side1: []int{1, 3}, Side2: []int{2, 5}, Sets: []models.MatchSet{{Index: 1, Games1: 6, Games2: 4}}},
		{Round: 3, Side1: []int{1, 4}, Side2: []int{3, 5}, Sets: []models.MatchSet{{Index: 1, Games1: 3, Games2: 6}}},
	}
	entrants := []int{1, 2, 3, 4, 5}

	no, err := KingStandings(entrants, results, models.KingModeNo, format)
	require.NoError(t, err)
	assert.Equal(t, 2, no[1].Wins)
	assert.Equal(t, 15, no[1].GamesWon)
	assert.Equal(t, 12, no[1].GamesLost)
	assert.Equal(t, 14, no[3].GamesWon)

	gMinus, err := KingStandings(entrants, results, models.KingModeGMinus, format)
	require.NoError(t, err)
	assert.Equal(t, 2, gMinus[1].Wins)
	assert.Equal(t, 12, gMinus[1].GamesWon)
	assert.Equal(t, 2, gMinus[1].Matches)
	assert.Equal(t, 1, gMinus[3].Wins)
	assert.Equal(t, 8, gMinus[3].GamesWon)

	mPlus, err := KingStandings(entrants, results, models.KingModeMPlus, format)
	require.NoError(t, err)
	for _, id := range entrants {
		assert.Zero(t, mPlus[id].Wins, "entrant %d", id)
	}
	assert.Equal(t, 15, mPlus[1].GamesWon, "played every round, no credit")
	assert.Equal(t, 15, mPlus[2].GamesWon, "10 + 5 for one missing round")
	assert.Equal(t, 7, mPlus[4].GamesWon, "avg 2.5 rounds half to even")

	_, err = KingStandings(entrants, results, "weird", format)
	assert.Error(t, err)
}

func TestRankerWinsThenHeadToHead(t *testing.T) {
	results := []Result{
		single(1, 3, 6, 0), single(1, 4, 6, 0), single(2, 1, 6, 4),
		single(2, 4, 6, 4), single(3, 2, 6, 4), single(4, 3, 6, 4),
	}
	entrants := []Entrant{
		{ID: 1, Name: "Anna"}, {ID: 2, Name: "Boris"}, {ID: 3, Name: "Clara", Rating: 1000}, {ID: 4, Name: "Denis", Rating: 900},
	}

	order := NewRanker(nil, format).Rank(entrants, results, nil)
	assert.Equal(t, []int{2, 1, 4, 3}, order)

	order = NewRanker([]Criterion{CriterionWins, CriterionGamesRatioAll}, format).Rank(entrants, results, nil)
	assert.Equal(t, []int{1, 2, 3, 4}, order, "games ratio first, rating breaks the last tie")
}

func TestRankerMiniRoundRobin(t *testing.T) {
	entrants := []Entrant{{ID: 1, Rating: 1100}, {ID: 2, Rating: 900}, {ID: 3, Rating: 1200}}

	decisive := []Result{single(1, 2, 6, 0), single(2, 3, 6, 4), single(3, 1, 6, 3)}
	order := NewRanker(nil, format).Rank(entrants, decisive, nil)
	assert.Equal(t, []int{1, 3, 2}, order)

	cycle := []Result{single(1, 2, 6, 4), single(2, 3, 6, 4), single(3, 1, 6, 4)}
	order = NewRanker(nil, format).Rank(entrants, cycle, nil)
	assert.Equal(t, []int{3, 1, 2}, order, "undecided mini round robin falls back to rating")
}

func TestRankerFallback(t *testing.T) {
	entrants := []Entrant{
		{ID: 5, Name: "zoe", Rating: 1000},
		{ID: 2, Name: "Adam", Rating: 1000},
		{ID: 9, Name: "mark", Rating: 800, Special: true},
		{ID: 1, Name: "adam", Rating: 1000},
		{ID: 4, Name: "Bob", Rating: 1200},
	}
	order := NewRanker(nil, format).Rank(entrants, nil, nil)
	assert.Equal(t, []int{9, 4, 1, 2, 5}, order)
}

func TestRankerNameCriterion(t *testing.T) {
	entrants := []Entrant{{ID: 1, Name: "Victor", Rating: 2000}, {ID: 2, Name: "alex"}}
	order := NewRanker([]Criterion{CriterionNameAsc}, format).Rank(entrants, nil, nil)
	assert.Equal(t, []int{2, 1}, order)
}

func TestRankerIsStable(t *testing.T) {
	entrants := []Entrant{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}, {ID: 4, Name: "d"}}
	results := []Result{single(1, 2, 6, 3), single(3, 4, 6, 3), single(1, 3, 4, 6), single(2, 4, 6, 2)}
	r := NewRanker(DefaultRuleset, format)
	first := r.Rank(entrants, results, nil)
	second := r.Rank(entrants, results, nil)
	assert.Equal(t, first, second)
	assert.Equal(t, map[int]int{first[0]: 1, first[1]: 2, first[2]: 3, first[3]: 4}, Ranks(first))
}

func TestParseRuleset(t *testing.T) {
	c, err := ParseRuleset([]string{"wins", " H2H ", "games_ratio_between_tb3_as_1_0"})
	require.NoError(t, err)
	assert.Equal(t, []Criterion{CriterionWins, CriterionHeadToHead, CriterionGamesRatioBetweenTB3}, c)

	_, err = ParseRuleset([]string{"points"})
	assert.Error(t, err)

	assert.Equal(t, []Criterion{CriterionWins, CriterionGamesRatioAll}, KingRuleset([]Criterion{CriterionWins, CriterionHeadToHead, CriterionGamesRatioAll}))
	assert.Equal(t, DefaultKingRuleset, KingRuleset([]Criterion{CriterionHeadToHead}))
}

func TestGroupPlacements(t *testing.T) {
	got := GroupPlacements([][]int{{1, 2, 3}, {4, 5}})
	assert.Equal(t, []Placement{
		{EntrantID: 1, From: 1, To: 2}, {EntrantID: 4, From: 1, To: 2},
		{EntrantID: 2, From: 3, To: 4}, {EntrantID: 5, From: 3, To: 4},
		{EntrantID: 3, From: 5, To: 5},
	}, got)
}

func knockoutMatch(round, order int, t1, t2, winner int) *models.Match {
	return &models.Match{RoundIndex: intPtr(round), OrderInRound: order, Team1ID: intPtr(t1), Team2ID: intPtr(t2), WinnerID: intPtr(winner)}
}

func TestKnockoutPlacements(t *testing.T) {
	matches := []*models.Match{
		knockoutMatch(1, 1, 1, 8, 1), knockoutMatch(1, 2, 4, 5, 5),
		knockoutMatch(1, 3, 3, 6, 3), knockoutMatch(1, 4, 2, 7, 7),
		knockoutMatch(2, 1, 1, 5, 1), knockoutMatch(2, 2, 3, 7, 7),
		knockoutMatch(3, 1, 1, 7, 7),
	}
	got := KnockoutPlacements(matches)
	assert.Equal(t, []Placement{
		{EntrantID: 7, From: 1, To: 1},
		{EntrantID: 1, From: 2, To: 2},
		{EntrantID: 3, From: 3, To: 4}, {EntrantID: 5, From: 3, To: 4},
		{EntrantID: 2, From: 5, To: 8}, {EntrantID: 4, From: 5, To: 8}, {EntrantID: 6, From: 5, To: 8}, {EntrantID: 8, From: 5, To: 8},
	}, got)

	third := knockoutMatch(4, 1, 5, 3, 3)
	third.IsThirdPlace = true
	got = KnockoutPlacements(append(matches, third))
	assert.Equal(t, Placement{EntrantID: 3, From: 3, To: 3}, got[2])
	assert.Equal(t, Placement{EntrantID: 5, From: 4, To: 4}, got[3])
}
