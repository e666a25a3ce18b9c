package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/beach-tennis-system/models"
)

func intPtr(v int) *int { return &v }

var classic = models.MatchFormat{GamesTo: 6, MaxSets: 3, AllowTiebreakOnlySet: true}

func TestSetWinner(t *testing.T) {
	onlyTB := models.MatchFormat{GamesTo: 0, MaxSets: 1, AllowTiebreakOnlySet: true}

	tests := []struct {
		name   string
		set    models.MatchSet
		format models.MatchFormat
		want   Side
	}{
		{"games decide", models.MatchSet{Index: 1, Games1: 6, Games2: 3}, classic, Side1},
		{"games decide side 2", models.MatchSet{Index: 2, Games1: 4, Games2: 6}, classic, Side2},
		{"drawn set", models.MatchSet{Index: 1, Games1: 5, Games2: 5}, classic, SideNone},
		{"tiebreak only uses points", models.MatchSet{Index: 3, Games1: 1, Games2: 0, TB1: intPtr(8), TB2: intPtr(10), IsTiebreakOnly: true}, classic, Side2},
		{"decider with tiebreak ignores games", models.MatchSet{Index: 3, Games1: 7, Games2: 6, TB1: intPtr(5), TB2: intPtr(7)}, classic, Side2},
		{"tiebreak on set 2 uses games", models.MatchSet{Index: 2, Games1: 7, Games2: 6, TB1: intPtr(5), TB2: intPtr(7)}, classic, Side1},
		{"only tiebreak format reads games", models.MatchSet{Index: 1, Games1: 10, Games2: 12, TB1: intPtr(10), TB2: intPtr(12), IsTiebreakOnly: true}, onlyTB, Side2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SetWinner(tt.set, tt.format))
		})
	}
}

func TestEvaluate(t *testing.T) {
	sets := []models.MatchSet{
		{Index: 1, Games1: 6, Games2: 4},
		{Index: 2, Games1: 3, Games2: 6},
		{Index: 3, Games1: 1, Games2: 0, TB1: intPtr(10), TB2: intPtr(7), IsTiebreakOnly: true},
	}
	out := Evaluate(sets, classic)
	assert.Equal(t, 2, out.Team1Sets)
	assert.Equal(t, 1, out.Team2Sets)
	assert.Equal(t, 3, out.SetsPlayed)
	assert.Equal(t, Side1, out.Winner)
	assert.Equal(t, 1, out.SetsDiff())

	t.Run("free format draw has no winner", func(t *testing.T) {
		out := Evaluate([]models.MatchSet{
			{Index: 1, Games1: 6, Games2: 2},
			{Index: 2, Games1: 2, Games2: 6},
		}, models.MatchFormat{FreeFormat: true})
		assert.Equal(t, SideNone, out.Winner)
		assert.Equal(t, 0, out.SetsDrawn)
	})

	t.Run("no sets", func(t *testing.T) {
		out := Evaluate(nil, classic)
		assert.Equal(t, SideNone, out.Winner)
		assert.Zero(t, out.SetsPlayed)
	})
}

func TestKnockoutWinner(t *testing.T) {
	t.Run("sets decide", func(t *testing.T) {
		side, err := KnockoutWinner([]models.MatchSet{{Index: 1, Games1: 2, Games2: 6}}, classic)
		require.NoError(t, err)
		assert.Equal(t, Side2, side)
	})

	t.Run("games break a set tie", func(t *testing.T) {
		side, err := KnockoutWinner([]models.MatchSet{
			{Index: 1, Games1: 6, Games2: 0},
			{Index: 2, Games1: 4, Games2: 6},
		}, classic)
		require.NoError(t, err)
		assert.Equal(t, Side1, side)
	})

	t.Run("exact tie is an error", func(t *testing.T) {
		_, err := KnockoutWinner([]models.MatchSet{
			{Index: 1, Games1: 6, Games2: 4},
			{Index: 2, Games1: 4, Games2: 6},
		}, classic)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCannotDetermineWinner)
	})
}

func TestGamesFor(t *testing.T) {
	champion := models.MatchSet{Index: 3, TB1: intPtr(10), TB2: intPtr(8), IsTiebreakOnly: true}
	g1, g2 := GamesFor(champion, classic, false)
	assert.Equal(t, []int{1, 0}, []int{g1, g2})

	onlyTB := models.MatchFormat{GamesTo: 0, MaxSets: 1, AllowTiebreakOnlySet: true}
	raw := models.MatchSet{Index: 1, Games1: 7, Games2: 10, TB1: intPtr(7), TB2: intPtr(10), IsTiebreakOnly: true}
	g1, g2 = GamesFor(raw, onlyTB, false)
	assert.Equal(t, []int{7, 10}, []int{g1, g2})

	decider := models.MatchSet{Index: 3, Games1: 7, Games2: 6, TB1: intPtr(4), TB2: intPtr(7)}
	g1, g2 = GamesFor(decider, classic, false)
	assert.Equal(t, []int{7, 6}, []int{g1, g2})
	g1, g2 = GamesFor(decider, classic, true)
	assert.Equal(t, []int{0, 1}, []int{g1, g2})
}

func TestValidateSets(t *testing.T) {
	sets := []models.MatchSet{{Index: 2, Games1: 6, Games2: 1}, {Index: 1, Games1: 6, Games2: 2}}
	require.NoError(t, ValidateSets(sets, classic))
	assert.Equal(t, 1, sets[0].Index)

	err := ValidateSets([]models.MatchSet{{Index: 1}, {Index: 3}}, classic)
	assert.ErrorIs(t, err, ErrInvalidSets)

	err = ValidateSets([]models.MatchSet{{Index: 1, Games1: 6, TB1: intPtr(3)}}, classic)
	assert.ErrorIs(t, err, ErrInvalidSets)

	err = ValidateSets([]models.MatchSet{{Index: 1}, {Index: 2}}, models.MatchFormat{MaxSets: 1})
	assert.ErrorIs(t, err, ErrInvalidSets)
}
