package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/beach-tennis-system/models"
)

func kingPairKey(a, b int) [2]int {
	return [2]int{min(a, b), max(a, b)}
}

func TestGenerateKingRoundsBalance(t *testing.T) {
	for n := MinKingParticipants; n <= MaxKingParticipants; n++ {
		rounds, err := GenerateKingRounds(n)
		require.NoError(t, err, "n=%d", n)
		require.NotEmpty(t, rounds)

		played := make([]int, n)
		partners := make(map[[2]int]int)
		for ri, r := range rounds {
			seen := make(map[int]bool, n)
			mark := func(x int) {
				assert.False(t, seen[x], "n=%d round %d player %d appears twice", n, ri, x)
				seen[x] = true
			}
			for _, m := range r.Matches {
				for _, team := range [][2]int{m.Team1, m.Team2} {
					mark(team[0])
					mark(team[1])
					played[team[0]]++
					played[team[1]]++
					partners[kingPairKey(team[0], team[1])]++
				}
			}
			for _, x := range r.Resting {
				mark(x)
			}
			assert.Len(t, seen, n, "n=%d round %d must list every player", n, ri)
		}

		lo, hi := played[0], played[0]
		for _, p := range played {
			lo, hi = min(lo, p), max(hi, p)
		}
		assert.LessOrEqual(t, hi-lo, 1, "n=%d played %v", n, played)

		repeats := 0
		for _, c := range partners {
			repeats += c - 1
		}
		if n == 6 {
			assert.LessOrEqual(t, repeats, 1, "n=6")
			assert.Len(t, partners, 15, "n=6 every pair partners")
		} else {
			assert.Zero(t, repeats, "n=%d repeats a partnership", n)
		}
	}
}

func TestGenerateKingRoundsTables(t *testing.T) {
	rounds, err := GenerateKingRounds(4)
	require.NoError(t, err)
	require.Len(t, rounds, 3)
	for _, r := range rounds {
		assert.Empty(t, r.Resting)
	}

	rounds, err = GenerateKingRounds(5)
	require.NoError(t, err)
	require.Len(t, rounds, 5)
	assert.Equal(t, []int{2}, rounds[2].Resting)
	rests := make(map[int]int)
	for _, r := range rounds {
		require.Len(t, r.Resting, 1)
		rests[r.Resting[0]]++
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, 1, rests[i], "player %d", i)
	}

	rounds, err = GenerateKingRounds(6)
	require.NoError(t, err)
	require.Len(t, rounds, 8)
	for i, r := range rounds {
		assert.Len(t, r.Resting, 2)
		if i > 0 {
			for _, x := range r.Resting {
				assert.NotContains(t, rounds[i-1].Resting, x, "player %d rests twice in a row", x)
			}
		}
	}
}

func TestGenerateKingRoundsTablesAreCopies(t *testing.T) {
	rounds, err := GenerateKingRounds(5)
	require.NoError(t, err)
	rounds[0].Resting[0] = 99

	again, err := GenerateKingRounds(5)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, again[0].Resting)
}

func TestGenerateKingRoundsInvalidCount(t *testing.T) {
	for _, n := range []int{0, 3, 17} {
		_, err := GenerateKingRounds(n)
		assert.ErrorIs(t, err, ErrInvalidKingParticipants)
	}
}

func TestGenerateKingRoundsDeterministic(t *testing.T) {
	a, err := GenerateKingRounds(11)
	require.NoError(t, err)
	b, err := GenerateKingRounds(11)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseKingSchedule(t *testing.T) {
	raw := `{"rounds":[{"matches":[[[1,2],[3,4]]],"resting":[5]},{"matches":[[[5,1],[2,3]]],"resting":[4]}]}`
	rounds, err := ParseKingSchedule(raw, 5)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, KingMatch{Team1: [2]int{0, 1}, Team2: [2]int{2, 3}}, rounds[0].Matches[0])
	assert.Equal(t, []int{4}, rounds[0].Resting)
	assert.Equal(t, [2]int{4, 0}, rounds[1].Matches[0].Team1)

	_, err = ParseKingSchedule(`{"rounds":[{"matches":[[[1,2],[3,6]]]}]}`, 5)
	assert.ErrorIs(t, err, ErrInvalidKingSchedule)

	_, err = ParseKingSchedule(`{"rounds":[{"matches":[[[1,2],[2,3]]]}]}`, 5)
	assert.ErrorIs(t, err, ErrInvalidKingSchedule)

	_, err = ParseKingSchedule(`{"rounds":[]}`, 5)
	assert.ErrorIs(t, err, ErrInvalidKingSchedule)
}

func TestKingGenerator(t *testing.T) {
	entries := make([]*models.TournamentEntry, 4)
	for i := range entries {
		entries[i] = &models.TournamentEntry{ID: 100 + i}
	}
	gen := NewKingGenerator()
	matches, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{
		Tournament: &models.Tournament{System: models.SystemKing},
		Entries:    entries,
	})
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, []int{100, 101}, matches[0].Side1)
	assert.Equal(t, []int{102, 103}, matches[0].Side2)

	custom := `{"rounds":[{"matches":[[[4,3],[2,1]]],"resting":[]}]}`
	matches, err = gen.GenerateBracket(context.Background(), GenerateBracketParams{
		Tournament: &models.Tournament{System: models.SystemKing, KingScheduleJSON: &custom},
		Entries:    entries,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, []int{103, 102}, matches[0].Side1)
}
