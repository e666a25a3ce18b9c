package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/beach-tennis-system/models"
)

func ptr(v int) *int { return &v }

// bracketFixture returns matches of a size-8 bracket with a third-place match,
// first round filled with teams 1..8.
func bracketFixture(t *testing.T) ([]*models.Match, map[string]*models.Match) {
	t.Helper()
	generated, err := BuildKnockoutMatches(8, true)
	require.NoError(t, err)

	matches := make([]*models.Match, 0, len(generated))
	byUID := make(map[string]*models.Match)
	for i, bm := range generated {
		m := &models.Match{
			ID:           i + 1,
			RoundIndex:   ptr(bm.Round),
			RoundName:    bm.RoundName,
			OrderInRound: bm.OrderInRound,
			IsThirdPlace: bm.IsThirdPlace,
			Status:       models.MatchScheduled,
		}
		if bm.Round == 1 {
			m.Team1ID = ptr(2*bm.OrderInRound - 1)
			m.Team2ID = ptr(2 * bm.OrderInRound)
		}
		matches = append(matches, m)
		byUID[bm.UID] = m
	}
	return matches, byUID
}

func win(t *testing.T, a *Advancer, m *models.Match, team int) ResetResult {
	t.Helper()
	m.WinnerID = ptr(team)
	m.Status = models.MatchCompleted
	res, err := a.Advance(m)
	require.NoError(t, err)
	return res
}

func TestAdvancerWinnerPropagation(t *testing.T) {
	matches, m := bracketFixture(t)
	a := NewAdvancer(matches)

	res := win(t, a, m["R1M1"], 1)
	assert.Equal(t, 1, *m["R2M1"].Team1ID)
	assert.Nil(t, m["R2M1"].Team2ID)
	assert.Len(t, res.Changed, 1)

	win(t, a, m["R1M2"], 4)
	assert.Equal(t, 4, *m["R2M1"].Team2ID)
	assert.Equal(t, 1, *m["R2M1"].TeamLowID)
	assert.Equal(t, 4, *m["R2M1"].TeamHighID)

	win(t, a, m["R1M3"], 5)
	win(t, a, m["R1M4"], 8)
	assert.Equal(t, 5, *m["R2M2"].Team1ID)
	assert.Equal(t, 8, *m["R2M2"].Team2ID)

	// semifinals feed the final and the third-place match
	win(t, a, m["R2M1"], 4)
	win(t, a, m["R2M2"], 5)
	assert.Equal(t, 4, *m["R3M1"].Team1ID)
	assert.Equal(t, 5, *m["R3M1"].Team2ID)
	assert.Equal(t, 1, *m["R4M1"].Team1ID)
	assert.Equal(t, 8, *m["R4M1"].Team2ID)

	res = win(t, a, m["R3M1"], 4)
	assert.Empty(t, res.Changed, "final has no downstream match")
}

func TestAdvancerResetCascades(t *testing.T) {
	matches, m := bracketFixture(t)
	a := NewAdvancer(matches)

	win(t, a, m["R1M1"], 1)
	win(t, a, m["R1M2"], 3)
	win(t, a, m["R1M3"], 5)
	win(t, a, m["R1M4"], 7)
	win(t, a, m["R2M1"], 1)
	win(t, a, m["R2M2"], 7)
	win(t, a, m["R3M1"], 1)
	win(t, a, m["R4M1"], 3)

	res, err := a.Reset(m["R1M1"])
	require.NoError(t, err)

	assert.Nil(t, m["R1M1"].WinnerID)
	assert.Equal(t, models.MatchScheduled, m["R1M1"].Status)
	assert.Nil(t, m["R2M1"].Team1ID)
	assert.Nil(t, m["R2M1"].WinnerID)
	assert.Nil(t, m["R3M1"].Team1ID)
	assert.Nil(t, m["R3M1"].WinnerID)
	assert.Equal(t, 7, *m["R3M1"].Team2ID)
	assert.Nil(t, m["R4M1"].Team1ID, "semifinal loser removed from third place")
	assert.Nil(t, m["R4M1"].WinnerID)
	assert.Equal(t, 5, *m["R4M1"].Team2ID)

	assert.ElementsMatch(t, []int{m["R1M1"].ID, m["R2M1"].ID, m["R3M1"].ID, m["R4M1"].ID}, res.ClearedMatchIDs)
	assert.Len(t, res.Changed, 4)

	// untouched branch keeps its results
	assert.Equal(t, 7, *m["R2M2"].WinnerID)
}

func TestAdvancerChangedWinnerResetsDownstream(t *testing.T) {
	matches, m := bracketFixture(t)
	a := NewAdvancer(matches)

	win(t, a, m["R1M1"], 1)
	win(t, a, m["R1M2"], 3)
	win(t, a, m["R2M1"], 1)

	res := win(t, a, m["R1M1"], 2)
	assert.Equal(t, 2, *m["R2M1"].Team1ID)
	assert.Nil(t, m["R2M1"].WinnerID)
	assert.Nil(t, m["R3M1"].Team1ID)
	assert.Contains(t, res.ClearedMatchIDs, m["R2M1"].ID)
}

func TestAdvancerErrors(t *testing.T) {
	matches, m := bracketFixture(t)
	a := NewAdvancer(matches)

	_, err := a.Advance(m["R1M1"])
	assert.ErrorIs(t, err, ErrMatchHasNoWinner)

	_, err = a.Advance(&models.Match{ID: 999, WinnerID: ptr(1)})
	assert.ErrorIs(t, err, ErrMatchNotInBracket)

	_, err = a.Reset(&models.Match{ID: 999})
	assert.ErrorIs(t, err, ErrMatchNotInBracket)
}

func TestAdvancerCompleteByes(t *testing.T) {
	matches, m := bracketFixture(t)
	m["R1M1"].Team2ID = nil
	m["R1M4"].Team1ID = nil
	a := NewAdvancer(matches)

	res := a.CompleteByes()
	assert.Equal(t, 1, *m["R1M1"].WinnerID)
	assert.Equal(t, models.MatchCompleted, m["R1M1"].Status)
	assert.Equal(t, 8, *m["R1M4"].WinnerID)
	assert.Equal(t, 1, *m["R2M1"].Team1ID)
	assert.Equal(t, 8, *m["R2M2"].Team2ID)
	assert.Nil(t, m["R1M2"].WinnerID)
	assert.Len(t, res.Changed, 4)
}

func TestAdvancerKeepsByeMatches(t *testing.T) {
	matches, m := bracketFixture(t)
	m["R1M2"].Team2ID = nil
	m["R1M2"].Normalize()
	a := NewAdvancer(matches)

	res := a.CompleteByes()
	require.Len(t, res.Changed, 2)
	assert.Equal(t, 3, *m["R1M2"].WinnerID)
	assert.Equal(t, 3, *m["R2M1"].Team2ID)
	assert.True(t, IsBye(m["R1M2"]))
	assert.False(t, IsBye(m["R1M1"]))
	assert.False(t, IsBye(m["R2M1"]))

	_, err := a.Reset(m["R1M2"])
	assert.ErrorIs(t, err, ErrByeMatchReset)
	assert.Equal(t, 3, *m["R1M2"].WinnerID)
	assert.Equal(t, models.MatchCompleted, m["R1M2"].Status)
	assert.Equal(t, 3, *m["R2M1"].Team2ID)

	win(t, a, m["R1M1"], 1)
	win(t, a, m["R2M1"], 3)
	_, err = a.Reset(m["R2M1"])
	require.NoError(t, err)
	assert.Equal(t, 3, *m["R2M1"].Team2ID, "bye winner stays in the second round")
}
