package models

import "time"

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
)

type MatchStage string

const (
	StageGroup   MatchStage = "group"
	StagePlayoff MatchStage = "playoff"
)

type Match struct {
	ID           int         `json:"id"`
	TournamentID int         `json:"tournament_id"`
	BracketID    *int        `json:"bracket_id,omitempty"`
	Stage        MatchStage  `json:"stage"`
	GroupIndex   *int        `json:"group_index,omitempty"`
	RoundIndex   *int        `json:"round_index,omitempty"`
	RoundName    string      `json:"round_name"`
	OrderInRound int         `json:"order_in_round"`
	IsThirdPlace bool        `json:"is_third_place"`
	Team1ID      *int        `json:"team1_id,omitempty"`
	Team2ID      *int        `json:"team2_id,omitempty"`
	TeamLowID    *int        `json:"-"`
	TeamHighID   *int        `json:"-"`
	WinnerID     *int        `json:"winner_id,omitempty"`
	Status       MatchStatus `json:"status"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`

	Sets []MatchSet `json:"sets,omitempty"`
}

// NormalizedPair orders two team ids as (low, high).
func NormalizedPair(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

// Normalize refreshes TeamLowID/TeamHighID from the team slots.
func (m *Match) Normalize() {
	if m.Team1ID == nil || m.Team2ID == nil {
		m.TeamLowID, m.TeamHighID = nil, nil
		return
	}
	low, high := NormalizedPair(*m.Team1ID, *m.Team2ID)
	m.TeamLowID, m.TeamHighID = &low, &high
}

// Round returns RoundIndex or 0 when the match has none.
func (m *Match) Round() int {
	if m.RoundIndex == nil {
		return 0
	}
	return *m.RoundIndex
}

// Loser returns the team that did not win a completed two-sided match.
func (m *Match) Loser() *int {
	if m.WinnerID == nil || m.Team1ID == nil || m.Team2ID == nil {
		return nil
	}
	if *m.WinnerID == *m.Team1ID {
		return m.Team2ID
	}
	return m.Team1ID
}

type MatchSet struct {
	ID             int  `json:"id"`
	MatchID        int  `json:"match_id"`
	Index          int  `json:"index"`
	Games1         int  `json:"games_1"`
	Games2         int  `json:"games_2"`
	TB1            *int `json:"tb_1,omitempty"`
	TB2            *int `json:"tb_2,omitempty"`
	IsTiebreakOnly bool `json:"is_tiebreak_only"`
}
