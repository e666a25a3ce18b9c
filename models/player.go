package models

import "time"

type Player struct {
	ID            int       `json:"id"`
	FullName      string    `json:"full_name"`
	CurrentRating int       `json:"current_rating"`
	BTRRating     *int      `json:"btr_rating,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Team is one or two players. Player2ID is nil for singles.
type Team struct {
	ID        int       `json:"id"`
	Player1ID int       `json:"player1_id"`
	Player2ID *int      `json:"player2_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Players []*Player `json:"players,omitempty"`
}

func (t *Team) PlayerIDs() []int {
	if t.Player2ID == nil {
		return []int{t.Player1ID}
	}
	return []int{t.Player1ID, *t.Player2ID}
}

// DisplayName joins the player names, falling back to the team id.
func (t *Team) DisplayName() string {
	name := ""
	for _, p := range t.Players {
		if p == nil {
			continue
		}
		if name != "" {
			name += " / "
		}
		name += p.FullName
	}
	return name
}

// TournamentEntry is a team placed in a tournament.
type TournamentEntry struct {
	ID               int       `json:"id"`
	TournamentID     int       `json:"tournament_id"`
	TeamID           int       `json:"team_id"`
	GroupIndex       *int      `json:"group_index,omitempty"`
	RowIndex         *int      `json:"row_index,omitempty"`
	OutOfCompetition bool      `json:"out_of_competition"`
	CreatedAt        time.Time `json:"created_at"`

	Team *Team `json:"team,omitempty"`
}
