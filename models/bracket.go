package models

import "time"

type DrawSource string

const (
	DrawMain DrawSource = "MAIN"
	DrawBye  DrawSource = "BYE"
)

type KnockoutBracket struct {
	ID            int       `json:"id"`
	TournamentID  int       `json:"tournament_id"`
	Index         int       `json:"index"`
	Size          int       `json:"size"`
	HasThirdPlace bool      `json:"has_third_place"`
	CreatedAt     time.Time `json:"created_at"`

	Positions []DrawPosition `json:"positions,omitempty"`
	Matches   []*Match       `json:"matches,omitempty"`
}

type DrawPosition struct {
	ID         int        `json:"id"`
	BracketID  int        `json:"bracket_id"`
	Position   int        `json:"position"`
	Source     DrawSource `json:"source"`
	EntryID    *int       `json:"entry_id,omitempty"`
	SeedNumber *int       `json:"seed_number,omitempty"`
}
