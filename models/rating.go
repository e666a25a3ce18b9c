package models

import "time"

// MatchRatingMeta is one per-match line stored on a PlayerRatingDynamic.
type MatchRatingMeta struct {
	MatchID        int     `json:"match_id"`
	TournamentID   int     `json:"tournament_id"`
	TeamRating     float64 `json:"team_rating"`
	OpponentRating float64 `json:"opponent_rating"`
	Expected       float64 `json:"expected"`
	FormatModifier float64 `json:"format_modifier"`
	Coefficient    float64 `json:"coefficient"`
	Won            bool    `json:"won"`
	Delta          int     `json:"delta"`
	Reason         string  `json:"reason"`
}

type PlayerRatingDynamic struct {
	ID           int               `json:"id"`
	PlayerID     int               `json:"player_id"`
	TournamentID int               `json:"tournament_id"`
	RatingBefore int               `json:"rating_before"`
	RatingAfter  int               `json:"rating_after"`
	TotalChange  int               `json:"total_change"`
	MatchesCount int               `json:"matches_count"`
	Meta         []MatchRatingMeta `json:"meta"`
}

type PlayerRatingHistory struct {
	ID           int       `json:"id"`
	PlayerID     int       `json:"player_id"`
	TournamentID int       `json:"tournament_id"`
	MatchID      int       `json:"match_id"`
	Delta        int       `json:"delta"`
	Reason       string    `json:"reason"`
	Seq          int       `json:"seq"`
	CreatedAt    time.Time `json:"created_at"`
}

// TournamentPlacement is a final place range; tied entrants share it (e.g. 5-8).
type TournamentPlacement struct {
	ID           int `json:"id"`
	TournamentID int `json:"tournament_id"`
	EntryID      int `json:"entry_id"`
	PlaceFrom    int `json:"place_from"`
	PlaceTo      int `json:"place_to"`
}
