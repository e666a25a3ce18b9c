package rating

import "math"

const (
	MinCoefficient = 0.6
	MaxCoefficient = 1.6
)

// TournamentCoefficient derives the event weight from the average rating of
// its players and the number of entrants.
func TournamentCoefficient(avgRating float64, participants int) float64 {
	var level float64
	switch {
	case avgRating < 900:
		level = 0.8
	case avgRating < 1000:
		level = 0.9
	case avgRating < 1100:
		level = 1.0
	case avgRating < 1200:
		level = 1.1
	case avgRating < 1300:
		level = 1.2
	default:
		level = 1.3
	}

	var size float64
	switch {
	case participants < 8:
		size = -0.2
	case participants < 12:
		size = -0.1
	case participants < 16:
		size = 0
	case participants < 24:
		size = 0.1
	case participants < 32:
		size = 0.2
	default:
		size = 0.3
	}

	c := math.Round((level+size)*100) / 100
	return min(max(c, MinCoefficient), MaxCoefficient)
}
