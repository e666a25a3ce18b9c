package rating

import "math"

const DefaultKFactor = 32.0

// ExpectedScore is the logistic Elo expectation of a against b.
// ExpectedScore(a, b) + ExpectedScore(b, a) is exactly 1: the value is only
// computed on the side with e >= 0.5, where 1-e has no rounding error.
func ExpectedScore(a, b float64) float64 {
	if a < b {
		return 1 - ExpectedScore(b, a)
	}
	return 1 / (1 + math.Pow(10, (b-a)/400))
}

// Delta is round(k * modifier * coefficient * (actual - expected)), halves to even.
func Delta(k, modifier, coefficient, actual, expected float64) int {
	return int(math.RoundToEven(k * modifier * coefficient * (actual - expected)))
}
