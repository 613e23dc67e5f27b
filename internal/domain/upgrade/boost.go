package upgrade

import (
	"fmt"
	"math"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour

	// Boosted timers below this are kept to the second
	fineGrainLimit = 30 * secondsPerMinute
	// Boosted timers up to a day are floored to ten minutes
	tenMinutes = 10 * secondsPerMinute
)

// ValidateBoostFraction checks a builder-time boost lies in [0, 1)
func ValidateBoostFraction(fraction float64) error {
	if math.IsNaN(fraction) || fraction < 0 || fraction >= 1 {
		return fmt.Errorf("boost fraction must be in [0, 1), got %v", fraction)
	}
	return nil
}

// ApplyBoost reduces a raw catalog duration by the boost fraction and quantizes it
// the way in-game timers are shown: under 30 minutes rounds up to the second,
// up to one day rounds down to ten minutes, beyond a day rounds down to the hour.
func ApplyBoost(rawSeconds int64, fraction float64) int64 {
	if rawSeconds <= 0 {
		return 0
	}
	if fraction < 0 {
		fraction = 0
	}

	boosted := float64(rawSeconds) * (1 - fraction)
	switch {
	case boosted < fineGrainLimit:
		return int64(math.Ceil(boosted))
	case boosted <= secondsPerDay:
		return int64(math.Floor(boosted/tenMinutes)) * tenMinutes
	default:
		return int64(math.Floor(boosted/secondsPerHour)) * secondsPerHour
	}
}
