package scheduler

// Multiplier learning constants. Ratios inside the deadband are treated as
// estimation noise and trigger no update; outside it, the multiplier moves a
// fixed fraction of the way toward the clamped observed ratio.
const (
	deadbandLow     = 0.8
	deadbandHigh    = 1.2
	multiplierFloor = 0.5
	multiplierCeil  = 2.0
	learningRate    = 0.2
)

// NextMultiplier returns the smoothed multiplier after observing actual vs
// estimated minutes for a completed task. The second return value reports
// whether an update should be stored at all.
func NextMultiplier(current float64, actualMinutes, estimatedMinutes int) (float64, bool) {
	if actualMinutes <= 0 || estimatedMinutes <= 0 {
		return current, false
	}
	ratio := float64(actualMinutes) / float64(estimatedMinutes)
	if ratio > deadbandLow && ratio < deadbandHigh {
		return current, false
	}
	target := ratio
	if target < multiplierFloor {
		target = multiplierFloor
	}
	if target > multiplierCeil {
		target = multiplierCeil
	}
	if current <= 0 {
		current = 1.0
	}
	return current + learningRate*(target-current), true
}
