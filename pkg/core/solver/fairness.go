package solver

import "math"

// FairnessScore maps the spread of hours to [0,1]: 1 minus the coefficient of
// variation, clamped. Higher is fairer; no hours at all scores 1.
func FairnessScore(hours []float64) float64 {
	if len(hours) == 0 {
		return 1
	}
	mean, sd := meanStddev(hours)
	if mean <= 0 {
		return 1
	}
	return 1 - math.Min(1, sd/mean)
}

func meanStddev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
