package stat

import "math"

// NormalQuantile approximates the inverse CDF of a standard normal random
// variable using the Abramowitz & Stegun 26.2.23 rational approximation
// (absolute error below 4.5e-4). That accuracy is enough for calibrating
// notification thresholds; it is not suitable for rigorous inference.
// Returns 0 for p outside the open interval (0, 1).
func NormalQuantile(p float64) float64 {
	if p <= 0 || p >= 1 || math.IsNaN(p) {
		return 0
	}

	tail := p
	if p > 0.5 {
		tail = 1 - p
	}
	t := math.Sqrt(-2 * math.Log(tail))

	approx := t - ((0.010328*t+0.802853)*t+2.515517)/
		(((0.001308*t+0.189269)*t+1.432788)*t+1)

	if p < 0.5 {
		return -approx
	}
	return approx
}
