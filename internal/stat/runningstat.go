// Package stat provides the streaming statistical primitives the baseline
// engine is built on: an online mean/variance accumulator and an inverse
// normal CDF approximation for threshold calibration.
package stat

import "math"

// RunningStat accumulates mean and variance online using Welford's
// recurrence (Knuth TAOCP vol 2, 3rd ed., p. 232). Unlike the naive
// sum/sum-of-squares approach it stays numerically stable for large n.
type RunningStat struct {
	n int64
	m float64
	s float64
}

// Reconstruct rebuilds an accumulator from persisted state. The triple must
// come from a prior call to State; no validation is performed beyond
// clamping a negative count to zero.
func Reconstruct(n int64, mean, s float64) RunningStat {
	if n < 0 {
		n = 0
	}
	return RunningStat{n: n, m: mean, s: s}
}

// Push folds one observation into the accumulator. O(1), never fails.
func (r *RunningStat) Push(x float64) {
	r.n++
	if r.n == 1 {
		r.m = x
		r.s = 0
		return
	}
	newM := r.m + (x-r.m)/float64(r.n)
	r.s += (x - r.m) * (x - newM)
	r.m = newM
}

// Mean returns the running mean, or 0 before the first observation.
func (r *RunningStat) Mean() float64 {
	if r.n > 0 {
		return r.m
	}
	return 0
}

// Variance returns the Bessel-corrected sample variance s/(n-1),
// or 0 when fewer than two observations have been seen.
func (r *RunningStat) Variance() float64 {
	if r.n > 1 {
		return r.s / float64(r.n-1)
	}
	return 0
}

// StdDev returns the sample standard deviation.
func (r *RunningStat) StdDev() float64 {
	return math.Sqrt(r.Variance())
}

// Count returns the number of observations pushed so far.
func (r *RunningStat) Count() int64 {
	return r.n
}

// State exports the accumulator internals for persistence.
func (r *RunningStat) State() (n int64, mean, s float64) {
	return r.n, r.m, r.s
}
