package baseline

import (
	"time"

	"github.com/dmayorov/magnetophon/pkg/models"
	"github.com/dmayorov/magnetophon/internal/stat"
)

// SentinelEstimate is the artificially high mean/stdev substituted while
// the baseline is too young to trust. It keeps any plausible business value
// far below threshold so no notification can fire during cold start.
const SentinelEstimate = 1001

// Estimate is the expected business mean and spread at a given instant,
// plus enough context for audit logging.
type Estimate struct {
	Mean   float64
	StdDev float64
	Source models.EstimateSource

	// Raw mean of the current hour's bucket and of the neighbor bucket the
	// estimator consulted (zero when a fallback path skipped them).
	BucketMean   float64
	NeighborMean float64
}

// Estimator produces the expected business value and spread for an instant.
// Implementations report via Estimate.Source whether the primary strategy
// or a fallback was used; fallback degrades anomaly sensitivity and callers
// log it.
type Estimator interface {
	Estimate(now time.Time) Estimate
}

// InterpEstimator interpolates linearly between the current hour's bucket
// and its nearest neighbor: the next hour when minute >= 30, the previous
// hour otherwise, wrapping across midnight and across the weekday/weekend
// boundary.
type InterpEstimator struct {
	curve *Curve

	// Both buckets must hold at least minBucketSamples observations before
	// the interpolation is trusted.
	minBucketSamples int64

	// When falling back to the overall accumulator, at least minCoverage of
	// wall clock must have elapsed since epoch; otherwise the sentinel
	// estimate is returned.
	minCoverage time.Duration
	epoch       time.Time
}

// NewInterpEstimator creates a neighbor-interpolation estimator over curve.
// epoch is the start of observed coverage (earliest replayed event, or
// process start when there is no history).
func NewInterpEstimator(curve *Curve, minBucketSamples int64, minCoverage time.Duration, epoch time.Time) *InterpEstimator {
	return &InterpEstimator{
		curve:            curve,
		minBucketSamples: minBucketSamples,
		minCoverage:      minCoverage,
		epoch:            epoch,
	}
}

// Estimate implements Estimator.
func (e *InterpEstimator) Estimate(now time.Time) Estimate {
	a, b, weightA := e.neighbors(now)
	weightB := 1 - weightA

	if a.Count() >= e.minBucketSamples && b.Count() >= e.minBucketSamples &&
		a.Count() > 0 && b.Count() > 0 {
		return Estimate{
			Mean:         weightA*a.Mean() + weightB*b.Mean(),
			StdDev:       weightA*a.StdDev() + weightB*b.StdDev(),
			Source:       models.EstimatePrimary,
			BucketMean:   a.Mean(),
			NeighborMean: b.Mean(),
		}
	}

	return fallback(e.curve, now, e.epoch, e.minCoverage, a, b)
}

// neighbors resolves the current hour bucket, its interpolation neighbor,
// and the weight of the current bucket.
func (e *InterpEstimator) neighbors(now time.Time) (a, b *stat.RunningStat, weightA float64) {
	wday := int(now.Weekday())
	hour := now.Hour()
	minute := now.Minute()

	a = e.curve.Bucket(ClassOf(wday), hour)

	if minute >= 30 {
		// Forward neighbor.
		if hour == 23 {
			// Tomorrow's first hour: Friday and Saturday nights roll into
			// weekend buckets, Sunday night back into weekday.
			b = e.curve.Bucket(ClassOf((wday+1)%7), 0)
		} else {
			b = e.curve.Bucket(ClassOf(wday), hour+1)
		}
		weightA = (90 - float64(minute)) / 60
	} else {
		// Backward neighbor.
		if hour == 0 {
			// Yesterday's last hour: Sunday and Monday mornings reach back
			// into weekend buckets.
			b = e.curve.Bucket(ClassOf((wday+6)%7), 23)
		} else {
			b = e.curve.Bucket(ClassOf(wday), hour-1)
		}
		weightA = (31 + float64(minute)) / 60
	}
	return a, b, weightA
}

// fallback implements the shared degradation chain: overall statistics when
// the curve has enough elapsed coverage, the sentinel estimate otherwise.
func fallback(curve *Curve, now, epoch time.Time, minCoverage time.Duration, a, b *stat.RunningStat) Estimate {
	est := Estimate{Source: models.EstimateOverall}
	if a != nil {
		est.BucketMean = a.Mean()
	}
	if b != nil {
		est.NeighborMean = b.Mean()
	}

	if now.Sub(epoch) >= minCoverage {
		est.Mean = curve.Overall.Mean()
		est.StdDev = curve.Overall.StdDev()
		return est
	}

	est.Source = models.EstimateSentinel
	est.Mean = SentinelEstimate
	est.StdDev = SentinelEstimate
	return est
}
