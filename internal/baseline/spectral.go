package baseline

import (
	"math"
	"time"

	"github.com/dmayorov/magnetophon/pkg/models"
)

// MaxHarmonics caps the number of retained frequency pairs. With only 24
// hourly samples, DC plus three harmonics already captures any plausible
// diurnal shape; more would just reproduce bucket noise.
const MaxHarmonics = 3

// SpectralEstimator reconstructs a smoothed hourly curve from the low-order
// Fourier coefficients of the 24 bucket means (and, separately, stdevs) and
// evaluates it at the exact fractional hour of "now". This denoises sparse
// buckets and interpolates continuously, with no discrete neighbor lookup.
type SpectralEstimator struct {
	curve     *Curve
	harmonics int

	minCoverage time.Duration
	epoch       time.Time
}

// NewSpectralEstimator creates a spectral-smoothing estimator over curve.
// harmonics is clamped to 1..MaxHarmonics.
func NewSpectralEstimator(curve *Curve, harmonics int, minCoverage time.Duration, epoch time.Time) *SpectralEstimator {
	if harmonics < 1 {
		harmonics = 1
	} else if harmonics > MaxHarmonics {
		harmonics = MaxHarmonics
	}
	return &SpectralEstimator{
		curve:       curve,
		harmonics:   harmonics,
		minCoverage: minCoverage,
		epoch:       epoch,
	}
}

// Estimate implements Estimator. The smoothed curve is only trusted once
// every hourly bucket of the current day class has at least one
// observation; until then the overall/sentinel fallback chain applies.
func (e *SpectralEstimator) Estimate(now time.Time) Estimate {
	wday := int(now.Weekday())
	hour := now.Hour()
	class := ClassOf(wday)

	buckets := &e.curve.Weekday
	if class == Weekend {
		buckets = &e.curve.Weekend
	}

	var means, stdevs [HoursPerDay]float64
	for h := 0; h < HoursPerDay; h++ {
		if buckets[h].Count() == 0 {
			a := e.curve.Bucket(class, hour)
			return fallback(e.curve, now, e.epoch, e.minCoverage, a, nil)
		}
		means[h] = buckets[h].Mean()
		stdevs[h] = buckets[h].StdDev()
	}

	t := float64(hour) + float64(now.Minute())/60 + float64(now.Second())/3600

	mean := reconstruct(means[:], e.harmonics, t)
	stdev := reconstruct(stdevs[:], e.harmonics, t)
	if stdev < 0 {
		// Truncating harmonics can undershoot near-zero spread.
		stdev = 0
	}

	neighbor := (hour + 1) % HoursPerDay
	return Estimate{
		Mean:         mean,
		StdDev:       stdev,
		Source:       models.EstimatePrimary,
		BucketMean:   buckets[hour].Mean(),
		NeighborMean: buckets[neighbor].Mean(),
	}
}

// reconstruct evaluates the low-pass Fourier reconstruction of the periodic
// signal at fractional position t (in samples). With N=24 samples a direct
// summation is cheaper and clearer than any fast transform.
func reconstruct(signal []float64, harmonics int, t float64) float64 {
	n := len(signal)
	omega := 2 * math.Pi / float64(n)

	// DC term.
	sum := 0.0
	for _, v := range signal {
		sum += v
	}
	out := sum / float64(n)

	for k := 1; k <= harmonics; k++ {
		var ak, bk float64
		for i, v := range signal {
			ak += v * math.Cos(omega*float64(k)*float64(i))
			bk += v * math.Sin(omega*float64(k)*float64(i))
		}
		ak *= 2 / float64(n)
		bk *= 2 / float64(n)
		out += ak*math.Cos(omega*float64(k)*t) + bk*math.Sin(omega*float64(k)*t)
	}
	return out
}
