package baseline

import (
	"math"
	"testing"
	"time"

	"github.com/dmayorov/magnetophon/pkg/models"
)

// diurnal is a single-harmonic daily pattern peaking mid-afternoon. A pure
// harmonic survives low-pass reconstruction exactly, which makes expected
// values easy to state.
func diurnal(h float64) float64 {
	return 10 + 5*math.Cos(2*math.Pi*(h-14)/24)
}

func populateDiurnal(c *Curve, class DayClass) {
	for h := 0; h < HoursPerDay; h++ {
		// Two samples per bucket, symmetric around the pattern value.
		c.Bucket(class, h).Push(diurnal(float64(h)) + 1)
		c.Bucket(class, h).Push(diurnal(float64(h)) - 1)
		c.Overall.Push(diurnal(float64(h)))
	}
}

func TestSpectralEstimator_ReconstructsBucketMeans(t *testing.T) {
	c := NewCurve()
	populateDiurnal(c, Weekday)

	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewSpectralEstimator(c, 3, time.Hour, epoch)

	for h := 0; h < HoursPerDay; h++ {
		now := time.Date(2024, 1, 10, h, 0, 0, 0, time.UTC) // Wednesday
		est := e.Estimate(now)
		if est.Source != models.EstimatePrimary {
			t.Fatalf("hour %d: Source = %v, want primary", h, est.Source)
		}
		want := diurnal(float64(h))
		if math.Abs(est.Mean-want) > 1e-6 {
			t.Errorf("hour %d: Mean = %v, want %v", h, est.Mean, want)
		}
	}
}

func TestSpectralEstimator_InterpolatesBetweenHours(t *testing.T) {
	c := NewCurve()
	populateDiurnal(c, Weekday)

	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewSpectralEstimator(c, 2, time.Hour, epoch)

	// Halfway between hours the reconstruction should follow the underlying
	// pattern, not either bucket's raw mean.
	now := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	est := e.Estimate(now)
	want := diurnal(9.5)
	if math.Abs(est.Mean-want) > 1e-6 {
		t.Errorf("Mean at 09:30 = %v, want %v", est.Mean, want)
	}
}

func TestSpectralEstimator_SmoothedStdev(t *testing.T) {
	c := NewCurve()
	populateDiurnal(c, Weekday)

	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewSpectralEstimator(c, 3, time.Hour, epoch)

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	est := e.Estimate(now)
	// Each bucket holds {v+1, v-1}: sample stdev sqrt(2) everywhere, and a
	// constant signal is reproduced exactly by the DC term.
	want := math.Sqrt(2)
	if math.Abs(est.StdDev-want) > 1e-6 {
		t.Errorf("StdDev = %v, want %v", est.StdDev, want)
	}
}

func TestSpectralEstimator_RequiresFullDayClass(t *testing.T) {
	c := NewCurve()
	populateDiurnal(c, Weekday)
	// Weekend buckets untouched: a weekend timestamp must fall back.

	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewSpectralEstimator(c, 3, time.Hour, epoch)

	now := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC) // Saturday
	est := e.Estimate(now)
	if est.Source != models.EstimateOverall {
		t.Errorf("Source = %v, want overall fallback for unpopulated day class", est.Source)
	}

	// And sentinel when there is no coverage yet either.
	young := NewSpectralEstimator(NewCurve(), 3, time.Hour, epoch)
	est = young.Estimate(epoch.Add(time.Minute))
	if est.Source != models.EstimateSentinel {
		t.Errorf("Source = %v, want sentinel for cold start", est.Source)
	}
}

func TestSpectralEstimator_ClampsHarmonics(t *testing.T) {
	c := NewCurve()
	populateDiurnal(c, Weekday)
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Out-of-range harmonic counts are clamped rather than rejected.
	for _, k := range []int{-1, 0, 99} {
		e := NewSpectralEstimator(c, k, time.Hour, epoch)
		now := time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC)
		est := e.Estimate(now)
		if est.Source != models.EstimatePrimary {
			t.Errorf("harmonics=%d: Source = %v, want primary", k, est.Source)
		}
		if math.Abs(est.Mean-diurnal(14)) > 1e-6 {
			t.Errorf("harmonics=%d: Mean = %v, want %v", k, est.Mean, diurnal(14))
		}
	}
}
