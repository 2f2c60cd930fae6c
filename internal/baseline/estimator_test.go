package baseline

import (
	"math"
	"testing"
	"time"

	"github.com/dmayorov/magnetophon/pkg/models"
)

// fill pushes n copies of v into the addressed bucket (and overall).
func fill(c *Curve, class DayClass, hour int, v float64, n int) {
	for i := 0; i < n; i++ {
		c.Overall.Push(v)
		c.Bucket(class, hour).Push(v)
	}
}

func TestInterpEstimator_WeightsSumToOne(t *testing.T) {
	for minute := 0; minute < 60; minute++ {
		var weightA float64
		if minute >= 30 {
			weightA = (90 - float64(minute)) / 60
		} else {
			weightA = (31 + float64(minute)) / 60
		}
		weightB := 1 - weightA
		if math.Abs(weightA+weightB-1) > 1e-12 {
			t.Fatalf("minute %d: weights sum to %v", minute, weightA+weightB)
		}
		// The current bucket always dominates: weightA stays in [31/60, 1].
		if weightA < 31.0/60-1e-12 || weightA > 1+1e-12 {
			t.Fatalf("minute %d: weightA = %v outside [31/60, 1]", minute, weightA)
		}
	}
}

func TestInterpEstimator_ForwardInterpolation(t *testing.T) {
	c := NewCurve()
	// Wednesday 10:45 -> bucket A = weekday[10], B = weekday[11].
	fill(c, Weekday, 10, 4.0, 5)
	fill(c, Weekday, 11, 8.0, 5)

	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewInterpEstimator(c, 1, time.Hour, epoch)
	now := time.Date(2024, 1, 10, 10, 45, 0, 0, time.UTC) // Wednesday

	est := e.Estimate(now)
	if est.Source != models.EstimatePrimary {
		t.Fatalf("Source = %v, want primary", est.Source)
	}
	// weightA = (90-45)/60 = 0.75
	want := 0.75*4.0 + 0.25*8.0
	if math.Abs(est.Mean-want) > 1e-9 {
		t.Errorf("Mean = %v, want %v", est.Mean, want)
	}
	if est.BucketMean != 4.0 || est.NeighborMean != 8.0 {
		t.Errorf("audit means = (%v, %v), want (4, 8)", est.BucketMean, est.NeighborMean)
	}
}

func TestInterpEstimator_BackwardInterpolation(t *testing.T) {
	c := NewCurve()
	// Wednesday 10:10 -> bucket A = weekday[10], B = weekday[9].
	fill(c, Weekday, 10, 4.0, 5)
	fill(c, Weekday, 9, 8.0, 5)

	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewInterpEstimator(c, 1, time.Hour, epoch)
	now := time.Date(2024, 1, 10, 10, 10, 0, 0, time.UTC)

	est := e.Estimate(now)
	// weightA = (31+10)/60
	wA := 41.0 / 60
	want := wA*4.0 + (1-wA)*8.0
	if math.Abs(est.Mean-want) > 1e-9 {
		t.Errorf("Mean = %v, want %v", est.Mean, want)
	}
}

func TestInterpEstimator_MidnightWeekendWrap(t *testing.T) {
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		now       time.Time
		fillA     func(c *Curve)
		fillB     func(c *Curve)
		wantBMean float64
	}{
		{
			// Saturday 23:40: forward neighbor is Sunday 00, a weekend bucket.
			name: "saturday night wraps to weekend 0",
			now:  time.Date(2024, 1, 6, 23, 40, 0, 0, time.UTC),
			fillA: func(c *Curve) { fill(c, Weekend, 23, 2.0, 4) },
			fillB: func(c *Curve) {
				fill(c, Weekend, 0, 6.0, 4)
				fill(c, Weekday, 0, 99.0, 4) // must not be selected
			},
			wantBMean: 6.0,
		},
		{
			// Friday 23:40: forward neighbor is Saturday 00 -> weekend bucket 0.
			name: "friday night wraps to weekend 0",
			now:  time.Date(2024, 1, 5, 23, 40, 0, 0, time.UTC),
			fillA: func(c *Curve) { fill(c, Weekday, 23, 2.0, 4) },
			fillB: func(c *Curve) {
				fill(c, Weekend, 0, 6.0, 4)
				fill(c, Weekday, 0, 99.0, 4)
			},
			wantBMean: 6.0,
		},
		{
			// Sunday 00:10: backward neighbor is Saturday 23 -> weekend bucket 23.
			name: "sunday morning wraps to weekend 23",
			now:  time.Date(2024, 1, 7, 0, 10, 0, 0, time.UTC),
			fillA: func(c *Curve) { fill(c, Weekend, 0, 2.0, 4) },
			fillB: func(c *Curve) {
				fill(c, Weekend, 23, 6.0, 4)
				fill(c, Weekday, 23, 99.0, 4)
			},
			wantBMean: 6.0,
		},
		{
			// Monday 00:10: backward neighbor is Sunday 23 -> weekend bucket 23.
			name: "monday morning wraps to weekend 23",
			now:  time.Date(2024, 1, 8, 0, 10, 0, 0, time.UTC),
			fillA: func(c *Curve) { fill(c, Weekday, 0, 2.0, 4) },
			fillB: func(c *Curve) {
				fill(c, Weekend, 23, 6.0, 4)
				fill(c, Weekday, 23, 99.0, 4)
			},
			wantBMean: 6.0,
		},
		{
			// Sunday 23:40: forward neighbor is Monday 00 -> weekday bucket 0.
			name: "sunday night wraps to weekday 0",
			now:  time.Date(2024, 1, 7, 23, 40, 0, 0, time.UTC),
			fillA: func(c *Curve) { fill(c, Weekend, 23, 2.0, 4) },
			fillB: func(c *Curve) {
				fill(c, Weekday, 0, 6.0, 4)
				fill(c, Weekend, 0, 99.0, 4)
			},
			wantBMean: 6.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCurve()
			tt.fillA(c)
			tt.fillB(c)
			e := NewInterpEstimator(c, 1, time.Hour, epoch)

			est := e.Estimate(tt.now)
			if est.Source != models.EstimatePrimary {
				t.Fatalf("Source = %v, want primary", est.Source)
			}
			if math.Abs(est.NeighborMean-tt.wantBMean) > 1e-9 {
				t.Errorf("NeighborMean = %v, want %v", est.NeighborMean, tt.wantBMean)
			}
		})
	}
}

func TestInterpEstimator_FallbackToOverall(t *testing.T) {
	c := NewCurve()
	// Only the overall accumulator has data; hourly buckets are empty.
	for i := 0; i < 10; i++ {
		c.Overall.Push(3.0)
	}

	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewInterpEstimator(c, 1, time.Hour, epoch)
	now := epoch.Add(2 * time.Hour)

	est := e.Estimate(now)
	if est.Source != models.EstimateOverall {
		t.Fatalf("Source = %v, want overall", est.Source)
	}
	if math.Abs(est.Mean-3.0) > 1e-9 {
		t.Errorf("Mean = %v, want 3.0", est.Mean)
	}
}

func TestInterpEstimator_SentinelWhenYoung(t *testing.T) {
	c := NewCurve()
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewInterpEstimator(c, 1, time.Hour, epoch)
	now := epoch.Add(10 * time.Minute) // less than minCoverage

	est := e.Estimate(now)
	if est.Source != models.EstimateSentinel {
		t.Fatalf("Source = %v, want sentinel", est.Source)
	}
	if est.Mean != SentinelEstimate || est.StdDev != SentinelEstimate {
		t.Errorf("sentinel estimate = (%v, %v), want (%v, %v)",
			est.Mean, est.StdDev, float64(SentinelEstimate), float64(SentinelEstimate))
	}
}

func TestInterpEstimator_MinSamplesGuard(t *testing.T) {
	c := NewCurve()
	// One observation per bucket, but the guard demands 100.
	fill(c, Weekday, 10, 4.0, 1)
	fill(c, Weekday, 11, 8.0, 1)

	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewInterpEstimator(c, 100, time.Hour, epoch)
	now := time.Date(2024, 1, 10, 10, 45, 0, 0, time.UTC)

	est := e.Estimate(now)
	if est.Source != models.EstimateOverall {
		t.Errorf("Source = %v, want overall (buckets below min samples)", est.Source)
	}
}
