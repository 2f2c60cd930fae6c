package stat

import (
	"math"
	"testing"
)

func TestNormalQuantile_OutOfRange(t *testing.T) {
	for _, p := range []float64{-1, 0, 1, 2, math.NaN()} {
		if got := NormalQuantile(p); got != 0 {
			t.Errorf("NormalQuantile(%v) = %v, want 0", p, got)
		}
	}
}

func TestNormalQuantile_KnownValues(t *testing.T) {
	// Reference quantiles of the standard normal distribution. The
	// approximation is specified to within 4.5e-4.
	tests := []struct {
		p    float64
		want float64
	}{
		{0.5, 0},
		{0.8413447, 1.0},
		{0.9772499, 2.0},
		{0.9986501, 3.0},
		{0.1586553, -1.0},
		{0.0227501, -2.0},
		{0.975, 1.959964},
		{0.995, 2.575829},
	}

	for _, tt := range tests {
		got := NormalQuantile(tt.p)
		if math.Abs(got-tt.want) > 5e-4 {
			t.Errorf("NormalQuantile(%v) = %v, want %v (±4.5e-4)", tt.p, got, tt.want)
		}
	}
}

func TestNormalQuantile_Symmetric(t *testing.T) {
	for _, p := range []float64{0.01, 0.1, 0.25, 0.4} {
		lo := NormalQuantile(p)
		hi := NormalQuantile(1 - p)
		if math.Abs(lo+hi) > 1e-9 {
			t.Errorf("NormalQuantile(%v)=%v and NormalQuantile(%v)=%v are not symmetric", p, lo, 1-p, hi)
		}
	}
}

func TestNormalQuantile_Monotonic(t *testing.T) {
	prev := math.Inf(-1)
	for p := 0.001; p < 1; p += 0.001 {
		q := NormalQuantile(p)
		if q < prev {
			t.Fatalf("NormalQuantile not monotonic at p=%v: %v < %v", p, q, prev)
		}
		prev = q
	}
}
