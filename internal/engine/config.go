package engine

import (
	"time"

	"github.com/dmayorov/magnetophon/internal/activity"
)

// EstimatorKind selects the baseline estimation strategy.
type EstimatorKind string

const (
	// EstimatorInterp interpolates between the current hour bucket and its
	// nearest neighbor.
	EstimatorInterp EstimatorKind = "interp"
	// EstimatorSpectral smooths the 24-hour curve with a truncated Fourier
	// series before evaluating it at the current instant.
	EstimatorSpectral EstimatorKind = "spectral"
)

// Config holds the tunables of the activity engine.
type Config struct {
	// Recurrence selects how raw on/off intervals become the business
	// signal: "summary" (one update per interval) or "toggle" (per
	// simulated second).
	Recurrence activity.Kind `mapstructure:"recurrence"`
	// Decay is the exponential decay constant of the business recurrence.
	Decay float64 `mapstructure:"decay"`

	Estimator EstimatorKind `mapstructure:"estimator"`
	// Harmonics bounds the spectral smoother (1..3); ignored by the
	// interpolating estimator.
	Harmonics int `mapstructure:"harmonics"`
	// MinBucketSamples is how many observations both consulted buckets
	// need before an interpolated estimate is trusted.
	MinBucketSamples int64 `mapstructure:"min_bucket_samples"`
	// MinCoverage is how much wall clock must be covered before the
	// overall fallback is trusted over the cold-start sentinel.
	MinCoverage time.Duration `mapstructure:"min_coverage"`

	// ReturnPeriodHours is the target average spacing between
	// notifications (168 = roughly weekly).
	ReturnPeriodHours float64 `mapstructure:"return_period_hours"`

	// SnapshotEvery persists the baseline curve every N processed events.
	SnapshotEvery int `mapstructure:"snapshot_every"`
	// Retention bounds the activity log; older rows are pruned during
	// maintenance. Zero disables pruning.
	Retention time.Duration `mapstructure:"retention"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Recurrence:        activity.KindSummary,
		Decay:             1.0 / 3600,
		Estimator:         EstimatorInterp,
		Harmonics:         3,
		MinBucketSamples:  60,
		MinCoverage:       time.Hour,
		ReturnPeriodHours: 168,
		SnapshotEvery:     10,
		Retention:         90 * 24 * time.Hour,
	}
}
