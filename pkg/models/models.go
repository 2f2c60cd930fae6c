// Package models contains the shared data types exchanged between the
// capture front end, the statistics engine, persistence, and the API.
package models

import "time"

// LabelLayout is the timestamp layout used to label intervals and their
// recordings (dots instead of colons keep the labels filename-safe).
const LabelLayout = "2006-01-02 15.04.05"

// Interval is a single detected transmission: seconds of silence that
// preceded it, followed by seconds of channel activity starting at Start.
// Intervals are immutable once emitted by the capture collaborator.
type Interval struct {
	Start      time.Time `json:"start"`
	SecondsOff int       `json:"seconds_off"`
	SecondsOn  int       `json:"seconds_on"`
}

// End returns the instant the activity finished.
func (iv Interval) End() time.Time {
	return iv.Start.Add(time.Duration(iv.SecondsOn) * time.Second)
}

// Label returns the interval's filename-safe timestamp label.
func (iv Interval) Label() string {
	return iv.Start.Format(LabelLayout)
}

// EstimateSource identifies which estimate the engine trusted for an event.
type EstimateSource string

const (
	// EstimatePrimary means the hourly baseline was dense enough to use directly.
	EstimatePrimary EstimateSource = "primary"
	// EstimateOverall means the hourly buckets were too sparse and the
	// all-hours accumulator was used instead.
	EstimateOverall EstimateSource = "overall"
	// EstimateSentinel means the baseline was too young for any estimate;
	// an artificially high mean/stdev suppressed triggering.
	EstimateSentinel EstimateSource = "sentinel"
)

// Record is the per-event audit record produced by the engine for every
// processed interval.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	SecondsOff int       `json:"seconds_off"`
	SecondsOn  int       `json:"seconds_on"`

	Business float64 `json:"business"`

	EstimatedMean  float64        `json:"estimated_mean"`
	EstimatedStdev float64        `json:"estimated_stdev"`
	Source         EstimateSource `json:"estimate_source"`

	// Raw means of the two buckets consulted by the estimator, kept for
	// after-the-fact threshold audits.
	BucketMean   float64 `json:"bucket_mean"`
	NeighborMean float64 `json:"neighbor_mean"`
	OverallMean  float64 `json:"overall_mean"`

	Threshold float64 `json:"threshold"`
	Triggered bool    `json:"triggered"`
	Fired     bool    `json:"fired"`
}
