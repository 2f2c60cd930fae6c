// Package testutil provides shared test fixtures.
package testutil

import (
	"time"

	"github.com/dmayorov/magnetophon/pkg/models"
)

// NewInterval returns an Interval with sensible defaults, suitable for
// test fixtures. Override individual fields through options.
func NewInterval(opts ...func(*models.Interval)) models.Interval {
	iv := models.Interval{
		Start:      time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC), // Wednesday noon
		SecondsOff: 300,
		SecondsOn:  30,
	}
	for _, opt := range opts {
		opt(&iv)
	}
	return iv
}

// WithStart sets the interval's activity start.
func WithStart(t time.Time) func(*models.Interval) {
	return func(iv *models.Interval) { iv.Start = t }
}

// WithDurations sets the silence and activity spans in seconds.
func WithDurations(off, on int) func(*models.Interval) {
	return func(iv *models.Interval) {
		iv.SecondsOff = off
		iv.SecondsOn = on
	}
}

// Sequence returns n consecutive intervals starting at first, each with
// the given off/on durations, spaced so that one begins where the
// previous one's activity ended.
func Sequence(first time.Time, n, off, on int) []models.Interval {
	out := make([]models.Interval, 0, n)
	start := first
	for i := 0; i < n; i++ {
		out = append(out, models.Interval{Start: start, SecondsOff: off, SecondsOn: on})
		start = start.Add(time.Duration(off+on) * time.Second)
	}
	return out
}
