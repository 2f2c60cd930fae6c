// Package baseline maintains the time-of-day activity baseline: one
// RunningStat bucket per hour, split into weekday and weekend curves, plus
// an overall accumulator, and the estimators that turn the bucketed history
// into an expected mean/spread for "now".
package baseline

import (
	"time"

	"github.com/dmayorov/magnetophon/internal/stat"
)

// HoursPerDay is the number of hourly buckets per day class.
const HoursPerDay = 24

// DayClass splits the week into two bucket sequences.
type DayClass string

const (
	Weekday DayClass = "weekday"
	Weekend DayClass = "weekend"
)

// ClassOf returns the day class for a weekday index (time.Weekday
// convention: 0 = Sunday ... 6 = Saturday).
func ClassOf(weekday int) DayClass {
	if weekday == 0 || weekday == 6 {
		return Weekend
	}
	return Weekday
}

// Curve is the full baseline: 24 weekday buckets, 24 weekend buckets, and
// one accumulator over everything. One Curve exists per process; it is
// created fresh or restored from a snapshot at startup and mutated on every
// processed sample. Not safe for concurrent use; the engine owns it.
type Curve struct {
	Overall stat.RunningStat
	Weekday [HoursPerDay]stat.RunningStat
	Weekend [HoursPerDay]stat.RunningStat
}

// NewCurve returns an empty baseline curve.
func NewCurve() *Curve {
	return &Curve{}
}

// Push records one business sample into the overall accumulator and into
// the hour bucket selected by (weekday, hour). It returns the hour bucket
// it wrote so the caller can read its statistics without a second lookup.
// weekday follows the time.Weekday convention (0 = Sunday), hour is 0-23;
// out-of-range values are clamped into range.
func (c *Curve) Push(x float64, weekday, hour int) *stat.RunningStat {
	c.Overall.Push(x)
	b := c.Bucket(ClassOf(weekday), hour)
	b.Push(x)
	return b
}

// PushTime is Push keyed by a wall-clock instant.
func (c *Curve) PushTime(x float64, t time.Time) *stat.RunningStat {
	return c.Push(x, int(t.Weekday()), t.Hour())
}

// Bucket returns the addressed hour bucket. hour is clamped to 0-23.
func (c *Curve) Bucket(class DayClass, hour int) *stat.RunningStat {
	if hour < 0 {
		hour = 0
	} else if hour >= HoursPerDay {
		hour = HoursPerDay - 1
	}
	if class == Weekend {
		return &c.Weekend[hour]
	}
	return &c.Weekday[hour]
}

// BucketState is the persisted form of one RunningStat bucket.
type BucketState struct {
	Class DayClass `json:"class"`
	Hour  int      `json:"hour"`
	N     int64    `json:"n"`
	Mean  float64  `json:"mean"`
	S     float64  `json:"s"`
}

// Snapshot exports the full curve (overall plus 48 hour buckets) for
// persistence. The overall accumulator uses hour -1 and class "overall".
func (c *Curve) Snapshot() []BucketState {
	out := make([]BucketState, 0, 2*HoursPerDay+1)
	n, m, s := c.Overall.State()
	out = append(out, BucketState{Class: "overall", Hour: -1, N: n, Mean: m, S: s})
	for h := 0; h < HoursPerDay; h++ {
		n, m, s := c.Weekday[h].State()
		out = append(out, BucketState{Class: Weekday, Hour: h, N: n, Mean: m, S: s})
	}
	for h := 0; h < HoursPerDay; h++ {
		n, m, s := c.Weekend[h].State()
		out = append(out, BucketState{Class: Weekend, Hour: h, N: n, Mean: m, S: s})
	}
	return out
}

// Restore rebuilds a curve from persisted bucket states. Unknown classes
// and out-of-range hours are ignored so a partially written snapshot loads
// as far as it goes.
func Restore(states []BucketState) *Curve {
	c := NewCurve()
	for _, b := range states {
		switch {
		case b.Class == "overall":
			c.Overall = stat.Reconstruct(b.N, b.Mean, b.S)
		case b.Hour < 0 || b.Hour >= HoursPerDay:
			// Skip malformed rows.
		case b.Class == Weekday:
			c.Weekday[b.Hour] = stat.Reconstruct(b.N, b.Mean, b.S)
		case b.Class == Weekend:
			c.Weekend[b.Hour] = stat.Reconstruct(b.N, b.Mean, b.S)
		}
	}
	return c
}
