// Package trigger decides when the current business level is unusual
// enough to notify. It is a two-state machine: armed, where a calibrated
// threshold is compared against each new value, and triggered, where the
// machine waits for the signal to fall back inside a one-sigma band before
// re-arming. The asymmetry between the triggering z-score and the fixed
// one-sigma release band is what prevents flapping at the boundary.
package trigger

import (
	"github.com/dmayorov/magnetophon/internal/baseline"
	"github.com/dmayorov/magnetophon/internal/stat"
)

// Decision is the outcome of evaluating one business value.
type Decision struct {
	// Threshold that applied to this evaluation. While triggered no
	// threshold is computed and the sentinel value is reported, matching
	// the audit-log convention.
	Threshold float64
	// Fired is true on the single evaluation that entered the triggered
	// state; it is the "send exactly one notification" edge.
	Fired bool
	// Triggered is the state after this evaluation.
	Triggered bool
}

// Trigger calibrates a live threshold from a target long-run notification
// rate and applies hysteresis on the way down. Not safe for concurrent
// use; the engine owns it.
type Trigger struct {
	// ReturnPeriodHours is the target average number of hours between
	// notifications (168 = roughly weekly).
	returnPeriodHours float64
	triggered         bool
}

// New creates an armed trigger. returnPeriodHours must be positive; zero or
// negative values are coerced to 1.
func New(returnPeriodHours float64) *Trigger {
	if returnPeriodHours <= 0 {
		returnPeriodHours = 1
	}
	return &Trigger{returnPeriodHours: returnPeriodHours}
}

// Triggered reports the current state.
func (t *Trigger) Triggered() bool {
	return t.triggered
}

// Evaluate processes one business value against the current estimate.
// eventsPerHour is the observed event rate used to convert the return
// period into a per-event false-trigger probability. Transitions happen
// only here; a failed notification dispatch must not undo them.
func (t *Trigger) Evaluate(business, eventsPerHour float64, est baseline.Estimate) Decision {
	if t.triggered {
		// One-sigma release band, deliberately lower than the trigger
		// threshold.
		if business < est.Mean+est.StdDev {
			t.triggered = false
		}
		return Decision{Threshold: baseline.SentinelEstimate, Triggered: t.triggered}
	}

	// Desired long-run false-trigger probability per event. Degenerate
	// rates push p out of (0,1); NormalQuantile then returns 0 and the
	// threshold collapses to the estimated mean, which the cold-start
	// sentinel estimate keeps unreachable anyway.
	p := 1 / (eventsPerHour * t.returnPeriodHours)
	z := stat.NormalQuantile(1 - p)
	threshold := est.Mean + z*est.StdDev

	d := Decision{Threshold: threshold}
	if business > threshold {
		t.triggered = true
		d.Fired = true
		d.Triggered = true
	}
	return d
}
