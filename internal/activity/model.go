// Package activity turns raw transmission intervals into the smoothed
// "business" signal the baseline curve is built from. Two recurrence
// families exist; a deployment picks one and must never mix them, because
// they produce numerically incompatible business scales (and therefore
// incompatible baseline histories).
package activity

import (
	"math"
	"time"

	"github.com/dmayorov/magnetophon/internal/baseline"
	"github.com/dmayorov/magnetophon/pkg/models"
)

// Kind names a recurrence strategy in configuration.
type Kind string

const (
	// KindSummary blends one activity figure per interval into the business
	// signal and pushes a single baseline sample per event.
	KindSummary Kind = "summary"
	// KindToggle walks the interval second by second, decaying toward 0
	// during silence and toward 1 during activity, pushing every simulated
	// second into the baseline. The resulting curve is a smoothed duty
	// cycle bounded to [0,1].
	KindToggle Kind = "toggle"
)

// Model updates the business signal from an interval event and feeds the
// resulting sample(s) into the baseline curve.
type Model interface {
	// Update applies one interval and returns the new business value.
	Update(ev models.Interval, curve *baseline.Curve) float64
	// Business returns the current signal without mutating anything.
	Business() float64
	// SetBusiness overrides the signal, used when restoring from history.
	SetBusiness(b float64)
	// Kind identifies the recurrence family for compatibility checks.
	Kind() Kind
}

// New constructs the model for a configured kind. decay is the per-second
// forgetting constant (the original deployment used 1/600).
func New(kind Kind, decay float64) Model {
	if kind == KindToggle {
		return &ToggleDecayModel{decay: decay}
	}
	return &SummaryDecayModel{decay: decay}
}

// SummaryDecayModel computes a single activity figure for the whole
// interval -- transmissions-per-hour times duty cycle -- and blends it
// with the previous business value using the tail weight of exponential
// forgetting over the elapsed seconds.
type SummaryDecayModel struct {
	business float64
	decay    float64
}

// NewSummaryDecayModel creates the event-summary recurrence.
func NewSummaryDecayModel(decay float64) *SummaryDecayModel {
	return &SummaryDecayModel{decay: decay}
}

func (m *SummaryDecayModel) Update(ev models.Interval, curve *baseline.Curve) float64 {
	if ev.SecondsOn < 0 || ev.SecondsOff < 0 {
		return m.business
	}

	on := float64(ev.SecondsOn)
	off := float64(ev.SecondsOff)

	perHour := 3600 / (on + off + 1)  // how often
	dutyCycle := (on + 1) / (on + off + 1) // for how long
	activityFigure := perHour * dutyCycle

	tail := math.Pow(1-m.decay, on+off)
	m.business = (1-tail)*activityFigure + tail*m.business

	if curve != nil {
		curve.PushTime(m.business, ev.Start)
	}
	return m.business
}

func (m *SummaryDecayModel) Business() float64     { return m.business }
func (m *SummaryDecayModel) SetBusiness(b float64) { m.business = b }
func (m *SummaryDecayModel) Kind() Kind            { return KindSummary }

// ToggleDecayModel evaluates the recurrence once per simulated second:
// business decays toward 0 through the silence that preceded the
// transmission, then rises toward 1 through the activity. Every simulated
// second is pushed into the bucket for that second's wall-clock position,
// which is what makes the baseline a smoothed duty-cycle curve rather than
// an event-count curve.
type ToggleDecayModel struct {
	business float64
	decay    float64
}

// NewToggleDecayModel creates the per-second exponential toggle recurrence.
func NewToggleDecayModel(decay float64) *ToggleDecayModel {
	return &ToggleDecayModel{decay: decay}
}

func (m *ToggleDecayModel) Update(ev models.Interval, curve *baseline.Curve) float64 {
	if ev.SecondsOn < 0 || ev.SecondsOff < 0 {
		return m.business
	}

	// Silence spans [Start-SecondsOff, Start), activity [Start, Start+SecondsOn).
	cursor := ev.Start.Add(-time.Duration(ev.SecondsOff) * time.Second)
	for i := 0; i < ev.SecondsOff; i++ {
		m.business -= m.business * m.decay
		if curve != nil {
			curve.PushTime(m.business, cursor)
		}
		cursor = cursor.Add(time.Second)
	}
	for i := 0; i < ev.SecondsOn; i++ {
		m.business += (1 - m.business) * m.decay
		if curve != nil {
			curve.PushTime(m.business, cursor)
		}
		cursor = cursor.Add(time.Second)
	}
	return m.business
}

func (m *ToggleDecayModel) Business() float64     { return m.business }
func (m *ToggleDecayModel) SetBusiness(b float64) { m.business = b }
func (m *ToggleDecayModel) Kind() Kind            { return KindToggle }
