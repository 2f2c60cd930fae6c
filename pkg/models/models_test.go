package models

import (
	"testing"
	"time"
)

func TestInterval_End(t *testing.T) {
	iv := Interval{
		Start:      time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
		SecondsOff: 300,
		SecondsOn:  45,
	}
	want := time.Date(2024, 1, 10, 12, 0, 45, 0, time.UTC)
	if got := iv.End(); !got.Equal(want) {
		t.Errorf("End() = %v, want %v (silence does not extend the activity)", got, want)
	}
}

func TestInterval_Label(t *testing.T) {
	iv := Interval{Start: time.Date(2024, 1, 10, 9, 5, 7, 0, time.UTC)}
	if got := iv.Label(); got != "2024-01-10 09.05.07" {
		t.Errorf("Label() = %q, want %q", got, "2024-01-10 09.05.07")
	}
}
