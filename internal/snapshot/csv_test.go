package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dmayorov/magnetophon/internal/baseline"
)

func TestSummaryWriter_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")
	w := NewSummaryWriter(path)

	c := baseline.NewCurve()
	c.Push(5, 2, 9)
	c.Push(15, 2, 9)

	if err := w.Append("2024-03-05 00.00.10", c); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read summary csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1+baseline.HoursPerDay {
		t.Fatalf("summary file has %d lines, want %d", len(lines), 1+baseline.HoursPerDay)
	}
	if !strings.HasPrefix(lines[0], "datetime,hour,weekday_count") {
		t.Errorf("header = %q, want datetime,hour,weekday_count,...", lines[0])
	}
	// hour 9 row: 2 weekday samples with mean 10
	row9 := strings.Split(lines[10], ",")
	if row9[1] != "9" || row9[2] != "2" || row9[3] != "10" {
		t.Errorf("hour 9 row = %v, want hour=9 count=2 mean=10", row9)
	}
}

func TestSummaryWriter_AppendNoDuplicateHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")
	w := NewSummaryWriter(path)
	c := baseline.NewCurve()

	if err := w.Append("2024-03-05 00.00.10", c); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if err := w.Append("2024-03-06 00.00.10", c); err != nil {
		t.Fatalf("second Append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read summary csv: %v", err)
	}
	if n := strings.Count(string(data), "datetime,hour"); n != 1 {
		t.Errorf("header appears %d times, want exactly 1", n)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1+2*baseline.HoursPerDay {
		t.Errorf("summary file has %d lines, want %d", len(lines), 1+2*baseline.HoursPerDay)
	}
}

func TestReadHistory(t *testing.T) {
	in := strings.Join([]string{
		"datetime,seconds_off,seconds_on,business,interpolated_mean,interpolated_stdev,triggered,a_mean,b_mean,o_mean,threshold",
		"2024-03-05 09.15.00,120,30,0.42,10,2,0,9,11,10,16",
		"not-a-date,10,10,0,0,0,0,0,0,0,0",
		"2024-03-05 10.15.00,oops,30,0,0,0,0,0,0,0,0",
		"2024-03-05 11.15.00,60",
		"2024-03-05 12.15.00,240,60", // old format without audit columns
	}, "\n")

	intervals, err := ReadHistory(strings.NewReader(in), zap.NewNop())
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if len(intervals) != 2 {
		t.Fatalf("ReadHistory returned %d intervals, want 2", len(intervals))
	}

	want0 := time.Date(2024, 3, 5, 9, 15, 0, 0, time.Local)
	if !intervals[0].Start.Equal(want0) || intervals[0].SecondsOff != 120 || intervals[0].SecondsOn != 30 {
		t.Errorf("intervals[0] = %+v, want start=%v off=120 on=30", intervals[0], want0)
	}
	if intervals[1].SecondsOff != 240 || intervals[1].SecondsOn != 60 {
		t.Errorf("intervals[1] = %+v, want off=240 on=60", intervals[1])
	}
}

func TestReadHistory_Empty(t *testing.T) {
	intervals, err := ReadHistory(strings.NewReader(""), zap.NewNop())
	if err != nil {
		t.Fatalf("ReadHistory on empty input: %v", err)
	}
	if len(intervals) != 0 {
		t.Errorf("got %d intervals from empty input, want 0", len(intervals))
	}
}
