package capture

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNDJSONSource_Next(t *testing.T) {
	in := strings.Join([]string{
		`{"start":"2024-01-10T12:00:00Z","seconds_off":120,"seconds_on":30}`,
		``,
		`not json at all`,
		`{"seconds_off":10,"seconds_on":10}`, // missing start
		`{"start":"2024-01-10T13:00:00Z","seconds_off":5,"seconds_on":600}`,
	}, "\n")

	src := NewNDJSONSource(strings.NewReader(in), zap.NewNop())
	ctx := context.Background()

	first, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("first Next: %v", err)
	}
	want := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	if !first.Start.Equal(want) || first.SecondsOff != 120 || first.SecondsOn != 30 {
		t.Errorf("first interval = %+v, want start=%v off=120 on=30", first, want)
	}

	second, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("second Next: %v", err)
	}
	if second.SecondsOn != 600 {
		t.Errorf("second interval = %+v; malformed lines should have been skipped", second)
	}

	if _, err := src.Next(ctx); err != io.EOF {
		t.Errorf("Next after stream end = %v, want io.EOF", err)
	}
}

func TestNDJSONSource_ContextCancelled(t *testing.T) {
	src := NewNDJSONSource(strings.NewReader(`{"start":"2024-01-10T12:00:00Z"}`+"\n"), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); err != context.Canceled {
		t.Errorf("Next with cancelled context = %v, want context.Canceled", err)
	}
}
