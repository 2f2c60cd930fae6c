package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/dmayorov/magnetophon/internal/baseline"
	"github.com/dmayorov/magnetophon/pkg/models"
)

var summaryHeader = []string{
	"datetime", "hour",
	"weekday_count", "weekday_mean", "weekday_stdev",
	"weekend_count", "weekend_mean", "weekend_stdev",
}

// SummaryWriter appends the daily per-hour baseline summary to a CSV file.
type SummaryWriter struct {
	path string
}

// NewSummaryWriter creates a writer for the given CSV path.
func NewSummaryWriter(path string) *SummaryWriter {
	return &SummaryWriter{path: path}
}

// Append writes 24 rows (one per hour) describing the weekday and weekend
// curves as of label. A header row is written when the file is new.
func (w *SummaryWriter) Append(label string, curve *baseline.Curve) error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open summary csv %q: %w", w.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat summary csv %q: %w", w.path, err)
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(summaryHeader); err != nil {
			return fmt.Errorf("write summary header: %w", err)
		}
	}

	for h := 0; h < baseline.HoursPerDay; h++ {
		wd := &curve.Weekday[h]
		we := &curve.Weekend[h]
		row := []string{
			label,
			strconv.Itoa(h),
			strconv.FormatInt(wd.Count(), 10),
			formatFloat(wd.Mean()),
			formatFloat(wd.StdDev()),
			strconv.FormatInt(we.Count(), 10),
			formatFloat(we.Mean()),
			formatFloat(we.StdDev()),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush summary csv: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadHistory parses a historical activity CSV
// (datetime,seconds_off,seconds_on,...) into intervals, in file order.
// Short or malformed rows are skipped individually and logged; they never
// fail the whole replay. Extra columns beyond the first three (old audit
// fields) are ignored.
func ReadHistory(r io.Reader, logger *zap.Logger) ([]models.Interval, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // column count varied across format revisions
	cr.LazyQuotes = true

	var out []models.Interval
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, fmt.Errorf("read history csv: %w", err)
		}
		line++

		if line == 1 && len(row) > 0 && row[0] == "datetime" {
			continue // header
		}
		if len(row) < 3 {
			logger.Debug("skipping short history row", zap.Int("line", line))
			continue
		}

		ts, err := time.ParseInLocation(models.LabelLayout, row[0], time.Local)
		if err != nil {
			logger.Debug("skipping history row with bad timestamp",
				zap.Int("line", line), zap.String("value", row[0]))
			continue
		}
		off, err := strconv.Atoi(row[1])
		if err != nil || off < 0 {
			logger.Debug("skipping history row with bad seconds_off",
				zap.Int("line", line), zap.String("value", row[1]))
			continue
		}
		on, err := strconv.Atoi(row[2])
		if err != nil || on < 0 {
			logger.Debug("skipping history row with bad seconds_on",
				zap.Int("line", line), zap.String("value", row[2]))
			continue
		}

		out = append(out, models.Interval{Start: ts, SecondsOff: off, SecondsOn: on})
	}
	return out, nil
}
