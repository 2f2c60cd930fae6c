// Package capture feeds observed on/off intervals into the engine. The
// audio front end itself lives outside this process; it reports each
// detected transmission as one event on a stream, and this package turns
// that stream into models.Interval values.
package capture

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"go.uber.org/zap"

	"github.com/dmayorov/magnetophon/pkg/models"
)

// Source yields intervals in arrival order. Next returns io.EOF when the
// stream ends.
type Source interface {
	Next(ctx context.Context) (models.Interval, error)
}

// NDJSONSource reads newline-delimited JSON interval events, one object
// per line:
//
//	{"start":"2024-01-10T12:00:00Z","seconds_off":120,"seconds_on":30}
//
// Blank and malformed lines are skipped with a debug log, matching the
// tolerance of the history replay path: a garbled event must never stall
// the stream behind it.
type NDJSONSource struct {
	scanner *bufio.Scanner
	logger  *zap.Logger
	line    int
}

// NewNDJSONSource wraps r. Lines longer than 64 KiB are rejected by the
// scanner.
func NewNDJSONSource(r io.Reader, logger *zap.Logger) *NDJSONSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NDJSONSource{scanner: bufio.NewScanner(r), logger: logger}
}

// Next implements Source.
func (s *NDJSONSource) Next(ctx context.Context) (models.Interval, error) {
	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return models.Interval{}, err
		}
		s.line++

		raw := s.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var iv models.Interval
		if err := json.Unmarshal(raw, &iv); err != nil {
			s.logger.Debug("skipping malformed interval event",
				zap.Int("line", s.line), zap.Error(err))
			continue
		}
		if iv.Start.IsZero() {
			s.logger.Debug("skipping interval event without start timestamp",
				zap.Int("line", s.line))
			continue
		}
		return iv, nil
	}
	if err := s.scanner.Err(); err != nil {
		return models.Interval{}, err
	}
	return models.Interval{}, io.EOF
}

var _ Source = (*NDJSONSource)(nil)
