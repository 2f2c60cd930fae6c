// Package snapshot persists the baseline curve and the per-event audit
// trail. The curve snapshot is what survives a process kill: everything
// since the last snapshot is deliberately lost rather than risking a
// partially written baseline.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmayorov/magnetophon/internal/baseline"
	"github.com/dmayorov/magnetophon/internal/store"
	"github.com/dmayorov/magnetophon/pkg/models"
)

// Store provides database access for baseline snapshots and the activity log.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store and applies its schema migrations.
func NewStore(ctx context.Context, s *store.SQLiteStore) (*Store, error) {
	if err := s.Migrate(ctx, "snapshot", migrations()); err != nil {
		return nil, fmt.Errorf("snapshot migrations: %w", err)
	}
	return &Store{db: s.DB()}, nil
}

// SaveCurve persists a full curve snapshot (overall plus 48 hour buckets)
// in one transaction so a crash never leaves a half-written baseline.
func (s *Store) SaveCurve(ctx context.Context, states []baseline.BucketState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO baseline_buckets (class, hour, n, mean, s, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare snapshot upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, b := range states {
		if _, err := stmt.ExecContext(ctx, string(b.Class), b.Hour, b.N, b.Mean, b.S, now); err != nil {
			return fmt.Errorf("upsert bucket %s/%d: %w", b.Class, b.Hour, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadCurve reads the persisted curve. An empty database yields an empty
// slice and no error; the caller starts with a fresh baseline.
func (s *Store) LoadCurve(ctx context.Context) ([]baseline.BucketState, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT class, hour, n, mean, s FROM baseline_buckets ORDER BY class, hour")
	if err != nil {
		return nil, fmt.Errorf("load baseline snapshot: %w", err)
	}
	defer rows.Close()

	var states []baseline.BucketState
	for rows.Next() {
		var b baseline.BucketState
		var class string
		if err := rows.Scan(&class, &b.Hour, &b.N, &b.Mean, &b.S); err != nil {
			return nil, fmt.Errorf("scan bucket row: %w", err)
		}
		b.Class = baseline.DayClass(class)
		states = append(states, b)
	}
	return states, rows.Err()
}

// AppendRecord appends one per-event audit record to the activity log.
func (s *Store) AppendRecord(ctx context.Context, r models.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (
			ts, seconds_off, seconds_on, business,
			estimated_mean, estimated_stdev, estimate_source,
			bucket_mean, neighbor_mean, overall_mean,
			threshold, triggered, fired
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Timestamp.UTC(), r.SecondsOff, r.SecondsOn, r.Business,
		r.EstimatedMean, r.EstimatedStdev, string(r.Source),
		r.BucketMean, r.NeighborMean, r.OverallMean,
		r.Threshold, boolInt(r.Triggered), boolInt(r.Fired),
	)
	if err != nil {
		return fmt.Errorf("append activity record: %w", err)
	}
	return nil
}

// History returns past intervals in chronological order, for replay at
// startup. limit <= 0 returns everything.
func (s *Store) History(ctx context.Context, limit int) ([]models.Interval, error) {
	query := "SELECT ts, seconds_off, seconds_on FROM activity_log ORDER BY ts"
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+" LIMIT ?", limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var out []models.Interval
	for rows.Next() {
		var iv models.Interval
		if err := rows.Scan(&iv.Start, &iv.SecondsOff, &iv.SecondsOn); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// Prune deletes activity-log rows older than the retention cutoff.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := s.db.ExecContext(ctx, "DELETE FROM activity_log WHERE ts < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune activity log: %w", err)
	}
	return res.RowsAffected()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
