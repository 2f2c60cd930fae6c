// Package engine owns the per-event processing pipeline: it feeds each
// observed on/off interval through the business recurrence, asks the
// baseline estimator what the current instant should look like, evaluates
// the anomaly trigger, and emits audit records, bus events, metrics and
// periodic snapshots. The engine is single-threaded by contract: one
// goroutine owns the event stream and calls ProcessInterval; HTTP readers
// go through the mutex-guarded accessors.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmayorov/magnetophon/internal/activity"
	"github.com/dmayorov/magnetophon/internal/baseline"
	"github.com/dmayorov/magnetophon/internal/event"
	"github.com/dmayorov/magnetophon/internal/notify"
	"github.com/dmayorov/magnetophon/internal/snapshot"
	"github.com/dmayorov/magnetophon/internal/trigger"
	"github.com/dmayorov/magnetophon/pkg/models"
)

// ErrNegativeDuration is returned for intervals with a negative on or off
// span; they carry no usable signal and leave all state untouched.
var ErrNegativeDuration = errors.New("engine: negative interval duration")

// secondsPerHour is the evaluation rate of the per-second recurrence.
const secondsPerHour = 3600

// Status is the externally visible engine state, served by the HTTP API.
type Status struct {
	Business  float64               `json:"business"`
	Threshold float64               `json:"threshold"`
	Triggered bool                  `json:"triggered"`
	Source    models.EstimateSource `json:"estimate_source,omitempty"`
	Events    int64                 `json:"events_processed"`
	LastEvent time.Time             `json:"last_event"`
}

// Engine drives the activity pipeline for a single monitored channel.
type Engine struct {
	cfg    Config
	logger *zap.Logger
	bus    *event.Bus

	mu        sync.Mutex
	curve     *baseline.Curve
	model     activity.Model
	estimator baseline.Estimator
	trig      *trigger.Trigger

	store   *snapshot.Store
	summary *snapshot.SummaryWriter

	epoch          time.Time
	events         int64
	sinceSnapshot  int
	lastSummaryDay string
	last           models.Record
	muted          bool
	closed         bool

	persistCh chan []baseline.BucketState
	closeOnce sync.Once
	done      chan struct{}
}

// New builds an engine around a (possibly restored) curve. store and
// summary may be nil, which disables persistence and the daily CSV dump
// respectively. epoch is the start of observed coverage: the earliest
// replayed event, or process start on a fresh database.
func New(cfg Config, curve *baseline.Curve, store *snapshot.Store, summary *snapshot.SummaryWriter, bus *event.Bus, epoch time.Time, logger *zap.Logger) *Engine {
	if curve == nil {
		curve = baseline.NewCurve()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		cfg:            cfg,
		logger:         logger,
		bus:            bus,
		curve:          curve,
		model:          activity.New(cfg.Recurrence, cfg.Decay),
		trig:           trigger.New(cfg.ReturnPeriodHours),
		store:          store,
		summary:        summary,
		epoch:          epoch,
		lastSummaryDay: epoch.Format("2006-01-02"),
		persistCh:      make(chan []baseline.BucketState, 1),
		done:           make(chan struct{}),
	}

	switch cfg.Estimator {
	case EstimatorSpectral:
		e.estimator = baseline.NewSpectralEstimator(curve, cfg.Harmonics, cfg.MinCoverage, epoch)
	default:
		e.estimator = baseline.NewInterpEstimator(curve, cfg.MinBucketSamples, cfg.MinCoverage, epoch)
	}

	if store != nil {
		go e.persistLoop()
	} else {
		close(e.done)
	}
	return e
}

// ProcessInterval runs one observed interval through the full pipeline and
// returns the audit record it produced.
func (e *Engine) ProcessInterval(ctx context.Context, ev models.Interval) (models.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.process(ctx, ev)
}

func (e *Engine) process(ctx context.Context, ev models.Interval) (models.Record, error) {
	if ev.SecondsOff < 0 || ev.SecondsOn < 0 {
		return models.Record{}, ErrNegativeDuration
	}

	business := e.model.Update(ev, e.curve)

	// Estimate at the recording start, the same instant the recurrence
	// pushed into the curve. Evaluating at the interval's end would read a
	// different bucket whenever the activity crosses an hour boundary.
	now := ev.Start
	est := e.estimator.Estimate(now)

	e.events++
	wasTriggered := e.trig.Triggered()
	d := e.trig.Evaluate(business, e.eventsPerHour(now), est)

	rec := models.Record{
		Timestamp:      now,
		SecondsOff:     ev.SecondsOff,
		SecondsOn:      ev.SecondsOn,
		Business:       business,
		EstimatedMean:  est.Mean,
		EstimatedStdev: est.StdDev,
		Source:         est.Source,
		BucketMean:     est.BucketMean,
		NeighborMean:   est.NeighborMean,
		OverallMean:    e.curve.Overall.Mean(),
		Threshold:      d.Threshold,
		Triggered:      d.Triggered,
		Fired:          d.Fired,
	}
	e.last = rec

	intervalsProcessed.Inc()
	businessGauge.Set(business)
	thresholdGauge.Set(d.Threshold)
	if d.Triggered {
		triggeredGauge.Set(1)
	} else {
		triggeredGauge.Set(0)
	}
	if est.Source != models.EstimatePrimary {
		estimateFallbacks.WithLabelValues(string(est.Source)).Inc()
	}

	if !e.muted {
		e.bus.Publish(ctx, event.Event{Topic: event.TopicRecord, Timestamp: now, Payload: &rec})
		if d.Fired {
			notificationsFired.Inc()
			e.logger.Info("anomaly excursion started",
				zap.String("label", ev.Label()),
				zap.Float64("business", business),
				zap.Float64("threshold", d.Threshold))
			e.bus.PublishAsync(ctx, event.Event{
				Topic:     event.TopicTriggered,
				Timestamp: now,
				Payload:   e.alert(ev, business, est, d),
			})
		} else if wasTriggered && !d.Triggered {
			e.logger.Info("anomaly excursion ended", zap.String("label", ev.Label()))
			e.bus.PublishAsync(ctx, event.Event{
				Topic:     event.TopicRearmed,
				Timestamp: now,
				Payload:   e.alert(ev, business, est, d),
			})
		}

		if e.store != nil {
			if err := e.store.AppendRecord(ctx, rec); err != nil {
				e.logger.Warn("activity log append failed", zap.Error(err))
			}
		}
	}

	e.maybeSnapshot(now)
	return rec, nil
}

// Replay feeds historical intervals through the pipeline in order,
// rebuilding the recurrence and trigger state without emitting
// notifications or re-persisting records that already exist. Malformed
// intervals are skipped; replay itself never fails on one.
func (e *Engine) Replay(ctx context.Context, intervals []models.Interval) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.muted = true
	defer func() { e.muted = false }()

	for _, ev := range intervals {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := e.process(ctx, ev); err != nil {
			e.logger.Debug("skipping interval during replay",
				zap.String("label", ev.Label()), zap.Error(err))
		}
	}
	e.logger.Info("history replay complete",
		zap.Int("intervals", len(intervals)),
		zap.Float64("business", e.model.Business()))
	return nil
}

// Status returns the engine state after the most recent evaluation.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Business:  e.model.Business(),
		Threshold: e.last.Threshold,
		Triggered: e.trig.Triggered(),
		Source:    e.last.Source,
		Events:    e.events,
		LastEvent: e.last.Timestamp,
	}
}

// CurveStates returns a consistent snapshot of every baseline bucket.
func (e *Engine) CurveStates() []baseline.BucketState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.curve.Snapshot()
}

// Prune removes audit rows older than the configured retention.
func (e *Engine) Prune(ctx context.Context) (int64, error) {
	if e.store == nil || e.cfg.Retention <= 0 {
		return 0, nil
	}
	return e.store.Prune(ctx, e.cfg.Retention)
}

// Close flushes the pending snapshot, if any, and stops the persist
// worker. Intervals processed after Close are evaluated but no longer
// snapshotted; the event stream goroutine may still be draining a blocked
// read when shutdown starts.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		if e.store != nil {
			e.enqueueSnapshot()
		}
		e.closed = true
		e.mu.Unlock()
		if e.store != nil {
			close(e.persistCh)
		}
	})
	<-e.done
}

// eventsPerHour estimates the trigger evaluation rate. The per-second
// recurrence evaluates once per simulated second; the summary recurrence
// once per interval, so its rate is observed events over elapsed coverage.
func (e *Engine) eventsPerHour(now time.Time) float64 {
	if e.model.Kind() == activity.KindToggle {
		return secondsPerHour
	}
	elapsed := now.Sub(e.epoch).Hours()
	if elapsed <= 0 {
		return 0
	}
	return float64(e.events) / elapsed
}

func (e *Engine) alert(ev models.Interval, business float64, est baseline.Estimate, d trigger.Decision) *notify.Alert {
	return &notify.Alert{
		ID:        uuid.New().String(),
		Label:     ev.Label(),
		StartedAt: ev.Start,
		Business:  business,
		Mean:      est.Mean,
		StdDev:    est.StdDev,
		Threshold: d.Threshold,
	}
}

// maybeSnapshot persists the curve every SnapshotEvery events and appends
// the daily summary on calendar-day rollover. Neither path blocks event
// processing: the snapshot rides a buffered channel and a busy worker
// means we retry on the next occasion.
func (e *Engine) maybeSnapshot(now time.Time) {
	if e.store != nil && e.cfg.SnapshotEvery > 0 {
		e.sinceSnapshot++
		if e.sinceSnapshot >= e.cfg.SnapshotEvery && e.enqueueSnapshot() {
			e.sinceSnapshot = 0
		}
	}

	if e.summary != nil {
		day := now.Format("2006-01-02")
		if day != e.lastSummaryDay {
			if e.muted {
				// Replay only advances the day cursor. The summary file is
				// append-only, so writing here would duplicate historical
				// days on every restart.
				e.lastSummaryDay = day
				return
			}
			label := now.Format(models.LabelLayout)
			if err := e.summary.Append(label, e.curve); err != nil {
				snapshotFailures.Inc()
				e.logger.Warn("daily summary append failed", zap.Error(err))
			} else {
				e.lastSummaryDay = day
			}
		}
	}
}

// enqueueSnapshot hands the current curve to the persist worker. Callers
// hold e.mu; the closed check keeps a straggling event (a stdin read that
// unblocked mid-shutdown) from sending on the closed channel.
func (e *Engine) enqueueSnapshot() bool {
	if e.closed {
		return false
	}
	select {
	case e.persistCh <- e.curve.Snapshot():
		return true
	default:
		return false
	}
}

func (e *Engine) persistLoop() {
	defer close(e.done)
	for states := range e.persistCh {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := e.store.SaveCurve(ctx, states)
		cancel()
		if err != nil {
			snapshotFailures.Inc()
			e.logger.Warn("baseline snapshot failed", zap.Error(err))
			continue
		}
		e.logger.Debug("baseline snapshot persisted", zap.Int("buckets", len(states)))
		e.bus.PublishAsync(context.Background(), event.Event{
			Topic:     event.TopicSnapshot,
			Timestamp: time.Now(),
			Payload:   len(states),
		})
	}
}
