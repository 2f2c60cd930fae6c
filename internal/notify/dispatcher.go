package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dmayorov/magnetophon/internal/event"
)

// Dispatcher fans alerts out to all configured notifiers. Failures are
// logged, never propagated: the trigger has already transitioned and the
// hysteresis band prevents a retry storm for the same excursion. A rate
// limiter guards the channels against pathological trigger flapping.
type Dispatcher struct {
	notifiers []Notifier
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher over the given notifiers.
// maxPerHour bounds deliveries per hour; zero or negative disables the limit.
func NewDispatcher(notifiers []Notifier, maxPerHour float64, logger *zap.Logger) *Dispatcher {
	var limiter *rate.Limiter
	if maxPerHour > 0 {
		limiter = rate.NewLimiter(rate.Limit(maxPerHour/3600), 1)
	}
	return &Dispatcher{
		notifiers: notifiers,
		limiter:   limiter,
		logger:    logger,
	}
}

// HandleEvent delivers an anomaly event from the bus to every notifier.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev event.Event) {
	alert, ok := ev.Payload.(*Alert)
	if !ok {
		d.logger.Warn("unexpected payload type for anomaly event",
			zap.String("topic", ev.Topic),
		)
		return
	}

	eventType := "triggered"
	if strings.HasSuffix(ev.Topic, ".rearmed") {
		eventType = "rearmed"
	}

	// Re-arm notices ride along with the excursion that produced them and
	// are not counted against the limit.
	if eventType == "triggered" && d.limiter != nil && !d.limiter.Allow() {
		d.logger.Warn("notification rate limit exceeded, dropping",
			zap.String("alert_id", alert.ID),
			zap.String("event_type", eventType),
		)
		return
	}

	for _, n := range d.notifiers {
		if err := n.Notify(ctx, alert, eventType); err != nil {
			d.logger.Warn("notification delivery failed",
				zap.String("notifier", n.Type()),
				zap.String("alert_id", alert.ID),
				zap.Error(err),
			)
			continue
		}
		d.logger.Debug("notification delivered",
			zap.String("notifier", n.Type()),
			zap.String("alert_id", alert.ID),
			zap.String("event_type", eventType),
		)
	}
}
