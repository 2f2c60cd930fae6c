package engine

import "github.com/prometheus/client_golang/prometheus"

// Prometheus engine metrics.
var (
	intervalsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "magnetophon_intervals_processed_total",
		Help: "Total number of activity intervals processed.",
	})
	notificationsFired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "magnetophon_notifications_fired_total",
		Help: "Total number of anomaly notifications fired.",
	})
	estimateFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "magnetophon_estimate_fallbacks_total",
			Help: "Estimates served by a fallback source instead of the primary strategy.",
		},
		[]string{"source"},
	)
	snapshotFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "magnetophon_snapshot_failures_total",
		Help: "Total number of failed baseline snapshot writes.",
	})
	businessGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "magnetophon_business",
		Help: "Current business level of the monitored channel.",
	})
	thresholdGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "magnetophon_threshold",
		Help: "Threshold applied to the most recent evaluation.",
	})
	triggeredGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "magnetophon_triggered",
		Help: "1 while an anomaly excursion is in progress, 0 otherwise.",
	})
)

func init() {
	prometheus.MustRegister(intervalsProcessed)
	prometheus.MustRegister(notificationsFired)
	prometheus.MustRegister(estimateFallbacks)
	prometheus.MustRegister(snapshotFailures)
	prometheus.MustRegister(businessGauge)
	prometheus.MustRegister(thresholdGauge)
	prometheus.MustRegister(triggeredGauge)
}
