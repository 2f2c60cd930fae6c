// Package notify delivers anomaly notifications to external channels.
// Delivery failure is logged and dropped: the trigger state machine has
// already transitioned, and retrying a missed excursion notification is
// worse than losing it.
package notify

import (
	"context"
	"time"
)

// Alert describes one excursion above the calibrated threshold.
type Alert struct {
	ID string `json:"id"`
	// Label is the timestamp-derived name of the triggering interval,
	// matching the capture subsystem's recording file naming.
	Label     string    `json:"label"`
	StartedAt time.Time `json:"started_at"`

	Business  float64 `json:"business"`
	Mean      float64 `json:"estimated_mean"`
	StdDev    float64 `json:"estimated_stdev"`
	Threshold float64 `json:"threshold"`
}

// Notifier delivers alerts through one channel type.
type Notifier interface {
	// Notify sends one alert. eventType is "triggered" or "rearmed".
	Notify(ctx context.Context, alert *Alert, eventType string) error
	// Type returns the notifier type identifier ("webhook", "script").
	Type() string
}

// WebhookConfig holds configuration for webhook delivery.
type WebhookConfig struct {
	URL     string            `mapstructure:"url" json:"url"`
	Secret  string            `mapstructure:"secret" json:"secret,omitempty"`
	Headers map[string]string `mapstructure:"headers" json:"headers,omitempty"`
	Timeout time.Duration     `mapstructure:"timeout" json:"timeout,omitempty"`
}

// ScriptConfig holds configuration for notification-script delivery.
type ScriptConfig struct {
	Command string        `mapstructure:"command" json:"command"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout,omitempty"`
}
