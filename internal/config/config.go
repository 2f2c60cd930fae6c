// Package config loads Viper-backed configuration and builds the logger.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8174)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.path", "./data/magnetophon.db")
	v.SetDefault("summary_csv", "./data/stats.csv")
	v.SetDefault("history_csv", "")

	// Engine defaults
	v.SetDefault("engine.recurrence", "summary")
	v.SetDefault("engine.decay", 1.0/3600)
	v.SetDefault("engine.estimator", "interp")
	v.SetDefault("engine.harmonics", 3)
	v.SetDefault("engine.min_bucket_samples", 60)
	v.SetDefault("engine.min_coverage", "1h")
	v.SetDefault("engine.return_period_hours", 168)
	v.SetDefault("engine.snapshot_every", 10)
	v.SetDefault("engine.retention", "2160h")

	// Notification defaults
	v.SetDefault("notify.max_per_hour", 4)
	v.SetDefault("notify.webhook.url", "")
	v.SetDefault("notify.webhook.timeout", "10s")
	v.SetDefault("notify.script.command", "")
	v.SetDefault("notify.script.timeout", "1m")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("magnetophon")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/magnetophon")
	}

	// Environment variable support: MAG_SERVER_PORT=9090
	v.SetEnvPrefix("MAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
