package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/agrovia/riskengine/pkg/constants"
)

// LoadConfig loads the configuration from file and environment variables.
// Environment variables use the RISK_ENGINE_ prefix with dots replaced by
// underscores (e.g. RISK_ENGINE_DATABASE_HOST).
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/riskengine/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("RISK_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.max_conn_lifetime", 30)

	v.SetDefault("redis.addresses", []string{"localhost:6379"})
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("kafka.notification_topic", "risk-notifications")
	v.SetDefault("kafka.consumer_group", "risk-engine-notifiers")
	v.SetDefault("kafka.write_timeout", 10*time.Second)
	v.SetDefault("kafka.read_timeout", 10*time.Second)
	v.SetDefault("kafka.required_acks", -1)
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", time.Second)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.sweep_cron", "0 * * * *") // hourly

	v.SetDefault("evaluation.workers", constants.DefaultSweepWorkers)
	v.SetDefault("evaluation.realtime_slots", constants.DefaultRealtimeSlots)
	v.SetDefault("evaluation.strategy_timeout", constants.StrategyTimeout)
	v.SetDefault("evaluation.snapshot_freshness", constants.DefaultSnapshotFreshness)

	v.SetDefault("webhook.delivery_timeout", constants.WebhookDeliveryTimeout)
	v.SetDefault("webhook.max_attempts", constants.WebhookMaxAttempts)
	v.SetDefault("webhook.initial_backoff", constants.WebhookInitialBackoff)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "risk-engine")
	v.SetDefault("tracing.sampling_rate", 0.1)
}
