package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds typed configuration for the reconciler service.
type Config struct {
	LogLevel      string
	MetricsAddr   string
	KafkaBrokers  string
	RedisAddr     string
	PostgresDSN   string
	AgentBaseURL  string
	SweepInterval time.Duration
	BatchLimit    int
	RateLimit     int
	OTelEndpoint  string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:      v.GetString("log_level"),
		MetricsAddr:   v.GetString("metrics_addr"),
		KafkaBrokers:  v.GetString("kafka_brokers"),
		RedisAddr:     v.GetString("redis_addr"),
		PostgresDSN:   v.GetString("postgres_dsn"),
		AgentBaseURL:  v.GetString("agent_base_url"),
		SweepInterval: v.GetDuration("sweep_interval"),
		BatchLimit:    v.GetInt("batch_limit"),
		RateLimit:     v.GetInt("rate_limit"),
		OTelEndpoint:  v.GetString("otel_endpoint"),
	}
}
