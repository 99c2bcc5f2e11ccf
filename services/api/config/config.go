package config

import "github.com/spf13/viper"

// Config holds typed configuration for the api service.
type Config struct {
	LogLevel          string
	HTTPPort          string
	MetricsAddr       string
	KafkaBrokers      string
	RedisAddr         string
	PostgresDSN       string
	AgentBaseURL      string
	AnalysisCacheSize int
	OTelEndpoint      string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:          v.GetString("log_level"),
		HTTPPort:          v.GetString("http_port"),
		MetricsAddr:       v.GetString("metrics_addr"),
		KafkaBrokers:      v.GetString("kafka_brokers"),
		RedisAddr:         v.GetString("redis_addr"),
		PostgresDSN:       v.GetString("postgres_dsn"),
		AgentBaseURL:      v.GetString("agent_base_url"),
		AnalysisCacheSize: v.GetInt("analysis_cache_size"),
		OTelEndpoint:      v.GetString("otel_endpoint"),
	}
}
