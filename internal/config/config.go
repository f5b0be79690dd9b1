// Package config loads the service configuration: struct defaults, then an
// optional YAML file, then environment variables.
package config

import (
	"time"

	"github.com/dharmasatrya/tripoptimizer/internal/buywait"
	"github.com/dharmasatrya/tripoptimizer/internal/cache"
	"github.com/dharmasatrya/tripoptimizer/internal/flags"
	"github.com/dharmasatrya/tripoptimizer/internal/history"
	"github.com/dharmasatrya/tripoptimizer/internal/logging"
	"github.com/dharmasatrya/tripoptimizer/internal/ratelimit"
	"github.com/dharmasatrya/tripoptimizer/internal/searches"
	"github.com/dharmasatrya/tripoptimizer/internal/trend"
)

type Config struct {
	Server     ServerConfig        `koanf:"server"`
	Cache      cache.RedisConfig   `koanf:"cache"`
	History    history.Config      `koanf:"history"`
	Searches   searches.Config     `koanf:"searches"`
	Breaker    trend.BreakerConfig `koanf:"breaker"`
	RateLimit  RateLimitConfig     `koanf:"ratelimit"`
	Aggregator AggregatorConfig    `koanf:"aggregator"`
	Advisor    AdvisorConfig       `koanf:"advisor"`
	Logging    logging.Config      `koanf:"logging"`
	Flags      flags.Config        `koanf:"flags"`
	BuyWait    buywait.Config      `koanf:"buywait"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// RateLimitConfig holds one bucket per provider and one per client address.
// Client buckets idle for ClientsExpiresIn are dropped.
type RateLimitConfig struct {
	ProviderDefault  ratelimit.Config            `koanf:"provider_default"`
	Providers        map[string]ratelimit.Config `koanf:"providers"`
	Clients          ratelimit.Config            `koanf:"clients"`
	ClientsEnabled   bool                        `koanf:"clients_enabled"`
	ClientsExpiresIn time.Duration               `koanf:"clients_expires_in"`
}

type AggregatorConfig struct {
	Timeout       time.Duration `koanf:"timeout"`
	MaxRetries    int           `koanf:"max_retries"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
	MaxRoundTrips int           `koanf:"max_round_trips"`
}

// RetryDelays doubles RetryDelay for each retry.
func (a AggregatorConfig) RetryDelays() []time.Duration {
	delays := make([]time.Duration, a.MaxRetries)
	d := a.RetryDelay
	for i := range delays {
		delays[i] = d
		d *= 2
	}
	return delays
}

type AdvisorConfig struct {
	Workers       int  `koanf:"workers"`
	RecordHistory bool `koanf:"record_history"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Cache:    cache.DefaultRedisConfig(),
		History:  history.DefaultConfig(),
		Searches: searches.DefaultConfig(),
		Breaker:  trend.DefaultBreakerConfig(),
		RateLimit: RateLimitConfig{
			ProviderDefault: ratelimit.DefaultConfig(),
			Providers: map[string]ratelimit.Config{
				"garuda":  {RequestsPerSecond: 20, Burst: 30},
				"lionair": {RequestsPerSecond: 15, Burst: 25},
			},
			Clients:          ratelimit.Config{RequestsPerSecond: 5, Burst: 10},
			ClientsEnabled:   true,
			ClientsExpiresIn: 3 * time.Minute,
		},
		Aggregator: AggregatorConfig{
			Timeout:       2 * time.Second,
			MaxRetries:    3,
			RetryDelay:    100 * time.Millisecond,
			MaxRoundTrips: 50,
		},
		Advisor: AdvisorConfig{
			Workers:       4,
			RecordHistory: true,
		},
		Logging: logging.Config{Level: "info", Format: "json"},
		Flags:   flags.DefaultConfig(),
		BuyWait: buywait.DefaultConfig(),
	}
}
