package config

import (
	"fmt"
	"strings"

	"github.com/dharmasatrya/tripoptimizer/internal/ratelimit"
)

// Validate checks that every section holds usable values.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateSearches(); err != nil {
		return err
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	if err := c.validateAggregator(); err != nil {
		return err
	}
	if err := c.validateFlags(); err != nil {
		return err
	}
	if err := c.validateBuyWait(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Advisor.Workers < 1 {
		return fmt.Errorf("advisor.workers must be at least 1, got %d", c.Advisor.Workers)
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if c.Cache.Host == "" || c.Cache.Port == "" {
		return fmt.Errorf("cache.host and cache.port are required when the cache is enabled")
	}
	if c.Cache.TTL <= 0 || c.Cache.TrendTTL <= 0 {
		return fmt.Errorf("cache.ttl and cache.trend_ttl must be positive")
	}
	return nil
}

func (c *Config) validateHistory() error {
	h := c.History
	if h.Path == "" {
		return fmt.Errorf("history.path is required")
	}
	if h.LookbackDays < 1 {
		return fmt.Errorf("history.lookback_days must be at least 1, got %d", h.LookbackDays)
	}
	if h.MinObservations < 2 {
		return fmt.Errorf("history.min_observations must be at least 2, got %d", h.MinObservations)
	}
	if h.DateWindowDays < 0 {
		return fmt.Errorf("history.date_window_days must not be negative")
	}
	if h.ThresholdPct <= 0 {
		return fmt.Errorf("history.threshold_pct must be positive")
	}
	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("breaker.failure_ratio must be in (0, 1], got %v", c.Breaker.FailureRatio)
	}
	return nil
}

func (c *Config) validateSearches() error {
	s := c.Searches
	if !s.Enabled {
		return nil
	}
	if s.DefaultPageSize < 1 || s.MaxPageSize < s.DefaultPageSize {
		return fmt.Errorf("searches page sizes must satisfy 1 <= default_page_size <= max_page_size")
	}
	if s.MaxRecent < 1 {
		return fmt.Errorf("searches.max_recent must be at least 1")
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	check := func(name string, l ratelimit.Config) error {
		if l.RequestsPerSecond <= 0 || l.Burst < 1 {
			return fmt.Errorf("ratelimit.%s needs a positive rate and burst", name)
		}
		return nil
	}

	if err := check("provider_default", c.RateLimit.ProviderDefault); err != nil {
		return err
	}
	for name, l := range c.RateLimit.Providers {
		if err := check("providers."+name, l); err != nil {
			return err
		}
	}
	if c.RateLimit.ClientsEnabled {
		if c.RateLimit.ClientsExpiresIn <= 0 {
			return fmt.Errorf("ratelimit.clients_expires_in must be positive")
		}
		return check("clients", c.RateLimit.Clients)
	}
	return nil
}

func (c *Config) validateAggregator() error {
	a := c.Aggregator
	if a.Timeout <= 0 {
		return fmt.Errorf("aggregator.timeout must be positive")
	}
	if a.MaxRetries < 0 || a.RetryDelay < 0 {
		return fmt.Errorf("aggregator retries and retry_delay must not be negative")
	}
	if a.MaxRoundTrips < 1 {
		return fmt.Errorf("aggregator.max_round_trips must be at least 1")
	}
	return nil
}

func (c *Config) validateFlags() error {
	f := c.Flags
	for name, h := range map[string]int{"redeye_start_hour": f.RedeyeStartHour, "redeye_end_hour": f.RedeyeEndHour} {
		if h < 0 || h > 23 {
			return fmt.Errorf("flags.%s must be 0-23, got %d", name, h)
		}
	}
	if f.CriticalConnectionMinutes > f.TightConnectionMinutes {
		return fmt.Errorf("flags.critical_connection_minutes must not exceed tight_connection_minutes")
	}
	if f.LongLayoverMinutes > f.VeryLongLayoverMinutes {
		return fmt.Errorf("flags.long_layover_minutes must not exceed very_long_layover_minutes")
	}
	if f.ManyStops < 1 || f.SevereStops < f.ManyStops {
		return fmt.Errorf("flags.many_stops must be positive and not exceed severe_stops")
	}
	if f.LongTravelFactor <= 1 {
		return fmt.Errorf("flags.long_travel_factor must be greater than 1")
	}
	return nil
}

func (c *Config) validateBuyWait() error {
	b := c.BuyWait
	fractions := map[string]float64{
		"great_deal_percentile":    b.GreatDealPercentile,
		"good_deal_percentile":     b.GoodDealPercentile,
		"poor_deal_percentile":     b.PoorDealPercentile,
		"falling_wait_percentile":  b.FallingWaitPercentile,
		"stable_buy_percentile":    b.StableBuyPercentile,
		"unknown_buy_percentile":   b.UnknownBuyPercentile,
		"strong_trend_confidence":  b.StrongTrendConfidence,
		"price_signal_buy_ceiling": b.PriceSignalBuyCeiling,
		"extreme_high_percentile":  b.ExtremeHighPercentile,
		"extreme_low_percentile":   b.ExtremeLowPercentile,
		"unknown_trend_cap":        b.UnknownTrendCap,
		"stable_trend_cap":         b.StableTrendCap,
		"directional_trend_cap":    b.DirectionalTrendCap,
		"default_hint_confidence":  b.DefaultHintConfidence,
	}
	for name, v := range fractions {
		if v < 0 || v > 1 {
			return fmt.Errorf("buywait.%s must be within [0, 1], got %v", name, v)
		}
	}
	if b.GreatDealPercentile > b.GoodDealPercentile || b.GoodDealPercentile > b.PoorDealPercentile {
		return fmt.Errorf("buywait deal percentiles must be ordered great <= good <= poor")
	}
	if b.ExtremeUrgencyDays > b.TimePressureDays {
		return fmt.Errorf("buywait.extreme_urgency_days must not exceed time_pressure_days")
	}
	if b.MaxReasons < 1 || b.FullConfidenceSamples < 1 {
		return fmt.Errorf("buywait.max_reasons and full_confidence_samples must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
}
