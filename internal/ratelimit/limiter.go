// Package ratelimit keeps one token bucket per provider. The set of keys is
// fixed by configuration, so buckets are never evicted.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

type Config struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 10,
		Burst:             20,
	}
}

type KeyedLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	defaults Config
}

func NewKeyedLimiter(defaults Config) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		defaults: defaults,
	}
}

// Limiter returns the bucket for key, creating it with the defaults.
func (k *KeyedLimiter) Limiter(key string) *rate.Limiter {
	k.mu.RLock()
	l, ok := k.limiters[key]
	k.mu.RUnlock()
	if ok {
		return l
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if l, ok = k.limiters[key]; ok {
		return l
	}
	l = rate.NewLimiter(rate.Limit(k.defaults.RequestsPerSecond), k.defaults.Burst)
	k.limiters[key] = l
	return l
}

// SetLimit overrides the bucket for one key.
func (k *KeyedLimiter) SetLimit(key string, cfg Config) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.limiters[key] = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
}

// Wait blocks until key may proceed or ctx is done.
func (k *KeyedLimiter) Wait(ctx context.Context, key string) error {
	return k.Limiter(key).Wait(ctx)
}
