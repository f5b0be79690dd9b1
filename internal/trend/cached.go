package trend

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/tripoptimizer/internal/history"
	"github.com/dharmasatrya/tripoptimizer/internal/logging"
	"github.com/dharmasatrya/tripoptimizer/internal/metrics"
	"github.com/dharmasatrya/tripoptimizer/internal/models"
)

// CachedLookup keeps computed trends in Redis for a short TTL. Redis
// failures fall through to the wrapped lookup.
type CachedLookup struct {
	client redis.Cmdable
	next   Lookup
	ttl    time.Duration
}

// NewCachedLookup caches the results of next in client for ttl.
func NewCachedLookup(client redis.Cmdable, next Lookup, ttl time.Duration) *CachedLookup {
	return &CachedLookup{client: client, next: next, ttl: ttl}
}

// ComputeTrend serves a cached result when one is readable and otherwise
// computes and caches it. Errors from next are returned uncached.
func (c *CachedLookup) ComputeTrend(ctx context.Context, origin, destination string, departure time.Time) (history.TrendResult, error) {
	key := cacheKey(origin, destination, departure)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var r history.TrendResult
		if jsonErr := json.Unmarshal(data, &r); jsonErr == nil {
			metrics.TrendLookups.WithLabelValues("hit").Inc()
			return r, nil
		}
		logging.Ctx(ctx).Warn().Str("key", key).Msg("discarding unreadable cached trend")
	case errors.Is(err, redis.Nil):
	default:
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("trend cache read failed")
	}

	metrics.TrendLookups.WithLabelValues("miss").Inc()
	r, err := c.next.ComputeTrend(ctx, origin, destination, departure)
	if err != nil {
		metrics.TrendLookups.WithLabelValues("error").Inc()
		return r, err
	}

	if payload, err := json.Marshal(r); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("trend cache write failed")
		}
	}
	return r, nil
}

func cacheKey(origin, destination string, departure time.Time) string {
	return "trend:" + models.AirportCode(origin) + ":" + models.AirportCode(destination) + ":" + departure.Format("2006-01-02")
}
