package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/tripoptimizer/internal/logging"
	"github.com/dharmasatrya/tripoptimizer/internal/metrics"
	"github.com/dharmasatrya/tripoptimizer/internal/models"
)

const searchCache = "search"

type Cache interface {
	Get(ctx context.Context, req models.SearchRequest) ([]models.TripOption, bool)
	Set(ctx context.Context, req models.SearchRequest, options []models.TripOption) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Host     string        `koanf:"host"`
	Port     string        `koanf:"port"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
	TrendTTL time.Duration `koanf:"trend_ttl"`
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:  false,
		Host:     "localhost",
		Port:     "6379",
		Password: "",
		DB:       0,
		TTL:      5 * time.Minute,
		TrendTTL: 15 * time.Minute,
	}
}

// Connect opens a client and pings it.
func Connect(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// NewRedisCache caches in client. The cache owns the client: Close closes
// it.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, req models.SearchRequest) ([]models.TripOption, bool) {
	key := generateKey(req)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("search cache read failed")
		}
		metrics.CacheMisses.WithLabelValues(searchCache).Inc()
		return nil, false
	}

	var options []models.TripOption
	if err := json.Unmarshal(data, &options); err != nil {
		metrics.CacheMisses.WithLabelValues(searchCache).Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues(searchCache).Inc()
	return options, true
}

func (c *RedisCache) Set(ctx context.Context, req models.SearchRequest, options []models.TripOption) error {
	key := generateKey(req)

	data, err := json.Marshal(options)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, req models.SearchRequest) ([]models.TripOption, bool) {
	return nil, false
}

func (c *NoOpCache) Set(ctx context.Context, req models.SearchRequest, options []models.TripOption) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

// generateKey covers only what changes the provider results. Filters and
// sorting are applied after the cache.
func generateKey(req models.SearchRequest) string {
	keyData := struct {
		Origin        string
		Destination   string
		DepartureDate string
		ReturnDate    string
		Passengers    int
		CabinClass    string
	}{
		Origin:        strings.ToUpper(req.Origin),
		Destination:   strings.ToUpper(req.Destination),
		DepartureDate: req.DepartureDate,
		Passengers:    req.Passengers,
		CabinClass:    strings.ToLower(req.CabinClass),
	}

	if req.ReturnDate != nil {
		keyData.ReturnDate = *req.ReturnDate
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return "trip:" + hex.EncodeToString(hash[:])
}
