package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dharmasatrya/tripoptimizer/internal/advisor"
	"github.com/dharmasatrya/tripoptimizer/internal/aggregator"
	"github.com/dharmasatrya/tripoptimizer/internal/buywait"
	"github.com/dharmasatrya/tripoptimizer/internal/cache"
	"github.com/dharmasatrya/tripoptimizer/internal/config"
	"github.com/dharmasatrya/tripoptimizer/internal/flags"
	"github.com/dharmasatrya/tripoptimizer/internal/handler"
	"github.com/dharmasatrya/tripoptimizer/internal/history"
	"github.com/dharmasatrya/tripoptimizer/internal/logging"
	"github.com/dharmasatrya/tripoptimizer/internal/providers"
	"github.com/dharmasatrya/tripoptimizer/internal/ratelimit"
	"github.com/dharmasatrya/tripoptimizer/internal/searches"
	"github.com/dharmasatrya/tripoptimizer/internal/segment"
	"github.com/dharmasatrya/tripoptimizer/internal/trend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(cfg.Logging)

	providerList, err := initializeProviders()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize providers")
	}
	logging.Info().Int("providers", len(providerList)).Msg("initialized flight providers")

	providerLimiter := ratelimit.NewKeyedLimiter(cfg.RateLimit.ProviderDefault)
	for name, l := range cfg.RateLimit.Providers {
		providerLimiter.SetLimit(name, l)
	}

	agg := aggregator.NewAggregator(providerList, aggregator.Config{
		Timeout:       cfg.Aggregator.Timeout,
		MaxRetries:    cfg.Aggregator.MaxRetries,
		RetryDelays:   cfg.Aggregator.RetryDelays(),
		MaxRoundTrips: cfg.Aggregator.MaxRoundTrips,
		RateLimiter:   providerLimiter,
	})

	db, err := history.Open(cfg.History.Path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.History.Path).Msg("failed to open price history")
	}
	historyService := history.NewService(history.NewGormRepository(db), cfg.History)

	var searchStore *searches.Service
	if cfg.Searches.Enabled {
		if err := searches.Migrate(db); err != nil {
			logging.Fatal().Err(err).Msg("failed to prepare stored searches")
		}
		searchStore = searches.NewService(searches.NewGormRepository(db), cfg.Searches)
	}

	var trends trend.Lookup = trend.NewBreaker("price-history", historyService, cfg.Breaker)

	var searchCache cache.Cache = cache.NewNoOpCache()
	if cfg.Cache.Enabled {
		client, err := cache.Connect(cfg.Cache)
		if err != nil {
			logging.Fatal().Err(err).Str("host", cfg.Cache.Host).Msg("failed to connect to Redis")
		}
		searchCache = cache.NewRedisCache(client, cfg.Cache.TTL)
		trends = trend.NewCachedLookup(client, trends, cfg.Cache.TrendTTL)
		logging.Info().Str("addr", cfg.Cache.Host+":"+cfg.Cache.Port).Dur("ttl", cfg.Cache.TTL).Msg("redis cache enabled")
	} else {
		logging.Info().Msg("cache disabled")
	}
	defer searchCache.Close()

	adv := advisor.New(
		flags.NewEngine(cfg.Flags, segment.NewHeuristicParser()),
		buywait.NewPolicy(cfg.BuyWait),
		trends,
		historyService,
		cfg.Advisor.Workers,
	)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(handler.RequestContext())

	api := e.Group("/api/v1")
	if cfg.RateLimit.ClientsEnabled {
		api.Use(handler.RateLimit(cfg.RateLimit.Clients, cfg.RateLimit.ClientsExpiresIn))
	}
	handler.NewSearchHandler(handler.Deps{
		Aggregator:    agg,
		Cache:         searchCache,
		Advisor:       adv,
		Trends:        trends,
		Counter:       historyService,
		Searches:      searchStore,
		RecordHistory: cfg.Advisor.RecordHistory,
	}).Register(api)

	e.GET("/health", handler.HealthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	go func() {
		logging.Info().Str("port", cfg.Server.Port).Msg("starting trip optimizer server")
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
	logging.Info().Msg("server stopped")
}

func initializeProviders() ([]providers.Provider, error) {
	var providerList []providers.Provider

	garuda, err := providers.NewGarudaProvider()
	if err != nil {
		return nil, err
	}
	providerList = append(providerList, garuda)

	lionair, err := providers.NewLionAirProvider()
	if err != nil {
		return nil, err
	}
	providerList = append(providerList, lionair)

	return providerList, nil
}
