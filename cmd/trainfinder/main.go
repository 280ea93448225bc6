package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trainfinder/internal/cache"
	"trainfinder/internal/catalog"
	"trainfinder/internal/config"
	"trainfinder/internal/fare"
	"trainfinder/internal/gateway"
	"trainfinder/internal/handler"
	"trainfinder/internal/hub"
	"trainfinder/internal/middleware"
	"trainfinder/internal/query"
	"trainfinder/internal/remote"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting trainfinder server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"store_backend", cfg.StoreBackend,
		"cache_backend", cfg.CacheBackend,
	)

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		logger.Error("failed to load schedule catalog", "file", cfg.CatalogFile, "error", err)
		os.Exit(1)
	}
	logger.Info("schedule catalog loaded",
		"stations", len(cat.AllStations()),
		"schedules", len(cat.AllSchedules()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw := gateway.New(newDialer(cfg, logger), cat, gateway.Options{
		RetryInterval:     cfg.StoreRetryInterval,
		MaxRetries:        cfg.StoreMaxRetries,
		ReadTimeout:       cfg.StoreReadTimeout,
		ConnectTimeout:    cfg.StoreConnectTimeout,
		ReconnectInterval: cfg.StoreReconnectInterval,
	}, logger)

	statusHub := hub.NewHub(logger)
	gw.OnStateChange(statusHub.BroadcastStatus)

	resultCache := newCache(ctx, cfg, logger)
	if resultCache != nil {
		defer resultCache.Close()
	}

	policy, err := query.ParseUnknownStationPolicy(cfg.FareUnknownStationPolicy)
	if err != nil {
		logger.Error("invalid fare policy", "error", err)
		os.Exit(1)
	}

	facade := query.New(gw, fare.NewCalculator(cat.FareRules(), cat), query.Options{
		Cache:         resultCache,
		CacheTTL:      cfg.CacheTTL,
		UnknownPolicy: policy,
	}, logger)

	trainsHandler := handler.NewTrainsHandler(facade, logger)
	healthHandler := handler.NewHealthHandler(gw, cat)
	wsHandler := handler.NewWSHandler(statusHub, gw, logger)
	limiter := middleware.NewRateLimiter(ctx, cfg.RateLimitPerWindow, cfg.RateLimitWindow, cfg.RateLimitWhitelist, logger)

	api := func(h http.HandlerFunc) http.Handler {
		return limiter.Middleware(middleware.Gzip(h))
	}

	mux := http.NewServeMux()

	mux.Handle("GET /v1/stations", api(trainsHandler.ListStations))
	mux.Handle("GET /v1/trains", api(trainsHandler.FindTrains))
	mux.Handle("GET /v1/fare", api(trainsHandler.GetFare))
	mux.Handle("GET /v1/status", api(healthHandler.Status))
	mux.HandleFunc("/v1/ws", wsHandler.ServeWS)

	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      middleware.RequestID(middleware.Instrument(logger)(middleware.CORS(mux))),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go statusHub.Run(ctx)

	go gw.Run(ctx)

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// newDialer returns nil when no remote store is configured; the gateway then
// serves everything from the catalog.
func newDialer(cfg *config.Config, logger *slog.Logger) gateway.Dialer {
	switch cfg.StoreBackend {
	case config.StoreMongo:
		return remote.NewMongoDialer(cfg.MongoURI, cfg.MongoDatabase, cfg.StoreConnectTimeout, cfg.StoreReadTimeout, logger)
	case config.StorePostgres:
		return remote.NewPostgresDialer(cfg.PostgresDSN, logger)
	default:
		return nil
	}
}

func newCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) cache.Cache {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Warn("redis unavailable, falling back to in-memory cache", "addr", cfg.RedisAddr, "error", err)
			return cache.NewMemoryCache(cfg.CacheTTL, logger)
		}
		return rc
	case config.CacheMemory:
		return cache.NewMemoryCache(cfg.CacheTTL, logger)
	default:
		return nil
	}
}
