package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	config "github.com/routeoptima/route-optima/configs"
	"github.com/routeoptima/route-optima/internal/application/services"
	"github.com/routeoptima/route-optima/internal/core/domain/route"
	"github.com/routeoptima/route-optima/internal/core/ports"
	"github.com/routeoptima/route-optima/internal/infrastructure/health"
	"github.com/routeoptima/route-optima/internal/infrastructure/httpserver"
	"github.com/routeoptima/route-optima/internal/infrastructure/mapbox"
	"github.com/routeoptima/route-optima/internal/infrastructure/metrics"
	"github.com/routeoptima/route-optima/internal/infrastructure/redis"
	"github.com/routeoptima/route-optima/internal/infrastructure/repositories"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger := newLogger(&cfg.Log)
	logger.Info("Starting route-optima caching proxy...")

	// The proxy never serves without its cache: a rejected password or an
	// unreachable Redis stops startup here.
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		if errors.Is(err, route.ErrCacheAuth) {
			logger.WithError(err).Fatal("Redis rejected the configured password")
		}
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	logger.WithField("addr", redisClient.Options().Addr).Info("Connected to Redis successfully")

	routeCache := redis.NewRedisCache(redisClient, cfg.Cache.KeyPrefix)

	provider, err := mapbox.NewClient(&mapbox.ClientConfig{
		BaseURL:     cfg.Upstream.BaseURL,
		AccessToken: cfg.Upstream.AccessToken,
		Geometries:  cfg.Upstream.Geometries,
		Timeout:     cfg.Upstream.Timeout,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize route provider client")
	}

	routeService := services.NewRouteService(routeCache, provider, &services.RouteServiceConfig{
		TTL:     cfg.Cache.TTL,
		Metrics: metrics.NewRouteMetrics(prometheus.DefaultRegisterer),
	}, logger)

	var rateLimiter ports.RateLimiterService
	if cfg.RateLimit.RequestsPerMinute > 0 {
		rateLimiter = services.NewRateLimiterService(repositories.NewRateLimitRedisRepository(redisClient), &services.RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			BurstMultiplier:   cfg.RateLimit.BurstMultiplier,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         cfg.RateLimit.KeyPrefix,
		}, logger)
	} else {
		logger.Info("Inbound rate limiting disabled")
	}

	serverConfig := &httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	server := httpserver.NewServer(serverConfig, logger, httpserver.ServerDeps{
		RouteOptimizer:     routeService,
		RateLimiterService: rateLimiter,
		HealthCheckers:     []ports.HealthChecker{health.NewRedisHealthChecker(redisClient)},
	})

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	return logger
}
