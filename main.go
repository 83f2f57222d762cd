package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/infranodal/site-scoring/internal/catalog"
	"github.com/infranodal/site-scoring/internal/config"
	"github.com/infranodal/site-scoring/internal/handlers"
	"github.com/infranodal/site-scoring/internal/metrics"
	"github.com/infranodal/site-scoring/internal/middleware"
	"github.com/infranodal/site-scoring/internal/pipeline"
	"github.com/infranodal/site-scoring/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.App.LogLevel),
	}))
	slog.SetDefault(logger)

	registry := metrics.NewRegistry()
	promRegistry := prometheus.NewRegistry()
	registry.MustRegister(promRegistry)

	restStore := store.NewRESTStore(cfg.Store.URL, cfg.Store.APIKey)
	cache := catalog.NewCache(restStore, cfg.Catalog.TTL, cfg.Catalog.GridCellDegrees, logger, registry)
	runner := pipeline.NewRunner(cache, restStore, registry, logger)

	logger.Info("site scoring services initialized",
		"store_configured", cfg.Store.URL != "",
		"catalog_ttl", cfg.Catalog.TTL.String(),
		"environment", cfg.Server.Env,
	)

	handlerConfig := &handlers.Config{
		Version:          cfg.App.AlgorithmVersion,
		ServiceName:      "infranodal-site-scoring",
		AlgorithmVersion: cfg.App.AlgorithmVersion,
	}
	deps := &handlers.Dependencies{
		Runner: runner,
		Cache:  cache,
		Logger: logger,
		Config: handlerConfig,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.NewCORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Security.AllowedOrigins,
		DevelopmentMode: !cfg.IsProduction(),
	}))

	handlers.RegisterHandlers(r, deps)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	addr := cfg.GetServerAddress()
	logger.Info("starting site scoring API server", "address", addr)
	if err := r.Run(addr); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func logLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
