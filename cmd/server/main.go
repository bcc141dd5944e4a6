package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"madkalender/internal/config"
	"madkalender/internal/database"
	"madkalender/internal/metrics"
	"madkalender/internal/refresh"
	"madkalender/internal/scrape"
	"madkalender/internal/server"
)

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Optional .env for local development; config values come from YAML.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("MADKALENDER_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.New(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	metrics.Register()

	fetcher := scrape.NewHTTPFetcher(cfg.Scrape.URL, cfg.ScrapeTimeout())
	scraper := scrape.NewService(fetcher, db, cfg.RefreshInterval(), &logger)

	refresher := refresh.NewService(refresh.Config{
		CheckInterval:   cfg.CheckInterval(),
		RefreshInterval: cfg.RefreshInterval(),
		StartupDelay:    cfg.StartupDelay(),
	}, scraper, db, &logger)

	srv := server.New(db, scraper, &logger)

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.Redis.FeedCacheTTLSeconds > 0 {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		srv.UseRedisCache(rdb, cfg.FeedCacheTTL())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refresher.Start(ctx)
	defer refresher.Stop()

	backup := database.NewBackupService(db, database.BackupConfig{
		Enabled:       cfg.Backup.Enabled,
		StoragePath:   cfg.Backup.StoragePath,
		Interval:      cfg.BackupInterval(),
		RetentionDays: cfg.Backup.RetentionDays,
	}, &logger)
	go backup.Start(ctx)

	if cfg.Monitoring.PrometheusEnabled {
		port := cfg.Monitoring.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go startMetricsServer(ctx, port, &logger)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.Server.Port).Str("scrape_url", cfg.Scrape.URL).Msg("madkalender started")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("http server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
