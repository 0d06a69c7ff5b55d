package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"electropos/backend/internal/cache"
	"electropos/backend/internal/config"
	"electropos/backend/internal/httpapi"
	"electropos/backend/internal/service"
	"electropos/backend/internal/store"
	"electropos/backend/internal/store/memory"
	"electropos/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal("refusing to start", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error

	var repo store.Repository
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres unavailable", zap.Error(err))
		}
		closers = append(closers, pg.Close)
		repo = pg
		logger.Info("using postgres store")
	} else {
		repo = memory.NewSeeded()
		logger.Warn("DATABASE_URL not set, using in-memory store with seed data")
	}

	var reportCache cache.ReportCache = cache.NoopReportCache{}
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rc.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, report caching disabled", zap.Error(err))
			_ = rc.Close()
		} else {
			closers = append(closers, rc.Close)
			reportCache = rc
			logger.Info("report cache enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	svc := service.New(repo, reportCache, logger, time.Duration(cfg.ReportCacheTTLSeconds)*time.Second)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, cfg.AuthSecret, logger)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	for _, close := range closers {
		if err := close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// validateSecurityConfig blocks production startup with a missing or weak
// token secret. Development keeps the built-in fallback.
func validateSecurityConfig(cfg config.Config) error {
	if os.Getenv("APP_ENV") == "development" {
		return nil
	}
	if cfg.AuthSecret == "" {
		return errors.New("AUTH_SECRET must be set outside development")
	}
	if len(cfg.AuthSecret) < 32 {
		return errors.New("AUTH_SECRET must be at least 32 bytes")
	}
	return nil
}
