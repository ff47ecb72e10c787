package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"prodash/internal/cache"
	"prodash/internal/cli"
	apphttp "prodash/internal/http"
	applog "prodash/internal/log"
)

const (
	sessionPurgeInterval = time.Hour
	cacheCleanupInterval = 5 * time.Minute
	shutdownTimeout      = 30 * time.Second
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", applog.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to close backend", applog.FieldError, err)
		}
	}()

	caches := cache.NewManager(logger)
	for _, c := range app.Services.Caches() {
		caches.Register(c)
	}
	caches.StartCleanup(cacheCleanupInterval)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Services:           app.Services,
		Identity:           app.Identity,
		Store:              app.Backend.Store,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SecureCookies:      cfg.Production(),
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting prodash server", "port", cfg.Port, "backend", cfg.DataBackend, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(sessionPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := app.Identity.PurgeExpired(gctx)
				if err != nil {
					logger.Error("Session purge failed", applog.FieldError, err)
					continue
				}
				if n > 0 {
					logger.Info("Purged expired sessions", "count", n)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
