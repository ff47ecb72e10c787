// Package cli provides the initialization shared by cmd/prodash,
// cmd/prodash-worker and cmd/prodashctl.
package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"prodash/internal/assistant"
	"prodash/internal/backend"
	"prodash/internal/config"
	"prodash/internal/core"
	"prodash/internal/identity"
	applog "prodash/internal/log"
	"prodash/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default. An unknown level falls back to info.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	level, _ := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Component: component,
		File:      cfg.LogFile,
	})
	applog.SetDefault(logger)
	return logger
}

// Bootstrap loads .env and the configuration, sets up logging and exits the
// process when the configuration is invalid.
func Bootstrap(component string) (*config.Config, *applog.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// SessionSecret returns the configured secret. Outside production an empty
// secret is replaced by a random one, which invalidates sessions on restart.
func SessionSecret(cfg *config.Config, logger *applog.Logger) (string, error) {
	if cfg.SessionSecret != "" {
		return cfg.SessionSecret, nil
	}
	if cfg.Production() {
		return "", fmt.Errorf("SESSION_SECRET is required in production")
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	logger.Warn("SESSION_SECRET not set, using a random secret for this process")
	return hex.EncodeToString(buf), nil
}

// App is the wired application core shared by every binary.
type App struct {
	Config   *config.Config
	Logger   *applog.Logger
	Backend  *backend.BackendResult
	Services *services.Services
	Identity *identity.Service
}

// NewApp opens the configured backend and wires services and identity on it.
func NewApp(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	mode, err := core.ParseStreakMode(cfg.StreakMode)
	if err != nil {
		return nil, err
	}
	secret, err := SessionSecret(cfg, logger)
	if err != nil {
		return nil, err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	opts := services.Options{
		Store:       result.Store,
		Assistant:   assistant.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL),
		Logger:      logger,
		Clock:       services.Clock{Location: cfg.Location()},
		StreakMode:  mode,
		OverviewTTL: cfg.OverviewCacheTTL,
	}
	if result.Events != nil {
		opts.Publisher = result.Events
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Backend:  result,
		Services: services.New(opts),
		Identity: identity.NewService(result.Store.Users, result.Store.Sessions, identity.Options{
			Secret: secret,
			TTL:    cfg.SessionTTL,
		}),
	}, nil
}

// Close releases the backend.
func (a *App) Close() error {
	if a.Backend == nil || a.Backend.Cleanup == nil {
		return nil
	}
	return a.Backend.Cleanup()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
