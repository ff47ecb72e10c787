package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"prodash/internal/config"
	applog "prodash/internal/log"
)

func memoryConfig() *config.Config {
	return &config.Config{
		AppEnv:           "development",
		DataBackend:      "memory",
		SessionTTL:       time.Hour,
		StreakMode:       "strict",
		AppTimezone:      "UTC",
		LogLevel:         "info",
		OverviewCacheTTL: time.Minute,
	}
}

func TestSessionSecret(t *testing.T) {
	logger := applog.Discard()

	cfg := memoryConfig()
	cfg.SessionSecret = "configured"
	if got, err := SessionSecret(cfg, logger); err != nil || got != "configured" {
		t.Fatalf("SessionSecret = %q, %v", got, err)
	}

	cfg.SessionSecret = ""
	a, err := SessionSecret(cfg, logger)
	if err != nil {
		t.Fatalf("SessionSecret: %v", err)
	}
	b, _ := SessionSecret(cfg, logger)
	if len(a) != 64 || a == b {
		t.Errorf("expected distinct random secrets, got %q and %q", a, b)
	}

	cfg.AppEnv = "production"
	if _, err := SessionSecret(cfg, logger); err == nil {
		t.Error("expected error in production without a secret")
	}
}

func TestNewAppMemory(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig(), applog.Discard())
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer app.Close()

	ctx := context.Background()
	issued, err := app.Identity.Register(ctx, "Ada", "ada@example.com", "password1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := app.Services.Tasks.List(ctx, issued.User.ID); err != nil {
		t.Fatalf("List: %v", err)
	}
	if err := app.Backend.Store.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestNewAppRejectsBadStreakMode(t *testing.T) {
	cfg := memoryConfig()
	cfg.StreakMode = "lenient"
	_, err := NewApp(context.Background(), cfg, applog.Discard())
	if err == nil || !strings.Contains(err.Error(), "streak mode") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetupLoggerComponent(t *testing.T) {
	cfg := memoryConfig()
	cfg.LogLevel = "nonsense"
	if got := SetupLogger(cfg, applog.ComponentWorker).Component(); got != applog.ComponentWorker {
		t.Errorf("component = %q", got)
	}
}
