package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"prodash/internal/cli"
	"prodash/internal/config"
	"prodash/internal/core"
	applog "prodash/internal/log"
	"prodash/internal/sheets"
	sheetsmem "prodash/internal/sheets/memory"
)

func newTestApp(t *testing.T) *cli.App {
	t.Helper()
	app, err := cli.NewApp(context.Background(), &config.Config{
		AppEnv:        "development",
		DataBackend:   "memory",
		SessionSecret: "0123456789abcdef0123456789abcdef",
		SessionTTL:    time.Hour,
		StreakMode:    "strict",
		AppTimezone:   "UTC",
		LogLevel:      "info",
	}, applog.Discard())
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func run(t *testing.T, d deps, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd(d)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func fixedDeps(app *cli.App, exporter sheets.BudgetExporter) deps {
	return deps{
		open: func(context.Context) (*cli.App, error) { return app, nil },
		exporter: func(context.Context, *cli.App) (sheets.BudgetExporter, error) {
			if exporter == nil {
				return nil, errors.New("GOOGLE_SPREADSHEET_ID is not set")
			}
			return exporter, nil
		},
	}
}

func TestUsersListAndLabels(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	if _, err := app.Identity.Register(ctx, "Ada", "ada@example.com", "password1"); err != nil {
		t.Fatal(err)
	}
	d := fixedDeps(app, nil)

	out, err := run(t, d, "users", "label", "add", "ADA@example.com", core.LabelAdmin)
	if err != nil {
		t.Fatalf("label add: %v", err)
	}
	if !strings.Contains(out, "ada@example.com labels: [admin]") {
		t.Errorf("output = %q", out)
	}

	out, err = run(t, d, "users", "list")
	if err != nil {
		t.Fatalf("users list: %v", err)
	}
	if !strings.Contains(out, "EMAIL") || !strings.Contains(out, "ada@example.com") || !strings.Contains(out, "admin") {
		t.Errorf("output = %q", out)
	}

	out, err = run(t, d, "users", "label", "remove", "ada@example.com", core.LabelAdmin)
	if err != nil {
		t.Fatalf("label remove: %v", err)
	}
	if !strings.Contains(out, "labels: []") {
		t.Errorf("output = %q", out)
	}

	if _, err := run(t, d, "users", "label", "add", "nobody@example.com", "admin"); err == nil {
		t.Error("expected error for unknown user")
	}
	if _, err := run(t, d, "users", "label", "add", "ada@example.com"); err == nil {
		t.Error("expected argument error")
	}
}

func TestHabitsRecompute(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	// A stale cached streak with no completions at all.
	stale := core.Habit{Record: core.Record{UserID: "u1"}, Name: "Read", CompletedDates: []string{}, Streak: 5}
	if _, err := app.Backend.Store.Habits.Create(ctx, stale); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Services.Habits.Create(ctx, "u1", core.Habit{Name: "Write"}); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, fixedDeps(app, nil), "habits", "recompute")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if strings.TrimSpace(out) != "recomputed 1 habits" {
		t.Errorf("output = %q", out)
	}
}

func TestMigrateMemory(t *testing.T) {
	out, err := run(t, fixedDeps(newTestApp(t), nil), "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "nothing to migrate") {
		t.Errorf("output = %q", out)
	}
}

func TestBudgetExport(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	issued, err := app.Identity.Register(ctx, "Ada", "ada@example.com", "password1")
	if err != nil {
		t.Fatal(err)
	}
	for _, cat := range []string{"Rent", "Food"} {
		_, err := app.Services.Budget.Create(ctx, issued.User.ID, core.BudgetEntry{
			Amount:   decimal.RequireFromString("10"),
			Category: cat,
			Type:     core.Expense,
			Date:     core.NewDate(2024, 3, 1),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if _, err := run(t, fixedDeps(app, nil), "budget", "export", "ada@example.com"); err == nil {
		t.Error("expected error without a configured spreadsheet")
	}

	exporter := sheetsmem.New()
	out, err := run(t, fixedDeps(app, exporter), "budget", "export", "ada@example.com")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.TrimSpace(out) != "exported 2 entries" || len(exporter.Rows()) != 2 {
		t.Errorf("output = %q rows = %v", out, exporter.Rows())
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, fixedDeps(newTestApp(t), nil), "version")
	if err != nil || !strings.Contains(out, Version) {
		t.Fatalf("version = %q, %v", out, err)
	}
}
