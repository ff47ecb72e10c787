package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"prodash/internal/backend"
	"prodash/internal/cli"
	applog "prodash/internal/log"
	"prodash/internal/sheets"
	gsheet "prodash/internal/sheets/google"
	sheetsmem "prodash/internal/sheets/memory"
	"prodash/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting prodash-worker")

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Invalid worker configuration", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Failed to close backend", applog.FieldError, err)
		}
	}()
	if result.Events == nil {
		logger.Error("AMQP client unavailable, nothing to consume")
		os.Exit(1)
	}

	var exporter sheets.BudgetExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = sheetsmem.New()
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, budget entries are exported in memory only")
	}

	exportWorker := worker.NewExportWorker(result.Store.Budget, exporter, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return result.Events.ConsumeRecordEvents(gctx, exportWorker.HandleRecordEvent)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
