package worker

import (
	"context"
	"errors"
	"fmt"

	"prodash/internal/amqp"
	"prodash/internal/core"
	applog "prodash/internal/log"
	"prodash/internal/services"
	"prodash/internal/sheets"
	"prodash/internal/storage"
)

// ExportWorker copies newly created budget entries to the external ledger.
type ExportWorker struct {
	budget   storage.BudgetRepository
	exporter sheets.BudgetExporter
	logger   *applog.Logger
}

func NewExportWorker(budget storage.BudgetRepository, exporter sheets.BudgetExporter, logger *applog.Logger) *ExportWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &ExportWorker{
		budget:   budget,
		exporter: exporter,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleRecordEvent processes one change event. Only budget creations are
// exported; everything else is acknowledged without work. A returned error
// asks the broker to redeliver.
func (w *ExportWorker) HandleRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	if ev.Collection != services.CollectionBudget || ev.Action != amqp.ActionCreate {
		w.logger.DebugContext(ctx, "Skipping event",
			applog.FieldCollection, ev.Collection,
			"action", ev.Action,
			applog.FieldRecordID, ev.ID)
		return nil
	}

	entry, err := w.budget.Get(ctx, ev.UserID, ev.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before we got to it.
		w.logger.WarnContext(ctx, "Budget entry no longer exists, skipping export",
			applog.FieldRecordID, ev.ID,
			applog.FieldUserID, ev.UserID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get budget entry %s: %w", ev.ID, err)
	}

	return w.export(ctx, entry)
}

// ExportUser appends every budget entry of one user, oldest first. It is the
// manual backfill for events lost while the worker was down.
func (w *ExportWorker) ExportUser(ctx context.Context, userID string) (int, error) {
	entries, err := w.budget.List(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list budget entries: %w", err)
	}

	exported := 0
	for i := len(entries) - 1; i >= 0; i-- {
		if err := w.export(ctx, entries[i]); err != nil {
			return exported, err
		}
		exported++
	}

	w.logger.InfoContext(ctx, "Backfill completed",
		applog.FieldUserID, userID,
		"exported", exported)
	return exported, nil
}

func (w *ExportWorker) export(ctx context.Context, entry core.BudgetEntry) error {
	ref, err := w.exporter.Append(ctx, entry)
	if core.IsValidation(err) {
		w.logger.ErrorContext(ctx, "Budget entry rejected by exporter",
			applog.FieldRecordID, entry.ID,
			applog.FieldError, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("export budget entry %s: %w", entry.ID, err)
	}

	w.logger.InfoContext(ctx, "Exported budget entry",
		applog.FieldRecordID, entry.ID,
		applog.FieldUserID, entry.UserID,
		"sheets_ref", ref)
	return nil
}
