package services

import (
	"context"
	"strings"

	"prodash/internal/core"
)

// BudgetReport is the aggregate view of a user's budget entries.
type BudgetReport struct {
	core.Summary
	Categories []core.CategoryAmount `json:"categories"`
}

// BudgetService manages income and expense entries.
type BudgetService struct {
	crud[core.BudgetEntry, *core.BudgetEntry]
}

func (s *BudgetService) Create(ctx context.Context, userID string, e core.BudgetEntry) (core.BudgetEntry, error) {
	e.Category = strings.TrimSpace(e.Category)
	e.Description = strings.TrimSpace(e.Description)
	return s.create(ctx, userID, e)
}

func (s *BudgetService) Update(ctx context.Context, userID, id string, patch core.BudgetPatch) (core.BudgetEntry, error) {
	return s.update(ctx, userID, id, patch.Apply)
}

// Report summarises the owner's entries. Categories appear in the order of
// their newest entry.
func (s *BudgetService) Report(ctx context.Context, userID string) (BudgetReport, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return BudgetReport{}, err
	}
	return BudgetReport{
		Summary:    core.Summarize(entries),
		Categories: core.ByCategory(entries),
	}, nil
}
