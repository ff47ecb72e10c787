package services

import (
	"context"
	"fmt"
	"strings"

	"prodash/internal/core"
)

// JobService manages job applications and their Kanban pipeline.
type JobService struct {
	crud[core.Job, *core.Job]
	clock Clock
}

// Create stores a new application. Status defaults to applied and the
// application date to today.
func (s *JobService) Create(ctx context.Context, userID string, j core.Job) (core.Job, error) {
	j.Company = strings.TrimSpace(j.Company)
	j.Role = strings.TrimSpace(j.Role)
	j.Notes = strings.TrimSpace(j.Notes)
	if j.Status == "" {
		j.Status = core.JobApplied
	}
	if j.DateApplied.IsZero() {
		j.DateApplied = s.clock.Today()
	}
	return s.create(ctx, userID, j)
}

func (s *JobService) Update(ctx context.Context, userID, id string, patch core.JobPatch) (core.Job, error) {
	return s.update(ctx, userID, id, patch.Apply)
}

// Advance moves the application to the next stage of the pipeline. Offers
// and rejections are terminal and yield core.ErrNoNextStatus.
func (s *JobService) Advance(ctx context.Context, userID, id string) (core.Job, error) {
	return s.update(ctx, userID, id, func(j *core.Job) error {
		next, ok := core.NextStatus(j.Status)
		if !ok {
			return fmt.Errorf("%w: job is %s", core.ErrNoNextStatus, j.Status)
		}
		j.Status = next
		return nil
	})
}
