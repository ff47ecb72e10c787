package services

import (
	"context"
	"strings"

	"prodash/internal/core"
)

// TaskService manages the task list.
type TaskService struct {
	crud[core.Task, *core.Task]
}

// Create stores a new task. Priority defaults to medium and status to todo.
func (s *TaskService) Create(ctx context.Context, userID string, t core.Task) (core.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	if t.Priority == "" {
		t.Priority = core.PriorityMedium
	}
	if t.Status == "" {
		t.Status = core.TaskTodo
	}
	return s.create(ctx, userID, t)
}

func (s *TaskService) Update(ctx context.Context, userID, id string, patch core.TaskPatch) (core.Task, error) {
	return s.update(ctx, userID, id, patch.Apply)
}

// ProjectService manages projects.
type ProjectService struct {
	crud[core.Project, *core.Project]
}

// Create stores a new project. Status defaults to active.
func (s *ProjectService) Create(ctx context.Context, userID string, p core.Project) (core.Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if p.Status == "" {
		p.Status = core.ProjectActive
	}
	return s.create(ctx, userID, p)
}

func (s *ProjectService) Update(ctx context.Context, userID, id string, patch core.ProjectPatch) (core.Project, error) {
	return s.update(ctx, userID, id, patch.Apply)
}
