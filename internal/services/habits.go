package services

import (
	"context"
	"fmt"
	"strings"

	"prodash/internal/core"
	"prodash/internal/storage"
)

// HabitView is a habit as shown to its owner: the streak is derived for
// today rather than read from the stored field.
type HabitView struct {
	core.Habit
	DoneToday bool `json:"doneToday"`
}

// HabitService manages habits and their completion streaks.
type HabitService struct {
	crud[core.Habit, *core.Habit]
	repo  storage.HabitRepository
	clock Clock
	mode  core.StreakMode
}

func (s *HabitService) view(h core.Habit, today core.Date) HabitView {
	h.Streak = s.mode.Streak(h.CompletedDates, today)
	return HabitView{Habit: h, DoneToday: core.IsCompleted(h.CompletedDates, today)}
}

// List returns the owner's habits, newest first, with fresh streaks.
func (s *HabitService) List(ctx context.Context, userID string) ([]HabitView, error) {
	habits, err := s.crud.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := s.clock.Today()
	out := make([]HabitView, len(habits))
	for i, h := range habits {
		out[i] = s.view(h, today)
	}
	return out, nil
}

func (s *HabitService) Get(ctx context.Context, userID, id string) (HabitView, error) {
	h, err := s.crud.Get(ctx, userID, id)
	if err != nil {
		return HabitView{}, err
	}
	return s.view(h, s.clock.Today()), nil
}

// Create stores a new habit. Given completion dates are normalised and the
// streak is computed before the write.
func (s *HabitService) Create(ctx context.Context, userID string, h core.Habit) (HabitView, error) {
	h.Name = strings.TrimSpace(h.Name)
	h.Description = strings.TrimSpace(h.Description)
	dates := h.CompletedDates
	if dates == nil {
		dates = []string{}
	}
	if err := (core.HabitPatch{CompletedDates: &dates}).Apply(&h); err != nil {
		return HabitView{}, err
	}
	today := s.clock.Today()
	h.Streak = s.mode.Streak(h.CompletedDates, today)
	created, err := s.create(ctx, userID, h)
	if err != nil {
		return HabitView{}, err
	}
	return s.view(created, today), nil
}

func (s *HabitService) Update(ctx context.Context, userID, id string, patch core.HabitPatch) (HabitView, error) {
	today := s.clock.Today()
	updated, err := s.update(ctx, userID, id, func(h *core.Habit) error {
		if err := patch.Apply(h); err != nil {
			return err
		}
		h.Streak = s.mode.Streak(h.CompletedDates, today)
		return nil
	})
	if err != nil {
		return HabitView{}, err
	}
	return s.view(updated, today), nil
}

// Toggle flips today's completion and persists the new set together with
// the recomputed streak in a single update.
func (s *HabitService) Toggle(ctx context.Context, userID, id string) (HabitView, error) {
	today := s.clock.Today()
	updated, err := s.update(ctx, userID, id, func(h *core.Habit) error {
		h.CompletedDates, _ = core.ToggleDate(h.CompletedDates, today)
		h.Streak = s.mode.Streak(h.CompletedDates, today)
		return nil
	})
	if err != nil {
		return HabitView{}, err
	}
	return s.view(updated, today), nil
}

// RecomputeAll rewrites the stored streak of every habit whose cached value
// differs from today's. It returns how many habits changed.
func (s *HabitService) RecomputeAll(ctx context.Context) (int, error) {
	habits, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list habits: %w", err)
	}
	today := s.clock.Today()
	changed := 0
	for _, h := range habits {
		streak := s.mode.Streak(h.CompletedDates, today)
		if streak == h.Streak {
			continue
		}
		h.Streak = streak
		if _, err := s.repo.Update(ctx, h); err != nil {
			return changed, fmt.Errorf("update habit %s: %w", h.ID, err)
		}
		changed++
	}
	return changed, nil
}
