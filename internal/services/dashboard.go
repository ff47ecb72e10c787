package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"prodash/internal/cache"
	"prodash/internal/core"
	"prodash/internal/storage"
)

// DashboardService builds the per-user overview.
type DashboardService struct {
	store *storage.Store
	clock Clock
	mode  core.StreakMode
	cache *cache.LRUCache[core.Overview]

	mu   sync.Mutex
	gens map[string]uint64 // bumped by Invalidate
}

// Overview aggregates tasks, jobs, habits and budget entries of the owner.
// The four collections are loaded concurrently and the result is cached
// until the owner writes again or the TTL passes.
func (s *DashboardService) Overview(ctx context.Context, userID string) (core.Overview, error) {
	if ov, ok := s.cache.Get(userID); ok {
		return ov, nil
	}
	gen := s.generation(userID)

	var (
		tasks   []core.Task
		jobs    []core.Job
		habits  []core.Habit
		entries []core.BudgetEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tasks, err = s.store.Tasks.List(gctx, userID)
		return wrapList(CollectionTasks, err)
	})
	g.Go(func() (err error) {
		jobs, err = s.store.Jobs.List(gctx, userID)
		return wrapList(CollectionJobs, err)
	})
	g.Go(func() (err error) {
		habits, err = s.store.Habits.List(gctx, userID)
		return wrapList(CollectionHabits, err)
	})
	g.Go(func() (err error) {
		entries, err = s.store.Budget.List(gctx, userID)
		return wrapList(CollectionBudget, err)
	})
	if err := g.Wait(); err != nil {
		return core.Overview{}, fmt.Errorf("build overview: %w", err)
	}

	ov := core.BuildOverview(tasks, jobs, habits, entries, s.clock.Today(), s.mode)
	s.mu.Lock()
	// A write during the build makes ov stale; serve it but do not cache it.
	if s.gens[userID] == gen {
		s.cache.Set(userID, ov)
	}
	s.mu.Unlock()
	return ov, nil
}

// Invalidate drops the cached overview of userID.
func (s *DashboardService) Invalidate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens == nil {
		s.gens = make(map[string]uint64)
	}
	s.gens[userID]++
	s.cache.Delete(userID)
}

func (s *DashboardService) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

func wrapList(collection string, err error) error {
	if err != nil {
		return fmt.Errorf("list %s: %w", collection, err)
	}
	return nil
}
