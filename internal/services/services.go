package services

import (
	"context"
	"fmt"
	"time"

	"prodash/internal/amqp"
	"prodash/internal/assistant"
	"prodash/internal/cache"
	"prodash/internal/core"
	applog "prodash/internal/log"
	"prodash/internal/storage"
)

// Collection names used in change events.
const (
	CollectionTasks    = "tasks"
	CollectionJobs     = "jobs"
	CollectionProjects = "projects"
	CollectionHabits   = "habits"
	CollectionBudget   = "budget"
	CollectionChat     = "chat"
)

// EventPublisher announces record changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error
}

// Clock yields the current instant and the calendar day it falls on.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// Today is the current calendar day in the clock's location.
func (c Clock) Today() core.Date {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return core.DateOf(now(), c.Location)
}

type Options struct {
	Store      *storage.Store
	Publisher  EventPublisher
	Assistant  assistant.Assistant
	Logger     *applog.Logger
	Clock      Clock
	StreakMode core.StreakMode
	// OverviewTTL is how long a computed dashboard overview is reused.
	OverviewTTL time.Duration
}

// Services bundles the per-collection services of one store.
type Services struct {
	Tasks     *TaskService
	Jobs      *JobService
	Projects  *ProjectService
	Habits    *HabitService
	Budget    *BudgetService
	Chat      *ChatService
	Dashboard *DashboardService
}

func New(opts Options) *Services {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Assistant == nil {
		opts.Assistant = assistant.NewCanned()
	}
	if opts.StreakMode == "" {
		opts.StreakMode = core.StreakStrict
	}

	dashboard := &DashboardService{
		store: opts.Store,
		clock: opts.Clock,
		mode:  opts.StreakMode,
		cache: cache.NewLRUCache[core.Overview](1024, opts.OverviewTTL),
	}
	ev := &notifier{
		publisher: opts.Publisher,
		logger:    applog.NewStructuredLogger(opts.Logger),
		onWrite:   dashboard.Invalidate,
	}

	return &Services{
		Tasks:    &TaskService{crud: newCRUD[core.Task](opts.Store.Tasks, CollectionTasks, ev)},
		Jobs:     &JobService{crud: newCRUD[core.Job](opts.Store.Jobs, CollectionJobs, ev), clock: opts.Clock},
		Projects: &ProjectService{crud: newCRUD[core.Project](opts.Store.Projects, CollectionProjects, ev)},
		Habits: &HabitService{
			crud:  newCRUD[core.Habit](opts.Store.Habits, CollectionHabits, ev),
			repo:  opts.Store.Habits,
			clock: opts.Clock,
			mode:  opts.StreakMode,
		},
		Budget: &BudgetService{crud: newCRUD[core.BudgetEntry](opts.Store.Budget, CollectionBudget, ev)},
		Chat: &ChatService{
			crud:      newCRUD[core.ChatMessage](opts.Store.Chat, CollectionChat, ev),
			repo:      opts.Store.Chat,
			assistant: opts.Assistant,
			logger:    opts.Logger.WithComponent(applog.ComponentAssistant),
		},
		Dashboard: dashboard,
	}
}

// Caches returns the caches owned by the services, for periodic cleanup.
func (s *Services) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.Dashboard.cache}
}

// notifier runs the side effects of a successful write: the dashboard cache
// of the owner is dropped and a change event is published. Publishing is
// best effort; failures are logged and never returned.
type notifier struct {
	publisher EventPublisher
	logger    *applog.StructuredLogger
	onWrite   func(userID string)
}

func (n *notifier) changed(ctx context.Context, collection, action, id, userID string) {
	if n.onWrite != nil {
		n.onWrite(userID)
	}
	n.logger.LogRecordChanged(ctx, action, collection, id, userID)
	if n.publisher == nil {
		return
	}
	if err := n.publisher.PublishRecordEvent(ctx, amqp.NewRecordEvent(collection, action, id, userID)); err != nil {
		n.logger.LogError(ctx, "Failed to publish record event", err, applog.OpPublish,
			applog.NewFields().WithRecord(collection, id, userID))
	}
}

// document is a stored type that can check its own invariants.
type document[T any] interface {
	storage.Entity[T]
	Validate() error
}

// crud is the owner-scoped create/update/delete flow shared by every
// collection.
type crud[T any, P document[T]] struct {
	repo       storage.Repository[T]
	collection string
	events     *notifier
}

func newCRUD[T any, P document[T]](repo storage.Repository[T], collection string, events *notifier) crud[T, P] {
	return crud[T, P]{repo: repo, collection: collection, events: events}
}

// List returns the owner's records, newest first.
func (c crud[T, P]) List(ctx context.Context, userID string) ([]T, error) {
	items, err := c.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.collection, err)
	}
	return items, nil
}

func (c crud[T, P]) Get(ctx context.Context, userID, id string) (T, error) {
	item, err := c.repo.Get(ctx, userID, id)
	if err != nil {
		return item, fmt.Errorf("get %s %s: %w", c.collection, id, err)
	}
	return item, nil
}

func (c crud[T, P]) create(ctx context.Context, userID string, item T) (T, error) {
	var zero T
	P(&item).Meta().UserID = userID
	if err := P(&item).Validate(); err != nil {
		return zero, err
	}
	created, err := c.repo.Create(ctx, item)
	if err != nil {
		return zero, fmt.Errorf("create %s: %w", c.collection, err)
	}
	c.events.changed(ctx, c.collection, amqp.ActionCreate, P(&created).Meta().ID, userID)
	return created, nil
}

// update loads the record, lets apply modify it and writes it back.
func (c crud[T, P]) update(ctx context.Context, userID, id string, apply func(*T) error) (T, error) {
	var zero T
	item, err := c.Get(ctx, userID, id)
	if err != nil {
		return zero, err
	}
	if err := apply(&item); err != nil {
		return zero, err
	}
	updated, err := c.repo.Update(ctx, item)
	if err != nil {
		return zero, fmt.Errorf("update %s %s: %w", c.collection, id, err)
	}
	c.events.changed(ctx, c.collection, amqp.ActionUpdate, id, userID)
	return updated, nil
}

// Delete removes one of the owner's records.
func (c crud[T, P]) Delete(ctx context.Context, userID, id string) error {
	if err := c.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", c.collection, id, err)
	}
	c.events.changed(ctx, c.collection, amqp.ActionDelete, id, userID)
	return nil
}
