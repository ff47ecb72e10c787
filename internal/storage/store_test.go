package storage_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodash/internal/core"
	"prodash/internal/storage"
	"prodash/internal/storage/memory"
)

// tickingClock advances one second per call so creation order is unambiguous.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func openSQLite(t *testing.T) *storage.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, storage.RunMigrations(db, storage.DialectSQLite))
	store := storage.NewSQLStore(db, storage.DialectSQLite, tickingClock())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func backends(t *testing.T) map[string]*storage.Store {
	return map[string]*storage.Store{
		"sqlite": openSQLite(t),
		"memory": memory.New(tickingClock()),
	}
}

func TestListSameTimestampKeepsInsertionOrder(t *testing.T) {
	frozen := func() time.Time { return time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC) }
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, storage.RunMigrations(db, storage.DialectSQLite))
	sqlStore := storage.NewSQLStore(db, storage.DialectSQLite, frozen)
	t.Cleanup(func() { _ = sqlStore.Close() })

	for name, store := range map[string]*storage.Store{"sqlite": sqlStore, "memory": memory.New(frozen)} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			contents := []string{"q1", "a1", "q2", "a2", "q3", "a3"}
			for i, c := range contents {
				role := core.RoleUser
				if i%2 == 1 {
					role = core.RoleAssistant
				}
				_, err := store.Chat.Create(ctx, core.ChatMessage{Record: core.Record{UserID: "u1"}, Role: role, Content: c})
				require.NoError(t, err)
			}

			list, err := store.Chat.List(ctx, "u1")
			require.NoError(t, err)
			got := make([]string, len(list))
			for i, m := range list {
				got[i] = m.Content
			}
			assert.Equal(t, []string{"a3", "q3", "a2", "q2", "a1", "q1"}, got)
		})
	}
}

func TestRepositoryContract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := store.Tasks

			first, err := repo.Create(ctx, core.Task{Record: core.Record{UserID: "u1"}, Title: "first", Priority: core.PriorityLow, Status: core.TaskTodo})
			require.NoError(t, err)
			require.NotEmpty(t, first.ID)
			assert.False(t, first.CreatedAt.IsZero())
			assert.Equal(t, first.CreatedAt, first.UpdatedAt)

			due := core.NewDate(2024, 4, 1)
			second, err := repo.Create(ctx, core.Task{Record: core.Record{UserID: "u1"}, Title: "second", Priority: core.PriorityHigh, Status: core.TaskInProgress, DueDate: &due, ProjectID: "p1"})
			require.NoError(t, err)
			_, err = repo.Create(ctx, core.Task{Record: core.Record{UserID: "u2"}, Title: "other", Priority: core.PriorityLow, Status: core.TaskTodo})
			require.NoError(t, err)

			list, err := repo.List(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "second", list[0].Title, "newest first")
			assert.Equal(t, "first", list[1].Title)
			require.NotNil(t, list[0].DueDate)
			assert.Equal(t, "2024-04-01", list[0].DueDate.String())
			assert.Equal(t, "p1", list[0].ProjectID)

			got, err := repo.Get(ctx, "u1", first.ID)
			require.NoError(t, err)
			assert.Equal(t, "first", got.Title)

			_, err = repo.Get(ctx, "u2", first.ID)
			assert.True(t, errors.Is(err, core.ErrNotFound), "other owners see nothing")

			got.Status = core.TaskDone
			updated, err := repo.Update(ctx, got)
			require.NoError(t, err)
			assert.True(t, updated.UpdatedAt.After(first.UpdatedAt))
			reread, err := repo.Get(ctx, "u1", first.ID)
			require.NoError(t, err)
			assert.Equal(t, core.TaskDone, reread.Status)
			assert.True(t, reread.CreatedAt.Equal(first.CreatedAt))

			stolen := reread
			stolen.UserID = "u2"
			_, err = repo.Update(ctx, stolen)
			assert.True(t, errors.Is(err, core.ErrNotFound))

			assert.True(t, errors.Is(repo.Delete(ctx, "u2", second.ID), core.ErrNotFound))
			require.NoError(t, repo.Delete(ctx, "u1", second.ID))
			assert.True(t, errors.Is(repo.Delete(ctx, "u1", second.ID), core.ErrNotFound))

			list, err = repo.List(ctx, "u1")
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestEntityRoundTrips(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			job, err := store.Jobs.Create(ctx, core.Job{Record: core.Record{UserID: "u1"}, Company: "Acme", Role: "Dev", Status: core.JobInterview, Notes: "call back", DateApplied: core.NewDate(2024, 2, 1)})
			require.NoError(t, err)
			gotJob, err := store.Jobs.Get(ctx, "u1", job.ID)
			require.NoError(t, err)
			assert.Equal(t, core.JobInterview, gotJob.Status)
			assert.Equal(t, "2024-02-01", gotJob.DateApplied.String())

			project, err := store.Projects.Create(ctx, core.Project{Record: core.Record{UserID: "u1"}, Name: "Site", Status: core.ProjectOnHold, Progress: 40})
			require.NoError(t, err)
			gotProject, err := store.Projects.Get(ctx, "u1", project.ID)
			require.NoError(t, err)
			assert.Equal(t, 40, gotProject.Progress)
			assert.Equal(t, core.ProjectOnHold, gotProject.Status)

			habit, err := store.Habits.Create(ctx, core.Habit{Record: core.Record{UserID: "u1"}, Name: "read", CompletedDates: []string{"2024-03-09", "2024-03-10"}, Streak: 2})
			require.NoError(t, err)
			gotHabit, err := store.Habits.Get(ctx, "u1", habit.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{"2024-03-09", "2024-03-10"}, gotHabit.CompletedDates)
			assert.Equal(t, 2, gotHabit.Streak)

			entry, err := store.Budget.Create(ctx, core.BudgetEntry{Record: core.Record{UserID: "u1"}, Amount: decimal.RequireFromString("1234.5678"), Category: "Food", Type: core.Expense, Date: core.NewDate(2024, 3, 1)})
			require.NoError(t, err)
			gotEntry, err := store.Budget.Get(ctx, "u1", entry.ID)
			require.NoError(t, err)
			assert.True(t, gotEntry.Amount.Equal(decimal.RequireFromString("1234.5678")), "amount kept exactly, got %s", gotEntry.Amount)
			assert.Equal(t, core.Expense, gotEntry.Type)

			all, err := store.Habits.ListAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestChatDeleteAll(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, owner := range []string{"u1", "u1", "u2"} {
				_, err := store.Chat.Create(ctx, core.ChatMessage{Record: core.Record{UserID: owner}, Role: core.RoleUser, Content: "hi"})
				require.NoError(t, err)
			}
			n, err := store.Chat.DeleteAll(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			left, err := store.Chat.List(ctx, "u2")
			require.NoError(t, err)
			assert.Len(t, left, 1)
		})
	}
}

func TestUsersAndSessions(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u, err := store.Users.CreateUser(ctx, core.User{ID: "id-1", Name: "Ada", Email: " Ada@Example.com ", PasswordHash: "hash"})
			require.NoError(t, err)
			assert.Equal(t, "ada@example.com", u.Email)

			_, err = store.Users.CreateUser(ctx, core.User{ID: "id-2", Name: "Other", Email: "ADA@example.com", PasswordHash: "hash"})
			assert.True(t, errors.Is(err, storage.ErrDuplicateEmail))

			byEmail, err := store.Users.UserByEmail(ctx, "ada@EXAMPLE.com")
			require.NoError(t, err)
			assert.Equal(t, "id-1", byEmail.ID)
			assert.Equal(t, "hash", byEmail.PasswordHash)

			require.NoError(t, store.Users.SetLabels(ctx, "id-1", []string{core.LabelAdmin}))
			byID, err := store.Users.UserByID(ctx, "id-1")
			require.NoError(t, err)
			assert.True(t, byID.IsAdmin())

			assert.True(t, errors.Is(store.Users.SetLabels(ctx, "missing", nil), core.ErrNotFound))
			_, err = store.Users.UserByID(ctx, "missing")
			assert.True(t, errors.Is(err, core.ErrNotFound))

			users, err := store.Users.ListUsers(ctx)
			require.NoError(t, err)
			assert.Len(t, users, 1)

			now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
			require.NoError(t, store.Sessions.CreateSession(ctx, core.Session{ID: "s1", UserID: "id-1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))
			require.NoError(t, store.Sessions.CreateSession(ctx, core.Session{ID: "s2", UserID: "id-1", CreatedAt: now, ExpiresAt: now.Add(-time.Hour)}))

			s, err := store.Sessions.Session(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "id-1", s.UserID)
			assert.True(t, s.ExpiresAt.Equal(now.Add(time.Hour)))

			n, err := store.Sessions.DeleteExpiredSessions(ctx, now)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			require.NoError(t, store.Sessions.DeleteSession(ctx, "s1"))
			_, err = store.Sessions.Session(ctx, "s1")
			assert.True(t, errors.Is(err, core.ErrNotFound))
		})
	}
}
