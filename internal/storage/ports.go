package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"prodash/internal/core"
)

var (
	// ErrDuplicateEmail is returned when a user with the same email exists.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Entity is satisfied by pointers to the document types embedding core.Record.
type Entity[T any] interface {
	*T
	Meta() *core.Record
}

// Repository is the document store port for one collection. Every operation
// is scoped to the owner; records of other users behave as missing.
type Repository[T any] interface {
	// List returns the owner's records, newest first.
	List(ctx context.Context, userID string) ([]T, error)
	Get(ctx context.Context, userID, id string) (T, error)
	// Create assigns id and timestamps and returns the stored record.
	Create(ctx context.Context, item T) (T, error)
	// Update overwrites the record identified by the item's id and owner.
	Update(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, userID, id string) error
}

type (
	TaskRepository    = Repository[core.Task]
	JobRepository     = Repository[core.Job]
	ProjectRepository = Repository[core.Project]
	BudgetRepository  = Repository[core.BudgetEntry]

	HabitRepository interface {
		Repository[core.Habit]
		// ListAll returns every habit of every user, oldest first.
		ListAll(ctx context.Context) ([]core.Habit, error)
	}

	ChatRepository interface {
		Repository[core.ChatMessage]
		// DeleteAll removes the owner's whole history.
		DeleteAll(ctx context.Context, userID string) (int, error)
	}

	UserRepository interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		UserByID(ctx context.Context, id string) (core.User, error)
		UserByEmail(ctx context.Context, email string) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
		SetLabels(ctx context.Context, id string, labels []string) error
	}

	SessionRepository interface {
		CreateSession(ctx context.Context, s core.Session) error
		Session(ctx context.Context, id string) (core.Session, error)
		DeleteSession(ctx context.Context, id string) error
		DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
	}
)

// Store groups the typed repositories of one backend.
type Store struct {
	Tasks    TaskRepository
	Jobs     JobRepository
	Projects ProjectRepository
	Habits   HabitRepository
	Budget   BudgetRepository
	Chat     ChatRepository
	Users    UserRepository
	Sessions SessionRepository

	db *sql.DB
}

// Ping checks the underlying database, if any.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
