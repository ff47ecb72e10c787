// Package memory provides an in-process implementation of the store ports,
// used by tests and by DATA_BACKEND=memory.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"prodash/internal/core"
	"prodash/internal/storage"
)

// New returns a Store whose repositories live in memory. now stamps records.
func New(now func() time.Time) *storage.Store {
	if now == nil {
		now = time.Now
	}
	return &storage.Store{
		Tasks:    newCollection[core.Task](now),
		Jobs:     newCollection[core.Job](now),
		Projects: newCollection[core.Project](now),
		Habits:   &habits{newCollection[core.Habit](now)},
		Budget:   newCollection[core.BudgetEntry](now),
		Chat:     &chat{newCollection[core.ChatMessage](now)},
		Users:    newUsers(now),
		Sessions: newSessions(),
	}
}

type collection[T any, P storage.Entity[T]] struct {
	mu    sync.RWMutex
	now   func() time.Time
	items map[string]T
	seq   map[string]int64
	next  int64
}

func newCollection[T any, P storage.Entity[T]](now func() time.Time) *collection[T, P] {
	return &collection[T, P]{now: now, items: make(map[string]T), seq: make(map[string]int64)}
}

// sorted returns the items accepted by keep, newest first. Insertion order
// breaks ties between equal timestamps.
func (c *collection[T, P]) sorted(keep func(*core.Record) bool, newestFirst bool) []T {
	out := make([]T, 0)
	for _, item := range c.items {
		if keep(P(&item).Meta()) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := P(&out[i]).Meta(), P(&out[j]).Meta()
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if newestFirst {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if newestFirst {
			return c.seq[a.ID] > c.seq[b.ID]
		}
		return c.seq[a.ID] < c.seq[b.ID]
	})
	return out
}

func (c *collection[T, P]) List(_ context.Context, userID string) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sorted(func(r *core.Record) bool { return r.UserID == userID }, true), nil
}

func (c *collection[T, P]) Get(_ context.Context, userID, id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	if !ok || P(&item).Meta().UserID != userID {
		var zero T
		return zero, core.ErrNotFound
	}
	return item, nil
}

func (c *collection[T, P]) Create(_ context.Context, item T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	meta := P(&item).Meta()
	now := c.now().UTC()
	meta.ID = uuid.NewString()
	meta.CreatedAt, meta.UpdatedAt = now, now
	c.next++
	c.seq[meta.ID] = c.next
	c.items[meta.ID] = item
	return item, nil
}

func (c *collection[T, P]) Update(_ context.Context, item T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	meta := P(&item).Meta()
	existing, ok := c.items[meta.ID]
	if !ok || P(&existing).Meta().UserID != meta.UserID {
		var zero T
		return zero, core.ErrNotFound
	}
	meta.CreatedAt = P(&existing).Meta().CreatedAt
	meta.UpdatedAt = c.now().UTC()
	c.items[meta.ID] = item
	return item, nil
}

func (c *collection[T, P]) Delete(_ context.Context, userID, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[id]
	if !ok || P(&item).Meta().UserID != userID {
		return core.ErrNotFound
	}
	delete(c.items, id)
	delete(c.seq, id)
	return nil
}

type habits struct {
	*collection[core.Habit, *core.Habit]
}

func (h *habits) ListAll(_ context.Context) ([]core.Habit, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sorted(func(*core.Record) bool { return true }, false), nil
}

type chat struct {
	*collection[core.ChatMessage, *core.ChatMessage]
}

func (c *chat) DeleteAll(_ context.Context, userID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, m := range c.items {
		if m.UserID == userID {
			delete(c.items, id)
			delete(c.seq, id)
			n++
		}
	}
	return n, nil
}

type users struct {
	mu    sync.RWMutex
	now   func() time.Time
	byID  map[string]core.User
	email map[string]string
}

func newUsers(now func() time.Time) *users {
	return &users{now: now, byID: make(map[string]core.User), email: make(map[string]string)}
}

func (u *users) CreateUser(_ context.Context, user core.User) (core.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if _, taken := u.email[user.Email]; taken {
		return core.User{}, storage.ErrDuplicateEmail
	}
	now := u.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	user.Labels = append([]string{}, user.Labels...)
	u.byID[user.ID] = user
	u.email[user.Email] = user.ID
	return user, nil
}

func (u *users) UserByID(_ context.Context, id string) (core.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.byID[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return user, nil
}

func (u *users) UserByEmail(ctx context.Context, email string) (core.User, error) {
	u.mu.RLock()
	id, ok := u.email[strings.ToLower(strings.TrimSpace(email))]
	u.mu.RUnlock()
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u.UserByID(ctx, id)
}

func (u *users) ListUsers(_ context.Context) ([]core.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]core.User, 0, len(u.byID))
	for _, user := range u.byID {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (u *users) SetLabels(_ context.Context, id string, labels []string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	user.Labels = append([]string{}, labels...)
	user.UpdatedAt = u.now().UTC()
	u.byID[id] = user
	return nil
}

type sessions struct {
	mu    sync.RWMutex
	items map[string]core.Session
}

func newSessions() *sessions {
	return &sessions{items: make(map[string]core.Session)}
}

func (s *sessions) CreateSession(_ context.Context, sess core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sess.ID] = sess
	return nil
}

func (s *sessions) Session(_ context.Context, id string) (core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.items[id]
	if !ok {
		return core.Session{}, core.ErrNotFound
	}
	return sess, nil
}

func (s *sessions) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *sessions) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.items {
		if sess.Expired(now) {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}
