package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"prodash/internal/core"
)

type userTable struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

const userSelect = "SELECT id, name, email, password_hash, labels, created_at, updated_at FROM users"

func scanUser(sc rowScanner) (core.User, error) {
	var (
		u                            core.User
		labels, createdAt, updatedAt string
	)
	if err := sc.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &labels, &createdAt, &updatedAt); err != nil {
		return core.User{}, err
	}
	u.Labels = []string{}
	if labels != "" {
		if err := json.Unmarshal([]byte(labels), &u.Labels); err != nil {
			return core.User{}, fmt.Errorf("decode labels: %w", err)
		}
	}
	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.User{}, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func encodeLabels(labels []string) (string, error) {
	if labels == nil {
		labels = []string{}
	}
	raw, err := json.Marshal(labels)
	return string(raw), err
}

// CreateUser stores u with its email lower-cased. The caller assigns the id.
func (t *userTable) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	now := t.now().UTC()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Labels == nil {
		u.Labels = []string{}
	}
	labels, err := encodeLabels(u.Labels)
	if err != nil {
		return core.User{}, fmt.Errorf("encode labels: %w", err)
	}

	q := "INSERT INTO users (id, name, email, password_hash, labels, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err = t.db.ExecContext(ctx, t.dialect.rebind(q), u.ID, u.Name, u.Email, u.PasswordHash, labels, formatTime(now), formatTime(now))
	if isUniqueViolation(err) {
		return core.User{}, ErrDuplicateEmail
	}
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (t *userTable) one(ctx context.Context, where string, arg any) (core.User, error) {
	u, err := scanUser(t.db.QueryRowContext(ctx, t.dialect.rebind(userSelect+" WHERE "+where), arg))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (t *userTable) UserByID(ctx context.Context, id string) (core.User, error) {
	return t.one(ctx, "id = ?", id)
}

func (t *userTable) UserByEmail(ctx context.Context, email string) (core.User, error) {
	return t.one(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (t *userTable) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := t.db.QueryContext(ctx, userSelect+" ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]core.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (t *userTable) SetLabels(ctx context.Context, id string, labels []string) error {
	raw, err := encodeLabels(labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	q := "UPDATE users SET labels = ?, updated_at = ? WHERE id = ?"
	res, err := t.db.ExecContext(ctx, t.dialect.rebind(q), raw, formatTime(t.now()), id)
	if err != nil {
		return fmt.Errorf("update labels: %w", err)
	}
	return expectRow(res)
}

type sessionTable struct {
	db      *sql.DB
	dialect Dialect
}

func (t *sessionTable) CreateSession(ctx context.Context, s core.Session) error {
	q := "INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)"
	if _, err := t.db.ExecContext(ctx, t.dialect.rebind(q), s.ID, s.UserID, formatTime(s.ExpiresAt), formatTime(s.CreatedAt)); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (t *sessionTable) Session(ctx context.Context, id string) (core.Session, error) {
	var (
		s                    core.Session
		expiresAt, createdAt string
	)
	q := "SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?"
	err := t.db.QueryRowContext(ctx, t.dialect.rebind(q), id).Scan(&s.ID, &s.UserID, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, core.ErrNotFound
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("get session: %w", err)
	}
	if s.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return core.Session{}, err
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Session{}, err
	}
	return s, nil
}

func (t *sessionTable) DeleteSession(ctx context.Context, id string) error {
	if _, err := t.db.ExecContext(ctx, t.dialect.rebind("DELETE FROM sessions WHERE id = ?"), id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (t *sessionTable) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	res, err := t.db.ExecContext(ctx, t.dialect.rebind("DELETE FROM sessions WHERE expires_at <= ?"), formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
