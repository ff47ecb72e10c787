package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"prodash/internal/core"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// timestampLayout is fixed width so that text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Open connects to the database, runs migrations and returns the typed
// repositories. For SQLite, dsn is a file path or ":memory:".
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	if dialect == DialectSQLite && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// A single connection serialises writers and keeps :memory: databases shared.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewSQLStore(db, dialect, time.Now), nil
}

// NewSQLStore wires the repositories over an already migrated database.
func NewSQLStore(db *sql.DB, dialect Dialect, now func() time.Time) *Store {
	return &Store{
		Tasks:    &table[core.Task, *core.Task]{db: db, dialect: dialect, now: now, name: "tasks", columns: taskColumns, values: taskValues, scan: scanTask},
		Jobs:     &table[core.Job, *core.Job]{db: db, dialect: dialect, now: now, name: "jobs", columns: jobColumns, values: jobValues, scan: scanJob},
		Projects: &table[core.Project, *core.Project]{db: db, dialect: dialect, now: now, name: "projects", columns: projectColumns, values: projectValues, scan: scanProject},
		Habits:   &habitTable{table[core.Habit, *core.Habit]{db: db, dialect: dialect, now: now, name: "habits", columns: habitColumns, values: habitValues, scan: scanHabit}},
		Budget:   &table[core.BudgetEntry, *core.BudgetEntry]{db: db, dialect: dialect, now: now, name: "budget_entries", columns: budgetColumns, values: budgetValues, scan: scanBudgetEntry},
		Chat:     &chatTable{table[core.ChatMessage, *core.ChatMessage]{db: db, dialect: dialect, now: now, name: "chat_messages", columns: chatColumns, values: chatValues, scan: scanChatMessage}},
		Users:    &userTable{db: db, dialect: dialect, now: now},
		Sessions: &sessionTable{db: db, dialect: dialect},
		db:       db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// table implements Repository for one collection. The envelope columns come
// first in every select, followed by columns.
type table[T any, P Entity[T]] struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	name    string
	columns []string
	values  func(*T) ([]any, error)
	scan    func(rowScanner) (T, error)
}

var envelopeColumns = []string{"id", "user_id", "created_at", "updated_at"}

func (t *table[T, P]) selectList() string {
	return strings.Join(append(append([]string{}, envelopeColumns...), t.columns...), ", ")
}

func (t *table[T, P]) query(ctx context.Context, q string, args ...any) ([]T, error) {
	rows, err := t.db.QueryContext(ctx, t.dialect.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.name, err)
	}
	return items, nil
}

func (t *table[T, P]) List(ctx context.Context, userID string) ([]T, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE user_id = ? ORDER BY created_at DESC, seq DESC, id DESC", t.selectList(), t.name)
	return t.query(ctx, q, userID)
}

func (t *table[T, P]) Get(ctx context.Context, userID, id string) (T, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND user_id = ?", t.selectList(), t.name)
	item, err := t.scan(t.db.QueryRowContext(ctx, t.dialect.rebind(q), id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, fmt.Errorf("get %s %s: %w", t.name, id, core.ErrNotFound)
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get %s %s: %w", t.name, id, err)
	}
	return item, nil
}

func (t *table[T, P]) Create(ctx context.Context, item T) (T, error) {
	meta := P(&item).Meta()
	now := t.now().UTC()
	meta.ID = uuid.NewString()
	meta.CreatedAt, meta.UpdatedAt = now, now

	values, err := t.values(&item)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("encode %s: %w", t.name, err)
	}
	cols := append(append([]string{}, envelopeColumns...), t.columns...)
	args := append([]any{meta.ID, meta.UserID, formatTime(now), formatTime(now)}, values...)

	// seq records insertion order for records sharing a timestamp.
	q := fmt.Sprintf("INSERT INTO %s (%s, seq) VALUES (%s, (SELECT COALESCE(MAX(seq), 0) + 1 FROM %s))",
		t.name, strings.Join(cols, ", "), placeholders(len(cols)), t.name)
	if _, err := t.db.ExecContext(ctx, t.dialect.rebind(q), args...); err != nil {
		var zero T
		return zero, fmt.Errorf("insert %s: %w", t.name, err)
	}
	return item, nil
}

func (t *table[T, P]) Update(ctx context.Context, item T) (T, error) {
	meta := P(&item).Meta()
	meta.UpdatedAt = t.now().UTC()

	values, err := t.values(&item)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("encode %s: %w", t.name, err)
	}
	sets := make([]string, 0, len(t.columns)+1)
	for _, c := range t.columns {
		sets = append(sets, c+" = ?")
	}
	sets = append(sets, "updated_at = ?")
	args := append(values, formatTime(meta.UpdatedAt), meta.ID, meta.UserID)

	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND user_id = ?", t.name, strings.Join(sets, ", "))
	res, err := t.db.ExecContext(ctx, t.dialect.rebind(q), args...)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("update %s %s: %w", t.name, meta.ID, err)
	}
	if err := expectRow(res); err != nil {
		var zero T
		return zero, fmt.Errorf("update %s %s: %w", t.name, meta.ID, err)
	}
	return item, nil
}

func (t *table[T, P]) Delete(ctx context.Context, userID, id string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE id = ? AND user_id = ?", t.name)
	res, err := t.db.ExecContext(ctx, t.dialect.rebind(q), id, userID)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", t.name, id, err)
	}
	if err := expectRow(res); err != nil {
		return fmt.Errorf("delete %s %s: %w", t.name, id, err)
	}
	return nil
}

type habitTable struct {
	table[core.Habit, *core.Habit]
}

func (t *habitTable) ListAll(ctx context.Context) ([]core.Habit, error) {
	return t.query(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at, seq", t.selectList(), t.name))
}

type chatTable struct {
	table[core.ChatMessage, *core.ChatMessage]
}

func (t *chatTable) DeleteAll(ctx context.Context, userID string) (int, error) {
	res, err := t.db.ExecContext(ctx, t.dialect.rebind("DELETE FROM chat_messages WHERE user_id = ?"), userID)
	if err != nil {
		return 0, fmt.Errorf("clear chat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear chat: %w", err)
	}
	return int(n), nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
