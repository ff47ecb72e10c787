package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"prodash/internal/core"
)

// envelope holds the raw envelope columns of a scanned row.
type envelope struct {
	id, userID, createdAt, updatedAt string
}

func (e *envelope) dest(rest ...any) []any {
	return append([]any{&e.id, &e.userID, &e.createdAt, &e.updatedAt}, rest...)
}

func (e *envelope) record() (core.Record, error) {
	created, err := parseTime(e.createdAt)
	if err != nil {
		return core.Record{}, err
	}
	updated, err := parseTime(e.updatedAt)
	if err != nil {
		return core.Record{}, err
	}
	return core.Record{ID: e.id, UserID: e.userID, CreatedAt: created, UpdatedAt: updated}, nil
}

var taskColumns = []string{"title", "description", "priority", "status", "due_date", "project_id"}

func taskValues(t *core.Task) ([]any, error) {
	var due sql.NullString
	if t.DueDate != nil {
		due = sql.NullString{String: t.DueDate.String(), Valid: true}
	}
	return []any{t.Title, t.Description, string(t.Priority), string(t.Status), due, t.ProjectID}, nil
}

func scanTask(sc rowScanner) (core.Task, error) {
	var (
		env              envelope
		t                core.Task
		priority, status string
		due              sql.NullString
	)
	if err := sc.Scan(env.dest(&t.Title, &t.Description, &priority, &status, &due, &t.ProjectID)...); err != nil {
		return core.Task{}, err
	}
	rec, err := env.record()
	if err != nil {
		return core.Task{}, err
	}
	t.Record = rec
	t.Priority, t.Status = core.TaskPriority(priority), core.TaskStatus(status)
	if due.Valid && due.String != "" {
		d, err := core.ParseDate(due.String)
		if err != nil {
			return core.Task{}, err
		}
		t.DueDate = &d
	}
	return t, nil
}

var jobColumns = []string{"company", "role", "status", "notes", "date_applied"}

func jobValues(j *core.Job) ([]any, error) {
	return []any{j.Company, j.Role, string(j.Status), j.Notes, j.DateApplied.String()}, nil
}

func scanJob(sc rowScanner) (core.Job, error) {
	var (
		env          envelope
		j            core.Job
		status, date string
	)
	if err := sc.Scan(env.dest(&j.Company, &j.Role, &status, &j.Notes, &date)...); err != nil {
		return core.Job{}, err
	}
	rec, err := env.record()
	if err != nil {
		return core.Job{}, err
	}
	j.Record = rec
	j.Status = core.JobStatus(status)
	if j.DateApplied, err = core.ParseDate(date); err != nil {
		return core.Job{}, err
	}
	return j, nil
}

var projectColumns = []string{"name", "description", "status", "progress"}

func projectValues(p *core.Project) ([]any, error) {
	return []any{p.Name, p.Description, string(p.Status), p.Progress}, nil
}

func scanProject(sc rowScanner) (core.Project, error) {
	var (
		env    envelope
		p      core.Project
		status string
	)
	if err := sc.Scan(env.dest(&p.Name, &p.Description, &status, &p.Progress)...); err != nil {
		return core.Project{}, err
	}
	rec, err := env.record()
	if err != nil {
		return core.Project{}, err
	}
	p.Record = rec
	p.Status = core.ProjectStatus(status)
	return p, nil
}

var habitColumns = []string{"name", "description", "completed_dates", "streak"}

func habitValues(h *core.Habit) ([]any, error) {
	dates := h.CompletedDates
	if dates == nil {
		dates = []string{}
	}
	raw, err := json.Marshal(dates)
	if err != nil {
		return nil, err
	}
	return []any{h.Name, h.Description, string(raw), h.Streak}, nil
}

func scanHabit(sc rowScanner) (core.Habit, error) {
	var (
		env   envelope
		h     core.Habit
		dates string
	)
	if err := sc.Scan(env.dest(&h.Name, &h.Description, &dates, &h.Streak)...); err != nil {
		return core.Habit{}, err
	}
	rec, err := env.record()
	if err != nil {
		return core.Habit{}, err
	}
	h.Record = rec
	h.CompletedDates = []string{}
	if dates != "" {
		if err := json.Unmarshal([]byte(dates), &h.CompletedDates); err != nil {
			return core.Habit{}, fmt.Errorf("decode completed dates: %w", err)
		}
	}
	return h, nil
}

var budgetColumns = []string{"amount", "category", "type", "date", "description"}

func budgetValues(e *core.BudgetEntry) ([]any, error) {
	return []any{e.Amount.String(), e.Category, string(e.Type), e.Date.String(), e.Description}, nil
}

func scanBudgetEntry(sc rowScanner) (core.BudgetEntry, error) {
	var (
		env               envelope
		e                 core.BudgetEntry
		amount, typ, date string
	)
	if err := sc.Scan(env.dest(&amount, &e.Category, &typ, &date, &e.Description)...); err != nil {
		return core.BudgetEntry{}, err
	}
	rec, err := env.record()
	if err != nil {
		return core.BudgetEntry{}, err
	}
	e.Record = rec
	e.Type = core.EntryType(typ)
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.BudgetEntry{}, fmt.Errorf("decode amount: %w", err)
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.BudgetEntry{}, err
	}
	return e, nil
}

var chatColumns = []string{"role", "content"}

func chatValues(m *core.ChatMessage) ([]any, error) {
	return []any{string(m.Role), m.Content}, nil
}

func scanChatMessage(sc rowScanner) (core.ChatMessage, error) {
	var (
		env  envelope
		m    core.ChatMessage
		role string
	)
	if err := sc.Scan(env.dest(&role, &m.Content)...); err != nil {
		return core.ChatMessage{}, err
	}
	rec, err := env.record()
	if err != nil {
		return core.ChatMessage{}, err
	}
	m.Record = rec
	m.Role = core.ChatRole(role)
	return m, nil
}
