package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day wire format used for every date field.
const DateLayout = "2006-01-02"

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"

	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in-progress"
	TaskDone       TaskStatus = "done"

	JobApplied   JobStatus = "applied"
	JobInterview JobStatus = "interview"
	JobOffer     JobStatus = "offer"
	JobRejected  JobStatus = "rejected"

	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on-hold"
	ProjectCompleted ProjectStatus = "completed"

	Income  EntryType = "income"
	Expense EntryType = "expense"

	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"

	// LabelAdmin grants access to the admin routes.
	LabelAdmin = "admin"
)

type (
	TaskPriority  string
	TaskStatus    string
	JobStatus     string
	ProjectStatus string
	EntryType     string
	ChatRole      string

	// Date is a calendar day. The time part is always midnight UTC.
	Date struct {
		time.Time
	}

	// Record is the envelope shared by every stored document.
	Record struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	Task struct {
		Record
		Title       string       `json:"title"`
		Description string       `json:"description,omitempty"`
		Priority    TaskPriority `json:"priority"`
		Status      TaskStatus   `json:"status"`
		DueDate     *Date        `json:"dueDate,omitempty"`
		ProjectID   string       `json:"projectId,omitempty"`
	}

	Job struct {
		Record
		Company     string    `json:"company"`
		Role        string    `json:"role"`
		Status      JobStatus `json:"status"`
		Notes       string    `json:"notes,omitempty"`
		DateApplied Date      `json:"dateApplied"`
	}

	Project struct {
		Record
		Name        string        `json:"name"`
		Description string        `json:"description,omitempty"`
		Status      ProjectStatus `json:"status"`
		Progress    int           `json:"progress"`
	}

	// Habit keeps its completion days as yyyy-MM-dd strings. Streak is the
	// cached result of the streak calculation at the time of the last write.
	Habit struct {
		Record
		Name           string   `json:"name"`
		Description    string   `json:"description,omitempty"`
		CompletedDates []string `json:"completedDates"`
		Streak         int      `json:"streak"`
	}

	BudgetEntry struct {
		Record
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Type        EntryType       `json:"type"`
		Date        Date            `json:"date"`
		Description string          `json:"description,omitempty"`
	}

	ChatMessage struct {
		Record
		Role    ChatRole `json:"role"`
		Content string   `json:"content"`
	}

	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		Labels       []string  `json:"labels"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"-"`
	}

	Session struct {
		ID        string
		UserID    string
		ExpiresAt time.Time
		CreatedAt time.Time
	}
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidType     = errors.New("invalid entry type")
	ErrInvalidRole     = errors.New("invalid chat role")
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
	ErrEmptyTitle      = errors.New("empty title")
	ErrTitleTooLong    = errors.New("title too long (max 200 characters)")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyCompany    = errors.New("empty company")
	ErrEmptyRole       = errors.New("empty role")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyContent    = errors.New("empty content")
	ErrNoNextStatus    = errors.New("no next status")
)

// validationErrors are the sentinels that describe bad input rather than a
// failure of the system.
var validationErrors = []error{
	ErrInvalidDate, ErrInvalidAmount, ErrInvalidStatus, ErrInvalidPriority,
	ErrInvalidType, ErrInvalidRole, ErrInvalidProgress, ErrEmptyTitle,
	ErrTitleTooLong, ErrEmptyName, ErrEmptyCompany, ErrEmptyRole,
	ErrEmptyCategory, ErrEmptyContent,
}

// IsValidation reports whether err was caused by invalid input.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Meta exposes the envelope so stores can manage ids and timestamps generically.
func (r *Record) Meta() *Record {
	return r
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as observed in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a yyyy-MM-dd string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays moves the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

func (s JobStatus) Valid() bool {
	switch s {
	case JobApplied, JobInterview, JobOffer, JobRejected:
		return true
	}
	return false
}

// Active reports whether the application is still in flight.
func (s JobStatus) Active() bool {
	return s == JobApplied || s == JobInterview
}

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted:
		return true
	}
	return false
}

func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

func (r ChatRole) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return ErrTitleTooLong
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	return nil
}

func (j Job) Validate() error {
	if strings.TrimSpace(j.Company) == "" {
		return ErrEmptyCompany
	}
	if strings.TrimSpace(j.Role) == "" {
		return ErrEmptyRole
	}
	if !j.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, j.Status)
	}
	return j.DateApplied.Validate()
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, p.Status)
	}
	if p.Progress < 0 || p.Progress > 100 {
		return ErrInvalidProgress
	}
	return nil
}

func (h Habit) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (e BudgetEntry) Validate() error {
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, e.Type)
	}
	return e.Date.Validate()
}

func (m ChatMessage) Validate() error {
	if !m.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
	}
	if strings.TrimSpace(m.Content) == "" {
		return ErrEmptyContent
	}
	return nil
}

// HasLabel reports whether the user carries the given label.
func (u User) HasLabel(label string) bool {
	for _, l := range u.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// IsAdmin reports membership of the admin label.
func (u User) IsAdmin() bool {
	return u.HasLabel(LabelAdmin)
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
