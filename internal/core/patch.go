package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Patches carry the fields of a partial update. A nil field is left as is.
type (
	TaskPatch struct {
		Title       *string       `json:"title"`
		Description *string       `json:"description"`
		Priority    *TaskPriority `json:"priority"`
		Status      *TaskStatus   `json:"status"`
		DueDate     *string       `json:"dueDate"`
		ProjectID   *string       `json:"projectId"`
	}

	JobPatch struct {
		Company     *string    `json:"company"`
		Role        *string    `json:"role"`
		Status      *JobStatus `json:"status"`
		Notes       *string    `json:"notes"`
		DateApplied *string    `json:"dateApplied"`
	}

	ProjectPatch struct {
		Name        *string        `json:"name"`
		Description *string        `json:"description"`
		Status      *ProjectStatus `json:"status"`
		Progress    *int           `json:"progress"`
	}

	HabitPatch struct {
		Name           *string   `json:"name"`
		Description    *string   `json:"description"`
		CompletedDates *[]string `json:"completedDates"`
	}

	BudgetPatch struct {
		Amount      *decimal.Decimal `json:"amount"`
		Category    *string          `json:"category"`
		Type        *EntryType       `json:"type"`
		Date        *string          `json:"date"`
		Description *string          `json:"description"`
	}
)

// Apply copies the set fields onto t. An empty DueDate clears the due date.
func (p TaskPatch) Apply(t *Task) error {
	setString(&t.Title, p.Title)
	setString(&t.Description, p.Description)
	setString(&t.ProjectID, p.ProjectID)
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.DueDate != nil {
		if strings.TrimSpace(*p.DueDate) == "" {
			t.DueDate = nil
		} else {
			d, err := ParseDate(*p.DueDate)
			if err != nil {
				return err
			}
			t.DueDate = &d
		}
	}
	return t.Validate()
}

func (p JobPatch) Apply(j *Job) error {
	setString(&j.Company, p.Company)
	setString(&j.Role, p.Role)
	setString(&j.Notes, p.Notes)
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.DateApplied != nil {
		d, err := ParseDate(*p.DateApplied)
		if err != nil {
			return err
		}
		j.DateApplied = d
	}
	return j.Validate()
}

func (p ProjectPatch) Apply(pr *Project) error {
	setString(&pr.Name, p.Name)
	setString(&pr.Description, p.Description)
	if p.Status != nil {
		pr.Status = *p.Status
	}
	if p.Progress != nil {
		pr.Progress = *p.Progress
	}
	return pr.Validate()
}

// Apply replaces the completion set wholesale when given. The caller is
// responsible for recomputing the cached streak.
func (p HabitPatch) Apply(h *Habit) error {
	setString(&h.Name, p.Name)
	setString(&h.Description, p.Description)
	if p.CompletedDates != nil {
		dates := make([]string, 0, len(*p.CompletedDates))
		for _, s := range *p.CompletedDates {
			d, err := ParseDate(s)
			if err != nil {
				return err
			}
			dates = append(dates, d.String())
		}
		h.CompletedDates = dates
	}
	return h.Validate()
}

func (p BudgetPatch) Apply(e *BudgetEntry) error {
	setString(&e.Category, p.Category)
	setString(&e.Description, p.Description)
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Date != nil {
		d, err := ParseDate(*p.Date)
		if err != nil {
			return err
		}
		e.Date = d
	}
	return e.Validate()
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
