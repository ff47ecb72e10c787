package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-03-10", true},
		{" 2024-03-10 ", true},
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2024-3-10", false},
		{"10/03/2024", false},
		{"", false},
	}
	for i, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("case %d expected error", i)
			}
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("case %d expected ErrInvalidDate, got %v", i, err)
			}
			continue
		}
		if d.Hour() != 0 || d.Location() != time.UTC {
			t.Fatalf("case %d expected midnight UTC, got %v", i, d.Time)
		}
	}
}

func TestDateArithmetic(t *testing.T) {
	cases := []struct {
		from string
		n    int
		want string
	}{
		{"2024-03-01", -1, "2024-02-29"},
		{"2023-03-01", -1, "2023-02-28"},
		{"2024-01-01", -1, "2023-12-31"},
		{"2024-12-31", 1, "2025-01-01"},
		{"2024-03-31", 0, "2024-03-31"},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.from)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.from, err)
		}
		if got := d.AddDays(tc.n).String(); got != tc.want {
			t.Fatalf("%s%+d: got %s, want %s", tc.from, tc.n, got, tc.want)
		}
	}
}

func TestDateOfUsesLocation(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 23:30 UTC on the 9th is already the 10th in Rome.
	instant := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	if got := DateOf(instant, time.UTC).String(); got != "2024-03-09" {
		t.Fatalf("utc: got %s", got)
	}
	if got := DateOf(instant, rome).String(); got != "2024-03-10" {
		t.Fatalf("rome: got %s", got)
	}
	if got := DateOf(instant, nil).String(); got != "2024-03-09" {
		t.Fatalf("nil location: got %s", got)
	}
}

func TestDateJSON(t *testing.T) {
	in := struct {
		D Date `json:"d"`
	}{D: NewDate(2024, 3, 10)}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"d":"2024-03-10"}` {
		t.Fatalf("unexpected json %s", b)
	}
	var out struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"bogus"}`), &out); err == nil {
		t.Fatalf("expected error for bogus date")
	}
}

func TestTaskValidate(t *testing.T) {
	good := Task{Title: "Write report", Priority: PriorityMedium, Status: TaskTodo}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Task{
		{Title: " ", Priority: PriorityMedium, Status: TaskTodo},
		{Title: "a", Priority: "urgent", Status: TaskTodo},
		{Title: "a", Priority: PriorityLow, Status: "blocked"},
	}
	for i, tc := range bads {
		if err := tc.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestJobValidate(t *testing.T) {
	good := Job{Company: "Acme", Role: "Engineer", Status: JobApplied, DateApplied: NewDate(2024, 1, 5)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Job{
		{Company: "", Role: "Engineer", Status: JobApplied, DateApplied: NewDate(2024, 1, 5)},
		{Company: "Acme", Role: "", Status: JobApplied, DateApplied: NewDate(2024, 1, 5)},
		{Company: "Acme", Role: "Engineer", Status: "ghosted", DateApplied: NewDate(2024, 1, 5)},
		{Company: "Acme", Role: "Engineer", Status: JobApplied},
	}
	for i, tc := range bads {
		if err := tc.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestProjectValidate(t *testing.T) {
	cases := []struct {
		p  Project
		ok bool
	}{
		{Project{Name: "Site", Status: ProjectActive, Progress: 0}, true},
		{Project{Name: "Site", Status: ProjectCompleted, Progress: 100}, true},
		{Project{Name: "Site", Status: ProjectActive, Progress: 101}, false},
		{Project{Name: "Site", Status: ProjectActive, Progress: -1}, false},
		{Project{Name: "Site", Status: "archived"}, false},
		{Project{Name: "", Status: ProjectActive}, false},
	}
	for i, tc := range cases {
		err := tc.p.Validate()
		if tc.ok != (err == nil) {
			t.Fatalf("case %d: ok=%v err=%v", i, tc.ok, err)
		}
	}
}

func TestBudgetEntryValidate(t *testing.T) {
	good := BudgetEntry{Amount: decimal.RequireFromString("12.5"), Category: "Food", Type: Expense, Date: NewDate(2024, 1, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []BudgetEntry{
		{Amount: decimal.Zero, Category: "Food", Type: Expense, Date: NewDate(2024, 1, 1)},
		{Amount: decimal.RequireFromString("-3"), Category: "Food", Type: Expense, Date: NewDate(2024, 1, 1)},
		{Amount: decimal.RequireFromString("3"), Category: "", Type: Expense, Date: NewDate(2024, 1, 1)},
		{Amount: decimal.RequireFromString("3"), Category: "Food", Type: "transfer", Date: NewDate(2024, 1, 1)},
		{Amount: decimal.RequireFromString("3"), Category: "Food", Type: Income},
	}
	for i, tc := range bads {
		if err := tc.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
	if err := bads[0].Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestUserLabels(t *testing.T) {
	u := User{Labels: []string{"beta", LabelAdmin}}
	if !u.IsAdmin() {
		t.Fatalf("expected admin")
	}
	if (User{Labels: []string{"Admin"}}).IsAdmin() {
		t.Fatalf("labels are case-sensitive")
	}
	if (User{}).HasLabel("beta") {
		t.Fatalf("empty user has no labels")
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Fatalf("session should be valid")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Fatalf("session should expire at ExpiresAt")
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(fmt.Errorf("create task: %w", ErrEmptyTitle)) {
		t.Error("wrapped ErrEmptyTitle should be a validation error")
	}
	if !IsValidation(Task{Title: "x", Priority: "urgent", Status: TaskTodo}.Validate()) {
		t.Error("bad priority should be a validation error")
	}
	if IsValidation(ErrNotFound) || IsValidation(ErrNoNextStatus) || IsValidation(nil) {
		t.Error("not found, terminal status and nil are not validation errors")
	}
}
