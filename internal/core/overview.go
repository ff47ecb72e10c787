package core

import "github.com/shopspring/decimal"

// recentTaskCount is how many of the newest tasks the overview carries.
const recentTaskCount = 5

// Overview is the per-user dashboard snapshot.
type Overview struct {
	TotalTasks      int             `json:"totalTasks"`
	CompletedTasks  int             `json:"completedTasks"`
	PendingTasks    int             `json:"pendingTasks"`
	TotalJobs       int             `json:"totalJobs"`
	ActiveJobs      int             `json:"activeJobs"`
	Interviews      int             `json:"interviews"`
	TotalHabits     int             `json:"totalHabits"`
	HabitsDoneToday int             `json:"habitsDoneToday"`
	LongestStreak   int             `json:"longestStreak"`
	Income          decimal.Decimal `json:"income"`
	Expenses        decimal.Decimal `json:"expenses"`
	Balance         decimal.Decimal `json:"balance"`
	RecentTasks     []Task          `json:"recentTasks"`
}

// BuildOverview aggregates the four collections. Inputs are expected
// newest-first, as the stores return them.
func BuildOverview(tasks []Task, jobs []Job, habits []Habit, entries []BudgetEntry, today Date, mode StreakMode) Overview {
	ov := Overview{
		TotalTasks:  len(tasks),
		TotalJobs:   len(jobs),
		TotalHabits: len(habits),
	}
	for _, t := range tasks {
		if t.Status == TaskDone {
			ov.CompletedTasks++
		}
	}
	ov.PendingTasks = ov.TotalTasks - ov.CompletedTasks

	for _, j := range jobs {
		if j.Status.Active() {
			ov.ActiveJobs++
		}
		if j.Status == JobInterview {
			ov.Interviews++
		}
	}

	for _, h := range habits {
		if IsCompleted(h.CompletedDates, today) {
			ov.HabitsDoneToday++
		}
		if s := mode.Streak(h.CompletedDates, today); s > ov.LongestStreak {
			ov.LongestStreak = s
		}
	}

	sum := Summarize(entries)
	ov.Income, ov.Expenses, ov.Balance = sum.Income, sum.Expenses, sum.Balance

	n := len(tasks)
	if n > recentTaskCount {
		n = recentTaskCount
	}
	ov.RecentTasks = append([]Task{}, tasks[:n]...)
	return ov
}
