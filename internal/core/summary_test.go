package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func entry(amount string, typ EntryType, category string) BudgetEntry {
	return BudgetEntry{Amount: decimal.RequireFromString(amount), Type: typ, Category: category, Date: NewDate(2024, 1, 1)}
}

func TestSummarize(t *testing.T) {
	cases := []struct {
		name                      string
		in                        []BudgetEntry
		income, expenses, balance string
	}{
		{"empty", nil, "0", "0", "0"},
		{"mixed", []BudgetEntry{entry("1000", Income, "Salary"), entry("200", Expense, "Food"), entry("50.5", Expense, "Food")}, "1000", "250.5", "749.5"},
		{"negative balance", []BudgetEntry{entry("10", Income, "Gift"), entry("30", Expense, "Rent")}, "10", "30", "-20"},
		{"no rounding", []BudgetEntry{entry("0.1", Income, "a"), entry("0.2", Income, "a"), entry("0.005", Expense, "b")}, "0.3", "0.005", "0.295"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Summarize(tc.in)
			if !got.Income.Equal(decimal.RequireFromString(tc.income)) {
				t.Fatalf("income = %s, want %s", got.Income, tc.income)
			}
			if !got.Expenses.Equal(decimal.RequireFromString(tc.expenses)) {
				t.Fatalf("expenses = %s, want %s", got.Expenses, tc.expenses)
			}
			if !got.Balance.Equal(decimal.RequireFromString(tc.balance)) {
				t.Fatalf("balance = %s, want %s", got.Balance, tc.balance)
			}
			if !got.Balance.Equal(got.Income.Sub(got.Expenses)) {
				t.Fatalf("balance must equal income - expenses")
			}
		})
	}
}

func TestByCategory(t *testing.T) {
	in := []BudgetEntry{
		entry("100", Expense, "Food"),
		entry("500", Income, "Salary"),
		entry("20", Income, "Food"),
		entry("5", Expense, "food"),
		entry("30", Expense, "Salary"),
	}
	got := ByCategory(in)
	want := []struct {
		cat    string
		amount string
	}{
		{"Food", "120"},
		{"Salary", "530"},
		{"food", "5"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d: %v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Category != w.cat || !got[i].Amount.Equal(decimal.RequireFromString(w.amount)) {
			t.Fatalf("row %d = %s %s, want %s %s", i, got[i].Category, got[i].Amount, w.cat, w.amount)
		}
	}
}

func TestByCategoryTotalsMatchSummary(t *testing.T) {
	in := []BudgetEntry{entry("12.34", Expense, "A"), entry("7", Income, "B"), entry("0.66", Expense, "A")}
	total := decimal.Zero
	for _, c := range ByCategory(in) {
		total = total.Add(c.Amount)
	}
	s := Summarize(in)
	if !total.Equal(s.Income.Add(s.Expenses)) {
		t.Fatalf("category total %s != income+expenses %s", total, s.Income.Add(s.Expenses))
	}
}

func TestByCategoryEmpty(t *testing.T) {
	if got := ByCategory(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
