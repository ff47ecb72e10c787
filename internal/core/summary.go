package core

import "github.com/shopspring/decimal"

// Summary holds the income/expense totals of a set of budget entries.
type Summary struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Summarize sums entries by type. Balance is income minus expenses.
func Summarize(entries []BudgetEntry) Summary {
	s := Summary{Income: decimal.Zero, Expenses: decimal.Zero}
	for _, e := range entries {
		switch e.Type {
		case Income:
			s.Income = s.Income.Add(e.Amount)
		case Expense:
			s.Expenses = s.Expenses.Add(e.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expenses)
	return s
}

// ByCategory groups entries by their exact category string and sums the
// amounts regardless of type. Categories keep the order of their first
// occurrence in entries.
func ByCategory(entries []BudgetEntry) []CategoryAmount {
	index := make(map[string]int)
	out := make([]CategoryAmount, 0)
	for _, e := range entries {
		i, ok := index[e.Category]
		if !ok {
			index[e.Category] = len(out)
			out = append(out, CategoryAmount{Category: e.Category, Amount: e.Amount})
			continue
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}
