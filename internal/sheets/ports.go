package sheets

import (
	"context"

	"prodash/internal/core"
)

// Ports for outbound adapters.
type (
	// BudgetExporter appends budget entries to an external ledger.
	BudgetExporter interface {
		// Append writes one row for the entry and returns a reference to it.
		Append(ctx context.Context, e core.BudgetEntry) (rowRef string, err error)
	}
)

// Header is the column layout of an exported ledger row.
var Header = []string{"Date", "Type", "Category", "Amount", "Description", "User", "ID"}

// Row converts an entry into ledger cells, in Header order.
func Row(e core.BudgetEntry) []any {
	return []any{
		e.Date.String(),
		string(e.Type),
		e.Category,
		e.Amount.StringFixed(2),
		e.Description,
		e.UserID,
		e.ID,
	}
}
