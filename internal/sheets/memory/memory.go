package memory

import (
	"context"
	"fmt"
	"sync"

	"prodash/internal/core"
	ports "prodash/internal/sheets"
)

var _ ports.BudgetExporter = (*Exporter)(nil)

// Exporter keeps exported rows in memory. It backs local runs without a
// spreadsheet and the worker tests.
type Exporter struct {
	mu   sync.Mutex
	rows [][]any
	err  error
}

func New() *Exporter {
	return &Exporter{}
}

// FailWith makes subsequent appends return err. A nil err clears it.
func (x *Exporter) FailWith(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.err = err
}

// Append stores the row and returns a synthetic row reference.
func (x *Exporter) Append(_ context.Context, e core.BudgetEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.err != nil {
		return "", x.err
	}
	x.rows = append(x.rows, ports.Row(e))
	return fmt.Sprintf("mem:%d", len(x.rows)), nil
}

// Rows returns a copy of everything exported so far.
func (x *Exporter) Rows() [][]any {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([][]any, len(x.rows))
	copy(out, x.rows)
	return out
}
