package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodash/internal/amqp"
	"prodash/internal/core"
	applog "prodash/internal/log"
	"prodash/internal/services"
	sheetsmem "prodash/internal/sheets/memory"
	"prodash/internal/storage"
	"prodash/internal/storage/memory"
)

type fixture struct {
	store    *storage.Store
	exporter *sheetsmem.Exporter
	worker   *ExportWorker
}

func newFixture() fixture {
	var mu sync.Mutex
	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	store := memory.New(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	})
	exporter := sheetsmem.New()
	return fixture{
		store:    store,
		exporter: exporter,
		worker:   NewExportWorker(store.Budget, exporter, applog.Discard()),
	}
}

func (f fixture) addEntry(t *testing.T, userID, category string) core.BudgetEntry {
	t.Helper()
	e, err := f.store.Budget.Create(context.Background(), core.BudgetEntry{
		Record:   core.Record{UserID: userID},
		Amount:   decimal.RequireFromString("10"),
		Category: category,
		Type:     core.Expense,
		Date:     core.NewDate(2024, 3, 2),
	})
	require.NoError(t, err)
	return e
}

func TestHandleRecordEventExportsBudgetCreations(t *testing.T) {
	f := newFixture()
	e := f.addEntry(t, "u1", "Food")

	err := f.worker.HandleRecordEvent(context.Background(),
		amqp.NewRecordEvent(services.CollectionBudget, amqp.ActionCreate, e.ID, "u1"))
	require.NoError(t, err)

	rows := f.exporter.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Food", rows[0][2])
	assert.Equal(t, e.ID, rows[0][6])
}

func TestHandleRecordEventSkipsOtherEvents(t *testing.T) {
	f := newFixture()
	e := f.addEntry(t, "u1", "Food")

	events := []*amqp.RecordEvent{
		amqp.NewRecordEvent(services.CollectionBudget, amqp.ActionUpdate, e.ID, "u1"),
		amqp.NewRecordEvent(services.CollectionBudget, amqp.ActionDelete, e.ID, "u1"),
		amqp.NewRecordEvent(services.CollectionTasks, amqp.ActionCreate, "t1", "u1"),
		amqp.NewRecordEvent(services.CollectionChat, amqp.ActionClear, "u1", "u1"),
	}
	for _, ev := range events {
		require.NoError(t, f.worker.HandleRecordEvent(context.Background(), ev))
	}
	assert.Empty(t, f.exporter.Rows())
}

func TestHandleRecordEventAcksMissingRecord(t *testing.T) {
	f := newFixture()
	e := f.addEntry(t, "u1", "Food")

	// Wrong owner and deleted records both read as missing.
	require.NoError(t, f.worker.HandleRecordEvent(context.Background(),
		amqp.NewRecordEvent(services.CollectionBudget, amqp.ActionCreate, e.ID, "u2")))
	require.NoError(t, f.store.Budget.Delete(context.Background(), "u1", e.ID))
	require.NoError(t, f.worker.HandleRecordEvent(context.Background(),
		amqp.NewRecordEvent(services.CollectionBudget, amqp.ActionCreate, e.ID, "u1")))

	assert.Empty(t, f.exporter.Rows())
}

func TestHandleRecordEventRequeuesExporterFailure(t *testing.T) {
	f := newFixture()
	e := f.addEntry(t, "u1", "Food")
	boom := errors.New("quota exceeded")
	f.exporter.FailWith(boom)

	err := f.worker.HandleRecordEvent(context.Background(),
		amqp.NewRecordEvent(services.CollectionBudget, amqp.ActionCreate, e.ID, "u1"))
	require.ErrorIs(t, err, boom)
}

func TestExportUserOldestFirst(t *testing.T) {
	f := newFixture()
	first := f.addEntry(t, "u1", "Rent")
	second := f.addEntry(t, "u1", "Food")
	f.addEntry(t, "u2", "Other")

	n, err := f.worker.ExportUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows := f.exporter.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0][6])
	assert.Equal(t, second.ID, rows[1][6])
}

func TestExportUserStopsOnFailure(t *testing.T) {
	f := newFixture()
	f.addEntry(t, "u1", "Rent")
	f.exporter.FailWith(errors.New("offline"))

	n, err := f.worker.ExportUser(context.Background(), "u1")
	require.Error(t, err)
	assert.Zero(t, n)
}
