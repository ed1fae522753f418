package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/events"
	"github.com/tms/tms-backend/internal/timesheet/service"
	"github.com/tms/tms-backend/internal/timesheet/storetest"
	"github.com/tms/tms-backend/pkg/logger"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder is an event sink that keeps published event types in order.
type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) Publish(_ context.Context, eventType string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, eventType)
	return nil
}

func (r *recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.types...)
}

func (r *recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = nil
}

// countingTx counts the transactions started through it.
type countingTx struct {
	service.Transactor
	mu    sync.Mutex
	calls int
}

func (c *countingTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.Transactor.WithinTx(ctx, fn)
}

func (c *countingTx) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type harness struct {
	store      *storetest.Store
	events     *recorder
	employees  *service.EmployeeService
	timesheets *service.TimesheetService
	logs       *service.DailyLogService
	changes    *service.ChangeService
	dashboard  *service.DashboardService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := storetest.New()
	rec := &recorder{}
	log := logger.Nop()
	pub := events.NewPublisher(rec, log)

	return &harness{
		store:      store,
		events:     rec,
		employees:  service.NewEmployeeService(store, store.Employees(), pub, log),
		timesheets: service.NewTimesheetService(store, store.Employees(), store.Timesheets(), pub, log),
		logs: service.NewDailyLogService(
			store, store.Employees(), store.Timesheets(), store.DailyLogs(), store.Changes(), pub, log,
		),
		changes:   service.NewChangeService(store, store.DailyLogs(), store.Changes(), pub, log),
		dashboard: service.NewDashboardService(store, store.Employees(), store.Timesheets(), store.DailyLogs(), log),
	}
}

func (h *harness) employee(t *testing.T, name, email string, managerID *int64) *domain.Employee {
	t.Helper()
	emp, err := h.employees.Create(context.Background(), service.CreateEmployeeInput{
		EmployeeName: name,
		Email:        email,
		ManagerID:    managerID,
	})
	require.NoError(t, err)
	return emp
}

func (h *harness) timesheet(t *testing.T, employeeID int64, week string) *domain.Timesheet {
	t.Helper()
	ts, _, err := h.timesheets.Create(context.Background(), service.EmployeeRef{ID: &employeeID}, domain.MustDate(week))
	require.NoError(t, err)
	return ts
}

func clock(t *testing.T, s string) *domain.ClockTime {
	t.Helper()
	c, err := domain.ParseClockPtr("time", s)
	require.NoError(t, err)
	return c
}
