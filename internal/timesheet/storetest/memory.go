// Package storetest provides an in-memory implementation of the service
// stores. It enforces the same uniqueness and cascade rules as the schema, and
// WithinTx restores a snapshot when fn fails.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/pkg/errors"
)

type txKey struct{}

type tables struct {
	employees  map[int64]domain.Employee
	timesheets map[int64]domain.Timesheet
	logs       map[int64]domain.DailyLog
	changes    map[int64]domain.DailyLogChange
}

func (t tables) clone() tables {
	return tables{
		employees:  cloneMap(t.employees),
		timesheets: cloneMap(t.timesheets),
		logs:       cloneMap(t.logs),
		changes:    cloneMap(t.changes),
	}
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store holds every table in memory.
type Store struct {
	mu    sync.Mutex
	seq   map[string]int64
	data  tables
	clock time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		seq: make(map[string]int64),
		data: tables{
			employees:  make(map[int64]domain.Employee),
			timesheets: make(map[int64]domain.Timesheet),
			logs:       make(map[int64]domain.DailyLog),
			changes:    make(map[int64]domain.DailyLogChange),
		},
		clock: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	}
}

// WithinTx runs fn and rolls every table back if it returns an error.
// Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// Employees returns the employee store view.
func (s *Store) Employees() *Employees { return &Employees{s: s} }

// Timesheets returns the timesheet store view.
func (s *Store) Timesheets() *Timesheets { return &Timesheets{s: s} }

// DailyLogs returns the daily log store view.
func (s *Store) DailyLogs() *DailyLogs { return &DailyLogs{s: s} }

// Changes returns the audit entry store view.
func (s *Store) Changes() *Changes { return &Changes{s: s} }

// id and now must be called with mu held. Like a sequence, each table
// numbers from 1 and ids are not reused after a rollback.
func (s *Store) id(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func (s *Store) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// Employees implements service.EmployeeStore.
type Employees struct{ s *Store }

func (r *Employees) Create(_ context.Context, emp *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkEmployee(emp); err != nil {
		return err
	}
	emp.ID = r.s.id("employees")
	emp.CreatedAt = r.s.now()
	emp.UpdatedAt = emp.CreatedAt
	r.s.data.employees[emp.ID] = *emp
	return nil
}

func (r *Employees) checkEmployee(emp *domain.Employee) error {
	for _, other := range r.s.data.employees {
		if other.ID != emp.ID && strings.EqualFold(other.Email, emp.Email) {
			return errors.Conflict("an employee with this email already exists")
		}
	}
	if emp.ManagerID != nil {
		if emp.ID != 0 && *emp.ManagerID == emp.ID {
			return errors.Conflict("an employee cannot be their own manager")
		}
		if _, ok := r.s.data.employees[*emp.ManagerID]; !ok {
			return errors.NotFound("manager")
		}
	}
	return nil
}

func (r *Employees) GetByID(_ context.Context, id int64) (*domain.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	emp, ok := r.s.data.employees[id]
	if !ok {
		return nil, errors.NotFound("employee")
	}
	return &emp, nil
}

func (r *Employees) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	found := r.filter(func(e domain.Employee) bool { return strings.EqualFold(e.Email, email) })
	if len(found) == 0 {
		return nil, errors.NotFound("employee")
	}
	return &found[0], nil
}

func (r *Employees) FindByName(_ context.Context, name string) ([]domain.Employee, error) {
	return r.filter(func(e domain.Employee) bool { return strings.EqualFold(e.EmployeeName, name) }), nil
}

func (r *Employees) List(_ context.Context) ([]domain.Employee, error) {
	return r.filter(func(domain.Employee) bool { return true }), nil
}

func (r *Employees) ListByManager(_ context.Context, managerID int64) ([]domain.Employee, error) {
	return r.filter(func(e domain.Employee) bool { return e.ManagerID != nil && *e.ManagerID == managerID }), nil
}

func (r *Employees) ListWithoutManager(_ context.Context) ([]domain.Employee, error) {
	return r.filter(func(e domain.Employee) bool { return e.ManagerID == nil }), nil
}

func (r *Employees) filter(keep func(domain.Employee) bool) []domain.Employee {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.Employee, 0)
	for _, e := range r.s.data.employees {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Employees) Update(_ context.Context, emp *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.employees[emp.ID]; !ok {
		return errors.NotFound("employee")
	}
	if err := r.checkEmployee(emp); err != nil {
		return err
	}
	emp.UpdatedAt = r.s.now()
	r.s.data.employees[emp.ID] = *emp
	return nil
}

// SetManager writes a manager reference without any checks, for seeding
// corrupted hierarchies in tests.
func (r *Employees) SetManager(id int64, managerID *int64) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	emp := r.s.data.employees[id]
	emp.ManagerID = managerID
	r.s.data.employees[id] = emp
}

func (r *Employees) ClearManager(_ context.Context, managerID int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]int64, 0)
	for id, e := range r.s.data.employees {
		if e.ManagerID != nil && *e.ManagerID == managerID {
			e.ManagerID = nil
			e.UpdatedAt = r.s.now()
			r.s.data.employees[id] = e
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *Employees) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.employees[id]; !ok {
		return errors.NotFound("employee")
	}
	delete(r.s.data.employees, id)
	for tsID, ts := range r.s.data.timesheets {
		if ts.EmployeeID == id {
			r.s.deleteTimesheet(tsID)
		}
	}
	return nil
}

// Timesheets implements service.TimesheetStore.
type Timesheets struct{ s *Store }

func (r *Timesheets) FindOrCreate(_ context.Context, employeeID int64, week domain.Date) (*domain.Timesheet, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.employees[employeeID]; !ok {
		return nil, false, errors.NotFound("employee")
	}
	if ts, ok := r.byKey(employeeID, week); ok {
		return &ts, false, nil
	}

	ts := domain.Timesheet{ID: r.s.id("timesheets"), EmployeeID: employeeID, WeekStarting: week, CreatedAt: r.s.now()}
	r.s.data.timesheets[ts.ID] = ts
	return &ts, true, nil
}

func (r *Timesheets) byKey(employeeID int64, week domain.Date) (domain.Timesheet, bool) {
	for _, ts := range r.s.data.timesheets {
		if ts.EmployeeID == employeeID && ts.WeekStarting.Equal(week.Time) {
			return ts, true
		}
	}
	return domain.Timesheet{}, false
}

func (r *Timesheets) GetByID(_ context.Context, id int64) (*domain.Timesheet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ts, ok := r.s.data.timesheets[id]
	if !ok {
		return nil, errors.NotFound("timesheet")
	}
	return &ts, nil
}

func (r *Timesheets) GetByEmployeeWeek(_ context.Context, employeeID int64, week domain.Date) (*domain.Timesheet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ts, ok := r.byKey(employeeID, week)
	if !ok {
		return nil, errors.NotFound("timesheet")
	}
	return &ts, nil
}

func (r *Timesheets) List(_ context.Context) ([]domain.Timesheet, error) {
	return r.filter(func(domain.Timesheet) bool { return true }, newestFirst), nil
}

func (r *Timesheets) ListByEmployee(_ context.Context, employeeID int64) ([]domain.Timesheet, error) {
	return r.filter(func(ts domain.Timesheet) bool { return ts.EmployeeID == employeeID }, newestFirst), nil
}

func (r *Timesheets) ListByWeek(_ context.Context, week domain.Date) ([]domain.Timesheet, error) {
	return r.filter(func(ts domain.Timesheet) bool { return ts.WeekStarting.Equal(week.Time) }, byEmployee), nil
}

func (r *Timesheets) ListInRange(_ context.Context, employeeID int64, from, to domain.Date) ([]domain.Timesheet, error) {
	return r.filter(func(ts domain.Timesheet) bool {
		return ts.EmployeeID == employeeID && !ts.WeekStarting.Before(from.Time) && !ts.WeekStarting.After(to.Time)
	}, oldestFirst), nil
}

func newestFirst(a, b domain.Timesheet) bool {
	if !a.WeekStarting.Equal(b.WeekStarting.Time) {
		return a.WeekStarting.After(b.WeekStarting.Time)
	}
	return a.ID < b.ID
}

func oldestFirst(a, b domain.Timesheet) bool {
	if !a.WeekStarting.Equal(b.WeekStarting.Time) {
		return a.WeekStarting.Before(b.WeekStarting.Time)
	}
	return a.ID < b.ID
}

func byEmployee(a, b domain.Timesheet) bool {
	if a.EmployeeID != b.EmployeeID {
		return a.EmployeeID < b.EmployeeID
	}
	return a.ID < b.ID
}

func (r *Timesheets) filter(keep func(domain.Timesheet) bool, less func(a, b domain.Timesheet) bool) []domain.Timesheet {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.Timesheet, 0)
	for _, ts := range r.s.data.timesheets {
		if keep(ts) {
			out = append(out, ts)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (r *Timesheets) Update(_ context.Context, ts *domain.Timesheet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.timesheets[ts.ID]; !ok {
		return errors.NotFound("timesheet")
	}
	if _, ok := r.s.data.employees[ts.EmployeeID]; !ok {
		return errors.NotFound("employee")
	}
	if other, ok := r.byKey(ts.EmployeeID, ts.WeekStarting); ok && other.ID != ts.ID {
		return errors.Conflict("a timesheet for this employee and week already exists")
	}
	r.s.data.timesheets[ts.ID] = *ts
	return nil
}

func (r *Timesheets) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.timesheets[id]; !ok {
		return errors.NotFound("timesheet")
	}
	r.s.deleteTimesheet(id)
	return nil
}

func (s *Store) deleteTimesheet(id int64) {
	delete(s.data.timesheets, id)
	for logID, l := range s.data.logs {
		if l.TimesheetID == id {
			s.deleteLog(logID)
		}
	}
}

func (s *Store) deleteLog(id int64) {
	delete(s.data.logs, id)
	for changeID, c := range s.data.changes {
		if c.DailyLogID == id {
			delete(s.data.changes, changeID)
		}
	}
}

// DailyLogs implements service.DailyLogStore.
type DailyLogs struct{ s *Store }

func (r *DailyLogs) Create(_ context.Context, l *domain.DailyLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.check(l); err != nil {
		return err
	}
	l.ID = r.s.id("daily_logs")
	l.CreatedAt = r.s.now()
	l.UpdatedAt = l.CreatedAt
	r.s.data.logs[l.ID] = *l
	return nil
}

func (r *DailyLogs) check(l *domain.DailyLog) error {
	if _, ok := r.s.data.timesheets[l.TimesheetID]; !ok {
		return errors.NotFound("timesheet")
	}
	for _, other := range r.s.data.logs {
		if other.ID != l.ID && other.TimesheetID == l.TimesheetID && other.LogDate.Equal(l.LogDate.Time) {
			return errors.Conflict("a daily log for this date already exists on the timesheet")
		}
	}
	return nil
}

func (r *DailyLogs) GetByID(_ context.Context, id int64) (*domain.DailyLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.data.logs[id]
	if !ok {
		return nil, errors.NotFound("daily log")
	}
	return &l, nil
}

func (r *DailyLogs) GetByDate(_ context.Context, timesheetID int64, date domain.Date) (*domain.DailyLog, error) {
	found := r.filter(func(l domain.DailyLog) bool {
		return l.TimesheetID == timesheetID && l.LogDate.Equal(date.Time)
	})
	if len(found) == 0 {
		return nil, errors.NotFound("daily log")
	}
	return &found[0], nil
}

func (r *DailyLogs) List(_ context.Context) ([]domain.DailyLog, error) {
	return r.filter(func(domain.DailyLog) bool { return true }), nil
}

func (r *DailyLogs) ListByTimesheet(_ context.Context, timesheetID int64) ([]domain.DailyLog, error) {
	return r.filter(func(l domain.DailyLog) bool { return l.TimesheetID == timesheetID }), nil
}

func (r *DailyLogs) ListByTimesheets(_ context.Context, timesheetIDs []int64) ([]domain.DailyLog, error) {
	ids := make(map[int64]bool, len(timesheetIDs))
	for _, id := range timesheetIDs {
		ids[id] = true
	}
	return r.filter(func(l domain.DailyLog) bool { return ids[l.TimesheetID] }), nil
}

func (r *DailyLogs) filter(keep func(domain.DailyLog) bool) []domain.DailyLog {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.DailyLog, 0)
	for _, l := range r.s.data.logs {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LogDate.Equal(out[j].LogDate.Time) {
			return out[i].LogDate.Before(out[j].LogDate.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *DailyLogs) Update(_ context.Context, l *domain.DailyLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.logs[l.ID]; !ok {
		return errors.NotFound("daily log")
	}
	if err := r.check(l); err != nil {
		return err
	}
	l.UpdatedAt = r.s.now()
	r.s.data.logs[l.ID] = *l
	return nil
}

func (r *DailyLogs) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.logs[id]; !ok {
		return errors.NotFound("daily log")
	}
	r.s.deleteLog(id)
	return nil
}

// Changes implements service.ChangeStore.
type Changes struct{ s *Store }

func (r *Changes) Create(_ context.Context, c *domain.DailyLogChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.logs[c.DailyLogID]; !ok {
		return errors.NotFound("daily log")
	}
	c.ID = r.s.id("daily_log_changes")
	c.ChangedAt = r.s.now()
	r.s.data.changes[c.ID] = *c
	return nil
}

func (r *Changes) GetByID(_ context.Context, id int64) (*domain.DailyLogChange, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.data.changes[id]
	if !ok {
		return nil, errors.NotFound("daily log change")
	}
	return &c, nil
}

func (r *Changes) List(_ context.Context) ([]domain.DailyLogChange, error) {
	return r.filter(func(domain.DailyLogChange) bool { return true }), nil
}

func (r *Changes) ListByDailyLog(_ context.Context, dailyLogID int64) ([]domain.DailyLogChange, error) {
	return r.filter(func(c domain.DailyLogChange) bool { return c.DailyLogID == dailyLogID }), nil
}

func (r *Changes) filter(keep func(domain.DailyLogChange) bool) []domain.DailyLogChange {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.DailyLogChange, 0)
	for _, c := range r.s.data.changes {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ChangedAt.Equal(out[j].ChangedAt) {
			return out[i].ChangedAt.Before(out[j].ChangedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Changes) Update(_ context.Context, c *domain.DailyLogChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.data.changes[c.ID]
	if !ok {
		return errors.NotFound("daily log change")
	}
	c.DailyLogID = existing.DailyLogID
	c.ChangedAt = existing.ChangedAt
	r.s.data.changes[c.ID] = *c
	return nil
}

func (r *Changes) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.changes[id]; !ok {
		return errors.NotFound("daily log change")
	}
	delete(r.s.data.changes, id)
	return nil
}
