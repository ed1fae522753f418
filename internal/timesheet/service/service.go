// Package service implements the timesheet use cases on top of the stores.
// Every mutating operation runs inside one transaction and publishes its
// events only after the transaction commits.
package service

import (
	"context"
	"strings"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/repository"
	"github.com/tms/tms-backend/pkg/database"
	"github.com/tms/tms-backend/pkg/errors"
)

// Transactor runs fn in a transaction carried by the returned context.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EmployeeStore persists employees.
type EmployeeStore interface {
	Create(ctx context.Context, emp *domain.Employee) error
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	FindByName(ctx context.Context, name string) ([]domain.Employee, error)
	List(ctx context.Context) ([]domain.Employee, error)
	ListByManager(ctx context.Context, managerID int64) ([]domain.Employee, error)
	ListWithoutManager(ctx context.Context) ([]domain.Employee, error)
	Update(ctx context.Context, emp *domain.Employee) error
	ClearManager(ctx context.Context, managerID int64) ([]int64, error)
	Delete(ctx context.Context, id int64) error
}

// TimesheetStore persists timesheets.
type TimesheetStore interface {
	FindOrCreate(ctx context.Context, employeeID int64, week domain.Date) (*domain.Timesheet, bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Timesheet, error)
	GetByEmployeeWeek(ctx context.Context, employeeID int64, week domain.Date) (*domain.Timesheet, error)
	List(ctx context.Context) ([]domain.Timesheet, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]domain.Timesheet, error)
	ListByWeek(ctx context.Context, week domain.Date) ([]domain.Timesheet, error)
	ListInRange(ctx context.Context, employeeID int64, from, to domain.Date) ([]domain.Timesheet, error)
	Update(ctx context.Context, ts *domain.Timesheet) error
	Delete(ctx context.Context, id int64) error
}

// DailyLogStore persists daily logs.
type DailyLogStore interface {
	Create(ctx context.Context, l *domain.DailyLog) error
	GetByID(ctx context.Context, id int64) (*domain.DailyLog, error)
	GetByDate(ctx context.Context, timesheetID int64, date domain.Date) (*domain.DailyLog, error)
	List(ctx context.Context) ([]domain.DailyLog, error)
	ListByTimesheet(ctx context.Context, timesheetID int64) ([]domain.DailyLog, error)
	ListByTimesheets(ctx context.Context, timesheetIDs []int64) ([]domain.DailyLog, error)
	Update(ctx context.Context, l *domain.DailyLog) error
	Delete(ctx context.Context, id int64) error
}

// ChangeStore persists daily log audit entries.
type ChangeStore interface {
	Create(ctx context.Context, c *domain.DailyLogChange) error
	GetByID(ctx context.Context, id int64) (*domain.DailyLogChange, error)
	List(ctx context.Context) ([]domain.DailyLogChange, error)
	ListByDailyLog(ctx context.Context, dailyLogID int64) ([]domain.DailyLogChange, error)
	Update(ctx context.Context, c *domain.DailyLogChange) error
	Delete(ctx context.Context, id int64) error
}

var (
	_ Transactor     = (*database.DB)(nil)
	_ EmployeeStore  = (*repository.EmployeeRepository)(nil)
	_ TimesheetStore = (*repository.TimesheetRepository)(nil)
	_ DailyLogStore  = (*repository.DailyLogRepository)(nil)
	_ ChangeStore    = (*repository.ChangeRepository)(nil)
)

// employeeByName returns the first employee whose name matches, ignoring case.
// Names are not unique; duplicates resolve to the lowest id.
func employeeByName(ctx context.Context, store EmployeeStore, name string) (*domain.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Invalid("employee_name", "this field is required")
	}

	matches, err := store.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errors.NotFound("employee")
	}
	return &matches[0], nil
}

func employeeByEmail(ctx context.Context, store EmployeeStore, email string) (*domain.Employee, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.Invalid("email", "this field is required")
	}
	return store.GetByEmail(ctx, email)
}

// requireEmployee maps a missing employee to NotFound with the given resource name.
func requireEmployee(ctx context.Context, store EmployeeStore, id int64, resource string) (*domain.Employee, error) {
	emp, err := store.GetByID(ctx, id)
	if errors.IsNotFound(err) {
		return nil, errors.NotFound(resource)
	}
	return emp, err
}
