package service

import (
	"context"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/events"
	"github.com/tms/tms-backend/pkg/errors"
	"github.com/tms/tms-backend/pkg/logger"
	"github.com/tms/tms-backend/pkg/metrics"
)

// EmployeeRef identifies an employee by id or, failing that, by name.
type EmployeeRef struct {
	ID   *int64
	Name *string
}

// UpdateTimesheetInput is a partial update of a timesheet.
type UpdateTimesheetInput struct {
	EmployeeID   *int64
	WeekStarting *domain.Date
}

// TimesheetService handles timesheet business logic
type TimesheetService struct {
	tx         Transactor
	employees  EmployeeStore
	timesheets TimesheetStore
	publisher  *events.Publisher
	logger     *logger.Logger
}

// NewTimesheetService creates a new timesheet service
func NewTimesheetService(
	tx Transactor,
	employees EmployeeStore,
	timesheets TimesheetStore,
	publisher *events.Publisher,
	log *logger.Logger,
) *TimesheetService {
	return &TimesheetService{
		tx:         tx,
		employees:  employees,
		timesheets: timesheets,
		publisher:  publisher,
		logger:     log.WithComponent("timesheet_service"),
	}
}

// Create returns the employee's timesheet for the week, creating it when it
// does not exist yet. created reports whether a row was inserted.
func (s *TimesheetService) Create(ctx context.Context, ref EmployeeRef, week domain.Date) (ts *domain.Timesheet, created bool, err error) {
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.resolveEmployee(ctx, ref)
		if err != nil {
			return err
		}
		ts, created, err = s.timesheets.FindOrCreate(ctx, emp.ID, week)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.timesheetCreated(ctx, ts)
	}
	return ts, created, nil
}

// Get gets a timesheet by ID
func (s *TimesheetService) Get(ctx context.Context, id int64) (*domain.Timesheet, error) {
	return s.timesheets.GetByID(ctx, id)
}

// List lists all timesheets
func (s *TimesheetService) List(ctx context.Context) ([]domain.Timesheet, error) {
	return s.timesheets.List(ctx)
}

// ListByEmployee lists an employee's timesheets, newest week first
func (s *TimesheetService) ListByEmployee(ctx context.Context, employeeID int64) ([]domain.Timesheet, error) {
	if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.timesheets.ListByEmployee(ctx, employeeID)
}

// ListByWeek lists every timesheet for a week
func (s *TimesheetService) ListByWeek(ctx context.Context, week domain.Date) ([]domain.Timesheet, error) {
	return s.timesheets.ListByWeek(ctx, week)
}

// GetByEmployeeWeek resolves a timesheet by employee name and week
func (s *TimesheetService) GetByEmployeeWeek(ctx context.Context, employeeName string, week domain.Date) (*domain.Timesheet, error) {
	emp, err := employeeByName(ctx, s.employees, employeeName)
	if err != nil {
		return nil, err
	}
	return s.timesheets.GetByEmployeeWeek(ctx, emp.ID, week)
}

// UpdateWeek moves the timesheet identified by employee name and week to newWeek
func (s *TimesheetService) UpdateWeek(ctx context.Context, employeeName string, oldWeek, newWeek domain.Date) (*domain.Timesheet, error) {
	var ts *domain.Timesheet

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := employeeByName(ctx, s.employees, employeeName)
		if err != nil {
			return err
		}
		ts, err = s.timesheets.GetByEmployeeWeek(ctx, emp.ID, oldWeek)
		if err != nil {
			return err
		}

		ts.WeekStarting = newWeek
		return s.save(ctx, ts)
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

// Update changes the owner and/or week of a timesheet
func (s *TimesheetService) Update(ctx context.Context, id int64, in UpdateTimesheetInput) (*domain.Timesheet, error) {
	var ts *domain.Timesheet

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ts, err = s.timesheets.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if in.EmployeeID != nil {
			if _, err := requireEmployee(ctx, s.employees, *in.EmployeeID, "employee"); err != nil {
				return err
			}
			ts.EmployeeID = *in.EmployeeID
		}
		if in.WeekStarting != nil {
			ts.WeekStarting = *in.WeekStarting
		}

		return s.save(ctx, ts)
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

// DeleteByEmployeeWeek deletes the timesheet identified by employee name and week
func (s *TimesheetService) DeleteByEmployeeWeek(ctx context.Context, employeeName string, week domain.Date) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ts, err := s.GetByEmployeeWeek(ctx, employeeName, week)
		if err != nil {
			return err
		}
		return s.timesheets.Delete(ctx, ts.ID)
	})
}

// Delete deletes a timesheet and, by cascade, its daily logs
func (s *TimesheetService) Delete(ctx context.Context, id int64) error {
	return s.timesheets.Delete(ctx, id)
}

// save writes ts after checking no other timesheet holds its (employee, week) key.
func (s *TimesheetService) save(ctx context.Context, ts *domain.Timesheet) error {
	other, err := s.timesheets.GetByEmployeeWeek(ctx, ts.EmployeeID, ts.WeekStarting)
	switch {
	case err == nil && other.ID != ts.ID:
		return errors.Conflict("a timesheet already exists for this employee and week")
	case err != nil && !errors.IsNotFound(err):
		return err
	}
	return s.timesheets.Update(ctx, ts)
}

func (s *TimesheetService) resolveEmployee(ctx context.Context, ref EmployeeRef) (*domain.Employee, error) {
	if ref.ID != nil {
		return requireEmployee(ctx, s.employees, *ref.ID, "employee")
	}
	if ref.Name != nil {
		return employeeByName(ctx, s.employees, *ref.Name)
	}
	return nil, errors.Invalid("employee_id", "employee_id or employee_name is required")
}

func (s *TimesheetService) timesheetCreated(ctx context.Context, ts *domain.Timesheet) {
	metrics.TimesheetsCreated.Inc()
	s.logger.Info().
		Int64("timesheet_id", ts.ID).
		Int64("employee_id", ts.EmployeeID).
		Str("week_starting", ts.WeekStarting.String()).
		Msg("timesheet created")
	s.publisher.TimesheetCreated(ctx, ts)
}
