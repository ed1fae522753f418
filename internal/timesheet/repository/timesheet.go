package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/pkg/database"
	"github.com/tms/tms-backend/pkg/errors"
)

const timesheetColumns = `id, employee_id, week_starting, created_at`

// TimesheetRepository handles timesheet data access
type TimesheetRepository struct {
	db *database.DB
}

// NewTimesheetRepository creates a new timesheet repository
func NewTimesheetRepository(db *database.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

// FindOrCreate returns the timesheet for (employeeID, week), inserting it when
// absent. The unique constraint on the pair makes concurrent callers converge
// on one row; created is true only for the caller whose insert won.
func (r *TimesheetRepository) FindOrCreate(ctx context.Context, employeeID int64, week domain.Date) (*domain.Timesheet, bool, error) {
	query := `
		INSERT INTO timesheets (employee_id, week_starting)
		VALUES ($1, $2)
		ON CONFLICT (employee_id, week_starting) DO NOTHING
		RETURNING ` + timesheetColumns

	var ts domain.Timesheet
	err := sqlx.GetContext(ctx, r.db.Conn(ctx), &ts, query, employeeID, week)
	if err == nil {
		return &ts, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, database.Check(err)
	}

	existing, err := r.GetByEmployeeWeek(ctx, employeeID, week)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByID gets a timesheet by ID
func (r *TimesheetRepository) GetByID(ctx context.Context, id int64) (*domain.Timesheet, error) {
	var ts domain.Timesheet
	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db.Conn(ctx), &ts, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("timesheet")
	}
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// GetByEmployeeWeek resolves a timesheet by its composite key
func (r *TimesheetRepository) GetByEmployeeWeek(ctx context.Context, employeeID int64, week domain.Date) (*domain.Timesheet, error) {
	var ts domain.Timesheet
	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE employee_id = $1 AND week_starting = $2`

	err := sqlx.GetContext(ctx, r.db.Conn(ctx), &ts, query, employeeID, week)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("timesheet")
	}
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// List returns all timesheets, newest week first
func (r *TimesheetRepository) List(ctx context.Context) ([]domain.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets ORDER BY week_starting DESC, id`
	return r.selectTimesheets(ctx, query)
}

// ListByEmployee returns an employee's timesheets, newest week first
func (r *TimesheetRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]domain.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE employee_id = $1 ORDER BY week_starting DESC, id`
	return r.selectTimesheets(ctx, query, employeeID)
}

// ListByWeek returns every timesheet starting on week
func (r *TimesheetRepository) ListByWeek(ctx context.Context, week domain.Date) ([]domain.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE week_starting = $1 ORDER BY employee_id, id`
	return r.selectTimesheets(ctx, query, week)
}

// ListInRange returns an employee's timesheets whose week starts in [from, to]
func (r *TimesheetRepository) ListInRange(ctx context.Context, employeeID int64, from, to domain.Date) ([]domain.Timesheet, error) {
	query := `
		SELECT ` + timesheetColumns + ` FROM timesheets
		WHERE employee_id = $1 AND week_starting BETWEEN $2 AND $3
		ORDER BY week_starting, id
	`
	return r.selectTimesheets(ctx, query, employeeID, from, to)
}

func (r *TimesheetRepository) selectTimesheets(ctx context.Context, query string, args ...any) ([]domain.Timesheet, error) {
	timesheets := make([]domain.Timesheet, 0)
	if err := sqlx.SelectContext(ctx, r.db.Conn(ctx), &timesheets, query, args...); err != nil {
		return nil, err
	}
	return timesheets, nil
}

// Update rewrites the owner and week of a timesheet
func (r *TimesheetRepository) Update(ctx context.Context, ts *domain.Timesheet) error {
	query := `UPDATE timesheets SET employee_id = $2, week_starting = $3 WHERE id = $1`

	result, err := r.db.Conn(ctx).ExecContext(ctx, query, ts.ID, ts.EmployeeID, ts.WeekStarting)
	if err != nil {
		return database.Check(err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("timesheet")
	}
	return nil
}

// Delete removes a timesheet and its daily logs
func (r *TimesheetRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM timesheets WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("timesheet")
	}
	return nil
}
