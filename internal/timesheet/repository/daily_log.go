package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/pkg/database"
	"github.com/tms/tms-backend/pkg/errors"
)

const dailyLogColumns = `id, timesheet_id, log_date, day_of_week,
	morning_in, morning_out, afternoon_in, afternoon_out,
	total_hours, description, created_at, updated_at`

// DailyLogRepository handles daily log data access
type DailyLogRepository struct {
	db *database.DB
}

// NewDailyLogRepository creates a new daily log repository
func NewDailyLogRepository(db *database.DB) *DailyLogRepository {
	return &DailyLogRepository{db: db}
}

// Create inserts l. Derived fields must already be computed.
func (r *DailyLogRepository) Create(ctx context.Context, l *domain.DailyLog) error {
	query := `
		INSERT INTO daily_logs (
			timesheet_id, log_date, day_of_week,
			morning_in, morning_out, afternoon_in, afternoon_out,
			total_hours, description
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		l.TimesheetID, l.LogDate, l.DayOfWeek,
		l.MorningIn, l.MorningOut, l.AfternoonIn, l.AfternoonOut,
		l.TotalHours, l.Description,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	return database.Check(err)
}

// GetByID gets a daily log by ID
func (r *DailyLogRepository) GetByID(ctx context.Context, id int64) (*domain.DailyLog, error) {
	var l domain.DailyLog
	query := `SELECT ` + dailyLogColumns + ` FROM daily_logs WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db.Conn(ctx), &l, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("daily log")
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetByDate gets the log of a timesheet for one day
func (r *DailyLogRepository) GetByDate(ctx context.Context, timesheetID int64, date domain.Date) (*domain.DailyLog, error) {
	var l domain.DailyLog
	query := `SELECT ` + dailyLogColumns + ` FROM daily_logs WHERE timesheet_id = $1 AND log_date = $2`

	err := sqlx.GetContext(ctx, r.db.Conn(ctx), &l, query, timesheetID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("daily log")
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns all daily logs
func (r *DailyLogRepository) List(ctx context.Context) ([]domain.DailyLog, error) {
	query := `SELECT ` + dailyLogColumns + ` FROM daily_logs ORDER BY log_date, id`
	return r.selectLogs(ctx, query)
}

// ListByTimesheet returns a timesheet's logs in date order
func (r *DailyLogRepository) ListByTimesheet(ctx context.Context, timesheetID int64) ([]domain.DailyLog, error) {
	query := `SELECT ` + dailyLogColumns + ` FROM daily_logs WHERE timesheet_id = $1 ORDER BY log_date, id`
	return r.selectLogs(ctx, query, timesheetID)
}

// ListByTimesheets returns the logs of every listed timesheet in date order
func (r *DailyLogRepository) ListByTimesheets(ctx context.Context, timesheetIDs []int64) ([]domain.DailyLog, error) {
	if len(timesheetIDs) == 0 {
		return make([]domain.DailyLog, 0), nil
	}
	query := `SELECT ` + dailyLogColumns + ` FROM daily_logs WHERE timesheet_id = ANY($1) ORDER BY log_date, id`
	return r.selectLogs(ctx, query, pq.Array(timesheetIDs))
}

func (r *DailyLogRepository) selectLogs(ctx context.Context, query string, args ...any) ([]domain.DailyLog, error) {
	logs := make([]domain.DailyLog, 0)
	if err := sqlx.SelectContext(ctx, r.db.Conn(ctx), &logs, query, args...); err != nil {
		return nil, err
	}
	return logs, nil
}

// Update writes every field of l
func (r *DailyLogRepository) Update(ctx context.Context, l *domain.DailyLog) error {
	query := `
		UPDATE daily_logs SET
			timesheet_id = $2, log_date = $3, day_of_week = $4,
			morning_in = $5, morning_out = $6, afternoon_in = $7, afternoon_out = $8,
			total_hours = $9, description = $10, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		l.ID, l.TimesheetID, l.LogDate, l.DayOfWeek,
		l.MorningIn, l.MorningOut, l.AfternoonIn, l.AfternoonOut,
		l.TotalHours, l.Description,
	).Scan(&l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.NotFound("daily log")
	}
	return database.Check(err)
}

// Delete removes a daily log and its audit entries
func (r *DailyLogRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM daily_logs WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("daily log")
	}
	return nil
}
