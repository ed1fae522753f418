package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/pkg/database"
	"github.com/tms/tms-backend/pkg/errors"
)

const changeColumns = `id, daily_log_id, new_description, changed_at`

// ChangeRepository handles daily log audit entries
type ChangeRepository struct {
	db *database.DB
}

// NewChangeRepository creates a new change repository
func NewChangeRepository(db *database.DB) *ChangeRepository {
	return &ChangeRepository{db: db}
}

// Create appends an audit entry; changed_at is assigned by the database
func (r *ChangeRepository) Create(ctx context.Context, c *domain.DailyLogChange) error {
	query := `
		INSERT INTO daily_log_changes (daily_log_id, new_description)
		VALUES ($1, $2)
		RETURNING id, changed_at
	`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query, c.DailyLogID, c.NewDescription).
		Scan(&c.ID, &c.ChangedAt)
	return database.Check(err)
}

// GetByID gets an audit entry by ID
func (r *ChangeRepository) GetByID(ctx context.Context, id int64) (*domain.DailyLogChange, error) {
	var c domain.DailyLogChange
	query := `SELECT ` + changeColumns + ` FROM daily_log_changes WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db.Conn(ctx), &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("daily log change")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all audit entries in the order they were recorded
func (r *ChangeRepository) List(ctx context.Context) ([]domain.DailyLogChange, error) {
	query := `SELECT ` + changeColumns + ` FROM daily_log_changes ORDER BY changed_at, id`
	return r.selectChanges(ctx, query)
}

// ListByDailyLog returns a log's audit trail in the order it was recorded
func (r *ChangeRepository) ListByDailyLog(ctx context.Context, dailyLogID int64) ([]domain.DailyLogChange, error) {
	query := `SELECT ` + changeColumns + ` FROM daily_log_changes WHERE daily_log_id = $1 ORDER BY changed_at, id`
	return r.selectChanges(ctx, query, dailyLogID)
}

func (r *ChangeRepository) selectChanges(ctx context.Context, query string, args ...any) ([]domain.DailyLogChange, error) {
	changes := make([]domain.DailyLogChange, 0)
	if err := sqlx.SelectContext(ctx, r.db.Conn(ctx), &changes, query, args...); err != nil {
		return nil, err
	}
	return changes, nil
}

// Update corrects the text of an audit entry. changed_at is kept.
func (r *ChangeRepository) Update(ctx context.Context, c *domain.DailyLogChange) error {
	query := `UPDATE daily_log_changes SET new_description = $2 WHERE id = $1 RETURNING daily_log_id, changed_at`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query, c.ID, c.NewDescription).
		Scan(&c.DailyLogID, &c.ChangedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.NotFound("daily log change")
	}
	return err
}

// Delete removes an audit entry
func (r *ChangeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM daily_log_changes WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("daily log change")
	}
	return nil
}
