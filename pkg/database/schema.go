package database

import (
	"context"
	"fmt"
)

// Schema creates the timesheet tables. Every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS employees (
    id            BIGSERIAL PRIMARY KEY,
    employee_name VARCHAR(100) NOT NULL,
    email         VARCHAR(255) NOT NULL,
    manager_id    BIGINT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT employees_manager_fkey FOREIGN KEY (manager_id)
        REFERENCES employees (id) ON DELETE SET NULL,
    CONSTRAINT employees_not_self_managed CHECK (manager_id IS NULL OR manager_id <> id)
);

CREATE UNIQUE INDEX IF NOT EXISTS employees_email_key ON employees (lower(email));
CREATE INDEX IF NOT EXISTS employees_manager_id_idx ON employees (manager_id);
CREATE INDEX IF NOT EXISTS employees_name_idx ON employees (lower(employee_name));

CREATE TABLE IF NOT EXISTS timesheets (
    id            BIGSERIAL PRIMARY KEY,
    employee_id   BIGINT NOT NULL,
    week_starting DATE NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT timesheets_employee_fkey FOREIGN KEY (employee_id)
        REFERENCES employees (id) ON DELETE CASCADE,
    CONSTRAINT timesheets_employee_week_key UNIQUE (employee_id, week_starting)
);

CREATE TABLE IF NOT EXISTS daily_logs (
    id            BIGSERIAL PRIMARY KEY,
    timesheet_id  BIGINT NOT NULL,
    log_date      DATE NOT NULL,
    day_of_week   VARCHAR(10) NOT NULL,
    morning_in    TIME NULL,
    morning_out   TIME NULL,
    afternoon_in  TIME NULL,
    afternoon_out TIME NULL,
    total_hours   VARCHAR(10) NULL,
    description   TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT daily_logs_timesheet_fkey FOREIGN KEY (timesheet_id)
        REFERENCES timesheets (id) ON DELETE CASCADE,
    CONSTRAINT daily_logs_timesheet_date_key UNIQUE (timesheet_id, log_date)
);

CREATE TABLE IF NOT EXISTS daily_log_changes (
    id              BIGSERIAL PRIMARY KEY,
    daily_log_id    BIGINT NOT NULL,
    new_description TEXT NOT NULL,
    changed_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT daily_log_changes_daily_log_fkey FOREIGN KEY (daily_log_id)
        REFERENCES daily_logs (id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS daily_log_changes_log_idx ON daily_log_changes (daily_log_id, changed_at);
`

// Migrate applies Schema.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	db.logger.Info().Msg("database schema applied")
	return nil
}
