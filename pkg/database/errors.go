package database

import (
	stderrors "errors"
	"strings"

	"github.com/lib/pq"
	"github.com/tms/tms-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.NotFound(referencedResource(pqErr))

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// Check maps err through MapPQError and returns err unchanged when it is not
// a recognised constraint violation.
func Check(err error) error {
	if err == nil {
		return nil
	}
	if appErr := MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	switch {
	case strings.Contains(pqErr.Constraint, "not_self_managed"):
		return errors.Conflict("an employee cannot be their own manager")
	default:
		return errors.BadRequest("data validation failed: " + pqErr.Constraint)
	}
}

func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "email"):
		return "an employee with this email already exists"
	case strings.Contains(constraint, "employee_week"):
		return "a timesheet for this employee and week already exists"
	case strings.Contains(constraint, "timesheet_date"):
		return "a daily log for this date already exists on the timesheet"
	default:
		return "a record with these values already exists"
	}
}

func referencedResource(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "manager"):
		return "manager"
	case strings.Contains(constraint, "employee"):
		return "employee"
	case strings.Contains(constraint, "timesheet"):
		return "timesheet"
	case strings.Contains(constraint, "daily_log"):
		return "daily log"
	default:
		return "referenced record"
	}
}
