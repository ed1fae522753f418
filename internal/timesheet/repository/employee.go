// Package repository persists timesheet entities in PostgreSQL. Every method
// runs on the transaction carried by ctx when there is one.
package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/pkg/database"
	"github.com/tms/tms-backend/pkg/errors"
)

const employeeColumns = `id, employee_name, email, manager_id, created_at, updated_at`

// EmployeeRepository handles employee data access
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create inserts emp and fills in its id and timestamps
func (r *EmployeeRepository) Create(ctx context.Context, emp *domain.Employee) error {
	query := `
		INSERT INTO employees (employee_name, email, manager_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query, emp.EmployeeName, emp.Email, emp.ManagerID).
		Scan(&emp.ID, &emp.CreatedAt, &emp.UpdatedAt)
	return database.Check(err)
}

// GetByID gets an employee by ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	var emp domain.Employee
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db.Conn(ctx), &emp, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// GetByEmail gets an employee by email, ignoring case
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	var emp domain.Employee
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE lower(email) = lower($1)`

	err := sqlx.GetContext(ctx, r.db.Conn(ctx), &emp, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// FindByName returns every employee whose name matches, ignoring case, oldest first.
func (r *EmployeeRepository) FindByName(ctx context.Context, name string) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE lower(employee_name) = lower($1) ORDER BY id`
	return r.selectEmployees(ctx, query, name)
}

// List returns all employees
func (r *EmployeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY id`
	return r.selectEmployees(ctx, query)
}

// ListByManager returns the direct reports of managerID
func (r *EmployeeRepository) ListByManager(ctx context.Context, managerID int64) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE manager_id = $1 ORDER BY id`
	return r.selectEmployees(ctx, query, managerID)
}

// ListWithoutManager returns the employees at the top of the hierarchy
func (r *EmployeeRepository) ListWithoutManager(ctx context.Context) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE manager_id IS NULL ORDER BY id`
	return r.selectEmployees(ctx, query)
}

func (r *EmployeeRepository) selectEmployees(ctx context.Context, query string, args ...any) ([]domain.Employee, error) {
	employees := make([]domain.Employee, 0)
	if err := sqlx.SelectContext(ctx, r.db.Conn(ctx), &employees, query, args...); err != nil {
		return nil, err
	}
	return employees, nil
}

// Update writes every mutable field of emp
func (r *EmployeeRepository) Update(ctx context.Context, emp *domain.Employee) error {
	query := `
		UPDATE employees SET
			employee_name = $2, email = $3, manager_id = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query, emp.ID, emp.EmployeeName, emp.Email, emp.ManagerID).
		Scan(&emp.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.NotFound("employee")
	}
	return database.Check(err)
}

// ClearManager detaches every direct report of managerID and returns their ids
func (r *EmployeeRepository) ClearManager(ctx context.Context, managerID int64) ([]int64, error) {
	query := `UPDATE employees SET manager_id = NULL, updated_at = now() WHERE manager_id = $1 RETURNING id`

	ids := make([]int64, 0)
	if err := sqlx.SelectContext(ctx, r.db.Conn(ctx), &ids, query, managerID); err != nil {
		return nil, err
	}
	return ids, nil
}

// Delete removes an employee. Their timesheets go with them.
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("employee")
	}
	return nil
}
