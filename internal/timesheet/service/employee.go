package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/events"
	"github.com/tms/tms-backend/internal/timesheet/hierarchy"
	"github.com/tms/tms-backend/pkg/errors"
	"github.com/tms/tms-backend/pkg/logger"
)

// CreateEmployeeInput describes a new employee. The manager is given by id or
// by name; ManagerID wins when both are set.
type CreateEmployeeInput struct {
	EmployeeName string
	Email        string
	ManagerID    *int64
	ManagerName  *string
}

// UpdateEmployeeInput is a partial update. Nil fields are left unchanged.
// When SetManager is true the manager is replaced: by ManagerID when it is
// nonzero, else by ManagerName. With neither set the manager is cleared.
type UpdateEmployeeInput struct {
	EmployeeName *string
	Email        *string
	SetManager   bool
	ManagerID    *int64
	ManagerName  *string
}

// EmployeeService handles employee and hierarchy business logic
type EmployeeService struct {
	tx        Transactor
	employees EmployeeStore
	hierarchy *hierarchy.Engine
	publisher *events.Publisher
	logger    *logger.Logger
}

// NewEmployeeService creates a new employee service
func NewEmployeeService(
	tx Transactor,
	employees EmployeeStore,
	publisher *events.Publisher,
	log *logger.Logger,
) *EmployeeService {
	return &EmployeeService{
		tx:        tx,
		employees: employees,
		hierarchy: hierarchy.New(employees, log),
		publisher: publisher,
		logger:    log.WithComponent("employee_service"),
	}
}

// Create creates a new employee
func (s *EmployeeService) Create(ctx context.Context, in CreateEmployeeInput) (*domain.Employee, error) {
	name, err := domain.NormalizeName("employee_name", in.EmployeeName)
	if err != nil {
		return nil, err
	}
	email, err := domain.NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	emp := &domain.Employee{EmployeeName: name, Email: email}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		managerID, err := s.resolveManager(ctx, in.ManagerID, in.ManagerName)
		if err != nil {
			return err
		}
		emp.ManagerID = managerID
		return s.employees.Create(ctx, emp)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("employee_id", emp.ID).Str("email", emp.Email).Msg("employee created")
	s.publisher.EmployeeCreated(ctx, emp)

	return emp, nil
}

// Get gets an employee by ID
func (s *EmployeeService) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	return s.employees.GetByID(ctx, id)
}

// List lists all employees
func (s *EmployeeService) List(ctx context.Context) ([]domain.Employee, error) {
	return s.employees.List(ctx)
}

// GetByEmail looks an employee up by email, ignoring case
func (s *EmployeeService) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	return employeeByEmail(ctx, s.employees, email)
}

// FindByName returns the first employee with the given name, ignoring case
func (s *EmployeeService) FindByName(ctx context.Context, name string) (*domain.Employee, error) {
	return employeeByName(ctx, s.employees, name)
}

// Update applies a partial update
func (s *EmployeeService) Update(ctx context.Context, id int64, in UpdateEmployeeInput) (*domain.Employee, error) {
	var emp *domain.Employee
	fields := make(map[string]any)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		emp, err = s.employees.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if in.EmployeeName != nil {
			name, err := domain.NormalizeName("employee_name", *in.EmployeeName)
			if err != nil {
				return err
			}
			if name != emp.EmployeeName {
				emp.EmployeeName = name
				fields["employee_name"] = name
			}
		}

		if in.Email != nil {
			email, err := domain.NormalizeEmail(*in.Email)
			if err != nil {
				return err
			}
			if email != emp.Email {
				emp.Email = email
				fields["email"] = email
			}
		}

		if in.SetManager {
			managerID, err := s.resolveManager(ctx, in.ManagerID, in.ManagerName)
			if err != nil {
				return err
			}
			if err := s.checkManager(ctx, emp.ID, managerID); err != nil {
				return err
			}
			if !sameManager(emp.ManagerID, managerID) {
				emp.ManagerID = managerID
				fields["manager_id"] = managerID
			}
		}

		return s.employees.Update(ctx, emp)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.EmployeeUpdated(ctx, emp, fields)

	return emp, nil
}

// Delete removes an employee after detaching their direct reports
func (s *EmployeeService) Delete(ctx context.Context, id int64) error {
	var emp *domain.Employee
	var reassigned []int64

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		emp, err = s.employees.GetByID(ctx, id)
		if err != nil {
			return err
		}

		reassigned, err = s.employees.ClearManager(ctx, id)
		if err != nil {
			return err
		}
		return s.employees.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Int64("employee_id", emp.ID).
		Int("reassigned", len(reassigned)).
		Msg("employee deleted")
	s.publisher.EmployeeDeleted(ctx, emp, reassigned)

	return nil
}

// Subordinates returns a manager and their direct reports
func (s *EmployeeService) Subordinates(ctx context.Context, managerID int64) (*domain.Employee, []domain.Employee, error) {
	return s.hierarchy.Subordinates(ctx, managerID)
}

// WithoutManager lists the employees at the top of the hierarchy
func (s *EmployeeService) WithoutManager(ctx context.Context) ([]domain.Employee, error) {
	return s.employees.ListWithoutManager(ctx)
}

// ManagerChain returns an employee's managers from the direct manager upward
func (s *EmployeeService) ManagerChain(ctx context.Context, id int64) ([]domain.Employee, error) {
	var chain []domain.Employee
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employees.GetByID(ctx, id)
		if err != nil {
			return err
		}
		chain, err = s.hierarchy.ManagerChain(ctx, emp)
		return err
	})
	if err != nil {
		return nil, err
	}
	return chain, nil
}

// ProfileWithHierarchy returns the employee with the given email and their manager chain
func (s *EmployeeService) ProfileWithHierarchy(ctx context.Context, email string) (*domain.Employee, []domain.Employee, error) {
	var (
		emp   *domain.Employee
		chain []domain.Employee
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		emp, err = s.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		chain, err = s.hierarchy.ManagerChain(ctx, emp)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return emp, chain, nil
}

// Tree returns the org tree rooted at an employee
func (s *EmployeeService) Tree(ctx context.Context, id int64) (*domain.TreeNode, error) {
	var tree *domain.TreeNode
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		tree, err = s.hierarchy.BuildTree(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// resolveManager turns a manager reference into an employee id. A name must
// match exactly one employee. A nil or zero id with no name means no manager.
func (s *EmployeeService) resolveManager(ctx context.Context, id *int64, name *string) (*int64, error) {
	if id != nil && *id != 0 {
		mgr, err := requireEmployee(ctx, s.employees, *id, "manager")
		if err != nil {
			return nil, err
		}
		return &mgr.ID, nil
	}

	if name == nil || strings.TrimSpace(*name) == "" {
		return nil, nil
	}

	matches, err := s.employees.FindByName(ctx, strings.TrimSpace(*name))
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, errors.NotFound("manager")
	case 1:
		return &matches[0].ID, nil
	default:
		return nil, errors.Conflict(fmt.Sprintf("manager name %q matches %d employees", strings.TrimSpace(*name), len(matches)))
	}
}

// checkManager rejects self-management and assignments that close a loop.
func (s *EmployeeService) checkManager(ctx context.Context, employeeID int64, managerID *int64) error {
	if managerID == nil {
		return nil
	}
	if *managerID == employeeID {
		return errors.Conflict("an employee cannot be their own manager")
	}

	cycle, err := s.hierarchy.WouldCreateCycle(ctx, employeeID, *managerID)
	if err != nil {
		return err
	}
	if cycle {
		return errors.Conflict("manager assignment would create a reporting cycle")
	}
	return nil
}

func sameManager(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
