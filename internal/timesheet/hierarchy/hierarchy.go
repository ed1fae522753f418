// Package hierarchy walks the employee/manager graph. Stored data may contain
// manager cycles, so every traversal tracks visited ids and stops on a repeat.
package hierarchy

import (
	"context"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/pkg/errors"
	"github.com/tms/tms-backend/pkg/logger"
	"github.com/tms/tms-backend/pkg/metrics"
)

// Store is the read access the engine needs.
type Store interface {
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	ListByManager(ctx context.Context, managerID int64) ([]domain.Employee, error)
}

// Engine answers hierarchy questions against a Store.
type Engine struct {
	store  Store
	logger *logger.Logger
}

// New creates an Engine
func New(store Store, log *logger.Logger) *Engine {
	return &Engine{store: store, logger: log.WithComponent("hierarchy")}
}

// ManagerChain returns emp's managers from the direct manager upward. The walk
// ends at a missing manager reference, a reference that does not resolve, or
// the first repeated id.
func (e *Engine) ManagerChain(ctx context.Context, emp *domain.Employee) ([]domain.Employee, error) {
	chain := make([]domain.Employee, 0)
	visited := map[int64]bool{emp.ID: true}

	for next := emp.ManagerID; next != nil; {
		if visited[*next] {
			e.cycleDetected("manager_chain", emp.ID, *next)
			break
		}
		visited[*next] = true

		mgr, err := e.store.GetByID(ctx, *next)
		if errors.IsNotFound(err) {
			e.logger.Warn().Int64("employee_id", emp.ID).Int64("manager_id", *next).Msg("manager reference does not resolve")
			break
		}
		if err != nil {
			return nil, err
		}

		chain = append(chain, *mgr)
		next = mgr.ManagerID
	}

	return chain, nil
}

// Subordinates returns the manager and their direct reports.
func (e *Engine) Subordinates(ctx context.Context, managerID int64) (*domain.Employee, []domain.Employee, error) {
	mgr, err := e.store.GetByID(ctx, managerID)
	if errors.IsNotFound(err) {
		return nil, nil, errors.NotFound("manager")
	}
	if err != nil {
		return nil, nil, err
	}

	subs, err := e.store.ListByManager(ctx, managerID)
	if err != nil {
		return nil, nil, err
	}
	return mgr, subs, nil
}

// BuildTree returns the org tree rooted at rootID.
func (e *Engine) BuildTree(ctx context.Context, rootID int64) (*domain.TreeNode, error) {
	root, err := e.store.GetByID(ctx, rootID)
	if err != nil {
		return nil, err
	}

	visited := map[int64]bool{root.ID: true}
	return e.buildNode(ctx, *root, visited)
}

func (e *Engine) buildNode(ctx context.Context, emp domain.Employee, visited map[int64]bool) (*domain.TreeNode, error) {
	node := &domain.TreeNode{Employee: emp, Subordinates: make([]*domain.TreeNode, 0)}

	children, err := e.store.ListByManager(ctx, emp.ID)
	if err != nil {
		return nil, err
	}

	for _, child := range children {
		if visited[child.ID] {
			e.cycleDetected("build_tree", emp.ID, child.ID)
			continue
		}
		visited[child.ID] = true

		sub, err := e.buildNode(ctx, child, visited)
		if err != nil {
			return nil, err
		}
		node.Subordinates = append(node.Subordinates, sub)
	}

	return node, nil
}

// WouldCreateCycle reports whether making managerID the manager of
// employeeID would close a loop, including the self-managed case.
func (e *Engine) WouldCreateCycle(ctx context.Context, employeeID, managerID int64) (bool, error) {
	visited := make(map[int64]bool)

	for next := &managerID; next != nil; {
		if *next == employeeID {
			return true, nil
		}
		if visited[*next] {
			// An existing loop above the new manager that does not pass through employeeID.
			e.cycleDetected("cycle_check", employeeID, *next)
			return false, nil
		}
		visited[*next] = true

		mgr, err := e.store.GetByID(ctx, *next)
		if errors.IsNotFound(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		next = mgr.ManagerID
	}

	return false, nil
}

func (e *Engine) cycleDetected(operation string, employeeID, repeatedID int64) {
	metrics.HierarchyCycles.WithLabelValues(operation).Inc()
	e.logger.Warn().
		Str("operation", operation).
		Int64("employee_id", employeeID).
		Int64("repeated_id", repeatedID).
		Msg("manager cycle detected")
}
