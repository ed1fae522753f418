package service

import (
	"context"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/hierarchy"
	"github.com/tms/tms-backend/pkg/logger"
)

// DashboardService assembles the per-employee weekly view
type DashboardService struct {
	tx         Transactor
	employees  EmployeeStore
	timesheets TimesheetStore
	logs       DailyLogStore
	hierarchy  *hierarchy.Engine
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	tx Transactor,
	employees EmployeeStore,
	timesheets TimesheetStore,
	logs DailyLogStore,
	log *logger.Logger,
) *DashboardService {
	return &DashboardService{
		tx:         tx,
		employees:  employees,
		timesheets: timesheets,
		logs:       logs,
		hierarchy:  hierarchy.New(employees, log),
	}
}

// Assemble returns the employee with the given email, their manager chain and,
// when week is set, the timesheets starting within [week, week+6] together
// with their daily logs. Without a week both lists are empty. All reads share
// one transaction.
func (s *DashboardService) Assemble(ctx context.Context, email string, week *domain.Date) (*domain.Dashboard, error) {
	var view *domain.Dashboard
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		view, err = s.assemble(ctx, email, week)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *DashboardService) assemble(ctx context.Context, email string, week *domain.Date) (*domain.Dashboard, error) {
	emp, err := employeeByEmail(ctx, s.employees, email)
	if err != nil {
		return nil, err
	}

	chain, err := s.hierarchy.ManagerChain(ctx, emp)
	if err != nil {
		return nil, err
	}

	view := &domain.Dashboard{
		Employee:         *emp,
		ManagerHierarchy: chain,
		Timesheets:       make([]domain.Timesheet, 0),
		DailyLogs:        make([]domain.DailyLog, 0),
	}
	if week == nil {
		return view, nil
	}

	view.Timesheets, err = s.timesheets.ListInRange(ctx, emp.ID, *week, week.AddDays(6))
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(view.Timesheets))
	for i, ts := range view.Timesheets {
		ids[i] = ts.ID
	}
	view.DailyLogs, err = s.logs.ListByTimesheets(ctx, ids)
	if err != nil {
		return nil, err
	}

	return view, nil
}
