// Package seed loads employees, timesheets and daily logs from a YAML file.
// Applying a file twice leaves the store unchanged the second time.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/service"
	"github.com/tms/tms-backend/pkg/errors"
	"github.com/tms/tms-backend/pkg/logger"
	"gopkg.in/yaml.v3"
)

// File is the seed document.
type File struct {
	Employees  []Employee  `yaml:"employees"`
	Timesheets []Timesheet `yaml:"timesheets"`
}

// Employee is a seeded employee. ManagerEmail may name an employee defined
// later in the file.
type Employee struct {
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	ManagerEmail string `yaml:"manager_email"`
}

// Timesheet is one seeded week for an employee.
type Timesheet struct {
	EmployeeEmail string      `yaml:"employee_email"`
	WeekStarting  domain.Date `yaml:"week_starting"`
	DailyLogs     []DailyLog  `yaml:"daily_logs"`
}

// DailyLog is one seeded day.
type DailyLog struct {
	LogDate      domain.Date       `yaml:"log_date"`
	MorningIn    *domain.ClockTime `yaml:"morning_in"`
	MorningOut   *domain.ClockTime `yaml:"morning_out"`
	AfternoonIn  *domain.ClockTime `yaml:"afternoon_in"`
	AfternoonOut *domain.ClockTime `yaml:"afternoon_out"`
	Description  string            `yaml:"description"`
}

// Summary counts what Apply wrote.
type Summary struct {
	EmployeesCreated int
	ManagersSet      int
	Timesheets       int
	DailyLogs        int
}

// Load decodes a seed document.
func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	return &f, nil
}

// LoadFile decodes the seed document at path.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

// Seeder applies seed documents through the services.
type Seeder struct {
	tx        service.Transactor
	employees *service.EmployeeService
	logs      *service.DailyLogService
	logger    *logger.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(
	tx service.Transactor,
	employees *service.EmployeeService,
	logs *service.DailyLogService,
	log *logger.Logger,
) *Seeder {
	return &Seeder{
		tx:        tx,
		employees: employees,
		logs:      logs,
		logger:    log.WithComponent("seed"),
	}
}

// Apply writes f in one transaction. Employees that already exist (by email)
// are reused, timesheets are found or created, and each day is saved as an
// update when a log for that date exists.
func (s *Seeder) Apply(ctx context.Context, f *File) (Summary, error) {
	var sum Summary

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ids := make(map[string]int64, len(f.Employees))

		for _, e := range f.Employees {
			emp, err := s.employees.GetByEmail(ctx, e.Email)
			if errors.IsNotFound(err) {
				emp, err = s.employees.Create(ctx, service.CreateEmployeeInput{EmployeeName: e.Name, Email: e.Email})
				if err == nil {
					sum.EmployeesCreated++
				}
			}
			if err != nil {
				return fmt.Errorf("employee %s: %w", e.Email, err)
			}
			ids[strings.ToLower(emp.Email)] = emp.ID
		}

		for _, e := range f.Employees {
			if e.ManagerEmail == "" {
				continue
			}
			managerID, err := s.lookup(ctx, ids, e.ManagerEmail)
			if err != nil {
				return fmt.Errorf("manager of %s: %w", e.Email, err)
			}

			id := ids[strings.ToLower(strings.TrimSpace(e.Email))]
			current, err := s.employees.Get(ctx, id)
			if err != nil {
				return err
			}
			if current.ManagerID != nil && *current.ManagerID == managerID {
				continue
			}
			if _, err := s.employees.Update(ctx, id, service.UpdateEmployeeInput{SetManager: true, ManagerID: &managerID}); err != nil {
				return fmt.Errorf("manager of %s: %w", e.Email, err)
			}
			sum.ManagersSet++
		}

		for _, ts := range f.Timesheets {
			employeeID, err := s.lookup(ctx, ids, ts.EmployeeEmail)
			if err != nil {
				return fmt.Errorf("timesheet %s %s: %w", ts.EmployeeEmail, ts.WeekStarting, err)
			}

			rows := make([]service.BulkRow, len(ts.DailyLogs))
			for i, l := range ts.DailyLogs {
				rows[i] = service.BulkRow{
					Ref:     service.NewLog(),
					LogDate: l.LogDate,
					Punches: service.Punches{
						MorningIn:    l.MorningIn,
						MorningOut:   l.MorningOut,
						AfternoonIn:  l.AfternoonIn,
						AfternoonOut: l.AfternoonOut,
					},
					Description: l.Description,
				}
			}

			res, err := s.logs.BulkSave(ctx, service.BulkSaveInput{
				EmployeeID:   employeeID,
				WeekStarting: ts.WeekStarting,
				Rows:         rows,
			})
			if err != nil {
				return fmt.Errorf("timesheet %s %s: %w", ts.EmployeeEmail, ts.WeekStarting, err)
			}
			if res.TimesheetCreated {
				sum.Timesheets++
			}
			sum.DailyLogs += len(res.DailyLogs)
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	s.logger.Info().
		Int("employees_created", sum.EmployeesCreated).
		Int("managers_set", sum.ManagersSet).
		Int("timesheets_created", sum.Timesheets).
		Int("daily_logs", sum.DailyLogs).
		Msg("seed applied")

	return sum, nil
}

// lookup resolves an email from the file first, then from the store.
func (s *Seeder) lookup(ctx context.Context, ids map[string]int64, email string) (int64, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if id, ok := ids[key]; ok {
		return id, nil
	}
	emp, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	ids[key] = emp.ID
	return emp.ID, nil
}
