package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/events"
	"github.com/tms/tms-backend/pkg/errors"
	"github.com/tms/tms-backend/pkg/logger"
	"github.com/tms/tms-backend/pkg/metrics"
)

// Punches are the clock fields of a daily log, as entered.
type Punches struct {
	MorningIn    *domain.ClockTime
	MorningOut   *domain.ClockTime
	AfternoonIn  *domain.ClockTime
	AfternoonOut *domain.ClockTime
}

func (p Punches) applyTo(l *domain.DailyLog) {
	l.MorningIn = p.MorningIn
	l.MorningOut = p.MorningOut
	l.AfternoonIn = p.AfternoonIn
	l.AfternoonOut = p.AfternoonOut
}

// CreateDailyLogInput describes a new daily log.
type CreateDailyLogInput struct {
	TimesheetID int64
	LogDate     domain.Date
	Punches
	Description string
}

// ClockPatch replaces one clock field when Set is true. A nil Value clears it.
type ClockPatch struct {
	Set   bool
	Value *domain.ClockTime
}

func (p ClockPatch) apply(dst **domain.ClockTime) {
	if p.Set {
		*dst = p.Value
	}
}

// UpdateDailyLogInput is a partial update of a daily log.
type UpdateDailyLogInput struct {
	LogDate      *domain.Date
	MorningIn    ClockPatch
	MorningOut   ClockPatch
	AfternoonIn  ClockPatch
	AfternoonOut ClockPatch
	Description  *string
}

// LogRef says whether a bulk row creates a log or rewrites an existing one.
// On the wire it is {"kind":"new"} or {"kind":"existing","id":N}.
type LogRef struct {
	Existing bool
	ID       int64
}

// NewLog is the reference for a row without a stored log.
func NewLog() LogRef { return LogRef{} }

// ExistingLog is the reference for the stored log with the given id.
func ExistingLog(id int64) LogRef { return LogRef{Existing: true, ID: id} }

type logRefJSON struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id,omitempty"`
}

// MarshalJSON encodes the tagged form.
func (r LogRef) MarshalJSON() ([]byte, error) {
	if r.Existing {
		return json.Marshal(logRefJSON{Kind: "existing", ID: r.ID})
	}
	return json.Marshal(logRefJSON{Kind: "new"})
}

// UnmarshalJSON decodes the tagged form.
func (r *LogRef) UnmarshalJSON(data []byte) error {
	var raw logRefJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Invalid("ref", "must be an object with a kind")
	}
	switch raw.Kind {
	case "new":
		*r = NewLog()
	case "existing":
		if raw.ID <= 0 {
			return errors.Invalid("ref.id", "must be a positive id")
		}
		*r = ExistingLog(raw.ID)
	default:
		return errors.Invalid("ref.kind", `must be "new" or "existing"`)
	}
	return nil
}

// BulkRow is one day of a bulk save.
type BulkRow struct {
	Ref     LogRef
	LogDate domain.Date
	Punches
	Description string
}

// BulkSaveInput carries one employee's week of rows.
type BulkSaveInput struct {
	EmployeeID   int64
	WeekStarting domain.Date
	Rows         []BulkRow
}

// BulkSaveResult is the state after a bulk save.
type BulkSaveResult struct {
	Timesheet        domain.Timesheet  `json:"timesheet"`
	TimesheetCreated bool              `json:"timesheet_created"`
	DailyLogs        []domain.DailyLog `json:"daily_logs"`
}

// DailyLogService handles daily log business logic
type DailyLogService struct {
	tx         Transactor
	employees  EmployeeStore
	timesheets TimesheetStore
	logs       DailyLogStore
	changes    ChangeStore
	publisher  *events.Publisher
	logger     *logger.Logger
}

// NewDailyLogService creates a new daily log service
func NewDailyLogService(
	tx Transactor,
	employees EmployeeStore,
	timesheets TimesheetStore,
	logs DailyLogStore,
	changes ChangeStore,
	publisher *events.Publisher,
	log *logger.Logger,
) *DailyLogService {
	return &DailyLogService{
		tx:         tx,
		employees:  employees,
		timesheets: timesheets,
		logs:       logs,
		changes:    changes,
		publisher:  publisher,
		logger:     log.WithComponent("daily_log_service"),
	}
}

// Create creates a daily log and derives its weekday and total hours
func (s *DailyLogService) Create(ctx context.Context, in CreateDailyLogInput) (*domain.DailyLog, error) {
	l := &domain.DailyLog{
		TimesheetID: in.TimesheetID,
		LogDate:     in.LogDate,
		Description: domain.SanitizeDescription(in.Description),
	}
	in.Punches.applyTo(l)
	if err := l.Recompute(); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.timesheets.GetByID(ctx, in.TimesheetID); err != nil {
			return err
		}
		return s.logs.Create(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	metrics.DailyLogsSaved.WithLabelValues("create").Inc()
	s.publisher.DailyLogSaved(ctx, l, true)

	return l, nil
}

// Get gets a daily log by ID
func (s *DailyLogService) Get(ctx context.Context, id int64) (*domain.DailyLog, error) {
	return s.logs.GetByID(ctx, id)
}

// List lists all daily logs
func (s *DailyLogService) List(ctx context.Context) ([]domain.DailyLog, error) {
	return s.logs.List(ctx)
}

// ListByTimesheet lists a timesheet's logs in date order
func (s *DailyLogService) ListByTimesheet(ctx context.Context, timesheetID int64) ([]domain.DailyLog, error) {
	if _, err := s.timesheets.GetByID(ctx, timesheetID); err != nil {
		return nil, err
	}
	return s.logs.ListByTimesheet(ctx, timesheetID)
}

// GetByDate gets a timesheet's log for one date
func (s *DailyLogService) GetByDate(ctx context.Context, timesheetID int64, date domain.Date) (*domain.DailyLog, error) {
	return s.logs.GetByDate(ctx, timesheetID, date)
}

// Update applies a partial update, recomputes the derived fields and records
// an audit entry when the description changes
func (s *DailyLogService) Update(ctx context.Context, id int64, in UpdateDailyLogInput) (*domain.DailyLog, error) {
	var l *domain.DailyLog
	var change *domain.DailyLogChange

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		l, err = s.logs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		previous := l.Description

		if in.LogDate != nil {
			l.LogDate = *in.LogDate
		}
		in.MorningIn.apply(&l.MorningIn)
		in.MorningOut.apply(&l.MorningOut)
		in.AfternoonIn.apply(&l.AfternoonIn)
		in.AfternoonOut.apply(&l.AfternoonOut)
		if in.Description != nil {
			l.Description = domain.SanitizeDescription(*in.Description)
		}

		change, err = s.write(ctx, l, previous)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.DailyLogsSaved.WithLabelValues("update").Inc()
	s.publisher.DailyLogSaved(ctx, l, false)
	if change != nil {
		s.publisher.DescriptionChanged(ctx, change)
	}

	return l, nil
}

// Delete deletes a daily log and its audit entries
func (s *DailyLogService) Delete(ctx context.Context, id int64) error {
	return s.logs.Delete(ctx, id)
}

// BulkSave writes a week of rows for one employee in a single transaction.
// The timesheet for (employee, week) is created on demand. A new row whose
// date already has a log updates that log.
func (s *DailyLogService) BulkSave(ctx context.Context, in BulkSaveInput) (*BulkSaveResult, error) {
	result := &BulkSaveResult{DailyLogs: make([]domain.DailyLog, 0, len(in.Rows))}
	var saved []savedLog

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := requireEmployee(ctx, s.employees, in.EmployeeID, "employee"); err != nil {
			return err
		}

		ts, created, err := s.timesheets.FindOrCreate(ctx, in.EmployeeID, in.WeekStarting)
		if err != nil {
			return err
		}
		result.Timesheet = *ts
		result.TimesheetCreated = created

		for i, row := range in.Rows {
			if !ts.Covers(row.LogDate) {
				return errors.Invalid(
					fmt.Sprintf("rows[%d].log_date", i),
					fmt.Sprintf("must fall between %s and %s", ts.WeekStarting, ts.WeekEnd()),
				)
			}

			out, err := s.saveRow(ctx, ts, i, row)
			if err != nil {
				return err
			}
			saved = append(saved, out)
			result.DailyLogs = append(result.DailyLogs, *out.log)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.TimesheetCreated {
		metrics.TimesheetsCreated.Inc()
		s.publisher.TimesheetCreated(ctx, &result.Timesheet)
	}
	for _, out := range saved {
		metrics.DailyLogsSaved.WithLabelValues("bulk").Inc()
		s.publisher.DailyLogSaved(ctx, out.log, out.created)
		if out.change != nil {
			s.publisher.DescriptionChanged(ctx, out.change)
		}
	}

	s.logger.Info().
		Int64("employee_id", in.EmployeeID).
		Int64("timesheet_id", result.Timesheet.ID).
		Int("rows", len(saved)).
		Msg("daily logs saved")

	return result, nil
}

type savedLog struct {
	log     *domain.DailyLog
	created bool
	change  *domain.DailyLogChange
}

func (s *DailyLogService) saveRow(ctx context.Context, ts *domain.Timesheet, i int, row BulkRow) (savedLog, error) {
	var l *domain.DailyLog
	var err error

	if row.Ref.Existing {
		l, err = s.logs.GetByID(ctx, row.Ref.ID)
		if err != nil {
			return savedLog{}, err
		}
		if l.TimesheetID != ts.ID {
			return savedLog{}, errors.Invalid(fmt.Sprintf("rows[%d].ref.id", i), "daily log belongs to another timesheet")
		}
	} else {
		l, err = s.logs.GetByDate(ctx, ts.ID, row.LogDate)
		if err != nil && !errors.IsNotFound(err) {
			return savedLog{}, err
		}
	}

	if l == nil {
		l = &domain.DailyLog{
			TimesheetID: ts.ID,
			LogDate:     row.LogDate,
			Description: domain.SanitizeDescription(row.Description),
		}
		row.Punches.applyTo(l)
		if err := l.Recompute(); err != nil {
			return savedLog{}, err
		}
		if err := s.logs.Create(ctx, l); err != nil {
			return savedLog{}, err
		}
		return savedLog{log: l, created: true}, nil
	}

	previous := l.Description
	l.LogDate = row.LogDate
	row.Punches.applyTo(l)
	l.Description = domain.SanitizeDescription(row.Description)

	change, err := s.write(ctx, l, previous)
	if err != nil {
		return savedLog{}, err
	}
	return savedLog{log: l, change: change}, nil
}

// write recomputes and stores l, appending an audit entry when its description
// differs from previous and is not empty.
func (s *DailyLogService) write(ctx context.Context, l *domain.DailyLog, previous string) (*domain.DailyLogChange, error) {
	if err := l.Recompute(); err != nil {
		return nil, err
	}
	if err := s.logs.Update(ctx, l); err != nil {
		return nil, err
	}

	if l.Description == previous || l.Description == "" {
		return nil, nil
	}
	change := &domain.DailyLogChange{DailyLogID: l.ID, NewDescription: l.Description}
	if err := s.changes.Create(ctx, change); err != nil {
		return nil, err
	}
	return change, nil
}
