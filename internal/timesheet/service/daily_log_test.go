package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/service"
	"github.com/tms/tms-backend/pkg/errors"
	"github.com/tms/tms-backend/pkg/messaging"
)

func TestDailyLogService_CreateComputesTotals(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.employee(t, "Alice", "a@x.com", nil)
	ts := h.timesheet(t, alice.ID, "2024-01-01")
	h.events.Reset()

	l, err := h.logs.Create(ctx, service.CreateDailyLogInput{
		TimesheetID: ts.ID,
		LogDate:     domain.MustDate("2024-01-02"),
		Punches: service.Punches{
			MorningIn:    clock(t, "09:00"),
			MorningOut:   clock(t, "12:00"),
			AfternoonIn:  clock(t, "13:00"),
			AfternoonOut: clock(t, "17:00"),
		},
		Description: "  standup  ",
	})

	require.NoError(t, err)
	require.NotNil(t, l.TotalHours)
	assert.Equal(t, "7:00", *l.TotalHours)
	assert.Equal(t, "Tuesday", l.DayOfWeek)
	assert.Equal(t, "standup", l.Description)
	assert.Equal(t, []string{messaging.EventDailyLogSaved}, h.events.Types())
}

func TestDailyLogService_CreateErrors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.employee(t, "Alice", "a@x.com", nil)
	ts := h.timesheet(t, alice.ID, "2024-01-01")

	_, err := h.logs.Create(ctx, service.CreateDailyLogInput{TimesheetID: 999, LogDate: domain.MustDate("2024-01-02")})
	assert.True(t, errors.IsNotFound(err))

	_, err = h.logs.Create(ctx, service.CreateDailyLogInput{
		TimesheetID: ts.ID,
		LogDate:     domain.MustDate("2024-01-02"),
		Punches:     service.Punches{MorningIn: clock(t, "12:00"), MorningOut: clock(t, "09:00")},
	})
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = h.logs.Create(ctx, service.CreateDailyLogInput{TimesheetID: ts.ID, LogDate: domain.MustDate("2024-01-02")})
	require.NoError(t, err)
	_, err = h.logs.Create(ctx, service.CreateDailyLogInput{TimesheetID: ts.ID, LogDate: domain.MustDate("2024-01-02")})
	assert.ErrorIs(t, err, errors.ErrConflict)
}

func TestDailyLogService_UpdateRecomputes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.employee(t, "Alice", "a@x.com", nil)
	ts := h.timesheet(t, alice.ID, "2024-01-01")
	l, err := h.logs.Create(ctx, service.CreateDailyLogInput{
		TimesheetID: ts.ID,
		LogDate:     domain.MustDate("2024-01-02"),
		Punches:     service.Punches{MorningIn: clock(t, "09:00"), MorningOut: clock(t, "12:00")},
	})
	require.NoError(t, err)
	assert.Equal(t, "3:00", *l.TotalHours)

	t.Run("date change rederives weekday", func(t *testing.T) {
		got, err := h.logs.Update(ctx, l.ID, service.UpdateDailyLogInput{LogDate: domain.Ptr(domain.MustDate("2024-01-05"))})
		require.NoError(t, err)
		assert.Equal(t, "Friday", got.DayOfWeek)
		assert.Equal(t, "3:00", *got.TotalHours)
	})

	t.Run("adding a pair adds time", func(t *testing.T) {
		got, err := h.logs.Update(ctx, l.ID, service.UpdateDailyLogInput{
			AfternoonIn:  service.ClockPatch{Set: true, Value: clock(t, "13:30")},
			AfternoonOut: service.ClockPatch{Set: true, Value: clock(t, "17:00")},
		})
		require.NoError(t, err)
		assert.Equal(t, "6:30", *got.TotalHours)
	})

	t.Run("clearing every pair leaves no total", func(t *testing.T) {
		got, err := h.logs.Update(ctx, l.ID, service.UpdateDailyLogInput{
			MorningIn:   service.ClockPatch{Set: true},
			AfternoonIn: service.ClockPatch{Set: true},
		})
		require.NoError(t, err)
		assert.Nil(t, got.TotalHours)
		assert.Equal(t, "12:00:00", got.MorningOut.String())
	})

	t.Run("invalid pair rolls back", func(t *testing.T) {
		_, err := h.logs.Update(ctx, l.ID, service.UpdateDailyLogInput{
			MorningIn: service.ClockPatch{Set: true, Value: clock(t, "13:00")},
		})
		assert.ErrorIs(t, err, errors.ErrValidation)

		got, err := h.logs.Get(ctx, l.ID)
		require.NoError(t, err)
		assert.Nil(t, got.MorningIn)
	})
}

func TestDailyLogService_UpdateDescriptionAudits(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.employee(t, "Alice", "a@x.com", nil)
	ts := h.timesheet(t, alice.ID, "2024-01-01")
	l, err := h.logs.Create(ctx, service.CreateDailyLogInput{TimesheetID: ts.ID, LogDate: domain.MustDate("2024-01-02"), Description: "draft"})
	require.NoError(t, err)
	h.events.Reset()

	_, err = h.logs.Update(ctx, l.ID, service.UpdateDailyLogInput{Description: domain.Ptr("final")})
	require.NoError(t, err)
	_, err = h.logs.Update(ctx, l.ID, service.UpdateDailyLogInput{Description: domain.Ptr(" final ")})
	require.NoError(t, err)

	changes, err := h.changes.ListForLog(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "final", changes[0].NewDescription)
	assert.Equal(t, []string{
		messaging.EventDailyLogSaved,
		messaging.EventDailyLogDescriptionChanged,
		messaging.EventDailyLogSaved,
	}, h.events.Types())
}

func TestLogRef_JSON(t *testing.T) {
	var ref service.LogRef
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"existing","id":12}`), &ref))
	assert.Equal(t, service.ExistingLog(12), ref)

	require.NoError(t, json.Unmarshal([]byte(`{"kind":"new"}`), &ref))
	assert.Equal(t, service.NewLog(), ref)

	out, err := json.Marshal(service.ExistingLog(3))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"existing","id":3}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"temp-1"}`), &ref))
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"existing"}`), &ref))
}

func TestDailyLogService_BulkSave(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.employee(t, "Alice", "a@x.com", nil)
	week := domain.MustDate("2024-01-01")

	res, err := h.logs.BulkSave(ctx, service.BulkSaveInput{
		EmployeeID:   alice.ID,
		WeekStarting: week,
		Rows: []service.BulkRow{
			{Ref: service.NewLog(), LogDate: domain.MustDate("2024-01-01"), Punches: service.Punches{MorningIn: clock(t, "08:00"), MorningOut: clock(t, "12:00")}},
			{Ref: service.NewLog(), LogDate: domain.MustDate("2024-01-02"), Description: "review"},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.TimesheetCreated)
	require.Len(t, res.DailyLogs, 2)
	assert.Equal(t, "4:00", *res.DailyLogs[0].TotalHours)
	monday := res.DailyLogs[0]

	t.Run("existing and repeated new rows update in place", func(t *testing.T) {
		res, err := h.logs.BulkSave(ctx, service.BulkSaveInput{
			EmployeeID:   alice.ID,
			WeekStarting: week,
			Rows: []service.BulkRow{
				{Ref: service.ExistingLog(monday.ID), LogDate: monday.LogDate, Description: "planning"},
				{Ref: service.NewLog(), LogDate: domain.MustDate("2024-01-02"), Description: "review"},
			},
		})
		require.NoError(t, err)
		assert.False(t, res.TimesheetCreated)
		assert.Equal(t, monday.ID, res.DailyLogs[0].ID)
		assert.Nil(t, res.DailyLogs[0].TotalHours)

		all, err := h.logs.ListByTimesheet(ctx, res.Timesheet.ID)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		changes, err := h.changes.ListForLog(ctx, monday.ID)
		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Equal(t, "planning", changes[0].NewDescription)
	})

	t.Run("date outside the week rolls back the batch", func(t *testing.T) {
		_, err := h.logs.BulkSave(ctx, service.BulkSaveInput{
			EmployeeID:   alice.ID,
			WeekStarting: week,
			Rows: []service.BulkRow{
				{Ref: service.NewLog(), LogDate: domain.MustDate("2024-01-03")},
				{Ref: service.NewLog(), LogDate: domain.MustDate("2024-01-08")},
			},
		})
		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Contains(t, appErr.Details, "rows[1].log_date")

		_, err = h.logs.GetByDate(ctx, res.Timesheet.ID, domain.MustDate("2024-01-03"))
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("existing row from another timesheet", func(t *testing.T) {
		other := h.timesheet(t, alice.ID, "2024-01-08")
		foreign, err := h.logs.Create(ctx, service.CreateDailyLogInput{TimesheetID: other.ID, LogDate: domain.MustDate("2024-01-09")})
		require.NoError(t, err)

		_, err = h.logs.BulkSave(ctx, service.BulkSaveInput{
			EmployeeID:   alice.ID,
			WeekStarting: week,
			Rows:         []service.BulkRow{{Ref: service.ExistingLog(foreign.ID), LogDate: domain.MustDate("2024-01-03")}},
		})
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("new timesheet is rolled back with its rows", func(t *testing.T) {
		_, err := h.logs.BulkSave(ctx, service.BulkSaveInput{
			EmployeeID:   alice.ID,
			WeekStarting: domain.MustDate("2024-02-05"),
			Rows: []service.BulkRow{
				{Ref: service.NewLog(), LogDate: domain.MustDate("2024-02-05"), Punches: service.Punches{MorningIn: clock(t, "10:00"), MorningOut: clock(t, "09:00")}},
			},
		})
		assert.ErrorIs(t, err, errors.ErrValidation)

		_, err = h.timesheets.GetByEmployeeWeek(ctx, "Alice", domain.MustDate("2024-02-05"))
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("unknown employee", func(t *testing.T) {
		_, err := h.logs.BulkSave(ctx, service.BulkSaveInput{EmployeeID: 777, WeekStarting: week})
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestDailyLogService_DescriptionIsCapped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.employee(t, "Alice", "a@x.com", nil)
	ts := h.timesheet(t, alice.ID, "2024-01-01")

	l, err := h.logs.Create(ctx, service.CreateDailyLogInput{
		TimesheetID: ts.ID,
		LogDate:     domain.MustDate("2024-01-03"),
		Description: strings.Repeat("é", domain.MaxDescriptionLength+10),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.MaxDescriptionLength, len([]rune(l.Description)))
}
