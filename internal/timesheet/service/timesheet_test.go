package service_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/service"
	"github.com/tms/tms-backend/pkg/errors"
	"github.com/tms/tms-backend/pkg/messaging"
	"github.com/tms/tms-backend/pkg/metrics"
)

func TestTimesheetService_CreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.employee(t, "Alice", "a@x.com", nil)
	h.events.Reset()
	before := testutil.ToFloat64(metrics.TimesheetsCreated)

	first, created, err := h.timesheets.Create(ctx, service.EmployeeRef{ID: &alice.ID}, domain.MustDate("2024-01-01"))
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := h.timesheets.Create(ctx, service.EmployeeRef{Name: domain.Ptr("alice")}, domain.MustDate("2024-01-01"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	all, err := h.timesheets.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.TimesheetsCreated))
	assert.Equal(t, []string{messaging.EventTimesheetCreated}, h.events.Types())
}

func TestTimesheetService_CreateErrors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	week := domain.MustDate("2024-01-01")

	_, _, err := h.timesheets.Create(ctx, service.EmployeeRef{}, week)
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, _, err = h.timesheets.Create(ctx, service.EmployeeRef{ID: domain.Ptr(int64(5))}, week)
	assert.True(t, errors.IsNotFound(err))

	_, _, err = h.timesheets.Create(ctx, service.EmployeeRef{Name: domain.Ptr("ghost")}, week)
	assert.True(t, errors.IsNotFound(err))
}

func TestTimesheetService_CompositeKey(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.employee(t, "Alice", "a@x.com", nil)
	jan1 := h.timesheet(t, alice.ID, "2024-01-01")
	h.timesheet(t, alice.ID, "2024-01-08")

	got, err := h.timesheets.GetByEmployeeWeek(ctx, "ALICE", domain.MustDate("01/01/2024"))
	require.NoError(t, err)
	assert.Equal(t, jan1.ID, got.ID)

	t.Run("collision is a conflict", func(t *testing.T) {
		_, err := h.timesheets.UpdateWeek(ctx, "Alice", domain.MustDate("2024-01-01"), domain.MustDate("2024-01-08"))
		assert.ErrorIs(t, err, errors.ErrConflict)
	})

	t.Run("moves the week", func(t *testing.T) {
		moved, err := h.timesheets.UpdateWeek(ctx, "Alice", domain.MustDate("2024-01-01"), domain.MustDate("2024-01-15"))
		require.NoError(t, err)
		assert.Equal(t, jan1.ID, moved.ID)
		assert.Equal(t, "2024-01-15", moved.WeekStarting.String())
	})

	t.Run("same week is a no-op", func(t *testing.T) {
		_, err := h.timesheets.UpdateWeek(ctx, "Alice", domain.MustDate("2024-01-15"), domain.MustDate("2024-01-15"))
		require.NoError(t, err)
	})

	t.Run("unknown old week", func(t *testing.T) {
		_, err := h.timesheets.UpdateWeek(ctx, "Alice", domain.MustDate("2023-06-05"), domain.MustDate("2023-06-12"))
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("delete by composite key", func(t *testing.T) {
		require.NoError(t, h.timesheets.DeleteByEmployeeWeek(ctx, "alice", domain.MustDate("2024-01-08")))
		_, err := h.timesheets.GetByEmployeeWeek(ctx, "alice", domain.MustDate("2024-01-08"))
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestTimesheetService_Update(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.employee(t, "Alice", "a@x.com", nil)
	bob := h.employee(t, "Bob", "b@x.com", nil)
	ts := h.timesheet(t, alice.ID, "2024-01-01")
	h.timesheet(t, bob.ID, "2024-01-01")

	_, err := h.timesheets.Update(ctx, ts.ID, service.UpdateTimesheetInput{EmployeeID: &bob.ID})
	assert.ErrorIs(t, err, errors.ErrConflict)

	_, err = h.timesheets.Update(ctx, ts.ID, service.UpdateTimesheetInput{EmployeeID: domain.Ptr(int64(99))})
	assert.True(t, errors.IsNotFound(err))

	got, err := h.timesheets.Update(ctx, ts.ID, service.UpdateTimesheetInput{
		EmployeeID:   &bob.ID,
		WeekStarting: domain.Ptr(domain.MustDate("2024-01-08")),
	})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.EmployeeID)

	byWeek, err := h.timesheets.ListByWeek(ctx, domain.MustDate("2024-01-08"))
	require.NoError(t, err)
	require.Len(t, byWeek, 1)

	mine, err := h.timesheets.ListByEmployee(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2024-01-08", mine[0].WeekStarting.String())

	_, err = h.timesheets.ListByEmployee(ctx, 404)
	assert.True(t, errors.IsNotFound(err))
}

func TestTimesheetService_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.employee(t, "Alice", "a@x.com", nil)
	ts := h.timesheet(t, alice.ID, "2024-01-01")

	l, err := h.logs.Create(ctx, service.CreateDailyLogInput{TimesheetID: ts.ID, LogDate: domain.MustDate("2024-01-02")})
	require.NoError(t, err)

	require.NoError(t, h.timesheets.Delete(ctx, ts.ID))

	_, err = h.logs.Get(ctx, l.ID)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(h.timesheets.Delete(ctx, ts.ID)))
}
