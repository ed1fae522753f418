package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/service"
	"github.com/tms/tms-backend/pkg/errors"
)

func TestChangeService(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.employee(t, "Alice", "a@x.com", nil)
	ts := h.timesheet(t, alice.ID, "2024-01-01")
	l, err := h.logs.Create(ctx, service.CreateDailyLogInput{TimesheetID: ts.ID, LogDate: domain.MustDate("2024-01-02")})
	require.NoError(t, err)

	first, err := h.changes.Add(ctx, l.ID, "  first  ")
	require.NoError(t, err)
	assert.Equal(t, "first", first.NewDescription)
	second, err := h.changes.Add(ctx, l.ID, "second")
	require.NoError(t, err)

	history, err := h.changes.ListForLog(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, second.ID, history[1].ID)

	t.Run("empty text", func(t *testing.T) {
		_, err := h.changes.Add(ctx, l.ID, "   ")
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("unknown log", func(t *testing.T) {
		_, err := h.changes.Add(ctx, 404, "x")
		assert.True(t, errors.IsNotFound(err))

		_, err = h.changes.ListForLog(ctx, 404)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("correction keeps timestamp", func(t *testing.T) {
		fixed, err := h.changes.Update(ctx, first.ID, "first, corrected")
		require.NoError(t, err)
		assert.Equal(t, "first, corrected", fixed.NewDescription)
		assert.Equal(t, first.ChangedAt, fixed.ChangedAt)
		assert.Equal(t, l.ID, fixed.DailyLogID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, h.changes.Delete(ctx, second.ID))
		_, err := h.changes.Get(ctx, second.ID)
		assert.True(t, errors.IsNotFound(err))

		all, err := h.changes.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("log delete cascades", func(t *testing.T) {
		require.NoError(t, h.logs.Delete(ctx, l.ID))
		all, err := h.changes.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}
