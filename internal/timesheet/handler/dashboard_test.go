package handler_test

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/report"
	"github.com/tms/tms-backend/pkg/testutil"
	"github.com/xuri/excelize/v2"
)

func dashboardFixture(t *testing.T) *api {
	t.Helper()
	a := newAPI()
	alice := a.employee(t, "Alice", "alice@x.com", nil)
	bob := a.employee(t, "Bob", "bob@x.com", &alice.ID)
	ts := a.timesheet(t, bob.ID, "2024-01-01")
	a.do(t, http.MethodPost, "/api/daily-logs/", map[string]any{
		"timesheet_id":  ts.ID,
		"log_date":      "2024-01-02",
		"morning_in":    "09:00",
		"morning_out":   "12:00",
		"afternoon_in":  "13:00",
		"afternoon_out": "17:00",
		"description":   "planning",
	}, http.StatusCreated, nil)
	return a
}

func TestDashboard(t *testing.T) {
	a := dashboardFixture(t)

	t.Run("with week", func(t *testing.T) {
		var view domain.Dashboard
		a.do(t, http.MethodGet, "/api/employees/dashboard?email=bob@x.com&week_starting=01/01/2024", nil, http.StatusOK, &view)
		assert.Equal(t, "Bob", view.Employee.EmployeeName)
		require.Len(t, view.ManagerHierarchy, 1)
		assert.Equal(t, "Alice", view.ManagerHierarchy[0].EmployeeName)
		require.Len(t, view.Timesheets, 1)
		require.Len(t, view.DailyLogs, 1)
		assert.Equal(t, "7:00", *view.DailyLogs[0].TotalHours)
	})

	t.Run("without week", func(t *testing.T) {
		rr := testutil.ExecuteRequest(a.router, testutil.NewHTTPRequest(http.MethodGet, "/api/employees/dashboard?email=bob@x.com", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Contains(t, rr.Body.String(), `"timesheets":[]`)
		assert.Contains(t, rr.Body.String(), `"daily_logs":[]`)
	})

	t.Run("errors", func(t *testing.T) {
		a.do(t, http.MethodGet, "/api/employees/dashboard", nil, http.StatusBadRequest, nil)
		a.do(t, http.MethodGet, "/api/employees/dashboard?email=ghost@x.com", nil, http.StatusNotFound, nil)
		a.do(t, http.MethodGet, "/api/employees/dashboard?email=bob@x.com&week_starting=2024-13-01", nil, http.StatusBadRequest, nil)
	})
}

func TestDashboardExport(t *testing.T) {
	a := dashboardFixture(t)

	rr := testutil.ExecuteRequest(a.router, testutil.NewHTTPRequest(http.MethodGet, "/api/employees/dashboard/export?email=bob@x.com&week_starting=2024-01-01", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, report.ContentType, rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="timesheet-2-2024-01-01.xlsx"`, rr.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "2024-01-02", rows[5][0])
	assert.Equal(t, "7:00", rows[6][6])

	t.Run("week is required", func(t *testing.T) {
		a.do(t, http.MethodGet, "/api/employees/dashboard/export?email=bob@x.com", nil, http.StatusBadRequest, nil)
	})
}
