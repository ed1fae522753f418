package report_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/report"
	"github.com/xuri/excelize/v2"
)

func clock(h, m int) *domain.ClockTime {
	c := domain.Clock(h, m)
	return &c
}

func TestWriteWeek(t *testing.T) {
	week := domain.MustDate("2024-01-01")
	view := &domain.Dashboard{
		Employee: domain.Employee{ID: 1, EmployeeName: "Alice", Email: "a@x.com"},
		DailyLogs: []domain.DailyLog{
			{
				LogDate:      domain.MustDate("2024-01-02"),
				DayOfWeek:    "Tuesday",
				MorningIn:    clock(9, 0),
				MorningOut:   clock(12, 0),
				AfternoonIn:  clock(13, 0),
				AfternoonOut: clock(17, 0),
				TotalHours:   domain.Ptr("7:00"),
				Description:  "standup",
			},
			{
				LogDate:    domain.MustDate("2024-01-03"),
				DayOfWeek:  "Wednesday",
				MorningIn:  clock(8, 30),
				MorningOut: clock(12, 15),
				TotalHours: domain.Ptr("3:45"),
			},
			{
				LogDate:   domain.MustDate("2024-01-04"),
				DayOfWeek: "Thursday",
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteWeek(&buf, view, week))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 9)

	assert.Equal(t, []string{"Employee", "Alice"}, rows[0])
	assert.Equal(t, []string{"Week starting", "2024-01-01"}, rows[2])
	assert.Equal(t, "Date", rows[4][0])
	assert.Equal(t, []string{"2024-01-02", "Tuesday", "09:00", "12:00", "13:00", "17:00", "7:00", "standup"}, rows[5])
	assert.Equal(t, "08:30", rows[6][2])
	assert.Equal(t, "Thursday", rows[7][1])

	total, err := f.GetCellValue(report.SheetName, "G9")
	require.NoError(t, err)
	assert.Equal(t, "10:45", total)
	label, err := f.GetCellValue(report.SheetName, "A9")
	require.NoError(t, err)
	assert.Equal(t, "Total", label)
}

func TestWriteWeek_Empty(t *testing.T) {
	view := &domain.Dashboard{Employee: domain.Employee{ID: 3, EmployeeName: "Bob", Email: "b@x.com"}}

	var buf bytes.Buffer
	require.NoError(t, report.WriteWeek(&buf, view, domain.MustDate("2024-01-08")))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	total, err := f.GetCellValue(report.SheetName, "G6")
	require.NoError(t, err)
	assert.Equal(t, "0:00", total)
}

func TestFilename(t *testing.T) {
	name := report.Filename(domain.Employee{ID: 7}, domain.MustDate("2024-01-01"))
	assert.Equal(t, "timesheet-7-2024-01-01.xlsx", name)
}
