// Package report renders a dashboard week as an Excel workbook.
package report

import (
	"fmt"
	"io"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the single worksheet in the workbook.
const SheetName = "Timesheet"

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var columns = []string{
	"Date", "Day", "Morning In", "Morning Out", "Afternoon In", "Afternoon Out", "Total Hours", "Description",
}

// headerRow is the row holding the column titles. Rows above it carry the
// employee and week.
const headerRow = 5

// Filename is the suggested download name for an employee's week.
func Filename(emp domain.Employee, week domain.Date) string {
	return fmt.Sprintf("timesheet-%d-%s.xlsx", emp.ID, week)
}

// WriteWeek writes view as a workbook to w: one row per daily log followed by
// the week's total.
func WriteWeek(w io.Writer, view *domain.Dashboard, week domain.Date) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	summary := [][]any{
		{"Employee", view.Employee.EmployeeName},
		{"Email", view.Employee.Email},
		{"Week starting", week.String()},
	}
	for i, row := range summary {
		if err := setRow(f, i+1, row, bold); err != nil {
			return err
		}
	}

	titles := make([]any, len(columns))
	for i, c := range columns {
		titles[i] = c
	}
	if err := setRow(f, headerRow, titles, header); err != nil {
		return err
	}

	row := headerRow + 1
	total := 0
	for _, l := range view.DailyLogs {
		hours := ""
		if l.TotalHours != nil {
			hours = *l.TotalHours
			minutes, err := domain.ParseHours(hours)
			if err != nil {
				return err
			}
			total += minutes
		}

		values := []any{
			l.LogDate.String(),
			l.DayOfWeek,
			formatClock(l.MorningIn),
			formatClock(l.MorningOut),
			formatClock(l.AfternoonIn),
			formatClock(l.AfternoonOut),
			hours,
			l.Description,
		}
		if err := setRow(f, row, values, 0); err != nil {
			return err
		}
		row++
	}

	totals := make([]any, len(columns))
	for i := range totals {
		totals[i] = ""
	}
	totals[0] = "Total"
	totals[6] = domain.FormatMinutes(total)
	if err := setRow(f, row, totals, bold); err != nil {
		return err
	}

	if err := f.SetColWidth(SheetName, "A", "G", 14); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(SheetName, "H", "H", 48); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// setRow writes values starting at column A of row. A zero style leaves the
// default.
func setRow(f *excelize.File, row int, values []any, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, first, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	if style == 0 {
		return nil
	}

	last, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, first, last, style)
}

func formatClock(c *domain.ClockTime) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}
