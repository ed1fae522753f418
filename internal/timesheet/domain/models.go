// Package domain holds the timesheet entities and the rules that derive their
// computed fields.
package domain

import "time"

// Employee is a person who files timesheets. ManagerID is a nullable
// reference to another employee.
type Employee struct {
	ID           int64     `db:"id" json:"id"`
	EmployeeName string    `db:"employee_name" json:"employee_name"`
	Email        string    `db:"email" json:"email"`
	ManagerID    *int64    `db:"manager_id" json:"manager_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Timesheet groups the daily logs of one employee for one week.
// (EmployeeID, WeekStarting) is unique.
type Timesheet struct {
	ID           int64     `db:"id" json:"id"`
	EmployeeID   int64     `db:"employee_id" json:"employee_id"`
	WeekStarting Date      `db:"week_starting" json:"week_starting"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// WeekEnd is the last day covered by the timesheet.
func (t Timesheet) WeekEnd() Date {
	return t.WeekStarting.AddDays(6)
}

// Covers reports whether d falls inside the timesheet's week.
func (t Timesheet) Covers(d Date) bool {
	return !d.Before(t.WeekStarting.Time) && !d.After(t.WeekEnd().Time)
}

// DailyLog is one day of attendance. DayOfWeek and TotalHours are derived;
// call Recompute after changing LogDate or any clock field.
type DailyLog struct {
	ID           int64      `db:"id" json:"id"`
	TimesheetID  int64      `db:"timesheet_id" json:"timesheet_id"`
	LogDate      Date       `db:"log_date" json:"log_date"`
	DayOfWeek    string     `db:"day_of_week" json:"day_of_week"`
	MorningIn    *ClockTime `db:"morning_in" json:"morning_in"`
	MorningOut   *ClockTime `db:"morning_out" json:"morning_out"`
	AfternoonIn  *ClockTime `db:"afternoon_in" json:"afternoon_in"`
	AfternoonOut *ClockTime `db:"afternoon_out" json:"afternoon_out"`
	TotalHours   *string    `db:"total_hours" json:"total_hours"`
	Description  string     `db:"description" json:"description"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Recompute derives DayOfWeek from LogDate and TotalHours from the clock fields.
func (l *DailyLog) Recompute() error {
	total, err := TotalHours(l.MorningIn, l.MorningOut, l.AfternoonIn, l.AfternoonOut)
	if err != nil {
		return err
	}
	l.DayOfWeek = DayOfWeek(l.LogDate)
	l.TotalHours = total
	return nil
}

// DailyLogChange is an audit entry recording a new description for a daily log.
type DailyLogChange struct {
	ID             int64     `db:"id" json:"id"`
	DailyLogID     int64     `db:"daily_log_id" json:"daily_log_id"`
	NewDescription string    `db:"new_description" json:"new_description"`
	ChangedAt      time.Time `db:"changed_at" json:"changed_at"`
}

// TreeNode is an employee with the subtree of their direct reports.
type TreeNode struct {
	Employee
	Subordinates []*TreeNode `json:"subordinates"`
}

// Dashboard is the read-only view of one employee's profile, manager chain
// and the timesheets and logs of one week.
type Dashboard struct {
	Employee         Employee    `json:"employee"`
	ManagerHierarchy []Employee  `json:"manager_hierarchy"`
	Timesheets       []Timesheet `json:"timesheets"`
	DailyLogs        []DailyLog  `json:"daily_logs"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
