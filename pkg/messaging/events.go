package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventEmployeeCreated = "timesheet.employee.created"
	EventEmployeeUpdated = "timesheet.employee.updated"
	EventEmployeeDeleted = "timesheet.employee.deleted"

	EventTimesheetCreated = "timesheet.timesheet.created"

	EventDailyLogSaved              = "timesheet.daily_log.saved"
	EventDailyLogDescriptionChanged = "timesheet.daily_log.description_changed"
)

// ExchangeTimesheetEvents is the topic exchange all timesheet events go to
const ExchangeTimesheetEvents = "timesheet.events"

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data any) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v any) error {
	return json.Unmarshal(e.Data, v)
}

// EmployeeCreatedEvent is published when an employee is created
type EmployeeCreatedEvent struct {
	EmployeeID   int64  `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Email        string `json:"email"`
	ManagerID    *int64 `json:"manager_id,omitempty"`
}

// EmployeeUpdatedEvent is published when an employee is updated
type EmployeeUpdatedEvent struct {
	EmployeeID int64          `json:"employee_id"`
	Fields     map[string]any `json:"fields"`
}

// EmployeeDeletedEvent is published when an employee is deleted
type EmployeeDeletedEvent struct {
	EmployeeID            int64   `json:"employee_id"`
	Email                 string  `json:"email"`
	ReassignedEmployeeIDs []int64 `json:"reassigned_employee_ids,omitempty"`
}

// TimesheetCreatedEvent is published when a timesheet row is inserted
type TimesheetCreatedEvent struct {
	TimesheetID  int64  `json:"timesheet_id"`
	EmployeeID   int64  `json:"employee_id"`
	WeekStarting string `json:"week_starting"`
}

// DailyLogSavedEvent is published when a daily log is created or updated
type DailyLogSavedEvent struct {
	DailyLogID  int64   `json:"daily_log_id"`
	TimesheetID int64   `json:"timesheet_id"`
	LogDate     string  `json:"log_date"`
	TotalHours  *string `json:"total_hours,omitempty"`
	Created     bool    `json:"created"`
}

// DailyLogDescriptionChangedEvent is published when an audit entry is recorded
type DailyLogDescriptionChangedEvent struct {
	ChangeID       int64  `json:"change_id"`
	DailyLogID     int64  `json:"daily_log_id"`
	NewDescription string `json:"new_description"`
}
