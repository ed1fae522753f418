package events

import (
	"context"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/pkg/logger"
	"github.com/tms/tms-backend/pkg/messaging"
)

// Sink delivers an encoded event. *messaging.Publisher and
// messaging.NopPublisher both satisfy it.
type Sink interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// Publisher publishes timesheet domain events. Failures are logged and never
// returned, so a broker outage cannot fail a committed request.
type Publisher struct {
	sink   Sink
	logger *logger.Logger
}

// NewPublisher wraps sink
func NewPublisher(sink Sink, log *logger.Logger) *Publisher {
	return &Publisher{sink: sink, logger: log.WithComponent("events")}
}

// NewRabbitPublisher declares the timesheet exchange on rmq and publishes to it
func NewRabbitPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*Publisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeTimesheetEvents, "timesheet-service", log)
	if err != nil {
		return nil, err
	}
	return NewPublisher(publisher, log), nil
}

// EmployeeCreated publishes an employee created event
func (p *Publisher) EmployeeCreated(ctx context.Context, emp *domain.Employee) {
	p.publish(ctx, messaging.EventEmployeeCreated, emp.ID, messaging.EmployeeCreatedEvent{
		EmployeeID:   emp.ID,
		EmployeeName: emp.EmployeeName,
		Email:        emp.Email,
		ManagerID:    emp.ManagerID,
	})
}

// EmployeeUpdated publishes the fields that changed
func (p *Publisher) EmployeeUpdated(ctx context.Context, emp *domain.Employee, fields map[string]any) {
	if len(fields) == 0 {
		return
	}
	p.publish(ctx, messaging.EventEmployeeUpdated, emp.ID, messaging.EmployeeUpdatedEvent{
		EmployeeID: emp.ID,
		Fields:     fields,
	})
}

// EmployeeDeleted publishes an employee deleted event
func (p *Publisher) EmployeeDeleted(ctx context.Context, emp *domain.Employee, reassigned []int64) {
	p.publish(ctx, messaging.EventEmployeeDeleted, emp.ID, messaging.EmployeeDeletedEvent{
		EmployeeID:            emp.ID,
		Email:                 emp.Email,
		ReassignedEmployeeIDs: reassigned,
	})
}

// TimesheetCreated publishes a timesheet created event
func (p *Publisher) TimesheetCreated(ctx context.Context, ts *domain.Timesheet) {
	p.publish(ctx, messaging.EventTimesheetCreated, ts.ID, messaging.TimesheetCreatedEvent{
		TimesheetID:  ts.ID,
		EmployeeID:   ts.EmployeeID,
		WeekStarting: ts.WeekStarting.String(),
	})
}

// DailyLogSaved publishes a daily log saved event
func (p *Publisher) DailyLogSaved(ctx context.Context, l *domain.DailyLog, created bool) {
	p.publish(ctx, messaging.EventDailyLogSaved, l.ID, messaging.DailyLogSavedEvent{
		DailyLogID:  l.ID,
		TimesheetID: l.TimesheetID,
		LogDate:     l.LogDate.String(),
		TotalHours:  l.TotalHours,
		Created:     created,
	})
}

// DescriptionChanged publishes an audit entry event
func (p *Publisher) DescriptionChanged(ctx context.Context, c *domain.DailyLogChange) {
	p.publish(ctx, messaging.EventDailyLogDescriptionChanged, c.ID, messaging.DailyLogDescriptionChangedEvent{
		ChangeID:       c.ID,
		DailyLogID:     c.DailyLogID,
		NewDescription: c.NewDescription,
	})
}

func (p *Publisher) publish(ctx context.Context, eventType string, id int64, data any) {
	if err := p.sink.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Int64("id", id).Msg("failed to publish event")
	}
}
