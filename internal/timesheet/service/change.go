package service

import (
	"context"

	"github.com/tms/tms-backend/internal/timesheet/domain"
	"github.com/tms/tms-backend/internal/timesheet/events"
	"github.com/tms/tms-backend/pkg/errors"
	"github.com/tms/tms-backend/pkg/logger"
)

// ChangeService handles the audit trail of daily log descriptions
type ChangeService struct {
	tx        Transactor
	logs      DailyLogStore
	changes   ChangeStore
	publisher *events.Publisher
	logger    *logger.Logger
}

// NewChangeService creates a new change service
func NewChangeService(
	tx Transactor,
	logs DailyLogStore,
	changes ChangeStore,
	publisher *events.Publisher,
	log *logger.Logger,
) *ChangeService {
	return &ChangeService{
		tx:        tx,
		logs:      logs,
		changes:   changes,
		publisher: publisher,
		logger:    log.WithComponent("change_service"),
	}
}

// Add appends an audit entry to a daily log
func (s *ChangeService) Add(ctx context.Context, dailyLogID int64, newDescription string) (*domain.DailyLogChange, error) {
	text, err := sanitizeChange(newDescription)
	if err != nil {
		return nil, err
	}

	change := &domain.DailyLogChange{DailyLogID: dailyLogID, NewDescription: text}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.logs.GetByID(ctx, dailyLogID); err != nil {
			return err
		}
		return s.changes.Create(ctx, change)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.DescriptionChanged(ctx, change)

	return change, nil
}

// Get gets an audit entry by ID
func (s *ChangeService) Get(ctx context.Context, id int64) (*domain.DailyLogChange, error) {
	return s.changes.GetByID(ctx, id)
}

// List lists all audit entries
func (s *ChangeService) List(ctx context.Context) ([]domain.DailyLogChange, error) {
	return s.changes.List(ctx)
}

// ListForLog lists a daily log's audit entries, oldest first
func (s *ChangeService) ListForLog(ctx context.Context, dailyLogID int64) ([]domain.DailyLogChange, error) {
	if _, err := s.logs.GetByID(ctx, dailyLogID); err != nil {
		return nil, err
	}
	return s.changes.ListByDailyLog(ctx, dailyLogID)
}

// Update corrects the text of an audit entry. Its timestamp is kept.
func (s *ChangeService) Update(ctx context.Context, id int64, newDescription string) (*domain.DailyLogChange, error) {
	text, err := sanitizeChange(newDescription)
	if err != nil {
		return nil, err
	}

	var change *domain.DailyLogChange
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		change, err = s.changes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		change.NewDescription = text
		return s.changes.Update(ctx, change)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("change_id", id).Msg("audit entry corrected")

	return change, nil
}

// Delete deletes an audit entry
func (s *ChangeService) Delete(ctx context.Context, id int64) error {
	return s.changes.Delete(ctx, id)
}

func sanitizeChange(s string) (string, error) {
	text := domain.SanitizeDescription(s)
	if text == "" {
		return "", errors.Invalid("new_description", "this field is required")
	}
	return text, nil
}
