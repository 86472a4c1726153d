package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/justsurfingit/Application-Tracker/internal/models"
)

// Journal keeps a history of what each submission did to the sheet.
type Journal interface {
	Record(ctx context.Context, source string, c *models.Candidate, o *models.Outcome) error
	Recent(ctx context.Context, limit int) ([]models.ApplicationEvent, error)
}

type JournalService struct {
	DB *gorm.DB
}

func NewJournalService(db *gorm.DB) *JournalService {
	return &JournalService{DB: db}
}

func (s *JournalService) Record(ctx context.Context, source string, c *models.Candidate, o *models.Outcome) error {
	event := newEvent(source, c, o)
	if err := s.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("journal event: %w", err)
	}
	return nil
}

func (s *JournalService) Recent(ctx context.Context, limit int) ([]models.ApplicationEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.ApplicationEvent
	err := s.DB.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&events).Error
	return events, err
}

func newEvent(source string, c *models.Candidate, o *models.Outcome) models.ApplicationEvent {
	headers := make([]string, 0, len(o.Cells))
	details := make([]string, 0, len(o.Cells))
	for _, cell := range o.Cells {
		headers = append(headers, cell.Header)
		details = append(details, fmt.Sprintf("%s=%s", cell.Header, cell.Value))
	}
	return models.ApplicationEvent{
		ID:       uuid.NewString(),
		Source:   source,
		Company:  c.Company(),
		JobTitle: c.JobTitle(),
		Kind:     string(o.Kind),
		Row:      o.Row,
		Headers:  strings.Join(headers, ","),
		Details:  strings.Join(details, "; "),
	}
}

// NopJournal is used when no database is configured.
type NopJournal struct{}

func (NopJournal) Record(context.Context, string, *models.Candidate, *models.Outcome) error {
	return nil
}

func (NopJournal) Recent(context.Context, int) ([]models.ApplicationEvent, error) {
	return nil, nil
}
