package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/justsurfingit/Application-Tracker/internal/models"
)

// InboxStore keeps the watcher's Gmail history cursor and the emails it has
// already looked at.
type InboxStore interface {
	Cursor(ctx context.Context) (uint64, error)
	SaveCursor(ctx context.Context, historyID uint64) error
	IsProcessed(ctx context.Context, id string) (bool, error)
	MarkProcessed(ctx context.Context, id string) error
}

// GormInboxStore is the InboxStore kept in the journal database.
type GormInboxStore struct {
	DB      *gorm.DB
	Mailbox string
}

func NewGormInboxStore(db *gorm.DB) *GormInboxStore {
	return &GormInboxStore{DB: db, Mailbox: inboxMailbox}
}

func (s *GormInboxStore) Cursor(ctx context.Context) (uint64, error) {
	var state models.InboxState
	err := s.DB.WithContext(ctx).Where(models.InboxState{Mailbox: s.Mailbox}).FirstOrCreate(&state).Error
	if err != nil {
		return 0, fmt.Errorf("load inbox state: %w", err)
	}
	return state.LastHistoryID, nil
}

func (s *GormInboxStore) SaveCursor(ctx context.Context, historyID uint64) error {
	err := s.DB.WithContext(ctx).Model(&models.InboxState{}).
		Where("mailbox = ?", s.Mailbox).
		Update("last_history_id", historyID).Error
	if err != nil {
		return fmt.Errorf("save history id: %w", err)
	}
	return nil
}

func (s *GormInboxStore) IsProcessed(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.ProcessedEmail{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check processed email: %w", err)
	}
	return count > 0, nil
}

func (s *GormInboxStore) MarkProcessed(ctx context.Context, id string) error {
	if err := s.DB.WithContext(ctx).Create(&models.ProcessedEmail{ID: id}).Error; err != nil {
		return fmt.Errorf("mark email processed: %w", err)
	}
	return nil
}
