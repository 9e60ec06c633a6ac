package services

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"portfolio/internal/domain"
)

// MessageService manages stored contact messages for the admin panel
type MessageService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewMessageService creates a new message service
func NewMessageService(db *gorm.DB, log *zap.Logger) *MessageService {
	return &MessageService{db: db, log: log.Named("messages")}
}

// List returns all messages, newest first
func (s *MessageService) List(ctx context.Context) ([]domain.ContactMessage, error) {
	var messages []domain.ContactMessage
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&messages).Error; err != nil {
		return nil, NewInternalError("failed to fetch messages", err)
	}
	return messages, nil
}

// Recent returns the newest limit messages
func (s *MessageService) Recent(ctx context.Context, limit int) ([]domain.ContactMessage, error) {
	var messages []domain.ContactMessage
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, NewInternalError("failed to fetch messages", err)
	}
	return messages, nil
}

// Get returns one message without changing its read flag
func (s *MessageService) Get(ctx context.Context, id uint) (*domain.ContactMessage, error) {
	var msg domain.ContactMessage
	if err := s.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, lookupError("message", err)
	}
	return &msg, nil
}

// View returns one message and marks it read
func (s *MessageService) View(ctx context.Context, id uint) (*domain.ContactMessage, error) {
	msg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !msg.Read {
		if err := s.markRead(ctx, msg.ID); err != nil {
			return nil, err
		}
		msg.Read = true
	}
	return msg, nil
}

// MarkRead sets the read flag. The flag is never cleared.
func (s *MessageService) MarkRead(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.markRead(ctx, id)
}

func (s *MessageService) markRead(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Model(&domain.ContactMessage{}).Where("id = ?", id).Update("read", true).Error
	if err != nil {
		return NewInternalError("failed to mark message as read", err)
	}
	return nil
}

// Delete removes a message
func (s *MessageService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&domain.ContactMessage{}, id)
	if res.Error != nil {
		return NewInternalError("failed to delete message", res.Error)
	}
	if res.RowsAffected == 0 {
		return NewNotFoundError("message not found")
	}
	s.log.Info("message deleted", zap.Uint("id", id))
	return nil
}

// Counts returns the total and unread message counts. The read column is
// addressed through a map condition so it is quoted on MySQL, where READ is
// reserved.
func (s *MessageService) Counts(ctx context.Context) (total, unread int64, err error) {
	if err = s.db.WithContext(ctx).Model(&domain.ContactMessage{}).Count(&total).Error; err != nil {
		return 0, 0, NewInternalError("failed to count messages", err)
	}
	if err = s.db.WithContext(ctx).Model(&domain.ContactMessage{}).Where(map[string]interface{}{"read": false}).Count(&unread).Error; err != nil {
		return 0, 0, NewInternalError("failed to count unread messages", err)
	}
	return total, unread, nil
}
