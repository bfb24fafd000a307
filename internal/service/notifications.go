package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mmeshcher/cygree/internal/model"
	"github.com/mmeshcher/cygree/internal/validation"
)

// SendNotification отправляет сообщение пользователю to. Пустой уровень важности означает Low.
func (s *Service) SendNotification(ctx context.Context, caller model.Caller, to int64, message, importance string) (*model.Notification, error) {
	msg, err := validation.Message(message)
	if err != nil {
		return nil, err
	}
	level, err := validation.Importance(importance)
	if err != nil {
		return nil, err
	}

	n, err := s.repo.CreateNotification(ctx, to, msg, level)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("notification sent", zap.Int64("from", caller.ID), zap.Int64("to", to), zap.String("importance", string(level)))
	return n, nil
}

// GetNotifications возвращает уведомления вызывающего, новые первыми.
func (s *Service) GetNotifications(ctx context.Context, caller model.Caller) ([]model.Notification, error) {
	return s.repo.GetNotifications(ctx, caller.ID)
}

// MarkNotificationRead отмечает уведомление вызывающего прочитанным.
func (s *Service) MarkNotificationRead(ctx context.Context, caller model.Caller, notificationID int64) error {
	return s.repo.MarkNotificationRead(ctx, caller.ID, notificationID)
}
