package service

import (
	"context"

	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/logger"
	"agricoop-backend/internal/repository"
)

type notificationService struct {
	store repository.Store
	push  PushSender
}

func NewNotificationService(store repository.Store, push PushSender) NotificationService {
	return &notificationService{store: store, push: push}
}

// Notify persists an in-app notification and fans out a push message. Both
// writes are best-effort: a failure here must never fail the operation that
// triggered it.
func (s *notificationService) Notify(ctx context.Context, userID, orgID int32, kind, title, message string) {
	note := &domain.Notification{
		UserID:  userID,
		OrgID:   orgID,
		Type:    kind,
		Title:   title,
		Message: message,
	}
	if err := s.store.Repos().Notifications.Create(ctx, note); err != nil {
		logger.Warn("failed to persist notification", "user_id", userID, "type", kind, "error", err)
	}
	if s.push == nil {
		return
	}
	logger.ExternalServiceCall("push", "send", "user_id", userID, "type", kind)
	err := s.push.Send(ctx, userID, title, message, map[string]string{"type": kind})
	logger.ExternalServiceResult("push", "send", err, "user_id", userID)
}

func (s *notificationService) List(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 25
	}
	offset := (page - 1) * pageSize
	return s.store.Repos().Notifications.List(ctx, userID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	return s.store.Repos().Notifications.MarkAsRead(ctx, notificationID, userID)
}
