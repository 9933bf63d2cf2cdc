package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"account-ledger-api/internal/model"
)

// NotificationStore persists the per-user inbox
type NotificationStore interface {
	Create(ctx context.Context, notification *model.Notification) (*model.Notification, error)
	ListUnread(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// NotificationService manages user notifications
type NotificationService struct {
	store  NotificationStore
	logger *logrus.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(store NotificationStore, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		store:  store,
		logger: logger,
	}
}

// Notify appends an unread message to a user's inbox
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, message string) (*model.Notification, error) {
	notification, err := s.store.Create(ctx, &model.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Message: message,
	})
	if err != nil {
		return nil, internalError("Error creating notification", err)
	}
	return notification, nil
}

// ListUnread returns a user's unread notifications, newest first
func (s *NotificationService) ListUnread(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	notifications, err := s.store.ListUnread(ctx, userID)
	if err != nil {
		return nil, internalError("Error fetching notifications", err)
	}
	return notifications, nil
}

// MarkAllRead marks every unread notification of a user as read. Calling it again is a no-op.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	updated, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, internalError("Error updating notifications", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"updated": updated,
	}).Debug("Notifications marked as read")
	return updated, nil
}
