package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/store"
)

// NotificationService provides in-app notification operations.
type NotificationService interface {
	// List retrieves the user's notifications, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)

	// UnreadCount returns the number of unread notifications.
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)

	// MarkRead flags one notification as read. Returns ErrNotOwned if the
	// notification belongs to another user.
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error)

	// MarkAllRead flags all of the user's unread notifications as read and
	// returns how many were updated.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationServiceImpl implements the NotificationService interface.
type NotificationServiceImpl struct {
	notifications store.NotificationStore
	logger        *slog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notifications store.NotificationStore, logger *slog.Logger) *NotificationServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationServiceImpl{
		notifications: notifications,
		logger:        logger.With(slog.String("component", "notification_service")),
	}
}

// List retrieves the user's notifications, newest first.
func (s *NotificationServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	notifications, err := s.notifications.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationServiceImpl) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification as read.
func (s *NotificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error) {
	notification, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve notification: %w", err)
	}
	if notification.UserID != userID {
		return nil, ErrNotOwned
	}

	if notification.Read {
		return notification, nil
	}

	notification.MarkRead(time.Now())
	if err := s.notifications.Update(ctx, notification); err != nil {
		s.logger.Error("failed to mark notification read",
			"error", err,
			"notification_id", notificationID)
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return notification, nil
}

// MarkAllRead flags all of the user's unread notifications as read.
func (s *NotificationServiceImpl) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	s.logger.Debug("marked notifications read", "user_id", userID, "count", count)
	return count, nil
}

var _ NotificationService = (*NotificationServiceImpl)(nil)
