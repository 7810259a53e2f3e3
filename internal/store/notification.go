package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/capsule-api/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
type NotificationStore interface {
	// Create saves a new notification to the store.
	Create(ctx context.Context, notification *domain.Notification) error

	// GetByID retrieves a notification by its unique ID.
	// Returns ErrNotificationNotFound if the notification does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)

	// ListByUser retrieves a user's notifications, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)

	// CountUnread returns the number of unread notifications for a user.
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// Update modifies an existing notification's read state.
	// Returns ErrNotificationNotFound if the notification does not exist.
	Update(ctx context.Context, notification *domain.Notification) error

	// MarkAllRead flags every unread notification of the user as read at
	// the given time and returns the number of rows affected.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)

	// WithTx returns a new NotificationStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) NotificationStore
}
