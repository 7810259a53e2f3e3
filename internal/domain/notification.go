package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotificationKind categorizes in-app notifications.
type NotificationKind string

// Possible notification kind values
const (
	NotificationCapsuleCreated   NotificationKind = "capsule_created"
	NotificationDeliverySuccess  NotificationKind = "delivery_success"
	NotificationDeliveryFail     NotificationKind = "delivery_fail"
	NotificationNewSharedCapsule NotificationKind = "new_shared_capsule"
	NotificationCapsuleOpened    NotificationKind = "capsule_opened"
	NotificationReminder         NotificationKind = "reminder"
	NotificationSystemAlert      NotificationKind = "system_alert"
	NotificationTransfer         NotificationKind = "transfer_notification"
)

// Notification-specific validation errors
var (
	ErrEmptyNotificationID     = errors.New("notification ID cannot be empty")
	ErrEmptyNotificationUserID = errors.New("notification user ID cannot be empty")
	ErrEmptyNotificationText   = errors.New("notification message cannot be empty")
	ErrInvalidNotificationKind = errors.New("invalid notification kind")
)

// Notification is an in-app message shown to a user, usually tied to a
// capsule lifecycle event. CapsuleID is nil for notifications that outlive
// their capsule (for example deletion alerts).
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	CapsuleID *uuid.UUID       `json:"capsule_id,omitempty"`
	Message   string           `json:"message"`
	Kind      NotificationKind `json:"kind"`
	Read      bool             `json:"read"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewNotification creates an unread Notification for the given user.
// capsuleID may be nil. Returns an error if validation fails.
func NewNotification(
	userID uuid.UUID,
	capsuleID *uuid.UUID,
	message string,
	kind NotificationKind,
) (*Notification, error) {
	notification := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		CapsuleID: capsuleID,
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}

	if err := notification.Validate(); err != nil {
		return nil, err
	}

	return notification, nil
}

// Validate checks if the Notification has valid data.
// Returns an error if any field fails validation.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrEmptyNotificationID
	}

	if n.UserID == uuid.Nil {
		return ErrEmptyNotificationUserID
	}

	if n.Message == "" {
		return ErrEmptyNotificationText
	}

	if !isValidNotificationKind(n.Kind) {
		return ErrInvalidNotificationKind
	}

	return nil
}

// MarkRead flags the notification as read at the given time. Calling it on
// an already-read notification is a no-op.
func (n *Notification) MarkRead(at time.Time) {
	if n.Read {
		return
	}
	n.Read = true
	t := at.UTC()
	n.ReadAt = &t
}

// isValidNotificationKind checks if the given kind is a valid NotificationKind.
func isValidNotificationKind(k NotificationKind) bool {
	switch k {
	case NotificationCapsuleCreated, NotificationDeliverySuccess,
		NotificationDeliveryFail, NotificationNewSharedCapsule,
		NotificationCapsuleOpened, NotificationReminder,
		NotificationSystemAlert, NotificationTransfer:
		return true
	default:
		return false
	}
}
