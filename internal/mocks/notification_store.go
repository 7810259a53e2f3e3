package mocks

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/store"
)

// MockNotificationStore implements store.NotificationStore for testing.
type MockNotificationStore struct {
	CreateFn      func(ctx context.Context, notification *domain.Notification) error
	GetByIDFn     func(ctx context.Context, id uuid.UUID) (*domain.Notification, error)
	ListByUserFn  func(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error)
	CountUnreadFn func(ctx context.Context, userID uuid.UUID) (int, error)
	UpdateFn      func(ctx context.Context, notification *domain.Notification) error
	MarkAllReadFn func(ctx context.Context, userID uuid.UUID) (int, error)

	// Notifications backs the default in-memory behavior, keyed by ID.
	Notifications map[uuid.UUID]*domain.Notification
}

// NewMockNotificationStore creates a mock store with an empty map.
func NewMockNotificationStore() *MockNotificationStore {
	return &MockNotificationStore{Notifications: make(map[uuid.UUID]*domain.Notification)}
}

func (m *MockNotificationStore) Create(ctx context.Context, notification *domain.Notification) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, notification)
	}
	m.Notifications[notification.ID] = notification
	return nil
}

func (m *MockNotificationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	notification, exists := m.Notifications[id]
	if !exists {
		return nil, store.ErrNotificationNotFound
	}
	return notification, nil
}

func (m *MockNotificationStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID)
	}
	var notifications []*domain.Notification
	for _, notification := range m.Notifications {
		if notification.UserID == userID {
			notifications = append(notifications, notification)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

func (m *MockNotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.CountUnreadFn != nil {
		return m.CountUnreadFn(ctx, userID)
	}
	count := 0
	for _, notification := range m.Notifications {
		if notification.UserID == userID && !notification.Read {
			count++
		}
	}
	return count, nil
}

func (m *MockNotificationStore) Update(ctx context.Context, notification *domain.Notification) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, notification)
	}
	if _, exists := m.Notifications[notification.ID]; !exists {
		return store.ErrNotificationNotFound
	}
	m.Notifications[notification.ID] = notification
	return nil
}

func (m *MockNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.MarkAllReadFn != nil {
		return m.MarkAllReadFn(ctx, userID)
	}
	count := 0
	now := time.Now()
	for _, notification := range m.Notifications {
		if notification.UserID == userID && !notification.Read {
			notification.MarkRead(now)
			count++
		}
	}
	return count, nil
}

// WithTx returns the same mock; transactions are not simulated.
func (m *MockNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return m
}

var _ store.NotificationStore = (*MockNotificationStore)(nil)
