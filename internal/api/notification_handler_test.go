package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/service"
)

func testNotification(userID uuid.UUID, read bool) *domain.Notification {
	n, _ := domain.NewNotification(userID, nil, "A capsule was sealed.", domain.NotificationCapsuleCreated)
	if read {
		n.MarkRead(time.Now())
	}
	return n
}

func TestNotificationHandlerList(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := &mockNotificationService{
		ListFn: func(ctx context.Context, gotUser uuid.UUID) ([]*domain.Notification, error) {
			assert.Equal(t, userID, gotUser)
			return []*domain.Notification{
				testNotification(userID, true),
				testNotification(userID, false),
			}, nil
		},
	}
	handler := NewNotificationHandler(svc, nil)

	t.Run("lists everything without a filter", func(t *testing.T) {
		t.Parallel()
		req := authenticatedRequest(
			httptest.NewRequest(http.MethodGet, "/api/notifications", nil), userID)
		recorder := httptest.NewRecorder()
		handler.List(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)

		var notifications []*domain.Notification
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &notifications))
		assert.Len(t, notifications, 2)
	})

	t.Run("filters unread", func(t *testing.T) {
		t.Parallel()
		req := authenticatedRequest(
			httptest.NewRequest(http.MethodGet, "/api/notifications?read=false", nil), userID)
		recorder := httptest.NewRecorder()
		handler.List(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)

		var notifications []*domain.Notification
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &notifications))
		require.Len(t, notifications, 1)
		assert.False(t, notifications[0].Read)
	})

	t.Run("rejects a malformed filter", func(t *testing.T) {
		t.Parallel()
		req := authenticatedRequest(
			httptest.NewRequest(http.MethodGet, "/api/notifications?read=maybe", nil), userID)
		recorder := httptest.NewRecorder()
		handler.List(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestNotificationHandlerUnreadCount(t *testing.T) {
	t.Parallel()

	svc := &mockNotificationService{
		UnreadCountFn: func(ctx context.Context, userID uuid.UUID) (int, error) {
			return 3, nil
		},
	}
	handler := NewNotificationHandler(svc, nil)

	req := authenticatedRequest(
		httptest.NewRequest(http.MethodGet, "/api/notifications/unread-count", nil), uuid.New())
	recorder := httptest.NewRecorder()
	handler.UnreadCount(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp UnreadCountResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.UnreadCount)
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	t.Parallel()

	newRouter := func(svc service.NotificationService) http.Handler {
		handler := NewNotificationHandler(svc, nil)
		r := chi.NewRouter()
		r.Post("/api/notifications/{id}/read", handler.MarkRead)
		return r
	}

	t.Run("marks and returns the notification", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		notification := testNotification(userID, false)
		svc := &mockNotificationService{
			MarkReadFn: func(ctx context.Context, gotUser, notificationID uuid.UUID) (*domain.Notification, error) {
				assert.Equal(t, notification.ID, notificationID)
				notification.MarkRead(time.Now())
				return notification, nil
			},
		}

		req := authenticatedRequest(httptest.NewRequest(
			http.MethodPost, "/api/notifications/"+notification.ID.String()+"/read", nil), userID)
		recorder := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)

		var resp domain.Notification
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.True(t, resp.Read)
	})

	t.Run("foreign notification reads as not found", func(t *testing.T) {
		t.Parallel()
		svc := &mockNotificationService{
			MarkReadFn: func(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error) {
				return nil, service.ErrNotOwned
			},
		}

		req := authenticatedRequest(httptest.NewRequest(
			http.MethodPost, "/api/notifications/"+uuid.New().String()+"/read", nil), uuid.New())
		recorder := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestNotificationHandlerMarkAllRead(t *testing.T) {
	t.Parallel()

	svc := &mockNotificationService{
		MarkAllReadFn: func(ctx context.Context, userID uuid.UUID) (int, error) {
			return 4, nil
		},
	}
	handler := NewNotificationHandler(svc, nil)

	req := authenticatedRequest(
		httptest.NewRequest(http.MethodPost, "/api/notifications/read-all", nil), uuid.New())
	recorder := httptest.NewRecorder()
	handler.MarkAllRead(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp MarkAllReadResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Updated)
}
