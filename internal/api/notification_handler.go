package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/capsule-api/internal/api/shared"
	"github.com/phrazzld/capsule-api/internal/domain"
	"github.com/phrazzld/capsule-api/internal/platform/logger"
	"github.com/phrazzld/capsule-api/internal/service"
)

// NotificationHandler handles in-app notification API requests.
type NotificationHandler struct {
	notificationService service.NotificationService
	logger              *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler with the given
// dependencies.
func NewNotificationHandler(
	notificationService service.NotificationService,
	logger *slog.Logger,
) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger.With(slog.String("component", "notification_handler")),
	}
}

// List handles GET /notifications. The optional read query parameter
// filters to read or unread notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	notifications, err := h.notificationService.List(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notifications")
		return
	}

	if readParam := r.URL.Query().Get("read"); readParam != "" {
		read, err := strconv.ParseBool(readParam)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid read: expected true or false")
			return
		}
		filtered := make([]*domain.Notification, 0, len(notifications))
		for _, n := range notifications {
			if n.Read == read {
				filtered = append(filtered, n)
			}
		}
		notifications = filtered
	}

	shared.RespondWithJSON(w, r, http.StatusOK, notifications)
}

// UnreadCount handles GET /notifications/unread-count.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to count notifications")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UnreadCountResponse{UnreadCount: count})
}

// MarkRead handles POST /notifications/{id}/read. Marking an already-read
// notification succeeds without changing its read time.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, notificationID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkRead(r.Context(), userID, notificationID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, notification)
}

// MarkAllRead handles POST /notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	updated, err := h.notificationService.MarkAllRead(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to mark notifications read")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MarkAllReadResponse{Updated: updated})
}
